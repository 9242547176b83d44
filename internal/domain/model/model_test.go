package model_test

import (
	"testing"
	"time"

	model "github.com/okian/leaguestats/internal/domain/model"
	"github.com/okian/leaguestats/internal/domain/tier"
	"github.com/smartystreets/goconvey/convey"
)

func f(v float64) *float64 { return &v }

func TestPlayerValue(t *testing.T) {
	convey.Convey("Given a player with apm and pps but no vs", t, func() {
		p := model.Player{ID: "p1", Username: "osk", League: model.League{APM: f(120), PPS: f(2.5)}}

		convey.Convey("Then Value resolves each metric", func() {
			convey.So(*p.Value(model.APM), convey.ShouldEqual, 120)
			convey.So(*p.Value(model.PPS), convey.ShouldEqual, 2.5)
			convey.So(p.Value(model.VS), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given metric names", t, func() {
		convey.So(model.APM.String(), convey.ShouldEqual, "apm")
		convey.So(model.PPS.String(), convey.ShouldEqual, "pps")
		convey.So(model.VS.String(), convey.ShouldEqual, "vs")
		convey.So(model.Metric(9).String(), convey.ShouldEqual, "unknown")
	})
}

func TestSnapshotSetMetric(t *testing.T) {
	convey.Convey("Given an empty snapshot", t, func() {
		var s model.Snapshot
		lo := &model.Holder{ID: "a", Name: "a", Value: 1}
		hi := &model.Holder{ID: "b", Name: "b", Value: 3}

		convey.Convey("When setting pps stats", func() {
			s.SetMetric(model.PPS, f(2), lo, hi)

			convey.Convey("Then only pps fields are populated", func() {
				convey.So(*s.Average(model.PPS), convey.ShouldEqual, 2)
				convey.So(s.Minimum(model.PPS), convey.ShouldEqual, lo)
				convey.So(s.Maximum(model.PPS), convey.ShouldEqual, hi)
				convey.So(s.Average(model.APM), convey.ShouldBeNil)
				convey.So(s.MinimumVSPlayer, convey.ShouldBeNil)
			})
		})
	})
}

func TestCollectionAppend(t *testing.T) {
	convey.Convey("Given a stored collection with an s snapshot", t, func() {
		old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		stored := model.Collection{{Name: tier.S, PlayerCount: 10, UpdatedAt: old}}

		convey.Convey("When appending a fresh s and x snapshot", func() {
			now := old.Add(72 * time.Hour)
			fresh := map[tier.Tier]model.Snapshot{
				tier.S: {Name: tier.S, PlayerCount: 12, UpdatedAt: now},
				tier.X: {Name: tier.X, PlayerCount: 1, UpdatedAt: now},
			}
			out := stored.Append(fresh, tier.All())

			convey.Convey("Then both s snapshots are kept and fresh ones follow tier order", func() {
				convey.So(len(out), convey.ShouldEqual, 3)
				convey.So(out[0].UpdatedAt, convey.ShouldEqual, old)
				convey.So(out[1].Name, convey.ShouldEqual, tier.X)
				convey.So(out[2].Name, convey.ShouldEqual, tier.S)
				convey.So(len(out.ByTier(tier.S)), convey.ShouldEqual, 2)
			})

			convey.Convey("Then the stored collection is untouched", func() {
				convey.So(len(stored), convey.ShouldEqual, 1)
			})
		})
	})
}
