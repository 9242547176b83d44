package tier_test

import (
	"errors"
	"testing"

	"github.com/okian/leaguestats/internal/domain/tier"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaultTable(t *testing.T) {
	Convey("Given the default percentile table", t, func() {
		table := tier.DefaultTable()

		Convey("Then it lists every ranked tier best first", func() {
			So(len(table), ShouldEqual, 17)
			So(table[0].Tier, ShouldEqual, tier.X)
			So(table[0].Percentile, ShouldEqual, 1)
			So(table[len(table)-1].Tier, ShouldEqual, tier.D)
			So(table[len(table)-1].Percentile, ShouldEqual, 100)
		})

		Convey("Then percentiles are strictly increasing", func() {
			for i := 1; i < len(table); i++ {
				So(table[i].Percentile, ShouldBeGreaterThan, table[i-1].Percentile)
			}
		})

		Convey("Then d+ keeps its fractional percentile", func() {
			p, ok := table.Percentile(tier.DPlus)
			So(ok, ShouldBeTrue)
			So(p, ShouldEqual, 97.5)
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Given rank labels", t, func() {
		Convey("When the label is a ranked tier", func() {
			tr, err := tier.Parse("s+")
			So(err, ShouldBeNil)
			So(tr, ShouldEqual, tier.SPlus)
		})

		Convey("When the label is unranked", func() {
			_, err := tier.Parse("z")
			So(errors.Is(err, tier.ErrUnknownTier), ShouldBeTrue)
		})
	})
}

func TestWithOverrides(t *testing.T) {
	Convey("Given percentile overrides", t, func() {
		Convey("When overriding a known tier", func() {
			table, err := tier.WithOverrides(map[string]float64{"x": 2})
			So(err, ShouldBeNil)
			p, _ := table.Percentile(tier.X)
			So(p, ShouldEqual, 2)
			p, _ = table.Percentile(tier.U)
			So(p, ShouldEqual, 5)
		})

		Convey("When overriding an unknown tier", func() {
			_, err := tier.WithOverrides(map[string]float64{"z": 2})
			So(errors.Is(err, tier.ErrUnknownTier), ShouldBeTrue)
		})

		Convey("When the percentile is out of range", func() {
			_, err := tier.WithOverrides(map[string]float64{"x": 120})
			So(errors.Is(err, tier.ErrInvalidPercentile), ShouldBeTrue)
		})

		Convey("Then the default table is not mutated", func() {
			_, _ = tier.WithOverrides(map[string]float64{"x": 3})
			p, _ := tier.DefaultTable().Percentile(tier.X)
			So(p, ShouldEqual, 1)
		})
	})
}
