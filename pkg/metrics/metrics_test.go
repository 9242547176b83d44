package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func f(v float64) *float64 { return &v }

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "leaguestats")
			})
		})

		Convey("When creating with custom options", func() {
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("sub"),
				WithHistogramBuckets([]float64{1, 2}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "sub")
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 2})
				So(manager.constLabels["env"], ShouldEqual, "test")
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When recording runs", func() {
			m.RecordRun(OutcomeSuccess, 1.5, 1700000000)
			m.RecordRun(OutcomeFailure, 0.2, 1700000100)

			Convey("Then outcomes are counted separately", func() {
				So(testutil.ToFloat64(m.runs.WithLabelValues(OutcomeSuccess)), ShouldEqual, 1)
				So(testutil.ToFloat64(m.runs.WithLabelValues(OutcomeFailure)), ShouldEqual, 1)
			})

			Convey("Then only successes move the last success timestamp", func() {
				So(testutil.ToFloat64(m.lastRunTimestamp), ShouldEqual, 1700000000)
			})
		})

		Convey("When publishing tier stats", func() {
			m.UpdateTier("x", 12, f(24000), map[string]*float64{"apm": f(150), "vs": nil})

			Convey("Then defined values are exported", func() {
				So(testutil.ToFloat64(m.tierPlayers.WithLabelValues("x")), ShouldEqual, 12)
				So(testutil.ToFloat64(m.tierRequireTR.WithLabelValues("x")), ShouldEqual, 24000)
				So(testutil.ToFloat64(m.tierAverage.WithLabelValues("x", "apm")), ShouldEqual, 150)
			})

			Convey("Then undefined values are not exported", func() {
				So(testutil.CollectAndCount(m.tierAverage), ShouldEqual, 1)
			})

			Convey("And a later run without a boundary removes the series", func() {
				m.UpdateTier("x", 0, nil, nil)
				So(testutil.CollectAndCount(m.tierRequireTR), ShouldEqual, 0)
			})
		})

		Convey("When recording pipeline counters", func() {
			m.RecordFetchAttempt(OutcomeFailure)
			m.RecordFetchAttempt(OutcomeSuccess)
			m.UpdatePlayersFetched(100)
			m.UpdateSnapshotsStored(34)
			m.AddSnapshotsPruned(17)
			m.AddSnapshotsUnreadable(2)
			m.RecordHTTPRequest("ranks", "GET", "200", 3)

			So(testutil.ToFloat64(m.fetchAttempts.WithLabelValues(OutcomeFailure)), ShouldEqual, 1)
			So(testutil.ToFloat64(m.playersFetched), ShouldEqual, 100)
			So(testutil.ToFloat64(m.snapshotsStored), ShouldEqual, 34)
			So(testutil.ToFloat64(m.snapshotsPruned), ShouldEqual, 17)
			So(testutil.ToFloat64(m.snapshotsUnreadable), ShouldEqual, 2)
			So(testutil.ToFloat64(m.httpRequests.WithLabelValues("ranks", "GET", "200")), ShouldEqual, 1)
		})
	})
}

func TestWriteTextfile(t *testing.T) {
	Convey("Given the global registry with a recorded run", t, func() {
		RecordRun(OutcomeSuccess, 1, 1700000000)
		path := filepath.Join(t.TempDir(), "leaguestats.prom")

		Convey("When writing the textfile", func() {
			err := WriteTextfile(path)

			Convey("Then it contains the run counter", func() {
				So(err, ShouldBeNil)
				b, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				So(strings.Contains(string(b), "leaguestats_ranks_runs_total"), ShouldBeTrue)
			})
		})

		Convey("When the directory does not exist", func() {
			err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
			So(err, ShouldNotBeNil)
		})
	})
}
