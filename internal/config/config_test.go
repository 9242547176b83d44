package config_test

import (
	"testing"
	"time"

	"github.com/okian/leaguestats/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.OutputPath, convey.ShouldEqual, "src/data/ranks.json")
			convey.So(cfg.RetentionDays, convey.ShouldEqual, 7)
			convey.So(cfg.FetchMaxTries, convey.ShouldEqual, 4)
			convey.So(cfg.HTTPTimeout(), convey.ShouldEqual, time.Minute)
			convey.So(cfg.FetchInitialBackoff(), convey.ShouldEqual, 2*time.Second)
			convey.So(cfg.FetchMaxBackoff(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.RunTimeout(), convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the default tier table is used", func() {
			table, err := cfg.TierTable()
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(table), convey.ShouldEqual, 17)
		})
	})
}
