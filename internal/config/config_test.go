package config_test

import (
	"context"
	"runtime"
	"testing"

	"github.com/fieldday/combine/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StoreBaseURL, convey.ShouldEqual, "http://localhost:9081")
			convey.So(cfg.StoreTimeoutMS, convey.ShouldEqual, 5_000)
			convey.So(cfg.RosterRetryInitialMS, convey.ShouldEqual, 250)
			convey.So(cfg.RosterRetryAttempts, convey.ShouldEqual, 3)
			convey.So(cfg.PersistNamespace, convey.ShouldEqual, "combine")
			convey.So(cfg.RowQueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.MaxUploadRows, convey.ShouldEqual, 2_000)
		})
	})
}
