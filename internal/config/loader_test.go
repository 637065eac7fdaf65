package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/fieldday/combine/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			// Clear any existing environment variables
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.StoreBaseURL, convey.ShouldEqual, "http://localhost:9081")
				convey.So(cfg.PersistNamespace, convey.ShouldEqual, "combine")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("COMBINE_ADDR", ":8080")
			_ = os.Setenv("COMBINE_STORE_BASE_URL", "http://store.internal:7000")
			_ = os.Setenv("COMBINE_WORKER_COUNT", "16")
			_ = os.Setenv("COMBINE_ROW_QUEUE_SIZE", "5000")
			_ = os.Setenv("COMBINE_ROSTER_RETRY_ATTEMPTS", "5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StoreBaseURL, convey.ShouldEqual, "http://store.internal:7000")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.RowQueueSize, convey.ShouldEqual, 5000)
				convey.So(cfg.RosterRetryAttempts, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
store_base_url: "http://store.internal:7001"
worker_count: 24
persist_namespace: "combine-test"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("COMBINE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.StoreBaseURL, convey.ShouldEqual, "http://store.internal:7001")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.PersistNamespace, convey.ShouldEqual, "combine-test")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
worker_count: 24
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("COMBINE_CONFIG", tmpFile)
			_ = os.Setenv("COMBINE_ADDR", ":8081")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env vars should win over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8081")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
			})
		})

		convey.Convey("When the config is invalid", func() {
			_ = os.Setenv("COMBINE_ADDR", " ")
			_ = os.Setenv("COMBINE_STORE_BASE_URL", "")
			defer clearConfigEnvVars()

			// Empty store_base_url must fail validation.
			_ = os.Unsetenv("COMBINE_ADDR")
			_ = os.Setenv("COMBINE_STORE_BASE_URL", "")

			cfg, err := config.Load(ctx)
			_ = cfg

			convey.Convey("Then it should return an invalid config error", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"COMBINE_CONFIG",
		"COMBINE_ADDR",
		"COMBINE_STORE_BASE_URL",
		"COMBINE_WORKER_COUNT",
		"COMBINE_ROW_QUEUE_SIZE",
		"COMBINE_ROSTER_RETRY_ATTEMPTS",
		"COMBINE_PERSIST_NAMESPACE",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(content string) string {
	f, err := os.CreateTemp("", "combine-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := f.WriteString(content); err != nil {
		panic(err)
	}
	_ = f.Close()
	return f.Name()
}
