package config_test

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/okian/auscript/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have the documented defaults", func() {
			convey.So(cfg.Host, convey.ShouldEqual, "localhost")
			convey.So(cfg.Port, convey.ShouldEqual, 5555)
			convey.So(cfg.Env, convey.ShouldEqual, "development")
			convey.So(cfg.Debug(), convey.ShouldBeTrue)
			convey.So(cfg.Addr(), convey.ShouldEqual, "localhost:5555")
			convey.So(cfg.EffectiveLogLevel(), convey.ShouldEqual, "debug")
			convey.So(cfg.EffectiveLogFormat(), convey.ShouldEqual, "text")
			convey.So(cfg.ShutdownTimeout(), convey.ShouldEqual, 10*time.Second)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Host, convey.ShouldEqual, "localhost")
				convey.So(cfg.Port, convey.ShouldEqual, 5555)
				convey.So(cfg.PortFallback, convey.ShouldBeFalse)
				convey.So(cfg.HostFallback, convey.ShouldBeFalse)
				convey.So(cfg.Env, convey.ShouldEqual, "development")
				convey.So(cfg.QueueSize, convey.ShouldEqual, config.DefaultQueueSize)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, config.DefaultWorkerCount)
			})
		})

		convey.Convey("When loading config with server environment variables", func() {
			_ = os.Setenv("SERVER_HOST", "0.0.0.0")
			_ = os.Setenv("SERVER_PORT", "8080")
			_ = os.Setenv("FLASK_ENV", "production")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Host, convey.ShouldEqual, "0.0.0.0")
				convey.So(cfg.Port, convey.ShouldEqual, 8080)
				convey.So(cfg.Addr(), convey.ShouldEqual, "0.0.0.0:8080")
				convey.So(cfg.Debug(), convey.ShouldBeFalse)
				convey.So(cfg.EffectiveLogLevel(), convey.ShouldEqual, "info")
				convey.So(cfg.EffectiveLogFormat(), convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When SERVER_PORT is not a number", func() {
			_ = os.Setenv("SERVER_PORT", "notanumber")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should fall back to 5555 without error", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Port, convey.ShouldEqual, 5555)
				convey.So(cfg.PortFallback, convey.ShouldBeTrue)
				convey.So(cfg.RawPort, convey.ShouldEqual, "notanumber")
			})
		})

		convey.Convey("When SERVER_PORT is out of range", func() {
			_ = os.Setenv("SERVER_PORT", "70000")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should fall back to 5555", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Port, convey.ShouldEqual, 5555)
				convey.So(cfg.PortFallback, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with AUSCRIPT_ variables", func() {
			_ = os.Setenv("AUSCRIPT_LOG_LEVEL", "warn")
			_ = os.Setenv("AUSCRIPT_QUEUE_SIZE", "64")
			_ = os.Setenv("AUSCRIPT_WORKER_COUNT", "4")
			_ = os.Setenv("AUSCRIPT_MAX_BODY_BYTES", "2048")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should apply them", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.EffectiveLogLevel(), convey.ShouldEqual, "warn")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.MaxBodyBytes, convey.ShouldEqual, 2048)
			})
		})

		convey.Convey("When loading config with a YAML file and env overrides", func() {
			tmpFile := createTempConfigFile(`
host: "127.0.0.1"
port: 9090
env: staging
queue_size: 16
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("AUSCRIPT_CONFIG", tmpFile)
			_ = os.Setenv("AUSCRIPT_QUEUE_SIZE", "32")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Host, convey.ShouldEqual, "127.0.0.1")
				convey.So(cfg.Port, convey.ShouldEqual, 9090)
				convey.So(cfg.Env, convey.ShouldEqual, "staging")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When loading a TOML file", func() {
			tmpFile := createTempFile("auscript-config-*.toml", `
host = "0.0.0.0"
port = 8081
worker_count = 3
log_format = "json"
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("AUSCRIPT_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then its values should be applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Host, convey.ShouldEqual, "0.0.0.0")
				convey.So(cfg.Port, convey.ShouldEqual, 8081)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.EffectiveLogFormat(), convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When the TOML file is invalid", func() {
			tmpFile := createTempFile("auscript-config-*.toml", `host = `)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("AUSCRIPT_CONFIG", tmpFile)

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the YAML file is invalid", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("AUSCRIPT_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the YAML file does not exist", func() {
			_ = os.Setenv("AUSCRIPT_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		for _, blank := range []string{"", " "} {
			convey.Convey("When SERVER_HOST is "+strconv.Quote(blank), func() {
				_ = os.Setenv("SERVER_HOST", blank)

				cfg, err := config.Load(ctx)

				convey.Convey("Then the default host should be used", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(cfg.Host, convey.ShouldEqual, config.DefaultHost)
					convey.So(cfg.HostFallback, convey.ShouldBeTrue)
					convey.So(cfg.Addr(), convey.ShouldEqual, "localhost:5555")
				})
			})
		}

		convey.Convey("When the queue size is zero", func() {
			_ = os.Setenv("AUSCRIPT_QUEUE_SIZE", "0")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestParsePort(t *testing.T) {
	convey.Convey("Given raw port values", t, func() {
		cases := []struct {
			raw  string
			port int
			ok   bool
		}{
			{"5555", 5555, true},
			{" 8080 ", 8080, true},
			{"0", 0, true},
			{"", 5555, false},
			{"-1", 5555, false},
			{"65536", 5555, false},
			{"80.5", 5555, false},
			{"notanumber", 5555, false},
		}
		for _, c := range cases {
			port, ok := config.ParsePort(c.raw)
			convey.So(port, convey.ShouldEqual, c.port)
			convey.So(ok, convey.ShouldEqual, c.ok)
		}
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"AUSCRIPT_CONFIG",
		"AUSCRIPT_LOG_LEVEL",
		"AUSCRIPT_LOG_FORMAT",
		"AUSCRIPT_QUEUE_SIZE",
		"AUSCRIPT_WORKER_COUNT",
		"AUSCRIPT_MAX_BODY_BYTES",
		"AUSCRIPT_SHUTDOWN_TIMEOUT_MS",
		"SERVER_HOST",
		"SERVER_PORT",
		"FLASK_ENV",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	return createTempFile("auscript-config-*.yaml", content)
}

func createTempFile(pattern, content string) string {
	tmpFile, err := os.CreateTemp("", pattern)
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
