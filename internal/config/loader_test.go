package config_test

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"

	"github.com/chow-chow/rubik/internal/config"
	"github.com/smartystreets/goconvey/convey"
	"github.com/spf13/pflag"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.DataDir, convey.ShouldEqual, "data")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("RUBIK_ADDR", ":8080")
			_ = os.Setenv("RUBIK_DATA_DIR", "/srv/rubik")
			_ = os.Setenv("RUBIK_WORKER_COUNT", "16")
			_ = os.Setenv("RUBIK_BACKEND", "sqlite")
			_ = os.Setenv("RUBIK_ENRICH", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DataDir, convey.ShouldEqual, "/srv/rubik")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.Backend, convey.ShouldEqual, config.BackendSQLite)
				convey.So(cfg.Enrich, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
data_dir: "./scraped"
worker_count: 24
queue_size: 512
groups_dir: "courses"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RUBIK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DataDir, convey.ShouldEqual, "./scraped")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 512)
				convey.So(cfg.GroupsDir, convey.ShouldEqual, "courses")
				convey.So(cfg.RosterFile, convey.ShouldEqual, "professor_ratings_index.json") // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
worker_count: 24
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RUBIK_CONFIG", tmpFile)
			_ = os.Setenv("RUBIK_WORKER_COUNT", "32") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")   // From file
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32) // Overridden by env
			})
		})

		convey.Convey("When flags are layered on top of env", func() {
			_ = os.Setenv("RUBIK_WORKER_COUNT", "32")
			_ = os.Setenv("RUBIK_DATA_DIR", "/from/env")
			defer clearConfigEnvVars()

			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			fs.String("data-dir", "data", "")
			fs.Int("worker-count", 4, "")
			fs.Bool("enrich", false, "")
			fs.String("config", "", "")
			convey.So(fs.Parse([]string{"--worker-count=2", "--enrich"}), convey.ShouldBeNil)

			cfg, err := config.LoadWithFlags(ctx, "", fs)

			convey.Convey("Then only explicitly set flags win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.Enrich, convey.ShouldBeTrue)
				convey.So(cfg.DataDir, convey.ShouldEqual, "/from/env")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			cfg, err := config.LoadWithFlags(ctx, tmpFile, nil)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("RUBIK_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("RUBIK_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown backend", func() {
			_ = os.Setenv("RUBIK_BACKEND", "mongo")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("RUBIK_WORKER_COUNT", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"RUBIK_CONFIG",
		"RUBIK_ADDR",
		"RUBIK_DATA_DIR",
		"RUBIK_BACKEND",
		"RUBIK_WORKER_COUNT",
		"RUBIK_QUEUE_SIZE",
		"RUBIK_ENRICH",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "rubik-config-*.yaml")
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
