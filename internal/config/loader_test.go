package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/cherriae/FTC-Castle/internal/config"
)

func TestLoad(t *testing.T) {
	Convey("Given no configuration sources", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then defaults apply", func() {
			So(err, ShouldBeNil)
			So(cfg.Store, ShouldEqual, config.StoreMongo)
			So(cfg.MongoURI, ShouldEqual, "mongodb://localhost:27017")
			So(cfg.Database, ShouldEqual, "castle")
			So(cfg.OpsAddr, ShouldEqual, ":9090")
			So(cfg.RetryAttempts, ShouldEqual, 3)
			So(cfg.RetryDelayMS, ShouldEqual, 2000)
			So(cfg.MinMatches, ShouldEqual, 1)
		})
	})

	Convey("Given environment overrides", t, func() {
		t.Setenv("CASTLE_STORE", "memory")
		t.Setenv("CASTLE_RETRY_ATTEMPTS", "5")
		t.Setenv("CASTLE_LOG_LEVEL", "debug")

		cfg, err := config.Load(context.Background())

		Convey("Then they take precedence over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Store, ShouldEqual, config.StoreMemory)
			So(cfg.RetryAttempts, ShouldEqual, 5)
			So(cfg.LogLevel, ShouldEqual, "debug")
		})
	})

	Convey("Given a YAML config file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "castle.yaml")
		yaml := "database: scouting\nsubmit_per_minute: 30\n"
		So(os.WriteFile(path, []byte(yaml), 0o600), ShouldBeNil)
		t.Setenv("CASTLE_CONFIG", path)

		cfg, err := config.Load(context.Background())

		Convey("Then file values layer over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Database, ShouldEqual, "scouting")
			So(cfg.SubmitPerMinute, ShouldEqual, 30)
			So(cfg.MongoURI, ShouldEqual, "mongodb://localhost:27017")
		})

		Convey("And environment still wins over the file", func() {
			t.Setenv("CASTLE_DATABASE", "fromenv")
			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.Database, ShouldEqual, "fromenv")
		})
	})

	Convey("Given invalid configuration", t, func() {
		Convey("An unknown store backend is rejected", func() {
			t.Setenv("CASTLE_STORE", "etcd")
			_, err := config.Load(context.Background())
			So(err, ShouldNotBeNil)
		})

		Convey("An empty mongo URI is rejected for the mongo backend", func() {
			t.Setenv("CASTLE_MONGO_URI", "")
			_, err := config.Load(context.Background())
			So(err, ShouldNotBeNil)
		})

		Convey("Nonpositive retry attempts are rejected", func() {
			t.Setenv("CASTLE_RETRY_ATTEMPTS", "0")
			_, err := config.Load(context.Background())
			So(err, ShouldNotBeNil)
		})
	})
}
