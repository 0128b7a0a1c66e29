package config_test

import (
	"errors"
	"math"
	"runtime"
	"testing"
	"time"

	"github.com/okian/comborank/internal/config"
	"github.com/okian/comborank/internal/domain/gap"
	"github.com/smartystreets/goconvey/convey"
)

func valid() *config.Config {
	cfg := config.New()
	cfg.RangeSpec = "Sheet1!B2:F"
	cfg.ComboSize = 5
	cfg.OutputPath = "/tmp/draws.xlsx"
	return cfg
}

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have the documented defaults", func() {
			convey.So(cfg.UniverseSize, convey.ShouldEqual, 39)
			convey.So(cfg.BatchSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.TopN, convey.ShouldEqual, 200)
			convey.So(cfg.MaxGapLimit, convey.ShouldEqual, 1_000_000)
			convey.So(cfg.FilterOrder, convey.ShouldEqual, "before_truncate")
			convey.So(cfg.HeaderRow, convey.ShouldBeTrue)
			convey.So(cfg.OutputSheet, convey.ShouldEqual, "獲獎排列")
			convey.So(cfg.OutputFormat, convey.ShouldEqual, config.FormatXLSX)
			convey.So(cfg.Editor.SettleDelay, convey.ShouldEqual, 200*time.Millisecond)
		})

		convey.Convey("And the default ladder ranks four tiers", func() {
			l, err := cfg.Ladder()
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(l.Ranked()), convey.ShouldEqual, 4)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a complete config", t, func() {
		cfg := valid()

		convey.Convey("Then it validates", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			convey.So(cfg.Order(), convey.ShouldEqual, gap.BeforeTruncate)
			convey.So(cfg.Capacity(), convey.ShouldEqual, 1000)
		})

		cases := map[string]func(c *config.Config){
			"missing range":      func(c *config.Config) { c.RangeSpec = " " },
			"missing output":     func(c *config.Config) { c.OutputPath = "" },
			"zero combo size":    func(c *config.Config) { c.ComboSize = 0 },
			"combo too large":    func(c *config.Config) { c.ComboSize = 40 },
			"universe too large": func(c *config.Config) { c.UniverseSize = 65 },
			"zero top n":         func(c *config.Config) { c.TopN = 0 },
			"negative gap limit": func(c *config.Config) { c.MaxGapLimit = -1 },
			"zero batch":         func(c *config.Config) { c.BatchSize = 0 },
			"unknown order":      func(c *config.Config) { c.FilterOrder = "never" },
			"unknown format":     func(c *config.Config) { c.OutputFormat = "csv" },
			"bad number label":   func(c *config.Config) { c.NumberLabel = "n" },
			"no editor attempts": func(c *config.Config) { c.Editor.Attempts = 0 },
			"overflowing pool":   func(c *config.Config) { c.TopN = math.MaxInt / 2 },
			"bad ladder": func(c *config.Config) {
				c.Tiers = []config.TierConfig{{Name: "ge2", Threshold: 2}}
			},
		}
		for name, mutate := range cases {
			convey.Convey("When it has "+name, func() {
				mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then it is a configuration error", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When truncation happens before filtering", func() {
			cfg.FilterOrder = "after_truncate"

			convey.Convey("Then accumulators are not over-provisioned", func() {
				convey.So(cfg.Capacity(), convey.ShouldEqual, 200)
			})
		})
	})
}

func TestConfig_SQLiteTarget(t *testing.T) {
	convey.Convey("Given an output workbook", t, func() {
		cfg := valid()

		convey.Convey("Then the database sits next to it by default", func() {
			convey.So(cfg.SQLiteTarget(), convey.ShouldEqual, "/tmp/draws.db")
		})

		convey.Convey("And sqlite_path overrides it", func() {
			cfg.SQLitePath = "/var/lib/rank.db"
			convey.So(cfg.SQLiteTarget(), convey.ShouldEqual, "/var/lib/rank.db")
		})
	})
}
