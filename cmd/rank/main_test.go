package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	convey.Convey("Given the rank command", t, func() {
		convey.Convey("Then -help exits cleanly", func() {
			convey.So(run([]string{"-help"}), convey.ShouldEqual, 0)
		})

		convey.Convey("Then an unknown flag is a usage error", func() {
			convey.So(run([]string{"-bogus"}), convey.ShouldEqual, 2)
		})

		convey.Convey("Then a generated run writes its output", func() {
			out := filepath.Join(t.TempDir(), "ranked.csv.zst")
			code := run([]string{"-generate", "200", "-parallelism", "2", "-output", out, "-log", filepath.Join(t.TempDir(), "rank.log")})
			convey.So(code, convey.ShouldEqual, 0)
			_, err := os.Stat(out)
			convey.So(err, convey.ShouldBeNil)
		})

		convey.Convey("Then a missing input fails", func() {
			convey.So(run([]string{"-input", filepath.Join(t.TempDir(), "missing.csv")}), convey.ShouldEqual, 1)
		})
	})
}
