package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf), ShouldBeNil)
		So(SetLevelString("info"), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Named("engine").Info(ctx, "pass done",
				String("algorithm", "heapsort"),
				Int("records", 3),
				Duration("elapsed", 2*time.Millisecond),
				Bool("two_phase", true),
				Error(errors.New("boom")),
			)
			out := buf.String()

			Convey("Then every field and the caller are written", func() {
				So(out, ShouldContainSubstring, "msg=\"pass done\"")
				So(out, ShouldContainSubstring, "logger=engine")
				So(out, ShouldContainSubstring, "algorithm=heapsort")
				So(out, ShouldContainSubstring, "records=3")
				So(out, ShouldContainSubstring, "two_phase=true")
				So(out, ShouldContainSubstring, "error=boom")
				So(out, ShouldContainSubstring, "logger_test.go:")
			})
		})

		Convey("When logging below the level", func() {
			Get().Debug(ctx, "hidden")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the level is lowered", func() {
			So(SetLevelString("DEBUG"), ShouldBeNil)
			Get().Debug(ctx, "visible")
			So(SetLevelString("info"), ShouldBeNil)

			Convey("Then debug entries appear", func() {
				So(strings.Count(buf.String(), "visible"), ShouldEqual, 1)
			})
		})

		Reset(func() {
			So(Init(), ShouldBeNil)
			So(Sync(), ShouldBeNil)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		Convey("Then known levels are accepted", func() {
			for _, lvl := range []string{"debug", "info", "", "warn", "warning", "error"} {
				So(SetLevelString(lvl), ShouldBeNil)
			}
			So(SetLevelString("info"), ShouldBeNil)
		})

		Convey("Then unknown levels are rejected", func() {
			So(SetLevelString("verbose"), ShouldNotBeNil)
		})
	})
}

func TestNop(t *testing.T) {
	Convey("Given the nop logger", t, func() {
		Convey("Then logging does not panic", func() {
			So(func() {
				Nop().Named("x").Error(context.Background(), "dropped", String("k", "v"))
			}, ShouldNotPanic)
		})
	})

	Convey("Given a nil writer", t, func() {
		Convey("Then init fails", func() {
			So(InitWithWriter(nil), ShouldNotBeNil)
		})
	})
}
