package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/rankr/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a default deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When a name is new", func() {
			seen := d.SeenAndRecord(ctx, "Acme")

			Convey("Then it is recorded", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a name repeats", func() {
			d.SeenAndRecord(ctx, "Acme")
			seen := d.SeenAndRecord(ctx, "Acme")

			Convey("Then it is reported as seen", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When names differ only in case", func() {
			d.SeenAndRecord(ctx, "Acme")

			Convey("Then they are distinct", func() {
				So(d.SeenAndRecord(ctx, "ACME"), ShouldBeFalse)
			})
		})

		Convey("When a name is unrecorded", func() {
			d.SeenAndRecord(ctx, "Acme")
			d.Unrecord(ctx, "Acme")
			d.Unrecord(ctx, "missing")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "Acme"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a case-insensitive deduper that trims spaces", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithCaseInsensitive(), dedupe.WithTrimSpace())
		d.SeenAndRecord(ctx, "Acme Corp")

		Convey("Then variants of the same name match", func() {
			So(d.SeenAndRecord(ctx, "  acme corp "), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "ACME CORP"), ShouldBeTrue)
			So(d.Size(), ShouldEqual, 1)
		})

		Convey("And unrecord uses the same normalization", func() {
			d.Unrecord(ctx, "ACME CORP ")
			So(d.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a deduper bounded to three names", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, n := range []string{"a", "b", "c"} {
			So(d.SeenAndRecord(ctx, n), ShouldBeFalse)
		}

		Convey("When a fourth name arrives", func() {
			So(d.SeenAndRecord(ctx, "d"), ShouldBeFalse)

			Convey("Then the oldest name is forgotten", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "d"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			})
		})
	})
}

func TestInMemoryDeduper_Concurrent(t *testing.T) {
	Convey("Given many goroutines recording overlapping names", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					if !d.SeenAndRecord(context.Background(), fmt.Sprintf("name-%d", i)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each name is new exactly once", func() {
			So(fresh, ShouldEqual, 100)
			So(d.Size(), ShouldEqual, 100)
		})
	})
}
