package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/rankr/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntryJSON(t *testing.T) {
	Convey("Given a leaderboard entry", t, func() {
		entry := types.Entry{Rank: 1, Position: 1, Name: "A", Rating: 5, Votes: 10, Score: 4.09}

		Convey("When encoding it", func() {
			raw, err := json.Marshal(entry)

			Convey("Then the wire names are snake case", func() {
				So(err, ShouldBeNil)
				So(string(raw), ShouldEqual, `{"rank":1,"position":1,"name":"A","rating":5,"votes":10,"score":4.09}`)
			})
		})
	})
}

func TestRunSummaryJSON(t *testing.T) {
	Convey("Given a run summary", t, func() {
		summary := types.RunSummary{
			RunID:   "run-1",
			Records: 3,
			Passes:  []types.PassSummary{{Algorithm: "heapsort", Key: "score desc", Parallelism: 2, Elapsed: time.Millisecond}},
			Elapsed: 2 * time.Millisecond,
		}

		Convey("When encoding it", func() {
			raw, err := json.Marshal(summary)

			Convey("Then durations are nanoseconds", func() {
				So(err, ShouldBeNil)
				So(string(raw), ShouldContainSubstring, `"elapsed_ns":1000000`)
				So(string(raw), ShouldContainSubstring, `"elapsed_ns":2000000`)
			})
		})
	})
}
