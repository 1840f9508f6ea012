package model_test

import (
	"errors"
	"testing"

	model "github.com/okian/rankr/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestKey(t *testing.T) {
	convey.Convey("Given a record", t, func() {
		r := model.Record{Name: "A", Rating: 4.5, Votes: 120, Score: 4.2, Scored: true}

		convey.Convey("When projecting it through each key", func() {
			convey.Convey("Then each key returns its own field", func() {
				convey.So(model.KeyRating.Value(r), convey.ShouldEqual, 4.5)
				convey.So(model.KeyVotes.Value(r), convey.ShouldEqual, 120.0)
				convey.So(model.KeyScore.Value(r), convey.ShouldEqual, 4.2)
			})
		})
	})

	convey.Convey("Given key names from the datasets", t, func() {
		cases := map[string]model.Key{
			"":                 model.KeyScore,
			"score":            model.KeyScore,
			"puntuacion_total": model.KeyScore,
			"Rating":           model.KeyRating,
			"NumberReview":     model.KeyVotes,
			"num_reviews":      model.KeyVotes,
			" votes ":          model.KeyVotes,
		}

		convey.Convey("Then they parse to the expected key", func() {
			for in, want := range cases {
				got, err := model.ParseKey(in)
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldEqual, want)
			}
		})

		convey.Convey("And an unknown name is rejected", func() {
			_, err := model.ParseKey("popularity")
			convey.So(errors.Is(err, model.ErrUnknownKey), convey.ShouldBeTrue)
		})
	})
}

func TestDirection(t *testing.T) {
	convey.Convey("Given the zero direction", t, func() {
		var d model.Direction

		convey.Convey("Then it is descending", func() {
			convey.So(d, convey.ShouldEqual, model.Descending)
			convey.So(d.Before(5, 3), convey.ShouldBeTrue)
			convey.So(d.Before(3, 5), convey.ShouldBeFalse)
			convey.So(d.Before(3, 3), convey.ShouldBeFalse)
		})
	})

	convey.Convey("Given ascending order", t, func() {
		d, err := model.ParseDirection("ASC")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then smaller values come first", func() {
			convey.So(d.Before(3, 5), convey.ShouldBeTrue)
			convey.So(d.String(), convey.ShouldEqual, "asc")
		})
	})

	convey.Convey("Given an invalid direction", t, func() {
		_, err := model.ParseDirection("sideways")

		convey.Convey("Then parsing fails", func() {
			convey.So(errors.Is(err, model.ErrUnknownDirection), convey.ShouldBeTrue)
		})
	})
}

func TestClone(t *testing.T) {
	convey.Convey("Given a slice of records", t, func() {
		in := []model.Record{{Name: "A"}, {Name: "B"}}
		out := model.Clone(in)

		convey.Convey("Then the clone does not alias the input", func() {
			out[0].Name = "Z"
			convey.So(in[0].Name, convey.ShouldEqual, "A")
			convey.So(model.Clone(nil), convey.ShouldBeNil)
		})
	})
}
