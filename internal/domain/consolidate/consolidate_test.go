package consolidate

import (
	"errors"
	"testing"

	"github.com/chow-chow/rubik/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func obs(id, name string, n int, r float64) model.Observation {
	return model.Observation{SourceID: model.ID(id), FullName: name, NumRatings: n, Rating: r}
}

func TestConsolidate(t *testing.T) {
	Convey("Given duplicate observations of one instructor", t, func() {
		in := []model.Observation{
			obs("a", "JUAN PEREZ", 10, 4.0),
			obs("b", "JUAN PEREZ", 30, 5.0),
		}
		in[1].FirstName, in[1].LastName = "Juan", "Pérez"

		roster, sum := Consolidate(in)

		Convey("Then they merge into one weighted record anchored on the most rated", func() {
			So(roster, ShouldHaveLength, 1)
			So(roster[0].ID, ShouldEqual, model.ID("b"))
			So(roster[0].NumRatings, ShouldEqual, 40)
			So(roster[0].Rating, ShouldEqual, 4.75)
			So(roster[0].FirstName, ShouldEqual, "Juan")
			So(sum, ShouldResemble, Summary{Input: 2, Merged: 1, Output: 1})
		})
	})

	Convey("Given a weighted mean that lands on a rounding tie", t, func() {
		in := []model.Observation{
			obs("a", "ANA RUIZ", 6, 4.0),
			obs("b", "ANA RUIZ", 2, 4.5),
		}

		roster, _ := Consolidate(in)

		Convey("Then the rating rounds to the even cent", func() {
			So(roster, ShouldHaveLength, 1)
			So(roster[0].NumRatings, ShouldEqual, 8)
			So(roster[0].Rating, ShouldEqual, 4.12)
		})
	})

	Convey("Given observations with a single rating", t, func() {
		roster, sum := Consolidate([]model.Observation{
			obs("a", "ANA RUIZ", 1, 5.0),
			obs("b", "ANA RUIZ", 0, 0),
			obs("c", "LUIS MORA", 2, 3.5),
		})

		Convey("Then they are dropped before grouping", func() {
			So(roster, ShouldHaveLength, 1)
			So(roster[0].ID, ShouldEqual, model.ID("c"))
			So(roster[0].Rating, ShouldEqual, 3.5)
			So(sum.Discarded, ShouldEqual, 2)
		})
	})

	Convey("Given tied anchors and several names", t, func() {
		roster, _ := Consolidate([]model.Observation{
			obs("x", "LUIS MORA", 5, 3.0),
			obs("a", "JUAN PEREZ", 4, 2.0),
			obs("b", "JUAN PEREZ", 4, 3.0),
			obs("c", "JUAN PEREZ", 4, 3.333),
			obs("", "", 9, 1.0),
		})

		Convey("Then the first tied entry anchors and order follows first appearance", func() {
			So(roster, ShouldHaveLength, 2)
			So(roster[0].ID, ShouldEqual, model.ID("x"))
			So(roster[1].ID, ShouldEqual, model.ID("a"))
			So(roster[1].NumRatings, ShouldEqual, 12)
			So(roster[1].Rating, ShouldEqual, 2.78)
		})
	})

	Convey("Given no observations", t, func() {
		roster, sum := Consolidate(nil)
		So(roster, ShouldBeEmpty)
		So(sum.Output, ShouldEqual, 0)
	})
}

func TestNewObservation(t *testing.T) {
	Convey("Given ratings-site entries", t, func() {
		Convey("When the entry is complete", func() {
			o, err := NewObservation(" 42 ", " Dra. María ", "de la Cruz ", 12, 4.5)

			Convey("Then the name is normalized without stripping connectors", func() {
				So(err, ShouldBeNil)
				So(o.SourceID, ShouldEqual, model.ID("42"))
				So(o.FullName, ShouldEqual, "MARIA DE LA CRUZ")
				So(o.FirstName, ShouldEqual, "Dra. María")
				So(o.LastName, ShouldEqual, "de la Cruz")
			})
		})

		Convey("When a field is missing", func() {
			_, errID := NewObservation("", "Juan", "Perez", 3, 4)
			_, errName := NewObservation("1", " ", "", 3, 4)
			_, errEmpty := NewObservation("1", "DR.", "", 3, 4)

			Convey("Then the entry is rejected", func() {
				So(errors.Is(errID, ErrInvalidObservation), ShouldBeTrue)
				So(errors.Is(errName, ErrInvalidObservation), ShouldBeTrue)
				So(errors.Is(errEmpty, ErrInvalidObservation), ShouldBeTrue)
			})
		})
	})
}

func TestSortByRating(t *testing.T) {
	Convey("Given a consolidated roster", t, func() {
		roster := []model.Professor{
			{ID: "1", Rating: 4.0, NumRatings: 10},
			{ID: "2", Rating: 4.5, NumRatings: 3},
			{ID: "3", Rating: 4.0, NumRatings: 20},
			{ID: "4", Rating: 4.0, NumRatings: 10},
		}
		SortByRating(roster)

		ids := make([]model.ID, len(roster))
		for i, p := range roster {
			ids[i] = p.ID
		}
		So(ids, ShouldResemble, []model.ID{"2", "3", "1", "4"})
		So(Round2(2.3456), ShouldEqual, 2.35)
		So(Round2(0.125), ShouldEqual, 0.12)
		So(Round2(0.375), ShouldEqual, 0.38)
	})
}

func TestPrepare(t *testing.T) {
	Convey("Given stored entries in mixed shapes", t, func() {
		in := []model.Observation{
			{SourceID: "1", FirstName: "Dr. Juan", LastName: "Pérez", NumRatings: 5, Rating: 4},
			{SourceID: "2", FullName: "Lic. Ana Ruiz", NumRatings: 3, Rating: 3},
			{SourceID: "", FullName: "LUIS MORA", NumRatings: 3, Rating: 3},
			{SourceID: "4", FullName: "(VACANTE)", NumRatings: 3, Rating: 3},
			{SourceID: "5", FirstName: "Dr.", NumRatings: 3, Rating: 3},
		}

		out, rejected := Prepare(in)

		Convey("Then valid entries are normalized and the rest rejected", func() {
			So(rejected, ShouldEqual, 3)
			So(out, ShouldHaveLength, 2)
			So(out[0].FullName, ShouldEqual, "JUAN PEREZ")
			So(out[0].FirstName, ShouldEqual, "Dr. Juan")
			So(out[1].FullName, ShouldEqual, "ANA RUIZ")
			So(out[1].SourceID, ShouldEqual, model.ID("2"))
		})
	})
}
