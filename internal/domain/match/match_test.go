package match

import (
	"sync"
	"testing"

	"github.com/chow-chow/rubik/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMatcher(t *testing.T) {
	Convey("Given a roster", t, func() {
		roster := []model.Professor{
			{ID: "1", FullName: "JUAN DE LA CRUZ"},
			{ID: "2", FullName: "MARIA LOPEZ HERNANDEZ"},
			{ID: "3", FullName: "ANA RUIZ"},
		}
		m := New(NewContext(roster))

		Convey("When the raw name normalizes to the same key", func() {
			r := m.Match("Dr. Juan de la Cruz (titular)")

			Convey("Then it matches exactly", func() {
				So(r.Kind, ShouldEqual, Matched)
				So(r.Strategy, ShouldEqual, StrategyExact)
				So(r.Professor.ID, ShouldEqual, model.ID("1"))
				So(r.Query, ShouldEqual, "JUAN CRUZ")
				So(r.Ok(), ShouldBeTrue)
				So(r.Ambiguous(), ShouldBeFalse)
			})
		})

		Convey("When the raw name reorders the tokens", func() {
			r := m.Match("DE LA CRUZ, JUAN")

			Convey("Then the token subset finds the single record", func() {
				So(r.Kind, ShouldEqual, Matched)
				So(r.Strategy, ShouldEqual, StrategyTokenSubset)
				So(r.Professor.ID, ShouldEqual, model.ID("1"))
			})
		})

		Convey("When the raw name carries an extra surname", func() {
			r := m.Match("ANA RUIZ GOMEZ")

			Convey("Then the roster tokens are a subset of the query", func() {
				So(r.Strategy, ShouldEqual, StrategyTokenSubset)
				So(r.Professor.ID, ShouldEqual, model.ID("3"))
			})
		})

		Convey("When the raw name is a shorter form of the roster name", func() {
			r := m.Match("Ing. María López")

			Convey("Then the reverse subset falls back to the longer record", func() {
				So(r.Kind, ShouldEqual, Matched)
				So(r.Strategy, ShouldEqual, StrategyReverseSubset)
				So(r.Professor.ID, ShouldEqual, model.ID("2"))
			})
		})

		Convey("When nothing is shared", func() {
			r := m.Match("PEDRO INFANTE")

			Convey("Then there is no match", func() {
				So(r.Kind, ShouldEqual, NoMatch)
				So(r.Professor, ShouldBeNil)
				So(r.Ok(), ShouldBeFalse)
				So(r.Query, ShouldEqual, "PEDRO INFANTE")
			})
		})

		Convey("When the raw name is empty after normalization", func() {
			for _, raw := range []string{"", "   ", "DR.", "(POR ASIGNAR)", "de la"} {
				So(m.Match(raw).Kind, ShouldEqual, NoMatch)
			}
		})
	})

	Convey("Given two records sharing a token set", t, func() {
		roster := []model.Professor{
			{ID: "10", FullName: "JUAN PEREZ"},
			{ID: "11", FullName: "JUAN DE PEREZ"},
		}
		m := New(NewContext(roster))

		Convey("When the query has an extra token", func() {
			r := m.Match("JUAN PEREZ GARCIA")

			Convey("Then the most specific full name wins and ambiguity is flagged", func() {
				So(r.Kind, ShouldEqual, AmbiguousMatched)
				So(r.Ambiguous(), ShouldBeTrue)
				So(r.Ok(), ShouldBeTrue)
				So(r.Professor.ID, ShouldEqual, model.ID("11"))
				So(r.CandidateNames(), ShouldResemble, []string{"JUAN DE PEREZ", "JUAN PEREZ"})
			})
		})

		Convey("When the query equals both stripped keys", func() {
			r := m.Match("JUAN PEREZ")

			Convey("Then the exact index keeps the later record", func() {
				So(r.Strategy, ShouldEqual, StrategyExact)
				So(r.Professor.ID, ShouldEqual, model.ID("11"))
			})
		})
	})

	Convey("Given contenders of equal specificity", t, func() {
		roster := []model.Professor{
			{ID: "a", FullName: "LUIS MORA"},
			{ID: "b", FullName: "LUIS"},
			{ID: "c", FullName: "MORA LUIS"},
		}
		r := New(NewContext(roster)).Match("LUIS MORA SOTO")

		Convey("Then pool order breaks the tie", func() {
			So(r.Kind, ShouldEqual, AmbiguousMatched)
			So(r.Professor.ID, ShouldEqual, model.ID("a"))
			So(r.CandidateNames(), ShouldResemble, []string{"LUIS MORA", "MORA LUIS", "LUIS"})
		})
	})

	Convey("Given an empty roster", t, func() {
		m := New(nil)
		So(m.Match("JUAN PEREZ").Kind, ShouldEqual, NoMatch)
		So(m.Context().Len(), ShouldEqual, 0)
	})

	Convey("Given concurrent callers", t, func() {
		m := New(NewContext([]model.Professor{{ID: "7", FullName: "JUAN PEREZ"}}))
		var wg sync.WaitGroup
		ids := make([]model.ID, 32)
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ids[i] = m.Match("Dr. Juan Pérez").Professor.ID
			}(i)
		}
		wg.Wait()

		for _, id := range ids {
			So(id, ShouldEqual, model.ID("7"))
		}
	})

	Convey("Given result kinds", t, func() {
		So(NoMatch.String(), ShouldEqual, "no_match")
		So(Matched.String(), ShouldEqual, "matched")
		So(AmbiguousMatched.String(), ShouldEqual, "ambiguous")
	})
}
