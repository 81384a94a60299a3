package repository

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chow-chow/rubik/internal/config"
	"github.com/chow-chow/rubik/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const groupDoc = `[
  {
    "code": "1100",
    "group": "1",
    "professor": "Dr. Juan Pérez",
    "schedules": [{"day": "LU", "time": "7:00 - 9:00"}]
  },
  {
    "code": "1100",
    "group": "2",
    "professor": ""
  }
]`

func newJSONStore(t *testing.T) (*JSONStore, string) {
	dir := t.TempDir()
	return NewJSONStore(
		WithRosterPath(filepath.Join(dir, "professor_ratings_index.json")),
		WithObservationsPath(filepath.Join(dir, "professor_observations.json")),
		WithGroupsDir(filepath.Join(dir, "groups")),
	), dir
}

func TestJSONStore(t *testing.T) {
	Convey("Given an empty data directory", t, func() {
		ctx := context.Background()
		s, dir := newJSONStore(t)

		Convey("Then missing datasets report not found", func() {
			_, err := s.LoadRoster(ctx)
			So(IsNotFound(err), ShouldBeTrue)
			_, err = s.LoadObservations(ctx)
			So(IsNotFound(err), ShouldBeTrue)
			_, err = s.ListGroups(ctx)
			So(IsNotFound(err), ShouldBeTrue)
			So(s.Backend(), ShouldEqual, "json")
		})

		Convey("When a roster is saved and loaded", func() {
			roster := []model.Professor{{ID: "7", FullName: "JUAN PEREZ", FirstName: "Juan", LastName: "Pérez", NumRatings: 40, Rating: 4.75}}
			So(s.SaveRoster(ctx, roster), ShouldBeNil)
			loaded, err := s.LoadRoster(ctx)

			Convey("Then it round-trips with numeric ids, indent and raw accents", func() {
				So(err, ShouldBeNil)
				So(loaded, ShouldResemble, roster)
				data, _ := os.ReadFile(filepath.Join(dir, "professor_ratings_index.json"))
				So(string(data), ShouldContainSubstring, "\n    \"id\": 7,")
				So(string(data), ShouldContainSubstring, "Pérez")
			})

			Convey("Then no temp files are left behind", func() {
				entries, _ := os.ReadDir(dir)
				for _, e := range entries {
					So(strings.Contains(e.Name(), ".tmp-"), ShouldBeFalse)
				}
			})
		})

		Convey("When observations are saved as nil", func() {
			So(s.SaveObservations(ctx, nil), ShouldBeNil)
			obs, err := s.LoadObservations(ctx)

			Convey("Then an empty list is stored", func() {
				So(err, ShouldBeNil)
				So(obs, ShouldBeEmpty)
			})
		})

		Convey("When group files exist", func() {
			groups := filepath.Join(dir, "groups")
			So(os.MkdirAll(groups, 0o755), ShouldBeNil)
			So(os.WriteFile(filepath.Join(groups, "1100.json"), []byte(groupDoc), 0o644), ShouldBeNil)
			So(os.WriteFile(filepath.Join(groups, "0900.json"), []byte(`[]`), 0o644), ShouldBeNil)
			So(os.WriteFile(filepath.Join(groups, "broken.json"), []byte(`{"not":"an array"`), 0o644), ShouldBeNil)
			So(os.WriteFile(filepath.Join(groups, "notes.txt"), []byte(`x`), 0o644), ShouldBeNil)

			Convey("Then only JSON files are listed, sorted", func() {
				keys, err := s.ListGroups(ctx)
				So(err, ShouldBeNil)
				So(keys, ShouldResemble, []string{"0900", "1100", "broken"})
			})

			Convey("Then a malformed file is reported corrupt", func() {
				_, err := s.LoadGroup(ctx, "broken")
				So(errors.Is(err, ErrCorrupt), ShouldBeTrue)
			})

			Convey("Then a linked group is written back with its unknown fields", func() {
				g, err := s.LoadGroup(ctx, "1100")
				So(err, ShouldBeNil)
				So(g.Records, ShouldHaveLength, 2)
				_, err = g.Records[0].Link(&model.Professor{ID: "7"}, false)
				So(err, ShouldBeNil)
				So(s.SaveGroup(ctx, g), ShouldBeNil)

				data, _ := os.ReadFile(filepath.Join(groups, "1100.json"))
				var back []map[string]any
				So(json.Unmarshal(data, &back), ShouldBeNil)
				So(back[0]["professor_id"], ShouldEqual, float64(7))
				So(back[0]["schedules"], ShouldNotBeNil)
				So(back[0]["professor"], ShouldEqual, "Dr. Juan Pérez")
				So(string(data), ShouldStartWith, "[\n  {\n    \"code\": \"1100\"")
			})

			Convey("Then unsafe keys are rejected", func() {
				_, err := s.LoadGroup(ctx, "../etc")
				So(errors.Is(err, ErrInvalidKey), ShouldBeTrue)
				So(errors.Is(s.SaveGroup(ctx, &model.ReferenceGroup{Key: ""}), ErrInvalidKey), ShouldBeTrue)
			})
		})

		So(s.Close(), ShouldBeNil)
	})
}

func TestSQLiteStore(t *testing.T) {
	Convey("Given a fresh SQLite database", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "nested", "rubik.db")
		s, err := OpenSQLite(ctx, path)
		So(err, ShouldBeNil)
		defer func() { _ = s.Close() }()

		Convey("Then missing datasets report not found and no groups exist", func() {
			_, err := s.LoadRoster(ctx)
			So(IsNotFound(err), ShouldBeTrue)
			keys, err := s.ListGroups(ctx)
			So(err, ShouldBeNil)
			So(keys, ShouldBeEmpty)
			_, err = s.LoadGroup(ctx, "1100")
			So(IsNotFound(err), ShouldBeTrue)
			So(s.Backend(), ShouldEqual, "sqlite")
			So(s.Path(), ShouldEqual, path)
		})

		Convey("When a roster is saved twice", func() {
			So(s.SaveRoster(ctx, []model.Professor{{ID: "1", FullName: "A"}, {ID: "2", FullName: "B"}}), ShouldBeNil)
			want := []model.Professor{{ID: "9", FullName: "ANA RUIZ", NumRatings: 3, Rating: 4.5}, {ID: "abc", FullName: "LUIS MORA"}}
			So(s.SaveRoster(ctx, want), ShouldBeNil)
			got, err := s.LoadRoster(ctx)

			Convey("Then the last save replaces the first, in order", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, want)
			})
		})

		Convey("When an empty roster is saved", func() {
			So(s.SaveRoster(ctx, nil), ShouldBeNil)
			got, err := s.LoadRoster(ctx)

			Convey("Then it loads as empty rather than missing", func() {
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})
		})

		Convey("When observations and groups round-trip", func() {
			obs := []model.Observation{{SourceID: "5", FullName: "JUAN PEREZ", NumRatings: 10, Rating: 4}}
			So(s.SaveObservations(ctx, obs), ShouldBeNil)

			var records []*model.Reference
			So(json.Unmarshal([]byte(groupDoc), &records), ShouldBeNil)
			So(s.SaveGroup(ctx, &model.ReferenceGroup{Key: "1100", Records: records}), ShouldBeNil)
			So(s.SaveGroup(ctx, &model.ReferenceGroup{Key: "0900"}), ShouldBeNil)

			Convey("Then everything reads back", func() {
				gotObs, err := s.LoadObservations(ctx)
				So(err, ShouldBeNil)
				So(gotObs, ShouldResemble, obs)

				keys, err := s.ListGroups(ctx)
				So(err, ShouldBeNil)
				So(keys, ShouldResemble, []string{"0900", "1100"})

				g, err := s.LoadGroup(ctx, "1100")
				So(err, ShouldBeNil)
				So(g.Records[0].Professor(), ShouldEqual, "Dr. Juan Pérez")
				So(g.Records[0].Keys(), ShouldResemble, []string{"code", "group", "professor", "schedules"})
			})
		})

		Convey("When the database is reopened", func() {
			So(s.SaveRoster(ctx, []model.Professor{{ID: "1", FullName: "A"}}), ShouldBeNil)
			So(s.Close(), ShouldBeNil)
			again, err := OpenSQLite(ctx, path)
			So(err, ShouldBeNil)
			defer func() { _ = again.Close() }()

			Convey("Then the schema is reused", func() {
				got, err := again.LoadRoster(ctx)
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
			})
		})
	})
}

func TestOpenAndCopy(t *testing.T) {
	Convey("Given a JSON data directory with every dataset", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		cfg := config.New(ctx)
		cfg.DataDir = dir

		src, err := Open(ctx, cfg)
		So(err, ShouldBeNil)
		So(src.SaveRoster(ctx, []model.Professor{{ID: "7", FullName: "JUAN PEREZ"}}), ShouldBeNil)
		So(src.SaveGroup(ctx, &model.ReferenceGroup{Key: "1100", Records: []*model.Reference{model.NewReference("Dr. Juan Pérez")}}), ShouldBeNil)

		Convey("When copied into SQLite", func() {
			cfg.Backend = config.BackendSQLite
			dst, err := Open(ctx, cfg)
			So(err, ShouldBeNil)
			defer func() { _ = dst.Close() }()

			sum, err := Copy(ctx, dst, src)

			Convey("Then present datasets move and missing ones are skipped", func() {
				So(err, ShouldBeNil)
				So(sum, ShouldResemble, CopySummary{Roster: 1, Observations: 0, Groups: 1})
				g, err := dst.LoadGroup(ctx, "1100")
				So(err, ShouldBeNil)
				So(g.Records[0].Professor(), ShouldEqual, "Dr. Juan Pérez")
			})
		})

		Convey("When the backend is unknown", func() {
			cfg.Backend = "mongo"
			_, err := Open(ctx, cfg)
			So(errors.Is(err, ErrUnknownBackend), ShouldBeTrue)
		})
	})
}
