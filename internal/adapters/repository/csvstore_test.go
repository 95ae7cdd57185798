package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ArnavTamrakar/Fight-predict/internal/adapters/repository"
	"github.com/ArnavTamrakar/Fight-predict/internal/domain/fighter"
	. "github.com/smartystreets/goconvey/convey"
)

const fixtureCSV = "testdata/fighters.csv"

func TestCSVStore(t *testing.T) {
	Convey("Given a CSV store over the fixture file", t, func() {
		ctx := context.Background()
		store := repository.NewCSVStore(fixtureCSV)

		Convey("When streaming records", func() {
			var recs []fighter.Record
			var errs []error
			for rec, err := range store.Records(ctx) {
				if err != nil {
					errs = append(errs, err)
					continue
				}
				recs = append(recs, rec)
			}

			Convey("Then good rows should be yielded and the bad row reported in place", func() {
				So(len(recs), ShouldEqual, 5)
				So(len(errs), ShouldEqual, 1)
				So(errors.Is(errs[0], repository.ErrMalformedRow), ShouldBeTrue)
			})

			Convey("Then aliased headers should map onto fields", func() {
				So(recs[0], ShouldResemble, fighter.Record{
					Name: "Jon Jones", Record: "27-1-0 (1 NC)", StrAcc: "58", TDAcc: "45", TDDef: "95",
					TDAvg: "1.85", SLpM: "4.29", Weight: "205", Reach: "84.5", Stance: "Orthodox", DoB: "1987-07-19",
				})
			})

			Convey("Then the sequence should be restartable", func() {
				n := 0
				for _, err := range store.Records(ctx) {
					if err == nil {
						n++
					}
				}
				So(n, ShouldEqual, len(recs))
			})
		})

		Convey("When the consumer stops early", func() {
			n := 0
			for range store.Records(ctx) {
				n++
				break
			}

			Convey("Then iteration should end cleanly", func() {
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When finding a fighter with different casing", func() {
			rec, err := store.FindByName(ctx, "  STIPE miocic ")

			Convey("Then the record should be returned", func() {
				So(err, ShouldBeNil)
				So(rec.Name, ShouldEqual, "Stipe Miocic")
				So(rec.Weight, ShouldEqual, "240")
			})
		})

		Convey("When a name appears twice", func() {
			rec, err := store.FindByName(ctx, "jon jones")

			Convey("Then the first row should win", func() {
				So(err, ShouldBeNil)
				So(rec.Stance, ShouldEqual, "Orthodox")
			})
		})

		Convey("When finding an unknown fighter", func() {
			_, err := store.FindByName(ctx, "Nobody")

			Convey("Then it should be not found", func() {
				So(errors.Is(err, fighter.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When listing names", func() {
			names, err := store.Names(ctx)

			Convey("Then they should be sorted and de-duplicated case-insensitively", func() {
				So(err, ShouldBeNil)
				So(names, ShouldResemble, []string{"Alex Pereira", "Israel Adesanya", "Jon Jones", "Stipe Miocic"})
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := store.FindByName(cctx, "Jon Jones")

			Convey("Then the lookup should be unavailable", func() {
				So(errors.Is(err, fighter.ErrLookupUnavailable), ShouldBeTrue)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})

	Convey("Given broken CSV sources", t, func() {
		ctx := context.Background()
		dir := t.TempDir()

		Convey("When the file does not exist", func() {
			_, err := repository.NewCSVStore(filepath.Join(dir, "missing.csv")).FindByName(ctx, "Jon Jones")

			Convey("Then the lookup should be unavailable", func() {
				So(errors.Is(err, fighter.ErrLookupUnavailable), ShouldBeTrue)
			})
		})

		Convey("When the file has no name column", func() {
			path := filepath.Join(dir, "noname.csv")
			So(os.WriteFile(path, []byte("fighter,record\nJon Jones,1-0-0\n"), 0o600), ShouldBeNil)
			_, err := repository.NewCSVStore(path).Names(ctx)

			Convey("Then the lookup should be unavailable", func() {
				So(errors.Is(err, fighter.ErrLookupUnavailable), ShouldBeTrue)
			})
		})
	})
}
