package service_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ArnavTamrakar/Fight-predict/internal/adapters/inference"
	service "github.com/ArnavTamrakar/Fight-predict/internal/app"
	"github.com/ArnavTamrakar/Fight-predict/internal/domain/features"
	"github.com/ArnavTamrakar/Fight-predict/internal/domain/fighter"
	"github.com/ArnavTamrakar/Fight-predict/internal/domain/model"
	"github.com/ArnavTamrakar/Fight-predict/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var fixedNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type mapLookup struct {
	records map[string]fighter.Record
	err     error
}

func newMapLookup(recs ...fighter.Record) *mapLookup {
	m := &mapLookup{records: make(map[string]fighter.Record)}
	for _, r := range recs {
		m.records[fighter.Key(r.Name)] = r
	}
	return m
}

func (m *mapLookup) FindByName(_ context.Context, name string) (fighter.Record, error) {
	if m.err != nil {
		return fighter.Record{}, m.err
	}
	r, ok := m.records[fighter.Key(name)]
	if !ok {
		return fighter.Record{}, fighter.ErrNotFound
	}
	return r, nil
}

func (m *mapLookup) Names(context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []string
	for _, r := range m.records {
		out = append(out, r.Name)
	}
	return out, nil
}

type countingPredictor struct {
	calls atomic.Int32
	err   error
	last  features.Vector
	mu    sync.Mutex
}

func (p *countingPredictor) Predict(_ context.Context, v features.Vector) (inference.Prediction, error) {
	p.calls.Add(1)
	p.mu.Lock()
	p.last = v
	p.mu.Unlock()
	if p.err != nil {
		return inference.Prediction{}, p.err
	}
	return inference.Prediction{
		Winner:        model.WinnerFighter1,
		Prediction:    1,
		Probabilities: []float64{0.3, 0.7},
		Confidence:    0.7,
	}, nil
}

type chanSink struct {
	events chan model.PredictionEvent
}

func (s *chanSink) Name() string { return "chan" }

func (s *chanSink) Publish(_ context.Context, e model.PredictionEvent) error { //nolint:gocritic // hugeParam: test sink
	s.events <- e
	return nil
}

func (s *chanSink) Close() error { return nil }

func jones() fighter.Record {
	return fighter.Record{
		Name: "Jon Jones", Record: "27-1-0 (1 NC)",
		StrAcc: "58", TDAcc: "45", TDDef: "95", TDAvg: "1.85", SLpM: "4.38",
		Weight: "248", Reach: "84.5", Stance: "Orthodox", DoB: "1987-07-19",
	}
}

func miocic() fighter.Record {
	return fighter.Record{
		Name: "Stipe Miocic", Record: "20-4-0",
		StrAcc: "53", TDAcc: "34", TDDef: "68", TDAvg: "1.86", SLpM: "4.82",
		Weight: "240", Reach: "80", Stance: "Orthodox", DoB: "1982-08-19",
	}
}

func newService(l fighter.Lookup, p inference.Predictor, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithDeriver(features.NewDeriver(features.WithClock(func() time.Time { return fixedNow }))),
		service.WithLogger(logger.Nop()),
		service.WithQueueSize(0),
	}
	return service.New(l, p, append(base, opts...)...)
}

func TestService_Predict(t *testing.T) {
	Convey("Given a service over two known fighters", t, func() {
		ctx := context.Background()
		lookup := newMapLookup(jones(), miocic())
		pred := &countingPredictor{}
		svc := newService(lookup, pred)

		Convey("When predicting a valid matchup", func() {
			res, err := svc.Predict(ctx, "jon jones", "  Stipe Miocic ")

			Convey("Then the model answer is relayed with stored names", func() {
				So(err, ShouldBeNil)
				So(pred.calls.Load(), ShouldEqual, 1)
				So(res.Prediction.Winner, ShouldEqual, model.WinnerFighter1)
				So(res.Prediction.Probabilities, ShouldResemble, []float64{0.3, 0.7})
				So(res.Fighters, ShouldResemble, [2]string{"Jon Jones", "Stipe Miocic"})
				So(res.NaNSlots, ShouldBeEmpty)
			})

			Convey("Then the predictor receives the derived vector", func() {
				want := features.Derive(jones(), miocic(), fixedNow)
				So(pred.last, ShouldResemble, want)
				So(res.Features, ShouldResemble, want)
			})
		})

		Convey("When one fighter is unknown", func() {
			_, err := svc.Predict(ctx, "Jon Jonse", "Stipe Miocic")

			Convey("Then a not-found error with suggestions is returned and inference is skipped", func() {
				So(errors.Is(err, fighter.ErrNotFound), ShouldBeTrue)
				var nf *service.NotFoundError
				So(errors.As(err, &nf), ShouldBeTrue)
				So(nf.Missing, ShouldResemble, []string{"Jon Jonse"})
				So(nf.Suggestions["Jon Jonse"], ShouldResemble, []string{"Jon Jones"})
				So(pred.calls.Load(), ShouldEqual, 0)
			})
		})

		Convey("When both fighters are unknown", func() {
			_, err := svc.Predict(ctx, "Nobody One", "Nobody Two")

			Convey("Then both names are reported", func() {
				var nf *service.NotFoundError
				So(errors.As(err, &nf), ShouldBeTrue)
				So(nf.Missing, ShouldResemble, []string{"Nobody One", "Nobody Two"})
				So(nf.Suggestions, ShouldBeEmpty)
				So(pred.calls.Load(), ShouldEqual, 0)
			})
		})

		Convey("When the same fighter is named twice in different case", func() {
			res, err := svc.Predict(ctx, "Jon Jones", "JON  JONES")

			Convey("Then the mirror matchup is predicted with zero differences", func() {
				So(err, ShouldBeNil)
				So(res.Fighters, ShouldResemble, [2]string{"Jon Jones", "Jon Jones"})
				So(pred.calls.Load(), ShouldEqual, 1)
				pred.mu.Lock()
				v := pred.last
				pred.mu.Unlock()
				for _, slot := range features.DiffSlots {
					So(v[slot], ShouldEqual, 0)
				}
				So(v[features.SlotStanceMatchup], ShouldEqual, 0)
				So(v.Complete(), ShouldBeTrue)
			})
		})

		Convey("When a name is blank", func() {
			_, err := svc.Predict(ctx, "   ", "Jon Jones")

			Convey("Then it is rejected", func() {
				So(errors.Is(err, service.ErrMissingName), ShouldBeTrue)
			})
		})

		Convey("When the lookup backend is down", func() {
			lookup.err = fighter.ErrLookupUnavailable
			_, err := svc.Predict(ctx, "Jon Jones", "Stipe Miocic")

			Convey("Then the unavailability surfaces without inference", func() {
				So(errors.Is(err, fighter.ErrLookupUnavailable), ShouldBeTrue)
				So(errors.Is(err, fighter.ErrNotFound), ShouldBeFalse)
				So(pred.calls.Load(), ShouldEqual, 0)
			})
		})

		Convey("When the predictor fails", func() {
			pred.err = &inference.UpstreamError{Status: 503, Body: "down"}
			_, err := svc.Predict(ctx, "Jon Jones", "Stipe Miocic")

			Convey("Then the inference error is passed through", func() {
				So(errors.Is(err, inference.ErrInferenceUnavailable), ShouldBeTrue)
			})
		})
	})
}

func TestService_NaNPolicy(t *testing.T) {
	Convey("Given a fighter with a missing reach", t, func() {
		ctx := context.Background()
		noReach := miocic()
		noReach.Reach = ""
		lookup := newMapLookup(jones(), noReach)
		pred := &countingPredictor{}

		Convey("When the policy is propagate", func() {
			svc := newService(lookup, pred)
			res, err := svc.Predict(ctx, "Jon Jones", "Stipe Miocic")

			Convey("Then NaN slots flow to inference", func() {
				So(err, ShouldBeNil)
				So(pred.calls.Load(), ShouldEqual, 1)
				So(res.NaNSlots, ShouldResemble, []int{features.SlotReachDiff})
				So(math.IsNaN(pred.last[features.SlotReachDiff]), ShouldBeTrue)
				So(res.Issues, ShouldHaveLength, 1)
				So(res.Issues[0].Field, ShouldEqual, "reach")
			})
		})

		Convey("When the policy is fail_fast", func() {
			svc := newService(lookup, pred, service.WithPolicy(features.PolicyFailFast))
			_, err := svc.Predict(ctx, "Jon Jones", "Stipe Miocic")

			Convey("Then the request fails before inference", func() {
				So(errors.Is(err, service.ErrIncompleteFeatures), ShouldBeTrue)
				So(pred.calls.Load(), ShouldEqual, 0)
			})
		})
	})
}

func TestService_Features(t *testing.T) {
	Convey("Given a service", t, func() {
		pred := &countingPredictor{}
		svc := newService(newMapLookup(jones(), miocic()), pred)

		Convey("When deriving features only", func() {
			rep, err := svc.Features(context.Background(), "Jon Jones", "Stipe Miocic")

			Convey("Then the vector and both records come back without inference", func() {
				So(err, ShouldBeNil)
				So(rep.Vector, ShouldResemble, features.Derive(jones(), miocic(), fixedNow))
				So(rep.Fighters[0].Name, ShouldEqual, "Jon Jones")
				So(rep.Fighters[1].Stance, ShouldEqual, "Orthodox")
				So(pred.calls.Load(), ShouldEqual, 0)
			})
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service with events enabled", t, func() {
		ctx := context.Background()
		sink := &chanSink{events: make(chan model.PredictionEvent, 4)}
		svc := newService(newMapLookup(jones(), miocic()), &countingPredictor{},
			service.WithQueueSize(4),
			service.WithSink(sink),
			service.WithBackends("csv", "http"),
		)
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When a prediction is served", func() {
			_, err := svc.Predict(ctx, "Jon Jones", "Stipe Miocic")
			So(err, ShouldBeNil)

			stopCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			So(svc.Stop(stopCtx), ShouldBeNil)

			Convey("Then one event reaches the sink", func() {
				So(sink.events, ShouldHaveLength, 1)
				e := <-sink.events
				So(e.ID, ShouldNotBeEmpty)
				So(e.Fighter1, ShouldEqual, "Jon Jones")
				So(e.Prediction.Winner, ShouldEqual, model.WinnerFighter1)
			})

			Convey("Then stats reflect the stopped service", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
				So(stats["predictions"], ShouldEqual, int64(1))
				So(stats["lookupBackend"], ShouldEqual, "csv")
			})
		})

		Convey("When it is running", func() {
			stats := svc.GetStats()
			defer func() { _ = svc.Stop(ctx) }()

			Convey("Then stats report it as started", func() {
				So(stats["started"], ShouldEqual, true)
				So(stats["eventsEnabled"], ShouldEqual, true)
				So(stats["queueLength"], ShouldEqual, 0)
			})
		})
	})
}
