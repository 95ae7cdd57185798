package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ArnavTamrakar/Fight-predict/internal/adapters/http/api"
	"github.com/ArnavTamrakar/Fight-predict/internal/adapters/inference"
	service "github.com/ArnavTamrakar/Fight-predict/internal/app"
	"github.com/ArnavTamrakar/Fight-predict/internal/domain/features"
	"github.com/ArnavTamrakar/Fight-predict/internal/domain/fighter"
	"github.com/ArnavTamrakar/Fight-predict/internal/domain/model"
	"github.com/ArnavTamrakar/Fight-predict/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var fixedNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type mockLookup struct {
	records map[string]fighter.Record
	err     error
}

func (m *mockLookup) FindByName(_ context.Context, name string) (fighter.Record, error) {
	if m.err != nil {
		return fighter.Record{}, m.err
	}
	r, ok := m.records[fighter.Key(name)]
	if !ok {
		return fighter.Record{}, fighter.ErrNotFound
	}
	return r, nil
}

func (m *mockLookup) Names(context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]string, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.Name)
	}
	sort.Strings(out)
	return out, nil
}

type mockPredictor struct {
	mu    sync.Mutex
	calls int
	last  features.Vector
	err   error
}

func (m *mockPredictor) Predict(_ context.Context, v features.Vector) (inference.Prediction, error) {
	m.mu.Lock()
	m.calls++
	m.last = v
	m.mu.Unlock()
	if m.err != nil {
		return inference.Prediction{}, m.err
	}
	return inference.Prediction{
		Winner:        model.WinnerFighter2,
		Prediction:    0,
		Probabilities: []float64{0.64, 0.36},
		Confidence:    0.64,
	}, nil
}

func (m *mockPredictor) snapshot() (int, features.Vector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls, m.last
}

func record(name, stance, reach string) fighter.Record {
	return fighter.Record{
		Name: name, Record: "20-4-0 (1 NC)",
		StrAcc: "53", TDAcc: "34", TDDef: "68", TDAvg: "1.86", SLpM: "4.82",
		Weight: "240", Reach: reach, Stance: stance, DoB: "1982-08-19",
	}
}

type harness struct {
	lookup    *mockLookup
	predictor *mockPredictor
	handler   http.Handler
}

func newHarness(opts ...service.Option) *harness {
	lookup := &mockLookup{records: map[string]fighter.Record{}}
	for _, r := range []fighter.Record{
		record("Jon Jones", "Orthodox", "84.5"),
		record("Stipe Miocic", "Orthodox", "80"),
		record("Israel Adesanya", "Switch", "80"),
		record("Tom Aspinall", "Orthodox", ""),
	} {
		lookup.records[fighter.Key(r.Name)] = r
	}
	pred := &mockPredictor{}
	base := []service.Option{
		service.WithDeriver(features.NewDeriver(features.WithClock(func() time.Time { return fixedNow }))),
		service.WithLogger(logger.Nop()),
		service.WithQueueSize(0),
	}
	svc := service.New(lookup, pred, append(base, opts...)...)

	server := api.NewServer(svc,
		api.WithLogger(logger.Nop()),
		api.WithAllowedOrigins([]string{"https://fight.example"}),
		api.WithMaxBodyBytes(256),
	)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return &harness{lookup: lookup, predictor: pred, handler: server.Handler(mux)}
}

func (h *harness) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestPredictEndpoint(t *testing.T) {
	Convey("Given the API over a fake dataset and model", t, func() {
		h := newHarness()

		Convey("When predicting two known fighters", func() {
			w := h.do("POST", "/predict", `{"fighter1":"jon jones","fighter2":"Stipe Miocic"}`)

			Convey("Then the model answer is relayed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				pred := body["prediction"].(map[string]any)
				So(pred["winner"], ShouldEqual, "Fighter 2")
				So(pred["probabilities"], ShouldResemble, []any{0.64, 0.36})
				So(body["fighters"], ShouldResemble, []any{"Jon Jones", "Stipe Miocic"})
				So(body["nan_slots"], ShouldResemble, []any{})
			})

			Convey("Then a request id is echoed", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
			})
		})

		Convey("When both fighters share a stance", func() {
			w := h.do("POST", "/api/predict", `{"fighter1":"Jon Jones","fighter2":"Stipe Miocic"}`)

			Convey("Then the stance matchup slot is 0", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				_, v := h.predictor.snapshot()
				So(v[features.SlotStanceMatchup], ShouldEqual, 0)
			})
		})

		Convey("When the stances differ", func() {
			w := h.do("POST", "/api/predict", `{"fighter1":"Jon Jones","fighter2":"Israel Adesanya"}`)

			Convey("Then the stance matchup slot is 1", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				_, v := h.predictor.snapshot()
				So(v[features.SlotStanceMatchup], ShouldEqual, 1)
			})
		})

		Convey("When a fighter is unknown", func() {
			w := h.do("POST", "/predict", `{"fighter1":"Jon Jonez","fighter2":"Stipe Miocic"}`)

			Convey("Then 404 names the missing fighter and the model is never called", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				body := decode(w)
				So(body["code"], ShouldEqual, "fighter_not_found")
				So(body["missing"], ShouldResemble, []any{"Jon Jonez"})
				sugg := body["suggestions"].(map[string]any)
				So(sugg["Jon Jonez"], ShouldResemble, []any{"Jon Jones"})
				calls, _ := h.predictor.snapshot()
				So(calls, ShouldEqual, 0)
			})
		})

		Convey("When the body is not JSON", func() {
			w := h.do("POST", "/predict", `fighter1=jon`)

			Convey("Then 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When a name is missing", func() {
			w := h.do("POST", "/predict", `{"fighter1":"Jon Jones"}`)

			Convey("Then 400 says which one", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["message"], ShouldContainSubstring, "fighter2 is required")
			})
		})

		Convey("When the same fighter is given twice", func() {
			w := h.do("POST", "/predict", `{"fighter1":"Jon Jones","fighter2":"JON JONES"}`)

			Convey("Then the prediction is relayed and every difference is zero", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				calls, v := h.predictor.snapshot()
				So(calls, ShouldEqual, 1)
				for _, slot := range features.DiffSlots {
					So(v[slot], ShouldEqual, 0)
				}
				So(v[features.SlotStanceMatchup], ShouldEqual, 0)
			})
		})

		Convey("When the body exceeds the limit", func() {
			w := h.do("POST", "/predict", `{"fighter1":"`+strings.Repeat("x", 512)+`","fighter2":"y"}`)

			Convey("Then 413 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			})
		})

		Convey("When the lookup backend is down", func() {
			h.lookup.err = fighter.ErrLookupUnavailable
			w := h.do("POST", "/predict", `{"fighter1":"Jon Jones","fighter2":"Stipe Miocic"}`)

			Convey("Then 500 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decode(w)["code"], ShouldEqual, "lookup_unavailable")
			})
		})

		Convey("When the model service answers non-2xx", func() {
			h.predictor.err = &inference.UpstreamError{Status: 500, Body: "boom"}
			w := h.do("POST", "/predict", `{"fighter1":"Jon Jones","fighter2":"Stipe Miocic"}`)

			Convey("Then 502 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(decode(w)["code"], ShouldEqual, "inference_unavailable")
			})
		})

		Convey("When the model rejects the vector", func() {
			h.predictor.err = inference.ErrInferenceRejected
			w := h.do("POST", "/predict", `{"fighter1":"Jon Jones","fighter2":"Stipe Miocic"}`)

			Convey("Then 502 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(decode(w)["code"], ShouldEqual, "inference_rejected")
			})
		})

		Convey("When the model times out", func() {
			h.predictor.err = context.DeadlineExceeded
			w := h.do("POST", "/predict", `{"fighter1":"Jon Jones","fighter2":"Stipe Miocic"}`)

			Convey("Then 504 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusGatewayTimeout)
			})
		})

		Convey("When a fighter has a NaN attribute under propagate", func() {
			w := h.do("POST", "/predict", `{"fighter1":"Tom Aspinall","fighter2":"Jon Jones"}`)

			Convey("Then the prediction still goes through and reports the slot", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["nan_slots"], ShouldResemble, []any{float64(features.SlotReachDiff)})
			})
		})
	})
}

func TestPredictEndpoint_FailFast(t *testing.T) {
	Convey("Given the API under the fail_fast policy", t, func() {
		h := newHarness(service.WithPolicy(features.PolicyFailFast))

		Convey("When a fighter has a NaN attribute", func() {
			w := h.do("POST", "/predict", `{"fighter1":"Tom Aspinall","fighter2":"Jon Jones"}`)

			Convey("Then 422 is returned and the model is not called", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(decode(w)["code"], ShouldEqual, "incomplete_features")
				calls, _ := h.predictor.snapshot()
				So(calls, ShouldEqual, 0)
			})
		})
	})
}

func TestFeaturesEndpoint(t *testing.T) {
	Convey("Given the API", t, func() {
		h := newHarness()

		Convey("When asking for the features of a matchup with a missing reach", func() {
			w := h.do("POST", "/api/features", `{"fighter1":"Tom Aspinall","fighter2":"Jon Jones"}`)

			Convey("Then all 33 named slots come back with null for NaN", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				slots := body["features"].([]any)
				So(slots, ShouldHaveLength, features.Width)

				reach := slots[features.SlotReachDiff].(map[string]any)
				So(reach["name"], ShouldEqual, features.SlotNames[features.SlotReachDiff])
				So(reach["value"], ShouldBeNil)

				stance := slots[features.SlotStanceMatchup].(map[string]any)
				So(stance["value"], ShouldEqual, 0)

				issues := body["issues"].([]any)
				So(issues, ShouldHaveLength, 1)
				So(issues[0].(map[string]any)["field"], ShouldEqual, "reach")
			})

			Convey("Then the model is not called", func() {
				calls, _ := h.predictor.snapshot()
				So(calls, ShouldEqual, 0)
			})
		})
	})
}

func TestFightersEndpoint(t *testing.T) {
	Convey("Given the API", t, func() {
		h := newHarness()

		Convey("When listing fighters", func() {
			w := h.do("GET", "/api/fighters", "")

			Convey("Then the sorted names are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var names []string
				So(json.Unmarshal(w.Body.Bytes(), &names), ShouldBeNil)
				So(names, ShouldResemble, []string{"Israel Adesanya", "Jon Jones", "Stipe Miocic", "Tom Aspinall"})
			})
		})

		Convey("When the lookup is down", func() {
			h.lookup.err = fighter.ErrLookupUnavailable
			w := h.do("GET", "/api/fighters", "")

			Convey("Then 500 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When using the wrong method", func() {
			w := h.do("POST", "/api/fighters", `{}`)

			Convey("Then 405 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given the API", t, func() {
		h := newHarness()

		Convey("When checking liveness", func() {
			w := h.do("GET", "/health", "")

			Convey("Then status ok is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["status"], ShouldEqual, "ok")
			})
		})

		Convey("When scraping metrics", func() {
			_ = h.do("GET", "/health", "")
			w := h.do("GET", "/healthz", "")

			Convey("Then the Prometheus exposition is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "fightpredict_api_http_requests_total")
			})
		})

		Convey("When reading stats", func() {
			w := h.do("GET", "/stats", "")

			Convey("Then service stats are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["nanPolicy"], ShouldEqual, "propagate")
			})
		})
	})
}

func TestMiddleware(t *testing.T) {
	Convey("Given the API with a CORS allow list", t, func() {
		h := newHarness()

		Convey("When a browser sends a preflight from an allowed origin", func() {
			req := httptest.NewRequest("OPTIONS", "/predict", http.NoBody)
			req.Header.Set("Origin", "https://fight.example")
			req.Header.Set("Access-Control-Request-Method", "POST")
			w := httptest.NewRecorder()
			h.handler.ServeHTTP(w, req)

			Convey("Then it is answered with allow headers", func() {
				So(w.Code, ShouldEqual, http.StatusNoContent)
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://fight.example")
				So(w.Header().Get("Access-Control-Allow-Methods"), ShouldContainSubstring, "POST")
			})
		})

		Convey("When the origin is not allowed", func() {
			req := httptest.NewRequest("GET", "/health", http.NoBody)
			req.Header.Set("Origin", "https://evil.example")
			w := httptest.NewRecorder()
			h.handler.ServeHTTP(w, req)

			Convey("Then no allow header is set", func() {
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldBeEmpty)
			})
		})

		Convey("When the client supplies a request id", func() {
			req := httptest.NewRequest("GET", "/health", http.NoBody)
			req.Header.Set(api.RequestIDHeader, "req-123")
			w := httptest.NewRecorder()
			h.handler.ServeHTTP(w, req)

			Convey("Then it is echoed unchanged", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "req-123")
			})
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given the error helpers", t, func() {
		cause := fighter.ErrNotFound

		Convey("Then WrapKind keeps both kind and cause matchable", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(err.Error(), ShouldEqual, "api.op: bad request: fighter not found")
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, fighter.ErrNotFound), ShouldBeTrue)
		})

		Convey("Then NewKind and Wrap prefix the op", func() {
			So(api.NewKind("api.op", api.ErrBadRequest).Error(), ShouldEqual, "api.op: bad request")
			So(api.Wrap("api.op", cause).Error(), ShouldEqual, "api.op: fighter not found")
			So(api.Wrap("api.op", nil), ShouldBeNil)
		})
	})
}
