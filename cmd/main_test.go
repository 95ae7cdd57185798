package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ArnavTamrakar/Fight-predict/internal/bootstrap"
	"github.com/ArnavTamrakar/Fight-predict/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

const fightersCSV = `name,record,str_acc,td_acc,td_def,td_avg,SLpM,weight,reach,stance,DoB
Jon Jones,27-1-0 (1 NC),58,45,95,1.85,4.29,205,84.5,Orthodox,1987-07-19
Stipe Miocic,20-4-0,53,34,68,1.86,4.82,240,80,Orthodox,1982-08-19
`

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fighters.csv")
	if err := os.WriteFile(path, []byte(fightersCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func fakeModel() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Features []*float64 `json:"features"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Features) != 33 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"success":false,"error":"bad features"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"prediction":1,"probabilities":[0.35,0.65],"winner":"Fighter 1 wins"}`))
	}))
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When configuration comes from the environment", func() {
			t.Setenv("FIGHT_ADDR", ":8080")
			t.Setenv("FIGHT_EVENT_QUEUE_SIZE", "16")
			t.Setenv("FIGHT_NAN_POLICY", "fail_fast")

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 16)
				convey.So(cfg.NaNPolicy, convey.ShouldEqual, config.NaNFailFast)
			})
		})

		convey.Convey("When the address is empty", func() {
			t.Setenv("FIGHT_ADDR", "")

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given a runtime wired over a csv file and a model server", t, func() {
		model := fakeModel()
		defer model.Close()

		cfg := config.New()
		cfg.CSVPath = writeCSV(t)
		cfg.InferenceURL = model.URL
		cfg.EventQueueSize = 0
		convey.So(cfg.Validate(), convey.ShouldBeNil)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rt, err := bootstrap.New(ctx, cfg)
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = rt.Close() }()
		convey.So(rt.Service.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = rt.Service.Stop(ctx) }()

		srv := httptest.NewServer(newHandler(ctx, cfg, rt.Service))
		defer srv.Close()

		convey.Convey("When a prediction is requested", func() {
			resp, err := http.Post(srv.URL+"/api/predict", "application/json",
				strings.NewReader(`{"fighter1":"jon jones","fighter2":"Stipe Miocic"}`))
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			convey.Convey("Then the model verdict is relayed", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(resp.Header.Get("X-Request-ID"), convey.ShouldNotBeEmpty)
				var body struct {
					Prediction struct {
						Winner        string    `json:"winner"`
						Probabilities []float64 `json:"probabilities"`
					} `json:"prediction"`
					Fighters []string `json:"fighters"`
				}
				convey.So(json.NewDecoder(resp.Body).Decode(&body), convey.ShouldBeNil)
				convey.So(body.Prediction.Winner, convey.ShouldEqual, "Fighter 1")
				convey.So(body.Prediction.Probabilities, convey.ShouldResemble, []float64{0.35, 0.65})
				convey.So(body.Fighters, convey.ShouldResemble, []string{"Jon Jones", "Stipe Miocic"})
			})
		})

		convey.Convey("When the fighter list and the site are requested", func() {
			list, err := http.Get(srv.URL + "/api/fighters")
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = list.Body.Close() }()
			var names []string
			convey.So(json.NewDecoder(list.Body).Decode(&names), convey.ShouldBeNil)

			page, err := http.Get(srv.URL + "/")
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = page.Body.Close() }()

			docs, err := http.Get(srv.URL + "/api-docs")
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = docs.Body.Close() }()

			convey.Convey("Then every surface answers", func() {
				convey.So(names, convey.ShouldResemble, []string{"Jon Jones", "Stipe Miocic"})
				convey.So(page.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(docs.StatusCode, convey.ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the system metrics updater runs until its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.Convey("Then it returns without panicking", func() {
				convey.So(func() { every(ctx, 10*time.Millisecond, updateSystemMetrics) }, convey.ShouldNotPanic)
				convey.So(func() { updateSystemMetrics() }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When service metrics are refreshed", func() {
			cfg := config.New()
			cfg.CSVPath = writeCSV(t)
			rt, err := bootstrap.New(context.Background(), cfg, bootstrap.WithoutEvents())
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = rt.Close() }()

			convey.Convey("Then it does not panic", func() {
				convey.So(func() { updateServiceMetrics(rt.Service) }, convey.ShouldNotPanic)
			})
		})
	})
}
