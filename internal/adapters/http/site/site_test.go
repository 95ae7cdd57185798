package site

import (
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func get(mux *http.ServeMux, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	return w
}

func TestSite(t *testing.T) {
	Convey("Given the form registered on a mux", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux)

		Convey("When the page is requested", func() {
			w := get(mux, "/")

			Convey("Then the uncached form with both name inputs is served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				So(w.Header().Get("Cache-Control"), ShouldEqual, "no-cache")
				So(w.Body.String(), ShouldContainSubstring, `id="fighter1"`)
				So(w.Body.String(), ShouldContainSubstring, `list="fighters"`)
			})
		})

		Convey("When the script is requested", func() {
			w := get(mux, "/app.js")

			Convey("Then it talks to the fighters and predict endpoints and may be cached", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Cache-Control"), ShouldEqual, assetMaxAge)
				So(w.Body.String(), ShouldContainSubstring, "/api/fighters")
				So(w.Body.String(), ShouldContainSubstring, "/api/predict")
			})
		})

		Convey("When an unknown asset is requested", func() {
			w := get(mux, "/missing.png")

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})

	Convey("Given the embedded files", t, func() {
		names, err := fs.Glob(Files(), "*")

		Convey("Then the page, script and stylesheet are all present", func() {
			So(err, ShouldBeNil)
			So(names, ShouldContain, "index.html")
			So(names, ShouldContain, "app.js")
			So(names, ShouldContain, "style.css")
		})
	})

	Convey("Given a nil mux", t, func() {
		Convey("Then registering panics", func() {
			So(func() { Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}
