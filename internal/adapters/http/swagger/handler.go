// Package swagger serves the OpenAPI description of the prediction API
// and a ReDoc page rendering it.
package swagger

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"net/http"
)

// RedocScriptURL is the ReDoc bundle loaded by the docs page.
const RedocScriptURL = "https://cdn.redoc.ly/redoc/v2.1.5/bundles/redoc.standalone.js"

//go:embed openapi.yaml
var spec []byte

// specETag is a strong validator over the embedded document.
var specETag = func() string {
	sum := sha256.Sum256(spec)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}()

// Spec returns the embedded OpenAPI document.
func Spec() []byte { return spec }

// Register attaches the docs routes to mux:
//
//	GET /api-docs      ReDoc page
//	GET /docs          redirect to /api-docs
//	GET /openapi.yaml  embedded OpenAPI document, ETag-validated
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /api-docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(docsPage))
	})
	mux.Handle("GET /docs", http.RedirectHandler("/api-docs", http.StatusMovedPermanently))

	mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("ETag", specETag)
		h.Set("Cache-Control", "no-cache")
		if r.Header.Get("If-None-Match") == specETag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		h.Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(spec)
	})
}

const docsPage = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Fight Predict API</title>
  <style>body { margin: 0; }</style>
</head>
<body>
  <div id="docs"></div>
  <script src="` + RedocScriptURL + `"></script>
  <script>Redoc.init("/openapi.yaml", { hideDownloadButton: false }, document.getElementById("docs"));</script>
</body>
</html>
`
