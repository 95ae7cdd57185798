// Package site serves the embedded single-page prediction form.
package site

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"path"
)

//go:embed static
var static embed.FS

// assetMaxAge is how long browsers may cache the script and stylesheet.
const assetMaxAge = "public, max-age=3600"

// Files returns the form's files rooted at the page directory.
func Files() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Register attaches the form at / and its assets to mux. The page itself
// is never cached so a redeploy picks up new asset references at once.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	files := http.FileServerFS(Files())
	mux.Handle("GET /", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		if p := path.Clean(r.URL.Path); p == "/" || p == "/index.html" {
			h.Set("Cache-Control", "no-cache")
		} else {
			h.Set("Cache-Control", assetMaxAge)
		}
		files.ServeHTTP(w, r)
	}))
}
