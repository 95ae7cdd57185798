package inference

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Backend names.
const (
	BackendHTTP  = "http"
	BackendLocal = "local"
)

// Options selects and configures a predictor chain.
type Options struct {
	Backend   string
	URL       string
	Path      string
	ModelPath string
	Timeout   time.Duration
	RateLimit float64 // requests per second; 0 disables
	Burst     int
}

// New builds the backend and wraps it, outermost first, in metrics,
// tracing, rate limiting and timeout.
func New(o Options) (Predictor, error) {
	var base Predictor
	switch o.Backend {
	case "", BackendHTTP:
		base = NewHTTPPredictor(o.URL, o.Path)
		o.Backend = BackendHTTP
	case BackendLocal:
		lp, err := LoadLocalPredictor(o.ModelPath)
		if err != nil {
			return nil, err
		}
		base = lp
	default:
		return nil, fmt.Errorf("unknown inference backend %q", o.Backend)
	}

	return Chain(base,
		MetricsMiddleware(o.Backend),
		TracingMiddleware(o.Backend),
		RateLimitMiddleware(rate.Limit(o.RateLimit), o.Burst),
		TimeoutMiddleware(o.Timeout),
	), nil
}
