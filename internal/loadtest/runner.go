package loadtest

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ArnavTamrakar/Fight-predict/pkg/logger"
)

// Report summarizes a load run.
type Report struct {
	Requests  int
	Passed    int
	ByStatus  map[int]int
	Problems  []Outcome
	Duration  time.Duration
	latencies []time.Duration
}

// Percentile returns the latency at quantile q in [0, 1].
func (r *Report) Percentile(q float64) time.Duration {
	if len(r.latencies) == 0 {
		return 0
	}
	idx := int(q * float64(len(r.latencies)-1))
	return r.latencies[idx]
}

// Throughput is completed requests per second.
func (r *Report) Throughput() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Requests) / r.Duration.Seconds()
}

// Run executes a complete load run: health check, fighter list, matchup
// generation, concurrent predictions and per-response verification.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	cfg = cfg.withDefaults()
	log := logger.Get().Named("loadtest")
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
		logger.Float64("qps", cfg.QPS),
	)

	if err := c.checkHealth(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	names, err := c.fighters(ctx)
	if err != nil {
		return nil, fmt.Errorf("fighter list failed: %w", err)
	}

	matchups, err := GenerateMatchups(names, cfg.Requests, cfg.UnknownRatio, cfg.Seed)
	if err != nil {
		return nil, err
	}

	outcomes, elapsed, err := submit(ctx, c, cfg, matchups)
	if err != nil {
		return nil, err
	}

	rep := summarize(outcomes, elapsed)
	log.Info(ctx, "load run finished",
		logger.Int("requests", rep.Requests),
		logger.Int("passed", rep.Passed),
		logger.Int("problems", len(rep.Problems)),
		logger.Duration("duration", rep.Duration),
	)
	return rep, nil
}

// submit fans matchups out over cfg.Workers goroutines. Outcomes keep the
// order of matchups.
func submit(ctx context.Context, c *client, cfg Config, matchups []Matchup) ([]Outcome, time.Duration, error) {
	var limiter *rate.Limiter
	if cfg.QPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.QPS), cfg.Workers)
	}

	outcomes := make([]Outcome, len(matchups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	start := time.Now()
	for i, m := range matchups {
		if limiter != nil {
			if err := limiter.Wait(gctx); err != nil {
				break
			}
		}
		g.Go(func() error {
			outcomes[i] = c.predict(gctx, m)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("load run interrupted: %w", err)
	}
	return outcomes, time.Since(start), nil
}

func summarize(outcomes []Outcome, elapsed time.Duration) *Report {
	rep := &Report{
		Requests:  len(outcomes),
		ByStatus:  make(map[int]int),
		Duration:  elapsed,
		latencies: make([]time.Duration, 0, len(outcomes)),
	}
	for _, o := range outcomes {
		rep.ByStatus[o.Status]++
		rep.latencies = append(rep.latencies, o.Latency)
		if o.Problem == "" {
			rep.Passed++
		} else {
			rep.Problems = append(rep.Problems, o)
		}
	}
	slices.Sort(rep.latencies)
	return rep
}
