// Package service wires fighter lookup, feature derivation and inference
// into the operations the HTTP API and the CLI call.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ArnavTamrakar/Fight-predict/internal/adapters/inference"
	"github.com/ArnavTamrakar/Fight-predict/internal/adapters/mq/publisher"
	eventqueue "github.com/ArnavTamrakar/Fight-predict/internal/adapters/mq/queue"
	"github.com/ArnavTamrakar/Fight-predict/internal/domain/features"
	"github.com/ArnavTamrakar/Fight-predict/internal/domain/fighter"
	"github.com/ArnavTamrakar/Fight-predict/internal/domain/model"
	"github.com/ArnavTamrakar/Fight-predict/pkg/logger"
	"github.com/ArnavTamrakar/Fight-predict/pkg/metrics"
)

// Prediction outcomes recorded in metrics.
const (
	outcomeNotFound   = "not_found"
	outcomeBadRequest = "bad_request"
	outcomeLookup     = "lookup_error"
	outcomeIncomplete = "incomplete"
	outcomeInference  = "inference_error"
)

// Result is a relayed prediction plus the context it was computed in.
type Result struct {
	Prediction model.Prediction
	// Fighters holds the names as stored, in request order.
	Fighters [2]string
	Features features.Vector
	NaNSlots []int
	Issues   []features.Issue
}

// Report is a derived vector without inference.
type Report struct {
	Fighters [2]fighter.Record
	features.Derivation
}

// Service implements the dependencies required by the HTTP API and CLI.
type Service struct {
	mu sync.RWMutex

	// Core components
	lookup    fighter.Lookup
	predictor inference.Predictor
	deriver   *features.Deriver
	policy    features.Policy

	// Events
	queueSize int
	queue     eventqueue.Queue
	sink      publisher.Sink
	publisher *publisher.Publisher
	cancel    context.CancelFunc

	// Labels reported by GetStats
	lookupBackend    string
	inferenceBackend string

	suggestionLimit int

	started bool

	served atomic.Int64
	failed atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDeriver replaces the default Deriver, typically to pin its clock.
func WithDeriver(d *features.Deriver) Option {
	return func(s *Service) {
		if d != nil {
			s.deriver = d
		}
	}
}

// WithPolicy sets how NaN slots are treated before inference.
func WithPolicy(p features.Policy) Option {
	return func(s *Service) {
		if p != "" {
			s.policy = p
		}
	}
}

// WithQueueSize bounds the prediction event queue. Zero disables events.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.queueSize = size
		}
	}
}

// WithQueue supplies the event queue instead of creating one on Start.
func WithQueue(q eventqueue.Queue) Option {
	return func(s *Service) {
		if q != nil {
			s.queue = q
		}
	}
}

// WithSink sets where prediction events go. Defaults to a debug log sink.
func WithSink(sink publisher.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithBackends labels the lookup and inference backends in stats.
func WithBackends(lookup, inference string) Option {
	return func(s *Service) {
		s.lookupBackend = lookup
		s.inferenceBackend = inference
	}
}

// WithSuggestionLimit sets how many close names a not-found error carries.
func WithSuggestionLimit(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.suggestionLimit = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service over a lookup and a predictor.
func New(lookup fighter.Lookup, predictor inference.Predictor, opts ...Option) *Service {
	s := &Service{
		lookup:          lookup,
		predictor:       predictor,
		deriver:         features.NewDeriver(),
		policy:          features.PolicyPropagate,
		queueSize:       1024,
		suggestionLimit: defaultSuggestionLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start launches the event publisher. Safe to call more than once.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.queueSize > 0 || s.queue != nil {
		if s.queue == nil {
			s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
		}
		if s.sink == nil {
			s.sink = publisher.NewLogSink(s.logger.Named("events"))
		}
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.cancel = cancel
		s.publisher = publisher.New(s.queue, s.sink, publisher.WithLogger(s.logger))
		go s.publisher.Run(runCtx)
	}

	s.started = true
	s.logger.Info(ctx, "prediction service started",
		logger.String("lookup", s.lookupBackend),
		logger.String("inference", s.inferenceBackend),
		logger.String("nanPolicy", string(s.policy)),
		logger.Int("queueSize", s.queueSize),
		logger.Bool("events", s.publisher != nil),
	)
	return nil
}

// Stop closes the event queue and waits for the publisher to drain it,
// bounded by ctx.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping prediction service...")

	var err error
	if s.publisher != nil {
		_ = s.queue.Close()
		err = s.publisher.Shutdown(ctx)
		s.cancel()
		s.publisher = nil
		s.queue = nil
		s.sink = nil
	}

	s.started = false
	s.logger.Info(ctx, "prediction service stopped")
	return err
}

// Predict resolves both fighters, derives the feature vector and relays
// the model's answer. A missing fighter never reaches inference.
func (s *Service) Predict(ctx context.Context, name1, name2 string) (Result, error) {
	start := time.Now()

	a, b, err := s.resolve(ctx, name1, name2)
	if err != nil {
		s.fail(ctx, err)
		return Result{}, err
	}

	d := s.derive(ctx, a, b)
	nan := d.Vector.NaNSlots()
	if !s.policy.Allows(d.Vector) {
		err := fmt.Errorf("%w: %d NaN slots %v", ErrIncompleteFeatures, len(nan), nan)
		s.fail(ctx, err)
		return Result{}, err
	}

	pred, err := s.predictor.Predict(ctx, d.Vector)
	if err != nil {
		err = fmt.Errorf("predict %q vs %q: %w", a.Name, b.Name, err)
		s.fail(ctx, err)
		return Result{}, err
	}

	latency := metrics.Since(start)
	s.served.Add(1)
	if pred.Prediction == 1 {
		metrics.RecordPrediction("fighter_1")
	} else {
		metrics.RecordPrediction("fighter_2")
	}
	metrics.RecordPredictionLatency(latency)

	res := Result{
		Prediction: pred,
		Fighters:   [2]string{a.Name, b.Name},
		Features:   d.Vector,
		NaNSlots:   nan,
		Issues:     d.Issues,
	}
	s.publish(ctx, res, latency)
	return res, nil
}

// Features resolves both fighters and returns the derived vector with its
// parse issues. The NaN policy is not applied.
func (s *Service) Features(ctx context.Context, name1, name2 string) (Report, error) {
	a, b, err := s.resolve(ctx, name1, name2)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Fighters:   [2]fighter.Record{a, b},
		Derivation: s.derive(ctx, a, b),
	}, nil
}

// Names lists every known fighter name, sorted.
func (s *Service) Names(ctx context.Context) ([]string, error) {
	names, err := s.lookup.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fighters: %w", err)
	}
	return names, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":          s.started,
		"lookupBackend":    s.lookupBackend,
		"inferenceBackend": s.inferenceBackend,
		"nanPolicy":        string(s.policy),
		"predictions":      s.served.Load(),
		"failures":         s.failed.Load(),
		"eventsEnabled":    s.publisher != nil,
	}
	if s.queue != nil {
		n := s.queue.Len()
		stats["queueLength"] = n
		metrics.UpdateEventQueueSize(n)
	}
	return stats
}

// resolve looks both fighters up concurrently. Not-found on either side is
// collected so the error can name both; any other failure cancels the
// sibling lookup.
func (s *Service) resolve(ctx context.Context, name1, name2 string) (fighter.Record, fighter.Record, error) {
	name1, name2 = strings.TrimSpace(name1), strings.TrimSpace(name2)
	if name1 == "" || name2 == "" {
		return fighter.Record{}, fighter.Record{}, ErrMissingName
	}

	var (
		recs    [2]fighter.Record
		missing [2]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range [2]string{name1, name2} {
		g.Go(func() error {
			r, err := s.lookup.FindByName(gctx, name)
			switch {
			case err == nil:
				recs[i] = r
			case errors.Is(err, fighter.ErrNotFound):
				missing[i] = true
			default:
				return fmt.Errorf("lookup %q: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fighter.Record{}, fighter.Record{}, err
	}

	if missing[0] || missing[1] {
		nf := &NotFoundError{Suggestions: make(map[string][]string)}
		for i, name := range [2]string{name1, name2} {
			if missing[i] {
				nf.Missing = append(nf.Missing, name)
			}
		}
		s.addSuggestions(ctx, nf)
		return fighter.Record{}, fighter.Record{}, nf
	}
	return recs[0], recs[1], nil
}

func (s *Service) addSuggestions(ctx context.Context, nf *NotFoundError) {
	if s.suggestionLimit == 0 {
		return
	}
	known, err := s.lookup.Names(ctx)
	if err != nil {
		s.logger.Warn(ctx, "suggestions unavailable", logger.Error(err))
		return
	}
	for _, m := range nf.Missing {
		if sug := suggest(m, known, s.suggestionLimit); len(sug) > 0 {
			nf.Suggestions[m] = sug
		}
	}
}

func (s *Service) derive(ctx context.Context, a, b fighter.Record) features.Derivation {
	d := s.deriver.Derive(a, b)
	for _, issue := range d.Issues {
		metrics.RecordDerivationIssue(issue.Field)
		s.logger.Debug(ctx, "attribute parsed as NaN",
			logger.String("side", issue.Side),
			logger.String("fighter", issue.Fighter),
			logger.String("field", issue.Field),
			logger.String("raw", issue.Raw),
			logger.Error(issue.Err),
		)
	}
	metrics.RecordNaNSlots(len(d.Vector.NaNSlots()))
	return d
}

func (s *Service) fail(ctx context.Context, err error) {
	s.failed.Add(1)

	outcome := outcomeInference
	switch {
	case errors.Is(err, fighter.ErrNotFound):
		outcome = outcomeNotFound
	case errors.Is(err, ErrMissingName):
		outcome = outcomeBadRequest
	case errors.Is(err, fighter.ErrLookupUnavailable):
		outcome = outcomeLookup
	case errors.Is(err, ErrIncompleteFeatures):
		outcome = outcomeIncomplete
	}
	metrics.RecordPrediction(outcome)

	fields := []logger.Field{logger.String("outcome", outcome), logger.Error(err)}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		fields = append(fields, logger.Strings("missing", nf.Missing))
	}
	s.logger.Info(ctx, "prediction failed", fields...)
}

// publish hands the prediction to the event queue. Best effort: a full or
// closed queue drops the event.
func (s *Service) publish(ctx context.Context, res Result, latencyMS float64) { //nolint:gocritic // hugeParam: built once per request
	s.mu.RLock()
	q := s.queue
	running := s.publisher != nil
	s.mu.RUnlock()
	if !running {
		return
	}

	e := model.PredictionEvent{
		ID:         uuid.NewString(),
		Fighter1:   res.Fighters[0],
		Fighter2:   res.Fighters[1],
		Features:   res.Features,
		Prediction: res.Prediction,
		NaNSlots:   len(res.NaNSlots),
		TS:         time.Now().UTC(),
		LatencyMS:  latencyMS,
	}
	if err := q.Enqueue(context.WithoutCancel(ctx), e); err != nil {
		s.logger.Debug(ctx, "prediction event dropped",
			logger.String("id", e.ID),
			logger.Error(err),
		)
	}
}
