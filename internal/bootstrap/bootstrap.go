// Package bootstrap turns a Config into the running pieces shared by the
// server and the CLI: the fighter lookup, the predictor chain, the event
// sink and the prediction service.
package bootstrap

import (
	"context"
	"fmt"
	"io"

	"github.com/ArnavTamrakar/Fight-predict/internal/adapters/inference"
	"github.com/ArnavTamrakar/Fight-predict/internal/adapters/mq/publisher"
	"github.com/ArnavTamrakar/Fight-predict/internal/adapters/repository"
	service "github.com/ArnavTamrakar/Fight-predict/internal/app"
	"github.com/ArnavTamrakar/Fight-predict/internal/config"
	"github.com/ArnavTamrakar/Fight-predict/internal/domain/features"
	"github.com/ArnavTamrakar/Fight-predict/internal/domain/fighter"
	"github.com/ArnavTamrakar/Fight-predict/pkg/logger"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenLookup opens the configured fighter backend. The returned closer
// releases database handles; it is a no-op for csv.
func OpenLookup(ctx context.Context, cfg *config.Config) (fighter.Lookup, io.Closer, error) {
	switch cfg.LookupBackend {
	case config.LookupCSV:
		return repository.Instrument(repository.NewCSVStore(cfg.CSVPath), config.LookupCSV), nopCloser{}, nil
	case config.LookupSQL:
		if cfg.DBAutoMigrate {
			res, err := repository.Migrate(ctx, cfg.DBDriver, cfg.DBDSN, -1)
			if err != nil {
				return nil, nil, fmt.Errorf("migrate %s: %w", cfg.DBDriver, err)
			}
			if res.Changed {
				logger.Get().Info(ctx, "database migrated",
					logger.Int("from", int(res.From)),
					logger.Int("to", int(res.To)),
				)
			}
		}
		store, err := repository.OpenSQL(ctx, cfg.DBDriver, cfg.DBDSN, cfg.DBMaxOpenConns)
		if err != nil {
			return nil, nil, err
		}
		return repository.Instrument(store, cfg.DBDriver), store, nil
	default:
		return nil, nil, fmt.Errorf("%w: lookup_backend %q", config.ErrInvalidConfig, cfg.LookupBackend)
	}
}

// NewPredictor builds the inference chain described by cfg.
func NewPredictor(cfg *config.Config) (inference.Predictor, error) {
	return inference.New(inference.Options{
		Backend:   cfg.InferenceBackend,
		URL:       cfg.InferenceURL,
		Path:      cfg.InferencePath,
		ModelPath: cfg.InferenceModelPath,
		Timeout:   cfg.InferenceTimeout(),
		RateLimit: cfg.InferenceRateLimit,
		Burst:     cfg.InferenceBurst,
	})
}

// NewSink returns a NATS sink when nats_url is set, otherwise a sink that
// logs events at debug level.
func NewSink(cfg *config.Config) (publisher.Sink, error) {
	if cfg.NATSURL == "" {
		return publisher.NewLogSink(logger.Get().Named("events")), nil
	}
	return publisher.NewNATSSink(publisher.NATSConfig{
		URL:     cfg.NATSURL,
		Subject: cfg.NATSSubject,
	})
}

// Runtime is everything a process needs to serve predictions.
type Runtime struct {
	Service *service.Service
	closer  io.Closer
}

// Close releases the lookup backend. Stop the service first.
func (r *Runtime) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Option tweaks how New assembles the runtime.
type Option func(*settings)

type settings struct {
	withEvents bool
}

// WithoutEvents disables the prediction event queue, e.g. for one-shot
// CLI commands.
func WithoutEvents() Option {
	return func(s *settings) { s.withEvents = false }
}

// New wires lookup, predictor, sink and service from cfg. The service is
// not started.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Runtime, error) {
	st := settings{withEvents: true}
	for _, opt := range opts {
		opt(&st)
	}

	policy, err := features.ParsePolicy(cfg.NaNPolicy)
	if err != nil {
		return nil, err
	}

	lookup, closer, err := OpenLookup(ctx, cfg)
	if err != nil {
		return nil, err
	}

	predictor, err := NewPredictor(cfg)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	svcOpts := []service.Option{
		service.WithPolicy(policy),
		service.WithBackends(lookupBackendName(cfg), cfg.InferenceBackend),
	}
	if st.withEvents && cfg.EventQueueSize > 0 {
		sink, err := NewSink(cfg)
		if err != nil {
			_ = closer.Close()
			return nil, err
		}
		svcOpts = append(svcOpts, service.WithQueueSize(cfg.EventQueueSize), service.WithSink(sink))
	} else {
		svcOpts = append(svcOpts, service.WithQueueSize(0))
	}

	return &Runtime{
		Service: service.New(lookup, predictor, svcOpts...),
		closer:  closer,
	}, nil
}

func lookupBackendName(cfg *config.Config) string {
	if cfg.LookupBackend == config.LookupSQL {
		return config.LookupSQL + ":" + cfg.DBDriver
	}
	return cfg.LookupBackend
}
