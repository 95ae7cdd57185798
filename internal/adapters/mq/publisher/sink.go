package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ArnavTamrakar/Fight-predict/internal/domain/model"
	"github.com/ArnavTamrakar/Fight-predict/pkg/logger"
)

// Sink delivers prediction events somewhere outside the process.
type Sink interface {
	Name() string
	Publish(ctx context.Context, e model.PredictionEvent) error
	Close() error
}

// NATSConfig holds the NATS connection settings.
type NATSConfig struct {
	URL           string
	Subject       string
	RetryAttempts int
	RetryDelay    time.Duration
}

// NATSSink publishes each event as JSON on a core NATS subject.
type NATSSink struct {
	nc      *nats.Conn
	subject string
}

// NewNATSSink connects to the server. The connection keeps retrying in the
// background, so a server that is down at startup does not stop the process.
func NewNATSSink(cfg NATSConfig) (*NATSSink, error) {
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = -1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	nc, err := nats.Connect(cfg.URL,
		nats.Name("fight-predict"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(cfg.RetryAttempts),
		nats.ReconnectWait(cfg.RetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSSink{nc: nc, subject: cfg.Subject}, nil
}

// Name implements Sink.
func (s *NATSSink) Name() string { return "nats" }

// Publish implements Sink.
func (s *NATSSink) Publish(_ context.Context, e model.PredictionEvent) error { //nolint:gocritic // hugeParam: events travel by value
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", e.ID, err)
	}
	if err := s.nc.Publish(s.subject, data); err != nil {
		return fmt.Errorf("publish event %s: %w", e.ID, err)
	}
	return nil
}

// Close drains pending publishes before closing the connection.
func (s *NATSSink) Close() error {
	return s.nc.Drain()
}

// LogSink writes events to the logger at debug level.
type LogSink struct {
	log logger.Logger
}

// NewLogSink returns a sink that only logs.
func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

// Name implements Sink.
func (s *LogSink) Name() string { return "log" }

// Publish implements Sink.
func (s *LogSink) Publish(ctx context.Context, e model.PredictionEvent) error { //nolint:gocritic // hugeParam: events travel by value
	s.log.Debug(ctx, "prediction served",
		logger.String("id", e.ID),
		logger.String("fighter1", e.Fighter1),
		logger.String("fighter2", e.Fighter2),
		logger.String("winner", e.Prediction.Winner),
		logger.Float64("confidence", e.Prediction.Confidence),
		logger.Int("nan_slots", e.NaNSlots),
		logger.Float64("latency_ms", e.LatencyMS),
	)
	return nil
}

// Close implements Sink.
func (s *LogSink) Close() error { return nil }
