package inference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/ArnavTamrakar/Fight-predict/internal/domain/features"
	"github.com/ArnavTamrakar/Fight-predict/pkg/metrics"
)

const tracerName = "github.com/ArnavTamrakar/Fight-predict/inference"

// MetricsMiddleware records latency and failures per backend.
func MetricsMiddleware(backend string) Middleware {
	return func(next Predictor) Predictor {
		return PredictorFunc(func(ctx context.Context, v features.Vector) (Prediction, error) {
			start := time.Now()
			p, err := next.Predict(ctx, v)
			metrics.RecordInferenceLatency(backend, metrics.Since(start))
			if err != nil {
				metrics.RecordInferenceError(backend, ErrorKind(err))
			}
			return p, err
		})
	}
}

// TracingMiddleware wraps each call in an OpenTelemetry span.
func TracingMiddleware(backend string) Middleware {
	tracer := otel.Tracer(tracerName)
	return func(next Predictor) Predictor {
		return PredictorFunc(func(ctx context.Context, v features.Vector) (Prediction, error) {
			ctx, span := tracer.Start(ctx, "inference.predict",
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(
					attribute.String("inference.backend", backend),
					attribute.Int("inference.nan_slots", len(v.NaNSlots())),
				),
			)
			defer span.End()

			p, err := next.Predict(ctx, v)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return p, err
			}
			span.SetAttributes(
				attribute.String("inference.winner", p.Winner),
				attribute.Float64("inference.confidence", p.Confidence),
			)
			span.SetStatus(codes.Ok, "")
			return p, nil
		})
	}
}

// RateLimitMiddleware paces calls with a token bucket. A non-positive limit
// disables it.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	if limit <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(limit, burst)
	return func(next Predictor) Predictor {
		return PredictorFunc(func(ctx context.Context, v features.Vector) (Prediction, error) {
			if err := limiter.Wait(ctx); err != nil {
				// Wait refuses early, without wrapping the context error, when
				// the next token lands after the deadline.
				if cerr := ctx.Err(); cerr != nil {
					err = cerr
				} else if _, ok := ctx.Deadline(); ok {
					err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
				}
				return Prediction{}, fmt.Errorf("%w: rate limit: %w", ErrInferenceUnavailable, err)
			}
			return next.Predict(ctx, v)
		})
	}
}

// TimeoutMiddleware bounds each call. A non-positive timeout disables it.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	if timeout <= 0 {
		return nil
	}
	return func(next Predictor) Predictor {
		return PredictorFunc(func(ctx context.Context, v features.Vector) (Prediction, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next.Predict(ctx, v)
		})
	}
}

// ErrorKind labels an inference error for metrics and logs.
func ErrorKind(err error) string {
	var up *UpstreamError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &up):
		return "upstream_status"
	case errors.Is(err, ErrInferenceRejected):
		return "rejected"
	case errors.Is(err, ErrInferenceUnavailable):
		return "unavailable"
	default:
		return "unknown"
	}
}
