// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ArnavTamrakar/Fight-predict/internal/adapters/inference"
	service "github.com/ArnavTamrakar/Fight-predict/internal/app"
	"github.com/ArnavTamrakar/Fight-predict/internal/domain/fighter"
	"github.com/ArnavTamrakar/Fight-predict/pkg/logger"
)

const maxNameLength = 128

// Dependencies required by HTTP handlers. Each handler only sees the
// narrow slice it needs.
type Dependencies interface {
	PredictDependencies
	FeaturesDependencies
	FightersDependencies
	StatsProvider
}

// Server wires HTTP routes for the prediction API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	predictHandler  *PredictHandler
	featuresHandler *FeaturesHandler
	fightersHandler *FightersHandler

	allowedOrigins []string
	maxBodyBytes   int64
	logger         logger.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAllowedOrigins sets the CORS allow list. "*" allows any origin.
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the access logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		predictHandler:  NewPredictHandler(deps),
		featuresHandler: NewFeaturesHandler(deps),
		fightersHandler: NewFightersHandler(deps),
		allowedOrigins:  []string{"*"},
		maxBodyBytes:    64 << 10,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("http")
	}
	return s
}

// Register attaches all API routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /health", MetricsMiddleware(s.healthHandler.HandleLiveness, "health"))
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleMetrics, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("POST /api/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("POST /api/features", MetricsMiddleware(s.featuresHandler.HandleFeatures, "features"))
	mux.HandleFunc("GET /api/fighters", MetricsMiddleware(s.fightersHandler.HandleFighters, "fighters"))
}

// Handler wraps next with the cross-cutting middleware, outermost first:
// request id, access log, CORS, body limit.
func (s *Server) Handler(next http.Handler) http.Handler {
	return RequestIDMiddleware(
		AccessLogMiddleware(s.logger)(
			CORSMiddleware(s.allowedOrigins)(
				BodyLimitMiddleware(s.maxBodyBytes)(next),
			),
		),
	)
}

// matchupRequest mirrors the OpenAPI schema shared by /predict and /api/features.
type matchupRequest struct {
	Fighter1 string `json:"fighter1" validate:"required,max=128"`
	Fighter2 string `json:"fighter2" validate:"required,max=128"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeMatchup reads and validates the request body.
func decodeMatchup(r *http.Request, op string) (matchupRequest, error) {
	var req matchupRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, WrapKind(op, ErrBodyTooLarge, err)
		}
		return req, WrapKind(op, ErrBadRequest, err)
	}
	req.Fighter1 = strings.TrimSpace(req.Fighter1)
	req.Fighter2 = strings.TrimSpace(req.Fighter2)
	if err := validate.Struct(req); err != nil {
		return req, WrapKind(op, ErrBadRequest, describeValidation(err))
	}
	return req, nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %d characters", fe.Field(), maxNameLength))
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

type errorResponse struct {
	Code        string              `json:"code"`
	Message     string              `json:"message"`
	Missing     []string            `json:"missing,omitempty"`
	Suggestions map[string][]string `json:"suggestions,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	resp := errorResponse{Code: code, Message: msg}
	var nf *service.NotFoundError
	if errors.As(err, &nf) {
		resp.Missing = nf.Missing
		resp.Suggestions = nf.Suggestions
	}
	writeJSON(w, status, resp)
}

// statusFor maps an error chain onto an HTTP status and a stable code.
func statusFor(err error) (int, string) {
	var nf *service.NotFoundError
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, "body_too_large"
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrMissingName):
		return http.StatusBadRequest, "bad_request"
	case errors.As(err, &nf), errors.Is(err, fighter.ErrNotFound):
		return http.StatusNotFound, "fighter_not_found"
	case errors.Is(err, service.ErrIncompleteFeatures):
		return http.StatusUnprocessableEntity, "incomplete_features"
	case errors.Is(err, fighter.ErrLookupUnavailable):
		return http.StatusInternalServerError, "lookup_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "inference_timeout"
	case errors.Is(err, inference.ErrInferenceRejected):
		return http.StatusBadGateway, "inference_rejected"
	case errors.Is(err, inference.ErrInferenceUnavailable):
		return http.StatusBadGateway, "inference_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
