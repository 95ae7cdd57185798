package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrInferenceUnavailable covers transport failures, timeouts and non-2xx replies.
	ErrInferenceUnavailable = errors.New("inference unavailable")
	// ErrInferenceRejected means the model answered but refused the input.
	ErrInferenceRejected = errors.New("inference rejected")
)

// UpstreamError carries a non-2xx reply from the model service.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error { return ErrInferenceUnavailable }
