// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/ArnavTamrakar/Fight-predict/internal/domain/features"
)

// Winner labels as returned by the model service.
const (
	WinnerFighter1 = "Fighter 1"
	WinnerFighter2 = "Fighter 2"
)

// Prediction is the model's verdict on a matchup.
type Prediction struct {
	Winner        string    `json:"winner"`
	Prediction    int       `json:"prediction"`    // 1 = fighter 1 wins, 0 = fighter 2 wins
	Probabilities []float64 `json:"probabilities"` // [p(class 0), p(class 1)]
	Confidence    float64   `json:"confidence"`
}

// PredictionEvent records one served prediction for downstream consumers.
type PredictionEvent struct {
	ID         string          `json:"id"`
	Fighter1   string          `json:"fighter1"`
	Fighter2   string          `json:"fighter2"`
	Features   features.Vector `json:"features"`
	Prediction Prediction      `json:"prediction"`
	NaNSlots   int             `json:"nan_slots"`
	TS         time.Time       `json:"ts"`
	LatencyMS  float64         `json:"latency_ms"`
}
