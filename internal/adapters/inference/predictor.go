// Package inference sends feature vectors to a model and returns its verdict.
// Predictors compose with Middleware; there is deliberately no retry layer.
package inference

import (
	"context"
	"slices"

	"github.com/ArnavTamrakar/Fight-predict/internal/domain/features"
	"github.com/ArnavTamrakar/Fight-predict/internal/domain/model"
)

// Prediction is the model's verdict.
type Prediction = model.Prediction

// Predictor scores one matchup vector.
type Predictor interface {
	Predict(ctx context.Context, v features.Vector) (Prediction, error)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(ctx context.Context, v features.Vector) (Prediction, error)

// Predict calls f.
func (f PredictorFunc) Predict(ctx context.Context, v features.Vector) (Prediction, error) {
	return f(ctx, v)
}

// Middleware wraps a Predictor with a cross-cutting concern.
type Middleware func(Predictor) Predictor

// Chain wraps p so that the first middleware is the outermost.
func Chain(p Predictor, mws ...Middleware) Predictor {
	for _, mw := range slices.Backward(mws) {
		if mw != nil {
			p = mw(p)
		}
	}
	return p
}

// fromProbabilities fills winner, class and confidence from class
// probabilities ordered [p(fighter 2), p(fighter 1)].
func fromProbabilities(probs []float64) Prediction {
	p := Prediction{Probabilities: probs}
	if len(probs) >= 2 && probs[1] > probs[0] {
		p.Prediction = 1
	}
	p.Winner = winnerFor(p.Prediction)
	if len(probs) > 0 {
		p.Confidence = slices.Max(probs)
	}
	return p
}

func winnerFor(class int) string {
	if class == 1 {
		return model.WinnerFighter1
	}
	return model.WinnerFighter2
}
