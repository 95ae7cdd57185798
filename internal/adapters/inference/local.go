package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	deep "github.com/patrikeh/go-deep"

	"github.com/ArnavTamrakar/Fight-predict/internal/domain/features"
)

// LocalPredictor runs a go-deep network in process. A single-output net is
// read as p(fighter 1); a two-output net as [p(fighter 2), p(fighter 1)].
type LocalPredictor struct {
	outputs int
	pool    sync.Pool
}

// LoadLocalPredictor reads a JSON network dump from path.
func LoadLocalPredictor(path string) (*LocalPredictor, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	dump := new(deep.Dump)
	if err := json.Unmarshal(blob, dump); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	return NewLocalPredictor(dump)
}

// NewLocalPredictor builds a predictor from an in-memory dump.
func NewLocalPredictor(dump *deep.Dump) (*LocalPredictor, error) {
	if dump == nil || dump.Config == nil {
		return nil, errors.New("model dump has no config")
	}
	if dump.Config.Inputs != features.Width {
		return nil, fmt.Errorf("model expects %d inputs, vectors have %d", dump.Config.Inputs, features.Width)
	}
	layout := dump.Config.Layout
	if len(layout) == 0 {
		return nil, errors.New("model has no layers")
	}
	outputs := layout[len(layout)-1]
	if outputs != 1 && outputs != 2 {
		return nil, fmt.Errorf("model has %d outputs, want 1 or 2", outputs)
	}

	p := &LocalPredictor{outputs: outputs}
	// Neural objects are not goroutine-safe so use a pool instead
	p.pool.New = func() any {
		return deep.FromDump(dump)
	}
	return p, nil
}

// Predict rejects vectors with NaN slots; the network has no notion of
// missing values.
func (p *LocalPredictor) Predict(ctx context.Context, v features.Vector) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, fmt.Errorf("%w: %w", ErrInferenceUnavailable, err)
	}
	if !v.Complete() {
		return Prediction{}, fmt.Errorf("%w: %d incomplete slots", ErrInferenceRejected, len(v.NaNSlots()))
	}

	nn := p.pool.Get().(*deep.Neural)
	out := nn.Predict(v.Slice())
	p.pool.Put(nn)

	if p.outputs == 1 {
		p1 := min(max(out[0], 0), 1)
		return fromProbabilities([]float64{1 - p1, p1}), nil
	}
	return fromProbabilities([]float64{out[0], out[1]}), nil
}
