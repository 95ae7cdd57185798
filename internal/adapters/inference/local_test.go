package inference_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	deep "github.com/patrikeh/go-deep"

	"github.com/ArnavTamrakar/Fight-predict/internal/adapters/inference"
	"github.com/ArnavTamrakar/Fight-predict/internal/domain/features"
	. "github.com/smartystreets/goconvey/convey"
)

func newDump(inputs int, layout ...int) *deep.Dump {
	nn := deep.NewNeural(&deep.Config{
		Inputs:     inputs,
		Layout:     layout,
		Activation: deep.ActivationSigmoid,
		Mode:       deep.ModeMultiClass,
		Weight:     deep.NewNormal(1.0, 0.0),
		Bias:       true,
	})
	return nn.Dump()
}

func TestLocalPredictor(t *testing.T) {
	Convey("Given a two-class network dumped to disk", t, func() {
		blob, err := json.Marshal(newDump(features.Width, 5, 2))
		So(err, ShouldBeNil)
		path := filepath.Join(t.TempDir(), "model.json")
		So(os.WriteFile(path, blob, 0o600), ShouldBeNil)

		p, err := inference.LoadLocalPredictor(path)
		So(err, ShouldBeNil)

		Convey("When predicting a complete vector", func() {
			var v features.Vector
			for i := range v {
				v[i] = float64(i) / 10
			}
			pred, err := p.Predict(context.Background(), v)

			Convey("Then it should return two class probabilities and a consistent verdict", func() {
				So(err, ShouldBeNil)
				So(len(pred.Probabilities), ShouldEqual, 2)
				So(pred.Probabilities[0]+pred.Probabilities[1], ShouldAlmostEqual, 1.0, 1e-9)
				So(pred.Confidence, ShouldEqual, math.Max(pred.Probabilities[0], pred.Probabilities[1]))
				if pred.Prediction == 1 {
					So(pred.Winner, ShouldEqual, "Fighter 1")
				} else {
					So(pred.Winner, ShouldEqual, "Fighter 2")
				}
			})

			Convey("Then repeated calls should agree", func() {
				again, err := p.Predict(context.Background(), v)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, pred)
			})
		})

		Convey("When the vector has NaN slots", func() {
			var v features.Vector
			v[4] = math.NaN()
			_, err := p.Predict(context.Background(), v)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, inference.ErrInferenceRejected), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := p.Predict(ctx, features.Vector{})

			Convey("Then it should be unavailable", func() {
				So(errors.Is(err, inference.ErrInferenceUnavailable), ShouldBeTrue)
			})
		})
	})

	Convey("Given networks with the wrong shape", t, func() {
		Convey("Then a different input width should be refused", func() {
			_, err := inference.NewLocalPredictor(newDump(5, 3, 2))
			So(err, ShouldNotBeNil)
		})

		Convey("Then three outputs should be refused", func() {
			_, err := inference.NewLocalPredictor(newDump(features.Width, 3))
			So(err, ShouldNotBeNil)
		})

		Convey("Then a missing file should be refused", func() {
			_, err := inference.LoadLocalPredictor(filepath.Join(t.TempDir(), "missing.json"))
			So(err, ShouldNotBeNil)
		})
	})
}
