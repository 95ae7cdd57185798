package api

import (
	"context"
	"net/http"

	service "github.com/ArnavTamrakar/Fight-predict/internal/app"
	"github.com/ArnavTamrakar/Fight-predict/internal/domain/model"
)

// PredictDependencies defines what the predict handler needs.
type PredictDependencies interface {
	Predict(ctx context.Context, fighter1, fighter2 string) (service.Result, error)
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps PredictDependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

type predictResponse struct {
	Prediction model.Prediction `json:"prediction"`
	Fighters   [2]string        `json:"fighters"`
	NaNSlots   []int            `json:"nan_slots"`
}

// HandlePredict handles POST /predict and POST /api/predict.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	req, err := decodeMatchup(r, op)
	if err != nil {
		status, code := statusFor(err)
		writeError(w, status, code, err)
		return
	}

	res, err := h.deps.Predict(r.Context(), req.Fighter1, req.Fighter2)
	if err != nil {
		status, code := statusFor(err)
		writeError(w, status, code, Wrap(op, err))
		return
	}

	nan := res.NaNSlots
	if nan == nil {
		nan = []int{}
	}
	writeJSON(w, http.StatusOK, predictResponse{
		Prediction: res.Prediction,
		Fighters:   res.Fighters,
		NaNSlots:   nan,
	})
}
