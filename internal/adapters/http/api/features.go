package api

import (
	"context"
	"net/http"

	service "github.com/ArnavTamrakar/Fight-predict/internal/app"
	"github.com/ArnavTamrakar/Fight-predict/internal/domain/features"
)

// FeaturesDependencies defines what the features handler needs.
type FeaturesDependencies interface {
	Features(ctx context.Context, fighter1, fighter2 string) (service.Report, error)
}

// FeaturesHandler returns the derived vector without calling the model.
type FeaturesHandler struct {
	deps FeaturesDependencies
}

// NewFeaturesHandler creates a new features handler.
func NewFeaturesHandler(deps FeaturesDependencies) *FeaturesHandler {
	return &FeaturesHandler{deps: deps}
}

type featureSlot struct {
	Slot  int      `json:"slot"`
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
}

type issueView struct {
	Side    string `json:"side"`
	Fighter string `json:"fighter"`
	Field   string `json:"field"`
	Raw     string `json:"raw"`
	Error   string `json:"error"`
}

type featuresResponse struct {
	Fighters [2]string     `json:"fighters"`
	Features []featureSlot `json:"features"`
	Issues   []issueView   `json:"issues"`
}

// HandleFeatures handles POST /api/features.
func (h *FeaturesHandler) HandleFeatures(w http.ResponseWriter, r *http.Request) {
	const op = "api.features"
	req, err := decodeMatchup(r, op)
	if err != nil {
		status, code := statusFor(err)
		writeError(w, status, code, err)
		return
	}

	rep, err := h.deps.Features(r.Context(), req.Fighter1, req.Fighter2)
	if err != nil {
		status, code := statusFor(err)
		writeError(w, status, code, Wrap(op, err))
		return
	}

	writeJSON(w, http.StatusOK, newFeaturesResponse(rep))
}

func newFeaturesResponse(rep service.Report) featuresResponse { //nolint:gocritic // hugeParam: built once per request
	resp := featuresResponse{
		Fighters: [2]string{rep.Fighters[0].Name, rep.Fighters[1].Name},
		Features: make([]featureSlot, features.Width),
		Issues:   make([]issueView, 0, len(rep.Issues)),
	}
	nan := make(map[int]bool)
	for _, i := range rep.Vector.NaNSlots() {
		nan[i] = true
	}
	for i, x := range rep.Vector {
		slot := featureSlot{Slot: i, Name: features.SlotNames[i]}
		if !nan[i] {
			slot.Value = &x
		}
		resp.Features[i] = slot
	}
	for _, is := range rep.Issues {
		v := issueView{Side: is.Side, Fighter: is.Fighter, Field: is.Field, Raw: is.Raw}
		if is.Err != nil {
			v.Error = is.Err.Error()
		}
		resp.Issues = append(resp.Issues, v)
	}
	return resp
}
