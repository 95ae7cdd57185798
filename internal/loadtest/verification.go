package loadtest

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"slices"

	"github.com/ArnavTamrakar/Fight-predict/internal/domain/fighter"
	"github.com/ArnavTamrakar/Fight-predict/internal/domain/model"
)

// probabilityTolerance bounds how far p(F1)+p(F2) may drift from 1.
const probabilityTolerance = 1e-3

type predictBody struct {
	Prediction model.Prediction `json:"prediction"`
	Fighters   []string         `json:"fighters"`
}

type errorBody struct {
	Code    string   `json:"code"`
	Missing []string `json:"missing"`
}

// verify checks one response against what the matchup should produce and
// returns a description of the first problem, or "".
func verify(m Matchup, status int, raw []byte) string {
	if m.Unknown {
		return verifyNotFound(m, status, raw)
	}
	if status != http.StatusOK {
		return fmt.Sprintf("status %d for known matchup", status)
	}

	var body predictBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return "decode prediction: " + err.Error()
	}
	p := body.Prediction
	if len(body.Fighters) != 2 ||
		!fighter.SameName(body.Fighters[0], m.Fighter1) ||
		!fighter.SameName(body.Fighters[1], m.Fighter2) {
		return fmt.Sprintf("fighters %v do not match request", body.Fighters)
	}
	switch {
	case p.Prediction == 1 && p.Winner != model.WinnerFighter1,
		p.Prediction == 0 && p.Winner != model.WinnerFighter2:
		return fmt.Sprintf("winner %q disagrees with prediction %d", p.Winner, p.Prediction)
	case p.Prediction != 0 && p.Prediction != 1:
		return fmt.Sprintf("prediction %d is not a class", p.Prediction)
	}
	if len(p.Probabilities) == 2 {
		if sum := p.Probabilities[0] + p.Probabilities[1]; math.Abs(sum-1) > probabilityTolerance {
			return fmt.Sprintf("probabilities sum to %.4f", sum)
		}
	}
	return ""
}

func verifyNotFound(m Matchup, status int, raw []byte) string {
	if status != http.StatusNotFound {
		return fmt.Sprintf("status %d for unknown fighter %q", status, m.Fighter1)
	}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return "decode error body: " + err.Error()
	}
	if !slices.Contains(body.Missing, m.Fighter1) {
		return fmt.Sprintf("missing %v does not name %q", body.Missing, m.Fighter1)
	}
	return ""
}
