package features

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Width is the number of slots in a feature vector.
const Width = 33

// Vector is the position-significant input of the inference model.
// Slot order is the contract; names never cross the inference boundary.
type Vector [Width]float64

// SlotNames are the training column names of each slot, for display only.
var SlotNames = [Width]string{
	"f1_sig_strike_per",
	"f1_sig_strike_total",
	"f2_sig_strike_per",
	"f2_sig_strike_total",
	"f1_td_attempt",
	"f1_td_succeed",
	"f2_td_attempt",
	"f2_td_succeed",
	"tdAvg_f1",
	"tdDef_f1",
	"tdAvg_f2",
	"tdDef_f2",
	"weight_f1",
	"weight_f2",
	"f1_age_when_fight",
	"f2_age_when_fight",
	"win_f1",
	"lose_f1",
	"draw_f1",
	"nc_f1",
	"win_f2",
	"lose_f2",
	"draw_f2",
	"nc_f2",
	"sig_strike_per_diff",
	"td_success_rate_f1",
	"td_success_rate_f2",
	"td_success_rate_diff",
	"age_diff",
	"weight_diff",
	"reach_diff",
	"stance_matchup",
	"td_def_diff",
}

// Slot indexes referenced outside the assembly order.
const (
	SlotSigStrikeDiff = 24
	SlotTDSuccessDiff = 27
	SlotAgeDiff       = 28
	SlotWeightDiff    = 29
	SlotReachDiff     = 30
	SlotStanceMatchup = 31
	SlotTDDefDiff     = 32
)

// DiffSlots are the A-B difference slots.
var DiffSlots = []int{SlotSigStrikeDiff, SlotTDSuccessDiff, SlotAgeDiff, SlotWeightDiff, SlotReachDiff, SlotTDDefDiff}

// NaNSlots returns the indexes holding NaN.
func (v Vector) NaNSlots() []int {
	var out []int
	for i, x := range v {
		if math.IsNaN(x) {
			out = append(out, i)
		}
	}
	return out
}

// Complete reports whether every slot is a finite number.
func (v Vector) Complete() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Slice copies the vector into a slice.
func (v Vector) Slice() []float64 {
	out := make([]float64, Width)
	copy(out, v[:])
	return out
}

// MarshalJSON writes NaN and infinities as null, the same wire form a
// JavaScript client produces.
func (v Vector) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(Width * 8)
	buf.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			buf.WriteString("null")
			continue
		}
		buf.Write(strconv.AppendFloat(nil, x, 'g', -1, 64))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads exactly Width numbers; null decodes to NaN.
func (v *Vector) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != Width {
		return fmt.Errorf("%w: got %d, want %d", ErrVectorWidth, len(raw), Width)
	}
	for i, x := range raw {
		if x == nil {
			v[i] = math.NaN()
			continue
		}
		v[i] = *x
	}
	return nil
}
