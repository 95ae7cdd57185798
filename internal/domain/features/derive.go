// Package features turns two raw fighter records into the fixed 33-slot
// vector the inference model was trained on.
package features

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ArnavTamrakar/Fight-predict/internal/domain/fighter"
)

// Sides of a matchup.
const (
	SideA = "fighter1"
	SideB = "fighter2"
)

// Issue is one attribute that failed to parse and became NaN.
type Issue struct {
	Side    string `json:"side"`
	Fighter string `json:"fighter"`
	Field   string `json:"field"`
	Raw     string `json:"raw"`
	Err     error  `json:"-"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %q field %s=%q: %v", i.Side, i.Fighter, i.Field, i.Raw, i.Err)
}

// Derivation is a vector plus the parse problems behind its NaN slots.
type Derivation struct {
	Vector Vector
	Issues []Issue
}

// Option configures a Deriver.
type Option func(*Deriver)

// WithClock pins the instant used for age computation.
func WithClock(c Clock) Option {
	return func(d *Deriver) {
		if c != nil {
			d.now = c
		}
	}
}

// Deriver computes feature vectors. It holds no mutable state and is safe
// for concurrent use.
type Deriver struct {
	now Clock
}

// NewDeriver returns a Deriver using time.Now unless WithClock is given.
func NewDeriver(opts ...Option) *Deriver {
	d := &Deriver{now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Derive never fails: any attribute that does not parse yields NaN in the
// slots that depend on it and an Issue describing why.
func (d *Deriver) Derive(a, b fighter.Record) Derivation {
	now := d.now()
	var issues []Issue
	pa := newProfile(SideA, a, now, &issues)
	pb := newProfile(SideB, b, now, &issues)

	stance := 1.0
	if a.Stance == b.Stance {
		stance = 0
	}

	v := Vector{
		pa.strAcc, pa.slpm, pb.strAcc, pb.slpm,
		pa.tdAvg, pa.tdSuccess, pb.tdAvg, pb.tdSuccess,
		pa.tdAvg, pa.tdDef, pb.tdAvg, pb.tdDef,
		pa.weight, pb.weight, pa.age, pb.age,
		pa.rec.Wins, pa.rec.Losses, pa.rec.Draws, pa.rec.NC,
		pb.rec.Wins, pb.rec.Losses, pb.rec.Draws, pb.rec.NC,
		pa.strAcc - pb.strAcc,
		pa.tdSuccess, pb.tdSuccess,
		pa.tdSuccess - pb.tdSuccess,
		pa.age - pb.age,
		pa.weight - pb.weight,
		pa.reach - pb.reach,
		stance,
		pa.tdDef - pb.tdDef,
	}
	return Derivation{Vector: v, Issues: issues}
}

// Derive computes the vector with age measured at now.
func Derive(a, b fighter.Record, now time.Time) Vector {
	d := NewDeriver(WithClock(func() time.Time { return now }))
	return d.Derive(a, b).Vector
}

type profile struct {
	strAcc, slpm       float64
	tdAvg, tdSuccess   float64
	tdDef              float64
	weight, reach, age float64
	rec                Record
}

func newProfile(side string, r fighter.Record, now time.Time, issues *[]Issue) profile {
	report := func(field, raw string, err error) {
		*issues = append(*issues, Issue{Side: side, Fighter: r.Name, Field: field, Raw: raw, Err: err})
	}
	num := func(field, raw string) float64 {
		x, err := ParseDecimal(raw)
		if err != nil {
			report(field, raw, err)
		}
		return x
	}

	p := profile{
		strAcc: num("strAcc", r.StrAcc) / 100,
		slpm:   num("SLpM", r.SLpM),
		tdAvg:  num("tdAvg", r.TDAvg),
		tdDef:  num("tdDef", r.TDDef) / 100,
		weight: num("weight", r.Weight),
		reach:  num("reach", r.Reach),
	}
	p.tdSuccess = p.tdAvg * (num("tdAcc", r.TDAcc) / 100)

	if age, err := ComputeAge(r.DoB, now); err != nil {
		report("DoB", r.DoB, err)
		p.age = math.NaN()
	} else {
		p.age = float64(age)
	}

	rec, err := ParseRecord(r.Record)
	if err != nil {
		report("record", r.Record, err)
	} else if math.IsNaN(rec.Wins) || math.IsNaN(rec.Losses) || math.IsNaN(rec.Draws) {
		report("record", r.Record, fmt.Errorf("%w: non-numeric token", ErrInvalidNumber))
	}
	p.rec = rec
	return p
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParseDecimal reads the leading number of s, so "45%", "155 lbs." and
// `72"` all parse. A string with no leading number returns NaN and
// ErrInvalidNumber.
func ParseDecimal(s string) (float64, error) {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return math.NaN(), fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	x, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return math.NaN(), fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return x, nil
}
