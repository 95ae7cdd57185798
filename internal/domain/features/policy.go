package features

import (
	"fmt"
	"strings"
)

// Policy decides what happens to a vector that carries NaN slots.
type Policy string

const (
	// PolicyPropagate forwards NaN slots to inference unchanged.
	PolicyPropagate Policy = "propagate"
	// PolicyFailFast rejects incomplete vectors before inference.
	PolicyFailFast Policy = "fail_fast"
)

// ParsePolicy maps a config value onto a Policy. Empty means propagate.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyPropagate:
		return PolicyPropagate, nil
	case PolicyFailFast:
		return PolicyFailFast, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Allows reports whether v may be sent to inference under p.
func (p Policy) Allows(v Vector) bool {
	return p != PolicyFailFast || v.Complete()
}
