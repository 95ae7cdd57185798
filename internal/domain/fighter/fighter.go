// Package fighter holds the raw fighter record and the lookup contract
// that storage backends implement.
package fighter

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/cases"
)

// Sentinel errors returned by Lookup implementations.
var (
	ErrNotFound          = errors.New("fighter not found")
	ErrLookupUnavailable = errors.New("fighter lookup unavailable")
)

// Record is a fighter row exactly as stored. Numeric attributes stay as
// strings; parsing belongs to feature derivation.
type Record struct {
	Name   string `json:"name"`
	Record string `json:"record"`
	StrAcc string `json:"strAcc"`
	TDAcc  string `json:"tdAcc"`
	TDDef  string `json:"tdDef"`
	TDAvg  string `json:"tdAvg"`
	SLpM   string `json:"SLpM"`
	Weight string `json:"weight"`
	Reach  string `json:"reach"`
	Stance string `json:"stance"`
	DoB    string `json:"DoB"`
}

// Lookup resolves fighters by name.
type Lookup interface {
	// FindByName matches case-insensitively. Returns ErrNotFound when no
	// record matches and ErrLookupUnavailable when storage cannot be read.
	FindByName(ctx context.Context, name string) (Record, error)
	// Names returns every known name, sorted and de-duplicated.
	Names(ctx context.Context) ([]string, error)
}

// Key folds a name into its lookup key: trimmed, inner whitespace
// collapsed, Unicode case folded.
func Key(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

// SameName reports whether two names resolve to the same lookup key.
func SameName(a, b string) bool {
	return Key(a) == Key(b)
}
