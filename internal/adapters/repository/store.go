// Package repository provides the fighter lookup backends: a streaming CSV
// reader and a database/sql table over sqlite, MySQL or PostgreSQL.
package repository

import (
	"context"
	"errors"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/ArnavTamrakar/Fight-predict/internal/domain/fighter"
	"github.com/ArnavTamrakar/Fight-predict/pkg/metrics"
)

// RecordSource streams every stored fighter. The sequence is finite and
// restartable; a per-row failure is yielded as the error value and the
// end of iteration signals completion.
type RecordSource interface {
	Records(ctx context.Context) iter.Seq2[fighter.Record, error]
}

// collectNames folds a record stream into sorted, de-duplicated names.
// Malformed rows are skipped; any other error aborts.
func collectNames(ctx context.Context, src RecordSource) ([]string, error) {
	seen := make(map[string]struct{})
	var names []string
	for rec, err := range src.Records(ctx) {
		if err != nil {
			if errors.Is(err, ErrMalformedRow) {
				continue
			}
			return nil, err
		}
		name := strings.Join(strings.Fields(rec.Name), " ")
		if name == "" {
			continue
		}
		key := fighter.Key(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	sortNames(names)
	return names, nil
}

// sortNames orders names case-insensitively, breaking ties by raw bytes.
func sortNames(names []string) {
	slices.SortFunc(names, func(a, b string) int {
		if c := strings.Compare(fighter.Key(a), fighter.Key(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
}

// instrumented records lookup latency and failures per backend.
type instrumented struct {
	next    fighter.Lookup
	backend string
}

// Instrument wraps a Lookup with Prometheus timing.
func Instrument(next fighter.Lookup, backend string) fighter.Lookup {
	return &instrumented{next: next, backend: backend}
}

func (i *instrumented) FindByName(ctx context.Context, name string) (fighter.Record, error) {
	start := time.Now()
	rec, err := i.next.FindByName(ctx, name)
	metrics.RecordLookupLatency(i.backend, metrics.Since(start))
	switch {
	case err == nil:
	case errors.Is(err, fighter.ErrNotFound):
		metrics.RecordLookupError(i.backend, "not_found")
	default:
		metrics.RecordLookupError(i.backend, "unavailable")
	}
	return rec, err
}

func (i *instrumented) Names(ctx context.Context) ([]string, error) {
	start := time.Now()
	names, err := i.next.Names(ctx)
	metrics.RecordLookupLatency(i.backend, metrics.Since(start))
	if err != nil {
		metrics.RecordLookupError(i.backend, "unavailable")
	}
	return names, err
}
