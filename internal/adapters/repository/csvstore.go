package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/ArnavTamrakar/Fight-predict/internal/domain/fighter"
)

// column setters keyed by the header name lowercased with underscores removed.
var csvColumns = map[string]func(*fighter.Record, string){
	"name":   func(r *fighter.Record, v string) { r.Name = v },
	"record": func(r *fighter.Record, v string) { r.Record = v },
	"stracc": func(r *fighter.Record, v string) { r.StrAcc = v },
	"tdacc":  func(r *fighter.Record, v string) { r.TDAcc = v },
	"tddef":  func(r *fighter.Record, v string) { r.TDDef = v },
	"tdavg":  func(r *fighter.Record, v string) { r.TDAvg = v },
	"slpm":   func(r *fighter.Record, v string) { r.SLpM = v },
	"weight": func(r *fighter.Record, v string) { r.Weight = v },
	"reach":  func(r *fighter.Record, v string) { r.Reach = v },
	"stance": func(r *fighter.Record, v string) { r.Stance = v },
	"dob":    func(r *fighter.Record, v string) { r.DoB = v },
}

// CSVStore reads fighters from a flat file on every call. Nothing is cached,
// so edits to the file are visible to the next request.
type CSVStore struct {
	path string
}

var _ fighter.Lookup = (*CSVStore)(nil)

// NewCSVStore returns a store over the CSV file at path.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the backing file.
func (s *CSVStore) Path() string { return s.path }

// Records streams the file row by row. Opening or header failures wrap
// fighter.ErrLookupUnavailable and end the stream; a bad row wraps
// ErrMalformedRow and the stream continues.
func (s *CSVStore) Records(ctx context.Context) iter.Seq2[fighter.Record, error] {
	return func(yield func(fighter.Record, error) bool) {
		f, err := os.Open(s.path)
		if err != nil {
			yield(fighter.Record{}, fmt.Errorf("%w: open %s: %w", fighter.ErrLookupUnavailable, s.path, err))
			return
		}
		defer func() { _ = f.Close() }()
		readCSV(ctx, f, s.path, yield)
	}
}

func readCSV(ctx context.Context, r io.Reader, source string, yield func(fighter.Record, error) bool) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		yield(fighter.Record{}, fmt.Errorf("%w: read header of %s: %w", fighter.ErrLookupUnavailable, source, err))
		return
	}
	setters := make([]func(*fighter.Record, string), len(header))
	hasName := false
	for i, h := range header {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), "_", ""))
		setters[i] = csvColumns[key]
		hasName = hasName || key == "name"
	}
	if !hasName {
		yield(fighter.Record{}, fmt.Errorf("%w: %s has no name column", fighter.ErrLookupUnavailable, source))
		return
	}

	for {
		if err := ctx.Err(); err != nil {
			yield(fighter.Record{}, fmt.Errorf("%w: %w", fighter.ErrLookupUnavailable, err))
			return
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				if !yield(fighter.Record{}, fmt.Errorf("%w: %w", ErrMalformedRow, err)) {
					return
				}
				continue
			}
			yield(fighter.Record{}, fmt.Errorf("%w: read %s: %w", fighter.ErrLookupUnavailable, source, err))
			return
		}

		var rec fighter.Record
		for i, v := range row {
			if i < len(setters) && setters[i] != nil {
				setters[i](&rec, strings.TrimSpace(v))
			}
		}
		if !yield(rec, nil) {
			return
		}
	}
}

// FindByName returns the first row whose name matches case-insensitively.
func (s *CSVStore) FindByName(ctx context.Context, name string) (fighter.Record, error) {
	key := fighter.Key(name)
	for rec, err := range s.Records(ctx) {
		if err != nil {
			if errors.Is(err, ErrMalformedRow) {
				continue
			}
			return fighter.Record{}, err
		}
		if fighter.Key(rec.Name) == key {
			return rec, nil
		}
	}
	return fighter.Record{}, fmt.Errorf("%w: %q", fighter.ErrNotFound, name)
}

// Names lists every distinct fighter name in the file.
func (s *CSVStore) Names(ctx context.Context) ([]string, error) {
	return collectNames(ctx, s)
}
