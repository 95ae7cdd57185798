package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ArnavTamrakar/Fight-predict/internal/domain/fighter"
)

// ImportResult counts what an import did.
type ImportResult struct {
	Imported int
	Skipped  int
}

// Import copies every record from src into the fighters table inside one
// transaction. Rows without a name, malformed rows and later rows repeating
// an earlier folded name are skipped, so the table answers lookups with the
// same record a CSVStore over src would. Rows already in the table are
// updated in place.
func Import(ctx context.Context, src RecordSource, dst *SQLStore) (ImportResult, error) {
	var res ImportResult

	tx, err := dst.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, dst.upsertQuery())
	if err != nil {
		return res, fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	seen := make(map[string]struct{})
	for rec, err := range src.Records(ctx) {
		if err != nil {
			if errors.Is(err, ErrMalformedRow) {
				res.Skipped++
				continue
			}
			return ImportResult{}, err
		}
		key := fighter.Key(rec.Name)
		if _, dup := seen[key]; dup || key == "" {
			res.Skipped++
			continue
		}
		seen[key] = struct{}{}
		if _, err := stmt.ExecContext(ctx,
			key, rec.Name, rec.Record, rec.StrAcc, rec.TDAcc, rec.TDDef,
			rec.TDAvg, rec.SLpM, rec.Weight, rec.Reach, rec.Stance, rec.DoB,
		); err != nil {
			return ImportResult{}, fmt.Errorf("upsert %q: %w", rec.Name, err)
		}
		res.Imported++
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("commit import: %w", err)
	}
	return res, nil
}
