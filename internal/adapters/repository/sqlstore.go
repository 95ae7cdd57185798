package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/ArnavTamrakar/Fight-predict/internal/domain/fighter"
)

// Supported drivers, as named in configuration.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

const fighterColumns = "name, record, str_acc, td_acc, td_def, td_avg, slpm, weight, reach, stance, dob"

// SQLStore looks fighters up in the fighters table.
type SQLStore struct {
	db     *sql.DB
	driver string
}

var _ fighter.Lookup = (*SQLStore)(nil)

// OpenSQL opens and pings a database for the given driver.
func OpenSQL(ctx context.Context, driver, dsn string, maxOpenConns int) (*SQLStore, error) {
	db, err := openDB(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// Avoid "database is locked" under concurrent writers.
		db.SetMaxOpenConns(1)
	} else if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}
	return NewSQLStore(db, driver), nil
}

func openDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	var sqlDriver string
	switch driver {
	case DriverSQLite:
		sqlDriver = "sqlite"
	case DriverMySQL:
		sqlDriver = "mysql"
	case DriverPostgres:
		sqlDriver = "pgx"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", fighter.ErrLookupUnavailable, driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", fighter.ErrLookupUnavailable, driver, err)
	}
	return db, nil
}

// NewSQLStore wraps an already opened database.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// Driver returns the configured driver name.
func (s *SQLStore) Driver() string { return s.driver }

// Close releases the pool.
func (s *SQLStore) Close() error { return s.db.Close() }

// placeholder returns the n-th (1-based) bind marker for the backend.
func (s *SQLStore) placeholder(n int) string {
	if s.driver == DriverPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// FindByName matches on the folded name key.
func (s *SQLStore) FindByName(ctx context.Context, name string) (fighter.Record, error) {
	query := "SELECT " + fighterColumns + " FROM fighters WHERE name_key = " + s.placeholder(1)
	row := s.db.QueryRowContext(ctx, query, fighter.Key(name))
	rec, err := scanFighter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return fighter.Record{}, fmt.Errorf("%w: %q", fighter.ErrNotFound, name)
	}
	if err != nil {
		return fighter.Record{}, fmt.Errorf("%w: %w", fighter.ErrLookupUnavailable, err)
	}
	return rec, nil
}

// Names lists every fighter name.
func (s *SQLStore) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM fighters")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fighter.ErrLookupUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var n sql.NullString
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("%w: %w", fighter.ErrLookupUnavailable, err)
		}
		if name := strings.Join(strings.Fields(n.String), " "); name != "" {
			names = append(names, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", fighter.ErrLookupUnavailable, err)
	}
	sortNames(names)
	return names, nil
}

// Records streams the table in name order.
func (s *SQLStore) Records(ctx context.Context) iter.Seq2[fighter.Record, error] {
	return func(yield func(fighter.Record, error) bool) {
		rows, err := s.db.QueryContext(ctx, "SELECT "+fighterColumns+" FROM fighters ORDER BY name_key")
		if err != nil {
			yield(fighter.Record{}, fmt.Errorf("%w: %w", fighter.ErrLookupUnavailable, err))
			return
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
			rec, err := scanFighter(rows)
			if err != nil {
				yield(fighter.Record{}, fmt.Errorf("%w: %w", fighter.ErrLookupUnavailable, err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(fighter.Record{}, fmt.Errorf("%w: %w", fighter.ErrLookupUnavailable, err))
		}
	}
}

type scanner interface {
	Scan(dest ...any) error
}

// scanFighter reads NULL columns as empty strings.
func scanFighter(sc scanner) (fighter.Record, error) {
	var cols [11]sql.NullString
	dest := make([]any, len(cols))
	for i := range cols {
		dest[i] = &cols[i]
	}
	if err := sc.Scan(dest...); err != nil {
		return fighter.Record{}, err
	}
	return fighter.Record{
		Name:   cols[0].String,
		Record: cols[1].String,
		StrAcc: cols[2].String,
		TDAcc:  cols[3].String,
		TDDef:  cols[4].String,
		TDAvg:  cols[5].String,
		SLpM:   cols[6].String,
		Weight: cols[7].String,
		Reach:  cols[8].String,
		Stance: cols[9].String,
		DoB:    cols[10].String,
	}, nil
}

// upsertQuery builds the per-backend insert-or-update statement.
func (s *SQLStore) upsertQuery() string {
	cols := []string{"name_key", "name", "record", "str_acc", "td_acc", "td_def", "td_avg", "slpm", "weight", "reach", "stance", "dob"}
	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = s.placeholder(i + 1)
	}
	insert := "INSERT INTO fighters (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"

	updates := make([]string, 0, len(cols)-1)
	for _, c := range cols[1:] {
		if s.driver == DriverMySQL {
			updates = append(updates, c+" = VALUES("+c+")")
		} else {
			updates = append(updates, c+" = excluded."+c)
		}
	}
	if s.driver == DriverMySQL {
		return insert + " ON DUPLICATE KEY UPDATE " + strings.Join(updates, ", ")
	}
	return insert + " ON CONFLICT (name_key) DO UPDATE SET " + strings.Join(updates, ", ")
}
