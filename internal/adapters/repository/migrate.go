package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrateResult reports the schema version before and after a run.
type MigrateResult struct {
	From    uint
	To      uint
	Changed bool
}

// Migrate applies the embedded migrations.
//   - targetVersion < 0 migrates to the latest version.
//   - targetVersion == 0 rolls everything back.
//   - targetVersion > 0 migrates to that version.
//
// Migrations run on a dedicated connection that is closed on return.
func Migrate(ctx context.Context, driverName, dsn string, targetVersion int) (MigrateResult, error) {
	db, err := openDB(ctx, driverName, dsn)
	if err != nil {
		return MigrateResult{}, err
	}
	defer func() { _ = db.Close() }()

	var driver database.Driver
	switch driverName {
	case DriverSQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	case DriverMySQL:
		driver, err = mysql.WithInstance(db, &mysql.Config{})
	case DriverPostgres:
		driver, err = migratepgx.WithInstance(db, &migratepgx.Config{})
	}
	if err != nil {
		return MigrateResult{}, fmt.Errorf("create %s migrate driver: %w", driverName, err)
	}

	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return MigrateResult{}, fmt.Errorf("access migrations: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return MigrateResult{}, fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "fightpredict", driver)
	if err != nil {
		return MigrateResult{}, fmt.Errorf("create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	from, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrateResult{}, fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return MigrateResult{From: from}, fmt.Errorf("database is dirty at version %d; fix it manually or force a version", from)
	}

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	res := MigrateResult{From: from, To: from}
	if errors.Is(err, migrate.ErrNoChange) {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("migrate to %d: %w", targetVersion, err)
	}

	to, _, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return res, fmt.Errorf("read migration version: %w", verr)
	}
	res.To = to
	res.Changed = true
	return res, nil
}
