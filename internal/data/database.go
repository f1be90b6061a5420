package data

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

// ErrNoRecord is returned by repositories when a lookup matches no row.
var ErrNoRecord = errors.New("data: no matching record")

// Supported values for the db.driver setting.
const (
	DriverMySQL   = "mysql"
	DriverSQLite3 = "sqlite3" // mattn/go-sqlite3, cgo
	DriverSQLite  = "sqlite"  // modernc.org/sqlite, pure Go
)

// NewDB creates a new database connection pool for the given driver.
func NewDB(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverMySQL, DriverSQLite3, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	dsn = sqliteDSN(driver, dsn)

	// sqlx.Connect opens a connection and pings it to verify it's alive.
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if isSQLite(driver) {
		// A single connection keeps in-memory databases stable.
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// sqliteDSN adds the connection parameters every SQLite connection needs.
// Foreign keys are a per-connection setting, so they go in the DSN and
// apply to connections the pool opens later too.
func sqliteDSN(driver, dsn string) string {
	switch driver {
	case DriverSQLite3:
		if !strings.Contains(dsn, "_foreign_keys") && !strings.Contains(dsn, "_fk=") {
			dsn += sep(dsn) + "_foreign_keys=on"
		}
	case DriverSQLite:
		if !strings.Contains(dsn, "foreign_keys") {
			dsn += sep(dsn) + "_pragma=foreign_keys(1)"
		}
		if !strings.Contains(dsn, "_time_format") {
			// Store timestamps in the same sortable text layout as mattn/go-sqlite3.
			dsn += sep(dsn) + "_time_format=sqlite"
		}
	}
	return dsn
}

// ApplyMigrations runs all up migrations embedded in the binary against db.
func ApplyMigrations(db *sqlx.DB) error {
	var (
		instance database.Driver
		dir      string
		err      error
	)
	switch db.DriverName() {
	case DriverMySQL:
		dir = "migrations/mysql"
		instance, err = mysql.WithInstance(db.DB, &mysql.Config{})
	case DriverSQLite3:
		dir = "migrations/sqlite"
		instance, err = sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	case DriverSQLite:
		dir = "migrations/sqlite"
		instance, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
	default:
		return fmt.Errorf("no migrations for driver %q", db.DriverName())
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, db.DriverName(), instance)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Up applies all available up migrations.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

func isSQLite(driver string) bool {
	return driver == DriverSQLite3 || driver == DriverSQLite
}

func sep(dsn string) string {
	if strings.Contains(dsn, "?") {
		return "&"
	}
	return "?"
}
