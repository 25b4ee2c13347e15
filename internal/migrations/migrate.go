package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/golang-migrate/migrate/v4"
	pg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DefaultDir is where the postgres migration files live relative to the working directory.
const DefaultDir = "migrations"

// sqliteSchema mirrors migrations/000001_init.up.sql for the embedded store.
const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS tables (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		token TEXT NOT NULL UNIQUE,
		table_id TEXT NOT NULL,
		profile TEXT NOT NULL,
		width REAL NOT NULL,
		length REAL NOT NULL,
		ball_radius REAL NOT NULL,
		target_balls INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'OPEN',
		close_reason TEXT,
		final_state TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		closed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS shots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		table_token TEXT NOT NULL REFERENCES tables(token) ON DELETE CASCADE,
		shot_number INTEGER NOT NULL,
		speed REAL NOT NULL,
		direction_x REAL NOT NULL,
		direction_z REAL NOT NULL,
		world_rotation REAL NOT NULL DEFAULT 0,
		shot_data TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_shots_table_token ON shots(table_token);

	CREATE TABLE IF NOT EXISTS table_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		table_token TEXT NOT NULL REFERENCES tables(token) ON DELETE CASCADE,
		shot_number INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		ball_id TEXT,
		target_id TEXT,
		speed REAL NOT NULL DEFAULT 0,
		ratio REAL NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_table_events_table_token ON table_events(table_token);
`

// EnsureSQLiteSchema creates the schema on an embedded sqlite database if it doesn't exist.
func EnsureSQLiteSchema(db *sqlx.DB) error {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("sqlite schema: %w", err)
	}
	return nil
}

// RunMigrations brings the database at databaseURL up to date. Postgres
// databases run the file-based migrations in dir; sqlite databases get the
// inline schema.
//
// If a postgres DB already has the schema (tables table exists) but migrate's
// metadata table is missing, it is baselined to the latest migration first.
func RunMigrations(databaseURL, dir string) error {
	if databaseURL == "" {
		return fmt.Errorf("database URL is empty")
	}
	if dir == "" {
		dir = DefaultDir
	}

	if path, ok := strings.CutPrefix(databaseURL, "sqlite://"); ok {
		db, err := sqlx.Open("sqlite", path)
		if err != nil {
			return fmt.Errorf("failed to open DB: %w", err)
		}
		defer db.Close()
		if err := EnsureSQLiteSchema(db); err != nil {
			return err
		}
		log.Info("[MIGRATE] sqlite schema ensured", "path", path)
		return nil
	}

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open DB: %w", err)
	}
	defer sqlDB.Close()

	driver, err := pg.WithInstance(sqlDB, &pg.Config{MigrationsTable: "schema_migrations_migrate"})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	var tablesExist bool
	row := sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name='tables')")
	if err := row.Scan(&tablesExist); err == nil && tablesExist {
		var migrateTableExist bool
		row2 := sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name='schema_migrations_migrate')")
		if err := row2.Scan(&migrateTableExist); err == nil && !migrateTableExist {
			if latest := findLatestMigrationVersion(dir); latest > 0 {
				log.Info("[MIGRATE] baselining existing schema", "version", latest)
				if ferr := m.Force(int(latest)); ferr != nil {
					log.Warn("[MIGRATE] force failed", "version", latest, "error", ferr)
				}
			}
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	log.Info("[MIGRATE] migrations applied", "dir", dir)
	return nil
}

// findLatestMigrationVersion scans dir for files that start with a numeric
// version prefix (e.g. 000001_) and returns the highest version number.
func findLatestMigrationVersion(dir string) int64 {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	re := regexp.MustCompile(`^0*([0-9]+)_`)
	var max int64
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		m := re.FindStringSubmatch(f.Name())
		if len(m) < 2 {
			continue
		}
		v, _ := strconv.ParseInt(m[1], 10, 64)
		if v > max {
			max = v
		}
	}

	return max
}
