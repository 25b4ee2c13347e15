package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/playmatatu/slamdunk/internal/migrations"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know
	// uses ? placeholders.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Connect opens the history store. postgres:// URLs connect to PostgreSQL;
// sqlite://<path> opens an embedded database and creates its schema.
func Connect(databaseURL string) (*sqlx.DB, error) {
	if path, ok := strings.CutPrefix(databaseURL, "sqlite://"); ok {
		return connectSQLite(path)
	}

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func connectSQLite(path string) (*sqlx.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("cannot create directory for %s: %w", path, err)
		}
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection also keeps :memory: databases alive.
	db.SetMaxOpenConns(1)

	if err := migrations.EnsureSQLiteSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
