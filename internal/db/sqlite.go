package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/soulchat/soulchat/internal/db/migrations"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/soulchat/soulchat/internal/logging"
)

// NewSQLite opens the SQLite database, runs migrations, and returns a Store
func NewSQLite(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't handle concurrent writers well; serialize all access
	// through a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logging.Infof("SQLite database initialized at %s", path)
	return NewStore(db), nil
}
