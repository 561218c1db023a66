// Package storage opens the local SQLite database, applies the embedded
// goose migrations and hands out the repositories built on top of it.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/bountyhunter/internal/repositories/journal"
	"github.com/dmitrijs2005/bountyhunter/internal/repositories/metadata"
	"github.com/dmitrijs2005/bountyhunter/internal/storage/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

type Storage struct {
	db       *sql.DB
	Metadata metadata.Repository
	Journal  *journal.Store
}

// RunMigrations applies every pending embedded migration.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Open opens (creating if needed) the database at dsn and migrates it.
// A single connection is used: the tracker has one writer, and ":memory:"
// databases are per-connection in SQLite.
func Open(ctx context.Context, dsn string) (*Storage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database %s: %w", dsn, err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Storage{
		db:       db,
		Metadata: metadata.NewSQLiteRepository(db),
		Journal:  journal.NewStore(db),
	}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}
