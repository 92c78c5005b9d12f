package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/livefir/rsxhot"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its configuration in package state
var gooseMu sync.Mutex

// SQLite is a Store persisted in a SQLite database, so templates already
// sent survive a dev server restart.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and runs
// pending migrations. Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(log.New(io.Discard, "", 0))
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, location string) (*rsxhot.HotReloadedTemplate, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM templates WHERE location = ?`, location).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query template: %w", err)
	}
	var tmpl rsxhot.HotReloadedTemplate
	if err := json.Unmarshal([]byte(body), &tmpl); err != nil {
		return nil, fmt.Errorf("failed to decode template %s: %w", location, err)
	}
	return &tmpl, nil
}

func (s *SQLite) Put(ctx context.Context, location string, tmpl *rsxhot.HotReloadedTemplate) error {
	body, err := json.Marshal(tmpl)
	if err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO templates (location, body, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(location) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		location, string(body))
	if err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, location string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE location = ?`, location); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

func (s *SQLite) DeletePrefix(ctx context.Context, prefix string) error {
	// substr avoids LIKE wildcards in paths
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM templates WHERE substr(location, 1, ?) = ?`, utf8.RuneCountInString(prefix), prefix)
	if err != nil {
		return fmt.Errorf("failed to delete templates: %w", err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT location, body FROM templates ORDER BY location`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var location, body string
		if err := rows.Scan(&location, &body); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		var tmpl rsxhot.HotReloadedTemplate
		if err := json.Unmarshal([]byte(body), &tmpl); err != nil {
			return nil, fmt.Errorf("failed to decode template %s: %w", location, err)
		}
		entries = append(entries, Entry{Location: location, Template: &tmpl})
	}
	return entries, rows.Err()
}

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
