package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pronote2telegram/internal/history"
	logx "pronote2telegram/pkg/logx"

	_ "modernc.org/sqlite"
)

//go:embed migrations.sql
var migrations string

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		if strings.TrimSpace(cfg.Dir) == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		path = filepath.Join(cfg.Dir, "history.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(context.Background(), migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return st, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) LoadHistory(ctx context.Context, category string) ([]history.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, date FROM history WHERE category = ? ORDER BY pos`, category)
	if err != nil {
		return nil, fmt.Errorf("load %s history: %w", category, err)
	}
	defer rows.Close()

	entries := []history.Entry{}
	for rows.Next() {
		var key, date string
		if err := rows.Scan(&key, &date); err != nil {
			return nil, err
		}
		at, err := time.Parse(time.RFC3339Nano, date)
		if err != nil {
			s.log.Warn("skipping history row with bad date", logx.String("category", category), logx.String("key", key), logx.Err(err))
			continue
		}
		entries = append(entries, history.Entry{Key: key, Date: at})
	}
	return entries, rows.Err()
}

// SaveHistory replaces the whole category in one transaction, mirroring the
// wholesale rewrite of the file driver.
func (s *sqliteStore) SaveHistory(ctx context.Context, category string, entries []history.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE category = ?`, category); err != nil {
		return fmt.Errorf("clear %s history: %w", category, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO history(category, key, date, pos) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, category, e.Key, e.Date.UTC().Format(time.RFC3339Nano), i); err != nil {
			return fmt.Errorf("insert %s history: %w", category, err)
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) SaveSnapshot(ctx context.Context, name string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshot(name, body, at) VALUES(?,?,?)
		 ON CONFLICT(name) DO UPDATE SET body=excluded.body, at=excluded.at`,
		name, string(body), time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}
