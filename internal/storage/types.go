package storage

import (
	"context"
	"errors"
	"time"

	"pronote2telegram/internal/history"
)

var ErrClosed = errors.New("storage closed")

// Config configures storage.
//
// Driver values:
//   - "file" (default): <Dir>/<category>-history.json and <Dir>/<name>.json
//   - "sqlite": database at Path (default <Dir>/history.db)
type Config struct {
	Driver      string
	Dir         string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the persistence API used by the category processors.
//
// LoadHistory returns an empty slice (not an error) when nothing was saved
// yet for the category.
type Store interface {
	LoadHistory(ctx context.Context, category string) ([]history.Entry, error)
	SaveHistory(ctx context.Context, category string, entries []history.Entry) error
	SaveSnapshot(ctx context.Context, name string, v any) error
	Close() error
}
