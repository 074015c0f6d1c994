package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"pronote2telegram/internal/history"
	logx "pronote2telegram/pkg/logx"
)

// fileStore keeps every document as a standalone JSON file.
//
// Files (in Dir):
//   - <category>-history.json
//   - <name>.json (raw snapshot dumps, e.g. grades.json)
//
// Writes go to a temp file first and are renamed over the target, so a crash
// never leaves a half-written history behind.
type fileStore struct {
	log logx.Logger
	dir string

	mu     sync.Mutex
	closed bool
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return nil, errors.New("storage dir is required for file driver")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &fileStore{log: log, dir: dir}, nil
}

func (s *fileStore) historyPath(category string) string {
	return filepath.Join(s.dir, category+"-history.json")
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fileStore) LoadHistory(ctx context.Context, category string) ([]history.Entry, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	data, err := os.ReadFile(s.historyPath(category))
	if err != nil {
		if os.IsNotExist(err) {
			return []history.Entry{}, nil
		}
		return nil, fmt.Errorf("read %s history: %w", category, err)
	}
	if len(data) == 0 {
		return []history.Entry{}, nil
	}

	var entries []history.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal %s history: %w", category, err)
	}
	return entries, nil
}

func (s *fileStore) SaveHistory(ctx context.Context, category string, entries []history.Entry) error {
	_ = ctx
	if entries == nil {
		entries = []history.Entry{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := writeJSON(s.historyPath(category), entries); err != nil {
		return fmt.Errorf("write %s history: %w", category, err)
	}
	s.log.Debug("history saved", logx.String("category", category), logx.Int("entries", len(entries)))
	return nil
}

func (s *fileStore) SaveSnapshot(ctx context.Context, name string, v any) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := writeJSON(filepath.Join(s.dir, name+".json"), v); err != nil {
		return fmt.Errorf("write %s snapshot: %w", name, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
