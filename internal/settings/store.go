package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/peek-a-repo/peek/internal/log"
	"github.com/peek-a-repo/peek/internal/pubsub"
	"github.com/peek-a-repo/peek/internal/watcher"
)

// ErrUnknownKey is returned by Set for keys outside Keys.
var ErrUnknownKey = errors.New("unknown settings key")

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// Store is the SQLite-backed settings store. Reads come from an in-memory
// snapshot refreshed by Reload.
type Store struct {
	db       *sql.DB
	path     string
	fallback string
	broker   *pubsub.Broker[Settings]

	mu      sync.RWMutex
	current Settings
	watch   *watcher.Watcher
}

// Open opens (creating if needed) the store at path and loads a snapshot.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating settings directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("opening settings store: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating settings store: %w", err)
	}

	s := &Store{
		db:      db,
		path:    path,
		broker:  pubsub.NewBroker[Settings](),
		current: Defaults(),
	}
	if _, err := s.Reload(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info(log.CatSettings, "settings store opened", "path", path)
	return s, nil
}

// SetFallbackToken supplies a token used while authToken is unset, e.g.
// from GITHUB_TOKEN.
func (s *Store) SetFallbackToken(token string) {
	s.mu.Lock()
	s.fallback = token
	s.mu.Unlock()
}

// Current returns the latest snapshot.
func (s *Store) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Token returns the stored token, or the fallback.
func (s *Store) Token(context.Context) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current.AuthToken != "" {
		return s.current.AuthToken
	}
	return s.fallback
}

// NeedsLogin reports whether the sign-in notice should be offered: no stored
// or fallback token and the notice not dismissed.
func (s *Store) NeedsLogin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.NeedsLogin() && s.fallback == ""
}

// Load reads every row on top of Defaults. Rows that fail to decode are
// skipped.
func (s *Store) Load(ctx context.Context) (Settings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return Settings{}, fmt.Errorf("reading settings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := Defaults()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Settings{}, fmt.Errorf("scanning settings: %w", err)
		}
		if !slices.Contains(Keys, key) {
			continue
		}
		// Decode one key at a time so a bad value only loses that key.
		doc, _ := json.Marshal(map[string]json.RawMessage{key: json.RawMessage(value)})
		if err := json.Unmarshal(doc, &out); err != nil {
			log.Warn(log.CatSettings, "ignoring malformed setting", "key", key, "error", err)
		}
	}
	if err := rows.Err(); err != nil {
		return Settings{}, fmt.Errorf("reading settings: %w", err)
	}
	return out, nil
}

// Reload refreshes the snapshot and publishes it when it changed.
func (s *Store) Reload(ctx context.Context) (Settings, error) {
	next, err := s.Load(ctx)
	if err != nil {
		return Settings{}, err
	}

	s.mu.Lock()
	changed := !equal(s.current, next)
	s.current = next
	s.mu.Unlock()

	if changed {
		log.Debug(log.CatSettings, "settings reloaded")
		s.broker.Publish(pubsub.SettingsChangedEvent, next)
	}
	return next, nil
}

// Set writes one key and reloads.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	if !slices.Contains(Keys, key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if key == KeyPreviewDelay {
		if ms, ok := value.(int); ok {
			value = min(max(ms, 0), MaxPreviewDelay)
		}
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(encoded))
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	log.Debug(log.CatSettings, "setting written", "key", key)

	_, err = s.Reload(ctx)
	return err
}

// Subscribe streams snapshots published after a change. A slow reader
// skips straight to the newest snapshot.
func (s *Store) Subscribe(ctx context.Context) <-chan pubsub.Event[Settings] {
	return s.broker.SubscribeLatest(ctx)
}

// Watch reloads whenever another process writes the database, until ctx is
// done or the store is closed.
func (s *Store) Watch(ctx context.Context, cfg watcher.Config) error {
	cfg.Path = s.path
	w, err := watcher.New(cfg)
	if err != nil {
		return err
	}
	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return err
	}

	s.mu.Lock()
	s.watch = w
	s.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = w.Stop()
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				if _, err := s.Reload(ctx); err != nil {
					log.ErrorErr(log.CatSettings, "reloading settings", err)
				}
			}
		}
	}()
	return nil
}

// Close stops watching and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	w := s.watch
	s.watch = nil
	s.mu.Unlock()
	if w != nil {
		_ = w.Stop()
	}
	s.broker.Close()
	return s.db.Close()
}

func equal(a, b Settings) bool {
	ca, cb := a.ModifierKey, b.ModifierKey
	a.ModifierKey, b.ModifierKey = nil, nil
	if a != b {
		return false
	}
	if ca == nil || cb == nil {
		return ca == cb
	}
	return *ca == *cb
}
