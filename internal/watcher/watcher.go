// Package watcher signals, debounced, when a file or its SQLite sidecars
// change on disk.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/peek-a-repo/peek/internal/log"
)

// Config holds watcher options.
type Config struct {
	Path     string
	Debounce time.Duration
}

// DefaultConfig debounces bursts of writes for 250ms.
func DefaultConfig(path string) Config {
	return Config{Path: path, Debounce: 250 * time.Millisecond}
}

// Watcher watches the directory holding Path and reports writes to Path,
// Path-wal and Path-journal.
type Watcher struct {
	fs       *fsnotify.Watcher
	names    map[string]bool
	dir      string
	debounce time.Duration
	changes  chan struct{}
	done     chan struct{}
	stop     sync.Once
}

// New creates a watcher. Call Start to begin delivering changes.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	base := filepath.Base(cfg.Path)
	return &Watcher{
		fs:       fsw,
		dir:      filepath.Dir(cfg.Path),
		names:    map[string]bool{base: true, base + "-wal": true, base + "-journal": true},
		debounce: cfg.Debounce,
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// Start watches the directory. The returned channel receives one signal per
// debounced burst; signals are dropped while one is unread.
func (w *Watcher) Start() (<-chan struct{}, error) {
	if err := w.fs.Add(w.dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", w.dir, err)
	}
	go w.loop()
	return w.changes, nil
}

// Stop releases the fsnotify handle. Safe to call twice.
func (w *Watcher) Stop() error {
	var err error
	w.stop.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) loop() {
	var fire <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case w.changes <- struct{}{}:
			default:
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watch error", err, "dir", w.dir)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	return w.names[filepath.Base(ev.Name)]
}
