package routetable

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/louisbranch/warehouse/internal/services/web/gate"
)

// Watcher serves the most recent valid table loaded from a file and reloads
// it when the file changes. A file that fails to parse leaves the previous
// table in place.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *log.Logger
	current  atomic.Pointer[Table]
	reloads  atomic.Uint64
}

// NewWatcher loads path and returns a watcher serving it. The initial load
// must succeed.
func NewWatcher(path string, debounce time.Duration, logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.Default()
	}
	table, err := Load(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{path: path, debounce: debounce, logger: logger}
	w.current.Store(table)
	return w, nil
}

// Table returns the active table.
func (w *Watcher) Table() *Table {
	return w.current.Load()
}

// Match resolves path against the active table.
func (w *Watcher) Match(path string) (gate.Gate, bool) {
	return w.Table().Match(path)
}

// Reloads counts successful reloads after the initial load.
func (w *Watcher) Reloads() uint64 {
	return w.reloads.Load()
}

// Reload re-reads the file. On error the active table is unchanged.
func (w *Watcher) Reload() error {
	table, err := Load(w.path)
	if err != nil {
		return err
	}
	w.current.Store(table)
	w.reloads.Add(1)
	return nil
}

// Run watches the file's directory, so editors that replace the file by
// rename are picked up, and reloads after writes settle. It blocks until ctx
// is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create route table watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	target := filepath.Clean(w.path)

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(w.debounce, w.reloadAndLog)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("route table: watch error path=%s err=%v", w.path, err)
		}
	}
}

func (w *Watcher) reloadAndLog() {
	if err := w.Reload(); err != nil {
		w.logger.Printf("route table: reload failed, keeping previous table err=%v", err)
		return
	}
	w.logger.Printf("route table: reloaded path=%s routes=%d", w.path, len(w.Table().Routes()))
}
