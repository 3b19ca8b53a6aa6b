package external

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/claude-tracker/internal/logger"
)

const debounceInterval = 100 * time.Millisecond

// Watcher signals when the credentials file changes on disk, which usually
// means Claude Code logged in or refreshed its token.
type Watcher struct {
	watcher  *fsnotify.Watcher
	changes  chan struct{}
	stopChan chan struct{}
	path     string

	mu            sync.Mutex
	debounceTimer *time.Timer
	closeOnce     sync.Once
}

// NewWatcher starts watching path. The parent directory is watched so
// atomic replacements (create + rename) are seen.
func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		if closeErr := fw.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{
		watcher:  fw,
		changes:  make(chan struct{}, 1),
		stopChan: make(chan struct{}),
		path:     path,
	}
	go w.watchLoop()
	return w, nil
}

// Changes delivers one signal per debounced burst of changes.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

func (w *Watcher) watchLoop() {
	base := filepath.Base(w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			w.mu.Lock()
			if w.debounceTimer != nil {
				w.debounceTimer.Stop()
			}
			w.debounceTimer = time.AfterFunc(debounceInterval, w.notify)
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("credentials watcher error", "error", err)

		case <-w.stopChan:
			return
		}
	}
}

// notify coalesces: a pending signal already covers this change.
func (w *Watcher) notify() {
	select {
	case w.changes <- struct{}{}:
	default:
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.stopChan)

		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.mu.Unlock()

		err = w.watcher.Close()
	})
	return err
}
