package services

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"airender/internal/logging"
)

const defaultWatchDebounce = 250 * time.Millisecond

// HistoryWatcher reports changes to the session directories under an output
// root. Only one root is watched at a time; Watch replaces the previous one.
type HistoryWatcher struct {
	log      *zap.Logger
	debounce time.Duration

	mu     sync.Mutex
	root   string
	cancel context.CancelFunc
	done   chan struct{}
}

func NewHistoryWatcher(log *zap.Logger, debounce time.Duration) *HistoryWatcher {
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}
	return &HistoryWatcher{log: logging.OrNop(log).Named("history-watch"), debounce: debounce}
}

// Root returns the directory currently watched, "" when idle.
func (w *HistoryWatcher) Root() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.root
}

// Watch starts watching root and calls onChange (debounced) after entries are
// created, removed or renamed. Calling it again with the same root is a no-op.
func (w *HistoryWatcher) Watch(ctx context.Context, root string, onChange func()) error {
	w.mu.Lock()
	if w.root == root && w.cancel != nil {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()
	w.Stop()

	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("history watch: ensure root: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("history watch: create watcher: %w", err)
	}
	if err := watcher.Add(root); err != nil {
		watcher.Close()
		return fmt.Errorf("history watch: add %s: %w", root, err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	w.mu.Lock()
	w.root = root
	w.cancel = cancel
	w.done = done
	w.mu.Unlock()

	go w.loop(watchCtx, watcher, onChange, done)
	w.log.Debug("watching history root", zap.String("root", root))
	return nil
}

func (w *HistoryWatcher) loop(ctx context.Context, watcher *fsnotify.Watcher, onChange func(), done chan struct{}) {
	defer close(done)
	defer watcher.Close()

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	fire := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			if ctx.Err() == nil {
				onChange()
			}
		})
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				fire()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("history watcher error", zap.Error(err))
		}
	}
}

// Stop ends the current watch and waits for its goroutine.
func (w *HistoryWatcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done, w.root = nil, nil, ""
	w.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
