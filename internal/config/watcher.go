package config

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"castpilot/pkg/logger"
)

const debounceDelay = 500 * time.Millisecond

// Watcher monitors the configuration file and invokes a callback when
// it changes. Rapid successive writes (editors often write twice) are
// debounced into a single callback.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func()
	stopCh   chan struct{}
	stopOnce sync.Once
	debounce *time.Timer
	mu       sync.Mutex
}

// NewWatcher creates a watcher for the given config file path.
func NewWatcher(path string, onChange func()) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:  w,
		path:     path,
		onChange: onChange,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching for file changes.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.path); err != nil {
		return err
	}
	go w.run()
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.stopCh) })

	w.mu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.mu.Unlock()

	return w.watcher.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.handleEvent()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Error().Err(err).Msg("config watcher error")
		}
	}
}

func (w *Watcher) handleEvent() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(debounceDelay, func() {
		logger.Info().Str("path", w.path).Msg("config file changed")
		w.onChange()
	})
}
