// Package watch re-runs a script when it or a source next to it changes.
package watch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after a change during which further
// changes are ignored.
const DefaultDebounce = 100 * time.Millisecond

// Watcher monitors a script's directory and calls OnChange for source edits
type Watcher struct {
	watcher    *fsnotify.Watcher
	path       string
	onChange   func(path string)
	extensions map[string]bool
	debounce   time.Duration
	stdout     io.Writer
	stderr     io.Writer

	mu         sync.Mutex
	lastChange time.Time
	changeSeq  uint64
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce interval; zero keeps the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExtensions adds file extensions, such as ".txt", that trigger a re-run.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		for _, ext := range exts {
			w.extensions[strings.ToLower(ext)] = true
		}
	}
}

// New creates a watcher for the script at path.
func New(path string, onChange func(path string), stdout, stderr io.Writer, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:    fsWatcher,
		path:       abs,
		onChange:   onChange,
		extensions: map[string]bool{".pgm": true},
		debounce:   DefaultDebounce,
		stdout:     stdout,
		stderr:     stderr,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching the script's directory. Events are handled on a
// separate goroutine until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		w.logError("failed to watch %s: %v", dir, err)
		return err
	}
	w.logInfo("watching %s", dir)

	go w.eventLoop(ctx)
	return nil
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}

			w.mu.Lock()
			if time.Since(w.lastChange) < w.debounce {
				w.mu.Unlock()
				continue
			}
			w.lastChange = time.Now()
			w.changeSeq++
			w.mu.Unlock()

			w.logInfo("changed: %s", event.Name)
			w.onChange(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logError("watcher error: %v", err)
		}
	}
}

// relevant reports whether a change to path should re-run the script.
func (w *Watcher) relevant(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".gz" || ext == ".zst" {
		ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(base, filepath.Ext(base))))
	}
	return w.extensions[ext]
}

// ChangeSeq returns the number of changes acted on so far.
func (w *Watcher) ChangeSeq() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.changeSeq
}

// Close stops the watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) logInfo(format string, args ...interface{}) {
	fmt.Fprintf(w.stdout, "[WATCH] "+format+"\n", args...)
}

func (w *Watcher) logError(format string, args ...interface{}) {
	fmt.Fprintf(w.stderr, "[WATCH ERROR] "+format+"\n", args...)
}
