/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package watch

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher tracks a set of files and reports changes to them.
type FileWatcher interface {
	// Add starts tracking paths. Already tracked paths are ignored.
	Add(paths ...string) error
	// Unwatch stops tracking paths.
	Unwatch(paths ...string) error
	// Watched returns the tracked files grouped by directory.
	Watched() map[string][]string
	// Events delivers the cleaned absolute path of each changed file.
	Events() <-chan string
	// Close stops the watcher and closes Events.
	Close() error
}

// DefaultDebounce is how long a file must stay quiet before its change is
// reported.
const DefaultDebounce = 100 * time.Millisecond

// FSWatcher is a FileWatcher backed by fsnotify.
//
// It watches the directories containing tracked files rather than the files
// themselves, so editors that save by renaming a temporary file over the
// original keep being followed. Events for untracked files in those
// directories are dropped.
type FSWatcher struct {
	debounce time.Duration
	onError  func(error)

	events  chan string
	stop    chan struct{}
	done    chan struct{}
	watcher *fsnotify.Watcher

	mu    sync.Mutex
	files map[string]bool
	dirs  map[string]int

	closeOnce sync.Once
}

// Option configures an FSWatcher.
type Option func(*FSWatcher)

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *FSWatcher) {
		w.debounce = d
	}
}

// WithErrorHandler receives errors reported by the underlying watcher.
func WithErrorHandler(fn func(error)) Option {
	return func(w *FSWatcher) {
		w.onError = fn
	}
}

// NewFSWatcher creates a watcher and starts its event loop.
func NewFSWatcher(opts ...Option) (*FSWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &FSWatcher{
		debounce: DefaultDebounce,
		events:   make(chan string, 16),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		watcher:  fw,
		files:    make(map[string]bool),
		dirs:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(w)
	}

	go w.loop()
	return w, nil
}

// Add implements FileWatcher.
func (w *FSWatcher) Add(paths ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	for _, p := range paths {
		p = filepath.Clean(p)
		if w.files[p] {
			continue
		}
		dir := filepath.Dir(p)
		if w.dirs[dir] == 0 {
			if err := w.watcher.Add(dir); err != nil {
				errs = append(errs, fmt.Errorf("watching %s: %w", dir, err))
				continue
			}
		}
		w.dirs[dir]++
		w.files[p] = true
	}
	return errors.Join(errs...)
}

// Unwatch implements FileWatcher.
func (w *FSWatcher) Unwatch(paths ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	for _, p := range paths {
		p = filepath.Clean(p)
		if !w.files[p] {
			continue
		}
		delete(w.files, p)

		dir := filepath.Dir(p)
		w.dirs[dir]--
		if w.dirs[dir] > 0 {
			continue
		}
		delete(w.dirs, dir)
		if err := w.watcher.Remove(dir); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
			errs = append(errs, fmt.Errorf("unwatching %s: %w", dir, err))
		}
	}
	return errors.Join(errs...)
}

// Watched implements FileWatcher.
func (w *FSWatcher) Watched() map[string][]string {
	w.mu.Lock()
	defer w.mu.Unlock()

	watched := make(map[string][]string, len(w.dirs))
	for _, p := range slices.Sorted(maps.Keys(w.files)) {
		dir := filepath.Dir(p)
		watched[dir] = append(watched[dir], filepath.Base(p))
	}
	return watched
}

// Events implements FileWatcher.
func (w *FSWatcher) Events() <-chan string {
	return w.events
}

// Close implements FileWatcher. Pending debounced changes are dropped.
func (w *FSWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.stop)
		err = w.watcher.Close()
		<-w.done
		close(w.events)
	})
	return err
}

func (w *FSWatcher) tracked(p string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[p]
}

func (w *FSWatcher) loop() {
	defer close(w.done)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			p := filepath.Clean(event.Name)
			if !w.tracked(p) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[p] = time.Now()
			}

		case <-ticker.C:
			now := time.Now()
			for _, file := range slices.Sorted(maps.Keys(pending)) {
				if now.Sub(pending[file]) < w.debounce {
					continue
				}
				delete(pending, file)
				select {
				case w.events <- file:
				case <-w.stop:
					return
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}
