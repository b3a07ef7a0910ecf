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

package testutil

import (
	"maps"
	"path/filepath"
	"slices"
	"sync"
)

// Watcher is an in-memory watch.FileWatcher. Tests trigger changes with
// Emit.
type Watcher struct {
	mu        sync.Mutex
	paths     map[string]bool
	events    chan string
	closed    bool
	adds      int
	unwatches int
}

// NewWatcher returns an empty watcher.
func NewWatcher() *Watcher {
	return &Watcher{
		paths:  make(map[string]bool),
		events: make(chan string, 64),
	}
}

// Add implements watch.FileWatcher.
func (w *Watcher) Add(paths ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range paths {
		w.paths[filepath.Clean(p)] = true
		w.adds++
	}
	return nil
}

// Unwatch implements watch.FileWatcher.
func (w *Watcher) Unwatch(paths ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range paths {
		delete(w.paths, filepath.Clean(p))
		w.unwatches++
	}
	return nil
}

// Watched implements watch.FileWatcher.
func (w *Watcher) Watched() map[string][]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	watched := make(map[string][]string)
	for p := range w.paths {
		dir := filepath.Dir(p)
		watched[dir] = append(watched[dir], filepath.Base(p))
	}
	for dir := range watched {
		slices.Sort(watched[dir])
	}
	return watched
}

// Events implements watch.FileWatcher.
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Close implements watch.FileWatcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.events)
	}
	return nil
}

// Emit reports a change to path. Emitting on a closed watcher is a no-op.
func (w *Watcher) Emit(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.events <- filepath.Clean(path)
	}
}

// Paths returns the watched paths, sorted.
func (w *Watcher) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Sorted(maps.Keys(w.paths))
}

// Closed reports whether Close was called.
func (w *Watcher) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Ops returns how many paths were added and unwatched in total.
func (w *Watcher) Ops() (adds, unwatches int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.adds, w.unwatches
}
