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
	"context"
	"sync"
	"time"

	"bennypowers.dev/mach/instrument"
	"bennypowers.dev/mach/logger"
	"bennypowers.dev/mach/manifest"
)

// session keeps one instrument's bundle up to date. A single goroutine
// consumes change events, so rebuilds of one instrument never overlap.
type session struct {
	inst    *instrument.Instrument
	log     logger.BuildLogger
	watcher FileWatcher
	onError func(error)

	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	current *manifest.Manifest
}

func newSession(inst *instrument.Instrument, log logger.BuildLogger, w FileWatcher, m *manifest.Manifest, onError func(error)) *session {
	return &session{
		inst:    inst,
		log:     log,
		watcher: w,
		onError: onError,
		done:    make(chan struct{}),
		current: m,
	}
}

func (s *session) start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx)
}

func (s *session) run(ctx context.Context) {
	defer close(s.done)

	events := s.watcher.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-events:
			if !ok {
				return
			}
			s.log.ChangeDetected(path)
			if !s.coalesce(events) || ctx.Err() != nil {
				return
			}
			s.rebuild()
		}
	}
}

// coalesce logs and discards changes already queued, so a burst of saves
// triggers one rebuild. It reports false once the watcher is closed.
func (s *session) coalesce(events <-chan string) bool {
	for {
		select {
		case path, ok := <-events:
			if !ok {
				return false
			}
			s.log.ChangeDetected(path)
		default:
			return true
		}
	}
}

func (s *session) rebuild() {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	next := s.current.Rebuild()
	elapsed := time.Since(start)

	if !next.Success() {
		s.log.BuildFailed(next.Errors)
		return
	}
	s.log.BuildComplete(s.inst.Name, elapsed, next)

	if next.Handle() != s.current.Handle() {
		s.current.Dispose()
	}
	s.current = next

	if _, _, err := Reconcile(s.watcher, next.Inputs); err != nil && s.onError != nil {
		s.onError(err)
	}
}

// Manifest returns the latest successful manifest.
func (s *session) Manifest() *manifest.Manifest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// stop ends the event loop, closes the watcher and releases the build
// context.
func (s *session) stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	err := s.watcher.Close()
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Dispose()
	return err
}
