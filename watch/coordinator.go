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

// Package watch rebuilds instruments when their source files change.
//
// Each successfully built instrument gets a session: a file watcher seeded
// with the files the build consumed and a goroutine that rebuilds on
// change. After every successful rebuild the watch set is reconciled with
// the new build's inputs, so files that enter or leave the bundle are
// picked up or dropped. Sessions are independent. A parent bundle imports
// its submodules' emitted module files, so a submodule rebuild rewrites a
// file the parent watches and the parent rebuilds in turn.
package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bennypowers.dev/mach/instrument"
	"bennypowers.dev/mach/logger"
	"bennypowers.dev/mach/manifest"
)

// ModuleBuilder builds an instrument and its submodules.
type ModuleBuilder interface {
	BuildModule(inst *instrument.Instrument, isSubmodule bool) *manifest.Manifest
}

// WatcherFactory creates a file watcher for one session.
type WatcherFactory func() (FileWatcher, error)

// Coordinator owns every watch session.
type Coordinator struct {
	builder    ModuleBuilder
	log        logger.BuildLogger
	newWatcher WatcherFactory
	onError    func(error)

	mu       sync.Mutex
	sessions []*session
	closed   bool
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithWatchErrors receives errors from updating watch sets. Compile errors
// are reported through the build logger instead.
func WithWatchErrors(fn func(error)) CoordinatorOption {
	return func(c *Coordinator) {
		c.onError = fn
	}
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(builder ModuleBuilder, log logger.BuildLogger, newWatcher WatcherFactory, opts ...CoordinatorOption) *Coordinator {
	if log == nil {
		log = logger.Nop{}
	}
	c := &Coordinator{
		builder:    builder,
		log:        log,
		newWatcher: newWatcher,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WatchModule watches inst's submodules, builds inst and, when the build
// succeeds, keeps rebuilding it as its inputs change until ctx is done or
// the coordinator is closed. It returns the initial build's manifest.
// A failed initial build is not watched.
func (c *Coordinator) WatchModule(ctx context.Context, inst *instrument.Instrument, isSubmodule bool) *manifest.Manifest {
	if inst.HasModules() {
		var wg sync.WaitGroup
		for _, mod := range inst.Modules {
			if mod == nil {
				continue
			}
			wg.Go(func() {
				c.WatchModule(ctx, mod, true)
			})
		}
		wg.Wait()
	}

	m := c.builder.BuildModule(inst, isSubmodule)
	if !m.Success() {
		return m
	}

	w, err := c.newWatcher()
	if err != nil {
		m.Dispose()
		failed := manifest.FailedWithError(inst.Name, fmt.Errorf("watching %s: %w", inst.Name, err))
		c.log.BuildFailed(failed.Errors)
		return failed
	}
	if _, _, err := Reconcile(w, m.Inputs); err != nil && c.onError != nil {
		c.onError(err)
	}

	s := newSession(inst, c.log, w, m, c.onError)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		_ = w.Close()
		m.Dispose()
		return m
	}
	c.sessions = append(c.sessions, s)
	s.start(ctx)
	return m
}

// Watching returns the names of instruments with a live session.
func (c *Coordinator) Watching() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.sessions))
	for _, s := range c.sessions {
		names = append(names, s.inst.Name)
	}
	return names
}

// Close stops every session, closes their watchers and releases their build
// contexts.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	sessions := c.sessions
	c.sessions = nil
	c.closed = true
	c.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.stop(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.inst.Name, err))
		}
	}
	return errors.Join(errs...)
}
