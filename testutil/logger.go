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
	"slices"
	"sync"
	"testing"
	"time"

	"bennypowers.dev/mach/manifest"
)

// Event kinds recorded by Logger.
const (
	EventFailed   = "failed"
	EventComplete = "complete"
	EventChange   = "change"
)

// LogEvent is one recorded logger call.
type LogEvent struct {
	Kind string
	// Module is set for completed builds.
	Module string
	Path   string
	Errors []manifest.Diagnostic
}

// Logger records every logger.BuildLogger call.
type Logger struct {
	mu     sync.Mutex
	events []LogEvent
	notify chan LogEvent
}

// NewLogger returns an empty recording logger.
func NewLogger() *Logger {
	return &Logger{notify: make(chan LogEvent, 256)}
}

func (l *Logger) record(ev LogEvent) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()

	select {
	case l.notify <- ev:
	default:
	}
}

// BuildFailed implements logger.BuildLogger.
func (l *Logger) BuildFailed(errs []manifest.Diagnostic) {
	l.record(LogEvent{Kind: EventFailed, Errors: slices.Clone(errs)})
}

// BuildComplete implements logger.BuildLogger.
func (l *Logger) BuildComplete(name string, _ time.Duration, _ *manifest.Manifest) {
	l.record(LogEvent{Kind: EventComplete, Module: name})
}

// ChangeDetected implements logger.BuildLogger.
func (l *Logger) ChangeDetected(path string) {
	l.record(LogEvent{Kind: EventChange, Path: path})
}

// Events returns every recorded call in order.
func (l *Logger) Events() []LogEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.events)
}

// Count returns how many events of kind were recorded.
func (l *Logger) Count(kind string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// Completed returns the names of completed builds in order.
func (l *Logger) Completed() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var names []string
	for _, ev := range l.events {
		if ev.Kind == EventComplete {
			names = append(names, ev.Module)
		}
	}
	return names
}

// Wait blocks until an event of kind is logged after the call, failing the
// test after timeout.
func (l *Logger) Wait(t *testing.T, kind string, timeout time.Duration) LogEvent {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-l.notify:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event; got %+v", kind, l.Events())
			return LogEvent{}
		}
	}
}

// Drain discards pending notifications so Wait only sees later events.
func (l *Logger) Drain() {
	for {
		select {
		case <-l.notify:
		default:
			return
		}
	}
}
