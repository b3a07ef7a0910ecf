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
	"path/filepath"
	"slices"
	"sync"

	"github.com/evanw/esbuild/pkg/api"

	"bennypowers.dev/mach/manifest"
)

// Call records one Engine.Build invocation.
type Call struct {
	Name    string
	Options api.BuildOptions
}

// Engine is a scriptable engine.Engine. By default every build succeeds
// and consumes only its entry point.
type Engine struct {
	// OnBuild, when set, runs at the start of every Build and Rebuild.
	OnBuild func(name string)

	mu       sync.Mutex
	calls    []Call
	inputs   map[string][]string
	failures map[string][]manifest.Diagnostic
	handles  map[string][]*Handle
}

// NewEngine returns an Engine where every build succeeds.
func NewEngine() *Engine {
	return &Engine{
		inputs:   make(map[string][]string),
		failures: make(map[string][]manifest.Diagnostic),
		handles:  make(map[string][]*Handle),
	}
}

// SetInputs sets the files builds of name report as consumed.
func (e *Engine) SetInputs(name string, inputs ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inputs[name] = slices.Clone(inputs)
}

// Fail makes subsequent builds and rebuilds of name fail.
func (e *Engine) Fail(name string, diags ...manifest.Diagnostic) {
	if len(diags) == 0 {
		diags = []manifest.Diagnostic{{Text: name + " failed"}}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[name] = diags
}

// Succeed clears a failure set with Fail.
func (e *Engine) Succeed(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.failures, name)
}

// Build implements engine.Engine.
func (e *Engine) Build(name string, opts api.BuildOptions) *manifest.Manifest {
	if e.OnBuild != nil {
		e.OnBuild(name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, Call{Name: name, Options: opts})
	if diags, failed := e.failures[name]; failed {
		return manifest.Failed(name, diags, nil)
	}
	h := &Handle{engine: e, name: name, opts: opts}
	e.handles[name] = append(e.handles[name], h)
	return e.succeededLocked(name, opts, h)
}

func (e *Engine) succeededLocked(name string, opts api.BuildOptions, h *Handle) *manifest.Manifest {
	inputs, ok := e.inputs[name]
	if !ok {
		for _, entry := range opts.EntryPoints {
			inputs = append(inputs, filepath.Join(opts.AbsWorkingDir, entry))
		}
	}
	return manifest.Succeeded(name, inputs, map[string]int{opts.Outfile: 100}, nil, h)
}

// Calls returns every Build invocation in order.
func (e *Engine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.calls)
}

// Count returns how many times name was built.
func (e *Engine) Count(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Options returns the options of the last build of name.
func (e *Engine) Options(name string) (api.BuildOptions, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := len(e.calls) - 1; i >= 0; i-- {
		if e.calls[i].Name == name {
			return e.calls[i].Options, true
		}
	}
	return api.BuildOptions{}, false
}

// Handles returns the rebuild handles created for name, oldest first.
func (e *Engine) Handles(name string) []*Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.handles[name])
}

// Handle is the fake rebuild handle. Rebuilds reflect the engine's current
// inputs and failures for the build's name.
type Handle struct {
	engine *Engine
	name   string
	opts   api.BuildOptions

	mu       sync.Mutex
	rebuilds int
	disposed bool
}

// Rebuild implements manifest.Rebuilder.
func (h *Handle) Rebuild() *manifest.Manifest {
	if h.engine.OnBuild != nil {
		h.engine.OnBuild(h.name)
	}

	h.mu.Lock()
	h.rebuilds++
	disposed := h.disposed
	h.mu.Unlock()

	if disposed {
		return manifest.Failed(h.name, []manifest.Diagnostic{{Text: "rebuild after dispose"}}, nil)
	}

	e := h.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if diags, failed := e.failures[h.name]; failed {
		return manifest.Failed(h.name, diags, nil)
	}
	return e.succeededLocked(h.name, h.opts, h)
}

// Dispose implements manifest.Rebuilder.
func (h *Handle) Dispose() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disposed = true
}

// Rebuilds returns how many times the handle was rebuilt.
func (h *Handle) Rebuilds() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rebuilds
}

// Disposed reports whether the handle was released.
func (h *Handle) Disposed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disposed
}
