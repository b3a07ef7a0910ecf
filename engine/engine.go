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

// Package engine adapts the esbuild bundler to mach's manifest model.
//
// Each build runs inside an incremental esbuild context. The context is the
// manifest's rebuild handle: rebuilding reuses the exact configuration of the
// original build and only re-reads what changed.
package engine

import (
	"fmt"
	"sync"

	"github.com/evanw/esbuild/pkg/api"

	"bennypowers.dev/mach/manifest"
)

// Engine turns build options into a manifest. Compile errors are reported
// as manifest diagnostics, never as Go errors.
type Engine interface {
	Build(name string, opts api.BuildOptions) *manifest.Manifest
}

// Esbuild is the production Engine.
type Esbuild struct{}

// New returns an esbuild-backed Engine.
func New() *Esbuild {
	return &Esbuild{}
}

// Build creates an incremental context for opts and runs the first build.
// Failed builds dispose their context immediately.
func (e *Esbuild) Build(name string, opts api.BuildOptions) (m *manifest.Manifest) {
	defer func() {
		if r := recover(); r != nil {
			m = manifest.Failed(name, []manifest.Diagnostic{{Text: fmt.Sprintf("bundler panic: %v", r)}}, nil)
		}
	}()

	opts.Metafile = true
	opts.Write = true
	opts.Bundle = true

	ctx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		return manifest.Failed(name, Diagnostics(ctxErr.Errors), nil)
	}

	h := &handle{name: name, workDir: opts.AbsWorkingDir, ctx: ctx}
	m = h.Rebuild()
	if !m.Success() {
		h.Dispose()
	}
	return m
}

// handle wraps an esbuild context. Every successful manifest produced from
// the same context shares one handle, so a failed rebuild leaves earlier
// manifests rebuildable.
type handle struct {
	name    string
	workDir string

	mu       sync.Mutex
	ctx      api.BuildContext
	disposed bool
}

func (h *handle) Rebuild() *manifest.Manifest {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.disposed {
		return manifest.Failed(h.name, []manifest.Diagnostic{{Text: fmt.Sprintf("%s: build context disposed", h.name)}}, nil)
	}

	result := h.ctx.Rebuild()
	return h.toManifest(result)
}

func (h *handle) Dispose() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.disposed {
		return
	}
	h.disposed = true
	h.ctx.Dispose()
}

func (h *handle) toManifest(result api.BuildResult) *manifest.Manifest {
	warnings := Diagnostics(result.Warnings)
	if len(result.Errors) > 0 {
		return manifest.Failed(h.name, Diagnostics(result.Errors), warnings)
	}

	mf, err := manifest.ParseMetafile([]byte(result.Metafile))
	if err != nil {
		return manifest.Failed(h.name, []manifest.Diagnostic{{Text: fmt.Sprintf("reading metafile: %v", err)}}, warnings)
	}

	return manifest.Succeeded(h.name, mf.InputPaths(h.workDir), mf.OutputSizes(h.workDir), warnings, h)
}

// Diagnostics converts esbuild messages to manifest diagnostics.
func Diagnostics(msgs []api.Message) []manifest.Diagnostic {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]manifest.Diagnostic, 0, len(msgs))
	for _, msg := range msgs {
		d := manifest.Diagnostic{
			ID:     msg.ID,
			Plugin: msg.PluginName,
			Text:   msg.Text,
		}
		if loc := msg.Location; loc != nil {
			d.File = loc.File
			d.Line = loc.Line
			d.Column = loc.Column
			d.LineText = loc.LineText
		}
		out = append(out, d)
	}
	return out
}
