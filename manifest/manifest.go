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

// Package manifest describes the result of a single bundle build.
//
// A Manifest records whether the build succeeded, the diagnostics the
// bundling engine reported, and the exact set of source files it consumed.
// Successful manifests also carry a rebuild handle that re-runs the same
// build configuration.
package manifest

import (
	"fmt"
	"slices"
)

// Diagnostic is a single message reported by the bundling engine or a plugin.
type Diagnostic struct {
	ID       string `json:"id,omitempty"`
	Plugin   string `json:"plugin,omitempty"`
	Text     string `json:"text"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	LineText string `json:"lineText,omitempty"`
}

// String formats the diagnostic as file:line:column: text.
func (d Diagnostic) String() string {
	if d.File == "" {
		return d.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Text)
}

// Rebuilder re-runs a previously configured build.
type Rebuilder interface {
	// Rebuild runs the build again and returns a fresh manifest.
	Rebuild() *Manifest
	// Dispose releases the resources held by the build. Safe to call more
	// than once.
	Dispose()
}

// Manifest is the result of one build invocation.
type Manifest struct {
	// Module is the name of the instrument that was built.
	Module string `json:"module"`

	Errors   []Diagnostic `json:"errors,omitempty"`
	Warnings []Diagnostic `json:"warnings,omitempty"`

	// Inputs are the absolute, cleaned paths of every file the build
	// consumed, sorted. Nil for failed builds.
	Inputs []string `json:"inputs,omitempty"`

	// Outputs maps output paths to their size in bytes. Nil for failed
	// builds.
	Outputs map[string]int `json:"outputs,omitempty"`

	handle Rebuilder
}

// Succeeded builds a successful manifest. Inputs are copied and sorted.
func Succeeded(module string, inputs []string, outputs map[string]int, warnings []Diagnostic, handle Rebuilder) *Manifest {
	sorted := slices.Clone(inputs)
	if sorted == nil {
		sorted = []string{}
	}
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	return &Manifest{
		Module:   module,
		Warnings: warnings,
		Inputs:   sorted,
		Outputs:  outputs,
		handle:   handle,
	}
}

// Failed builds a failed manifest. A failed manifest never has inputs or a
// rebuild handle.
func Failed(module string, errs []Diagnostic, warnings []Diagnostic) *Manifest {
	if len(errs) == 0 {
		errs = []Diagnostic{{Text: "build failed without diagnostics"}}
	}
	return &Manifest{
		Module:   module,
		Errors:   errs,
		Warnings: warnings,
	}
}

// FailedWithError builds a failed manifest from a Go error.
func FailedWithError(module string, err error) *Manifest {
	return Failed(module, []Diagnostic{{Text: err.Error()}}, nil)
}

// Success reports whether the build completed without errors.
func (m *Manifest) Success() bool {
	return len(m.Errors) == 0
}

// CanRebuild reports whether the manifest carries a rebuild handle.
func (m *Manifest) CanRebuild() bool {
	return m.handle != nil
}

// Handle returns the manifest's rebuild handle, or nil.
func (m *Manifest) Handle() Rebuilder {
	return m.handle
}

// Rebuild re-runs the build that produced this manifest. Manifests without
// a handle return a failed manifest.
func (m *Manifest) Rebuild() *Manifest {
	if m.handle == nil {
		return Failed(m.Module, []Diagnostic{{Text: fmt.Sprintf("%s: build cannot be rebuilt", m.Module)}}, nil)
	}
	return m.handle.Rebuild()
}

// Dispose releases the manifest's rebuild handle, if any.
func (m *Manifest) Dispose() {
	if m.handle != nil {
		m.handle.Dispose()
	}
}

// InputSet returns the manifest inputs as a set.
func (m *Manifest) InputSet() map[string]struct{} {
	set := make(map[string]struct{}, len(m.Inputs))
	for _, in := range m.Inputs {
		set[in] = struct{}{}
	}
	return set
}

// TotalOutputBytes sums the size of every output file.
func (m *Manifest) TotalOutputBytes() int {
	total := 0
	for _, size := range m.Outputs {
		total += size
	}
	return total
}
