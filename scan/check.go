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

package scan

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"bennypowers.dev/mach/fs"
	"bennypowers.dev/mach/instrument"
)

// IssueKind classifies a wiring problem.
type IssueKind int

const (
	// Unimported means a submodule's resolve specifier is never imported by
	// its parent, so the submodule is built but unused.
	Unimported IssueKind = iota
	// SourceImport means the parent imports a submodule's entry file by
	// path, inlining it instead of loading the submodule's bundle.
	SourceImport
	// Unreadable means an entry file could not be read or parsed.
	Unreadable
)

// String returns a human-readable description of the issue kind.
func (k IssueKind) String() string {
	switch k {
	case Unimported:
		return "submodule not imported"
	case SourceImport:
		return "submodule imported by path"
	case Unreadable:
		return "unreadable entry"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind for JSON reports.
func (k IssueKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Issue is one wiring problem found by Check.
type Issue struct {
	Instrument string    `json:"instrument"`
	Submodule  string    `json:"submodule,omitempty"`
	Specifier  string    `json:"specifier,omitempty"`
	File       string    `json:"file,omitempty"`
	Line       int       `json:"line,omitempty"`
	Kind       IssueKind `json:"kind"`
}

func (i Issue) String() string {
	var b strings.Builder
	b.WriteString(i.Instrument)
	if i.Submodule != "" {
		b.WriteString(" → " + i.Submodule)
	}
	b.WriteString(": " + i.Kind.String())
	if i.Specifier != "" {
		fmt.Fprintf(&b, " (%s)", i.Specifier)
	}
	if i.File != "" {
		fmt.Fprintf(&b, " at %s", i.File)
		if i.Line > 0 {
			fmt.Fprintf(&b, ":%d", i.Line)
		}
	}
	return b.String()
}

// sourceExtensions are tried, in order, for extensionless relative imports.
var sourceExtensions = []string{".ts", ".tsx", ".mts", ".js", ".jsx", ".mjs"}

// Check lints the submodule wiring of inst and everything below it.
//
// For each instrument with submodules, the files reachable from its entry
// point through relative imports are scanned. Every submodule's resolve
// specifier must be imported somewhere in those files, and none of them
// may import a submodule's entry file directly.
func Check(fsys fs.FileSystem, workDir string, inst *instrument.Instrument) []Issue {
	var issues []Issue
	_ = inst.Walk(func(in *instrument.Instrument, _ bool) error {
		issues = append(issues, checkOne(fsys, workDir, in)...)
		return nil
	})
	return issues
}

func checkOne(fsys fs.FileSystem, workDir string, inst *instrument.Instrument) []Issue {
	entry := absPath(workDir, inst.Index)
	if !inst.HasModules() {
		if !fsys.Exists(entry) {
			return []Issue{{Instrument: inst.Name, File: entry, Kind: Unreadable}}
		}
		return nil
	}

	submoduleEntries := make(map[string]*instrument.Instrument)
	for _, mod := range inst.Modules {
		if mod != nil {
			submoduleEntries[absPath(workDir, mod.Index)] = mod
		}
	}

	s := &scanner{
		fsys:       fsys,
		stopAt:     submoduleEntries,
		visited:    make(map[string]bool),
		specifiers: make(map[string]bool),
	}
	if err := s.scan(entry); err != nil {
		return []Issue{{Instrument: inst.Name, File: entry, Kind: Unreadable}}
	}

	var issues []Issue
	for _, hit := range s.sourceImports {
		issues = append(issues, Issue{
			Instrument: inst.Name,
			Submodule:  hit.module.Name,
			Specifier:  hit.specifier,
			File:       hit.file,
			Line:       hit.line,
			Kind:       SourceImport,
		})
	}
	for _, mod := range inst.Modules {
		if mod == nil || s.specifiers[mod.Resolve] {
			continue
		}
		issues = append(issues, Issue{
			Instrument: inst.Name,
			Submodule:  mod.Name,
			Specifier:  mod.Resolve,
			Kind:       Unimported,
		})
	}
	return issues
}

type sourceImport struct {
	module    *instrument.Instrument
	specifier string
	file      string
	line      int
}

// scanner walks one instrument's own sources.
type scanner struct {
	fsys   fs.FileSystem
	stopAt map[string]*instrument.Instrument

	visited       map[string]bool
	specifiers    map[string]bool
	sourceImports []sourceImport
}

// scan records the imports of file and follows its relative imports. Only
// the entry file must be readable; unresolvable relative imports are left
// for the bundler to report.
func (s *scanner) scan(file string) error {
	if s.visited[file] {
		return nil
	}
	s.visited[file] = true

	content, err := s.fsys.ReadFile(file)
	if err != nil {
		return err
	}
	imports, err := ExtractImports(DialectFor(file), content)
	if err != nil {
		return err
	}

	dir := filepath.Dir(file)
	for _, imp := range imports {
		if !isRelative(imp.Specifier) {
			s.specifiers[imp.Specifier] = true
			continue
		}
		target, ok := s.resolve(dir, imp.Specifier)
		if !ok {
			continue
		}
		if mod, isSubmodule := s.stopAt[target]; isSubmodule {
			s.sourceImports = append(s.sourceImports, sourceImport{
				module:    mod,
				specifier: imp.Specifier,
				file:      file,
				line:      imp.Line,
			})
			continue
		}
		_ = s.scan(target)
	}
	return nil
}

// resolve maps a relative specifier to a source file the way TypeScript
// projects write them: with or without an extension, with a .js extension
// standing in for .ts, or naming a directory with an index file.
func (s *scanner) resolve(dir, specifier string) (string, bool) {
	base := filepath.Join(dir, filepath.FromSlash(specifier))

	candidates := []string{base}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	switch ext {
	case ".js", ".jsx", ".mjs":
		candidates = append(candidates, stem+".ts", stem+".tsx", stem+".mts")
	case "":
		for _, e := range sourceExtensions {
			candidates = append(candidates, base+e)
		}
		for _, e := range sourceExtensions {
			candidates = append(candidates, filepath.Join(base, "index"+e))
		}
	}

	for _, c := range candidates {
		if !slices.Contains(sourceExtensions, filepath.Ext(c)) {
			continue
		}
		if s.fsys.Exists(c) {
			return c, true
		}
	}
	return "", false
}

func isRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

func absPath(workDir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(workDir, p)
}
