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

package manifest

import (
	"encoding/json"
	"path/filepath"
	"regexp"
	"strings"
)

// Metafile is the subset of the bundler's metafile JSON that mach reads.
type Metafile struct {
	Inputs  map[string]MetafileInput  `json:"inputs"`
	Outputs map[string]MetafileOutput `json:"outputs"`
}

// MetafileInput is one consumed source file.
type MetafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []MetafileImport `json:"imports"`
	Format  string           `json:"format,omitempty"`
}

// MetafileImport is one import edge of an input.
type MetafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
	Original string `json:"original,omitempty"`
}

// MetafileOutput is one emitted file.
type MetafileOutput struct {
	Bytes      int    `json:"bytes"`
	EntryPoint string `json:"entryPoint,omitempty"`
	CSSBundle  string `json:"cssBundle,omitempty"`
}

// ParseMetafile parses metafile JSON.
func ParseMetafile(data []byte) (*Metafile, error) {
	var mf Metafile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, err
	}
	return &mf, nil
}

// namespacePrefix matches "namespace:" prefixes the bundler puts on inputs
// that did not come from the file namespace. Single letters are left alone
// so Windows drive letters are not mistaken for namespaces.
var namespacePrefix = regexp.MustCompile(`^[A-Za-z][\w-]+:`)

// InputPaths returns the absolute paths of every file-backed input.
func (mf *Metafile) InputPaths(workDir string) []string {
	paths := make([]string, 0, len(mf.Inputs))
	for key := range mf.Inputs {
		if p, ok := NormalizeInput(workDir, key); ok {
			paths = append(paths, p)
		}
	}
	return paths
}

// OutputSizes returns output sizes keyed by absolute output path.
func (mf *Metafile) OutputSizes(workDir string) map[string]int {
	sizes := make(map[string]int, len(mf.Outputs))
	for key, out := range mf.Outputs {
		if p, ok := NormalizeInput(workDir, key); ok {
			sizes[p] = out.Bytes
		}
	}
	return sizes
}

// NormalizeInput resolves a metafile key against the working directory.
// Keys are normally relative to workDir; a key that embeds workDir is cut
// down to the embedded absolute path. Keys from non-file namespaces report
// false.
func NormalizeInput(workDir, key string) (string, bool) {
	if key == "" || strings.HasPrefix(key, "<") || namespacePrefix.MatchString(key) {
		return "", false
	}

	p := filepath.FromSlash(key)
	if workDir != "" {
		if idx := strings.Index(p, workDir+string(filepath.Separator)); idx > 0 {
			p = p[idx:]
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(workDir, p)
		}
	}
	return filepath.Clean(p), true
}
