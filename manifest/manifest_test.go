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

package manifest_test

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"bennypowers.dev/mach/manifest"
)

type countingHandle struct {
	rebuilds int
	disposes int
	next     *manifest.Manifest
}

func (h *countingHandle) Rebuild() *manifest.Manifest {
	h.rebuilds++
	return h.next
}

func (h *countingHandle) Dispose() {
	h.disposes++
}

func TestSucceededSortsAndDeduplicatesInputs(t *testing.T) {
	m := manifest.Succeeded("pfd", []string{"/b.ts", "/a.ts", "/b.ts"}, nil, nil, nil)

	if !m.Success() {
		t.Fatal("expected success")
	}
	if diff := cmp.Diff([]string{"/a.ts", "/b.ts"}, m.Inputs); diff != "" {
		t.Errorf("inputs mismatch (-want +got):\n%s", diff)
	}
}

func TestSucceededWithNoInputsHasEmptySet(t *testing.T) {
	m := manifest.Succeeded("pfd", nil, nil, nil, nil)
	if m.Inputs == nil {
		t.Error("successful manifests always carry an input set")
	}
}

func TestFailedHasNoInputsOrHandle(t *testing.T) {
	m := manifest.Failed("pfd", []manifest.Diagnostic{{Text: "boom"}}, nil)

	if m.Success() {
		t.Error("expected failure")
	}
	if m.Inputs != nil {
		t.Errorf("failed manifest has inputs: %v", m.Inputs)
	}
	if m.CanRebuild() {
		t.Error("failed manifest has a rebuild handle")
	}
}

func TestFailedWithoutDiagnosticsStillFails(t *testing.T) {
	m := manifest.Failed("pfd", nil, nil)
	if m.Success() {
		t.Error("a failed manifest must report at least one error")
	}
}

func TestRebuildDelegatesToHandle(t *testing.T) {
	next := manifest.Succeeded("pfd", []string{"/x.ts"}, nil, nil, nil)
	h := &countingHandle{next: next}
	m := manifest.Succeeded("pfd", []string{"/x.ts"}, nil, nil, h)

	if got := m.Rebuild(); got != next {
		t.Errorf("Rebuild() returned %v, want handle result", got)
	}
	m.Dispose()
	if h.rebuilds != 1 || h.disposes != 1 {
		t.Errorf("rebuilds=%d disposes=%d, want 1/1", h.rebuilds, h.disposes)
	}
}

func TestRebuildWithoutHandleFails(t *testing.T) {
	m := manifest.Failed("pfd", []manifest.Diagnostic{{Text: "boom"}}, nil)
	if got := m.Rebuild(); got.Success() {
		t.Error("rebuilding a handle-less manifest should fail")
	}
	// Dispose on a handle-less manifest is a no-op.
	m.Dispose()
}

func TestDiagnosticString(t *testing.T) {
	d := manifest.Diagnostic{Text: "Could not resolve \"x\"", File: "src/a.ts", Line: 3, Column: 7}
	if got, want := d.String(), `src/a.ts:3:7: Could not resolve "x"`; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := (manifest.Diagnostic{Text: "plain"}).String(); got != "plain" {
		t.Errorf("String() = %q, want plain", got)
	}
}

func TestNormalizeInput(t *testing.T) {
	workDir := filepath.FromSlash("/home/dev/aircraft")

	tests := []struct {
		name   string
		key    string
		want   string
		wantOK bool
	}{
		{name: "relative", key: "src/pfd/index.tsx", want: "/home/dev/aircraft/src/pfd/index.tsx", wantOK: true},
		{name: "outside work dir", key: "../shared/util.ts", want: "/home/dev/shared/util.ts", wantOK: true},
		{name: "absolute", key: "/opt/lib/x.js", want: "/opt/lib/x.js", wantOK: true},
		{name: "embedded work dir", key: "prefix/home/dev/aircraft/src/a.ts", want: "/home/dev/aircraft/src/a.ts", wantOK: true},
		{name: "unclean", key: "src/./pfd/../a.ts", want: "/home/dev/aircraft/src/a.ts", wantOK: true},
		{name: "namespace", key: "virtual-env:config", wantOK: false},
		{name: "stdin", key: "<stdin>", wantOK: false},
		{name: "empty", key: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := manifest.NormalizeInput(workDir, tt.key)
			if ok != tt.wantOK {
				t.Fatalf("NormalizeInput(%q) ok = %v, want %v", tt.key, ok, tt.wantOK)
			}
			if ok && got != filepath.FromSlash(tt.want) {
				t.Errorf("NormalizeInput(%q) = %q, want %q", tt.key, got, filepath.FromSlash(tt.want))
			}
		})
	}
}

func TestParseMetafile(t *testing.T) {
	data := []byte(`{
  "inputs": {
    "src/index.ts": {"bytes": 120, "imports": [{"path": "src/util.ts", "kind": "import-statement"}]},
    "src/util.ts": {"bytes": 40, "imports": []},
    "resolve-ns:@fbw/map": {"bytes": 0, "imports": []}
  },
  "outputs": {
    "bundles/pfd/bundle.js": {"bytes": 2048, "entryPoint": "src/index.ts"},
    "bundles/pfd/bundle.css": {"bytes": 512}
  }
}`)

	mf, err := manifest.ParseMetafile(data)
	if err != nil {
		t.Fatalf("ParseMetafile() error: %v", err)
	}

	workDir := filepath.FromSlash("/work")
	inputs := mf.InputPaths(workDir)
	sort.Strings(inputs)
	want := []string{filepath.FromSlash("/work/src/index.ts"), filepath.FromSlash("/work/src/util.ts")}
	if diff := cmp.Diff(want, inputs); diff != "" {
		t.Errorf("InputPaths mismatch (-want +got):\n%s", diff)
	}

	sizes := mf.OutputSizes(workDir)
	if got := sizes[filepath.FromSlash("/work/bundles/pfd/bundle.js")]; got != 2048 {
		t.Errorf("bundle.js size = %d, want 2048", got)
	}

	m := manifest.Succeeded("pfd", inputs, sizes, nil, nil)
	if got := m.TotalOutputBytes(); got != 2560 {
		t.Errorf("TotalOutputBytes() = %d, want 2560", got)
	}
	if _, ok := m.InputSet()[filepath.FromSlash("/work/src/util.ts")]; !ok {
		t.Error("InputSet() missing util.ts")
	}
}

func TestParseMetafileRejectsInvalidJSON(t *testing.T) {
	if _, err := manifest.ParseMetafile([]byte("{")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
