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

package build_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bennypowers.dev/mach/build"
	"bennypowers.dev/mach/config"
	"bennypowers.dev/mach/engine"
	"bennypowers.dev/mach/fs"
	"bennypowers.dev/mach/instrument"
	"bennypowers.dev/mach/internal/mapfs"
	"bennypowers.dev/mach/manifest"
	"bennypowers.dev/mach/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		WorkDir:     "/work",
		BundlesDir:  "/work/bundles",
		PackageDir:  "/work/PackageSources",
		PackageName: "A32NX",
		Env:         map[string]string{"NODE_ENV": "production"},
	}
}

func newBuilder(t *testing.T, cfg *config.Config, eng *testutil.Engine, log *testutil.Logger) *build.Builder {
	t.Helper()
	b, err := build.New(cfg, eng, log, mapfs.New(), nil)
	if err != nil {
		t.Fatalf("build.New() error: %v", err)
	}
	return b
}

func leaf(name string) *instrument.Instrument {
	return &instrument.Instrument{Name: name, Index: "src/" + name + "/index.ts", Resolve: "@instruments/" + name}
}

func TestBuildModule_Leaf(t *testing.T) {
	eng := testutil.NewEngine()
	log := testutil.NewLogger()
	b := newBuilder(t, testConfig(), eng, log)

	m := b.BuildModule(leaf("pfd"), false)

	if !m.Success() {
		t.Fatalf("expected success, got %v", m.Errors)
	}
	if got := len(eng.Calls()); got != 1 {
		t.Errorf("engine called %d times, want 1", got)
	}
	if got := log.Completed(); len(got) != 1 || got[0] != "pfd" {
		t.Errorf("completed = %v, want [pfd]", got)
	}
	if log.Count(testutil.EventFailed) != 0 {
		t.Error("unexpected failure logged")
	}
}

func TestBuildModule_SubmodulesThenParent(t *testing.T) {
	eng := testutil.NewEngine()
	log := testutil.NewLogger()
	b := newBuilder(t, testConfig(), eng, log)

	parent := &instrument.Instrument{
		Name:    "pfd",
		Index:   "src/pfd/index.ts",
		Modules: []*instrument.Instrument{leaf("map"), leaf("nav"), leaf("tcas")},
	}
	m := b.BuildModule(parent, false)

	if !m.Success() || m.Module != "pfd" {
		t.Fatalf("expected pfd to succeed, got %+v", m)
	}
	calls := eng.Calls()
	if len(calls) != 4 {
		t.Fatalf("engine called %d times, want 4", len(calls))
	}
	if calls[3].Name != "pfd" {
		t.Errorf("parent must be built last, got order %v", calls)
	}
	for _, name := range []string{"map", "nav", "tcas"} {
		handles := eng.Handles(name)
		if len(handles) != 1 || !handles[0].Disposed() {
			t.Errorf("%s handle should be disposed after the parent build starts", name)
		}
	}
	if eng.Handles("pfd")[0].Disposed() {
		t.Error("parent handle must stay alive")
	}
	if got := log.Count(testutil.EventComplete); got != 4 {
		t.Errorf("logged %d completions, want 4", got)
	}
}

func TestBuildModule_SubmoduleFailureSkipsParent(t *testing.T) {
	eng := testutil.NewEngine()
	eng.Fail("b", manifest.Diagnostic{Text: `Could not resolve "./gone"`})
	log := testutil.NewLogger()
	b := newBuilder(t, testConfig(), eng, log)

	a := &instrument.Instrument{Name: "a", Index: "src/a.ts", Modules: []*instrument.Instrument{leaf("b")}}
	m := b.BuildModule(a, false)

	if m.Success() {
		t.Fatal("expected failure")
	}
	if m.Module != "b" {
		t.Errorf("returned manifest for %q, want b", m.Module)
	}
	if eng.Count("a") != 0 {
		t.Error("parent must not be built when a submodule fails")
	}
	if got := log.Count(testutil.EventFailed); got != 1 {
		t.Errorf("BuildFailed logged %d times, want exactly 1", got)
	}
	if log.Count(testutil.EventComplete) != 0 {
		t.Error("no build should complete")
	}
}

func TestBuildModule_FirstFailureInDeclarationOrder(t *testing.T) {
	eng := testutil.NewEngine()
	eng.Fail("first")
	eng.Fail("second")
	b := newBuilder(t, testConfig(), eng, testutil.NewLogger())

	parent := &instrument.Instrument{
		Name:    "pfd",
		Index:   "src/pfd.ts",
		Modules: []*instrument.Instrument{leaf("ok"), leaf("first"), leaf("second")},
	}
	m := b.BuildModule(parent, false)

	if m.Module != "first" {
		t.Errorf("returned %q, want first", m.Module)
	}
	if got := len(eng.Calls()); got != 3 {
		t.Errorf("engine called %d times, want 3", got)
	}
	if !eng.Handles("ok")[0].Disposed() {
		t.Error("successful sibling handle should be released")
	}
}

func TestBuildModule_NestedFailurePropagates(t *testing.T) {
	eng := testutil.NewEngine()
	eng.Fail("leaf")
	log := testutil.NewLogger()
	b := newBuilder(t, testConfig(), eng, log)

	mid := &instrument.Instrument{Name: "mid", Index: "src/mid.ts", Resolve: "mid", Modules: []*instrument.Instrument{leaf("leaf")}}
	top := &instrument.Instrument{Name: "top", Index: "src/top.ts", Modules: []*instrument.Instrument{mid}}

	if m := b.BuildModule(top, false); m.Module != "leaf" {
		t.Errorf("returned %q, want leaf", m.Module)
	}
	if eng.Count("mid") != 0 || eng.Count("top") != 0 {
		t.Error("ancestors of a failed module must not be built")
	}
	if got := log.Count(testutil.EventFailed); got != 1 {
		t.Errorf("BuildFailed logged %d times, want 1", got)
	}
}

func TestBuildModule_SubmodulesBuildConcurrently(t *testing.T) {
	eng := testutil.NewEngine()
	started := make(chan string, 2)
	release := make(chan struct{})
	eng.OnBuild = func(name string) {
		if name == "pfd" {
			return
		}
		started <- name
		<-release
	}
	b := newBuilder(t, testConfig(), eng, testutil.NewLogger())

	parent := &instrument.Instrument{Name: "pfd", Index: "src/pfd.ts", Modules: []*instrument.Instrument{leaf("map"), leaf("nav")}}
	done := make(chan *manifest.Manifest, 1)
	go func() { done <- b.BuildModule(parent, false) }()

	timeout := time.After(5 * time.Second)
	for range 2 {
		select {
		case <-started:
		case <-timeout:
			close(release)
			t.Fatal("submodules were not built concurrently")
		}
	}
	close(release)

	if m := <-done; !m.Success() {
		t.Errorf("expected success, got %v", m.Errors)
	}
}

func TestBuildModule_UnknownPluginFailsAsData(t *testing.T) {
	eng := testutil.NewEngine()
	log := testutil.NewLogger()
	b := newBuilder(t, testConfig(), eng, log)

	inst := leaf("pfd")
	inst.Plugins = []string{"does-not-exist"}
	m := b.BuildModule(inst, false)

	if m.Success() {
		t.Fatal("expected failure")
	}
	if len(eng.Calls()) != 0 {
		t.Error("engine must not run when options cannot be assembled")
	}
	if log.Count(testutil.EventFailed) != 1 {
		t.Error("option errors should be logged as a failed build")
	}
	if !strings.Contains(m.Errors[0].Text, "does-not-exist") {
		t.Errorf("error should name the plugin, got %q", m.Errors[0].Text)
	}
}

func TestBuildAll(t *testing.T) {
	eng := testutil.NewEngine()
	eng.Fail("efb")
	b := newBuilder(t, testConfig(), eng, testutil.NewLogger())

	results := b.BuildAll([]*instrument.Instrument{leaf("pfd"), leaf("efb"), leaf("nd")})

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, want := range []struct {
		name string
		ok   bool
	}{{"pfd", true}, {"efb", false}, {"nd", true}} {
		if results[i].Module != want.name || results[i].Success() != want.ok {
			t.Errorf("result %d = %s/%v, want %s/%v", i, results[i].Module, results[i].Success(), want.name, want.ok)
		}
	}
}

func TestNew_RejectsBadOutputTemplates(t *testing.T) {
	cfg := testConfig()
	cfg.Output.Bundle = "bundle.js"
	if _, err := build.New(cfg, testutil.NewEngine(), nil, mapfs.New(), nil); err == nil {
		t.Error("expected error for a template without {name}")
	}
}

func TestBuildModule_Esbuild(t *testing.T) {
	dir := testutil.CopyFixture(t, "instruments")
	cfg := &config.Config{
		WorkDir:     dir,
		BundlesDir:  filepath.Join(dir, "bundles"),
		PackageDir:  filepath.Join(dir, "PackageSources"),
		PackageName: "A32NX",
		Metafile:    true,
		Env:         map[string]string{},
	}
	log := testutil.NewLogger()
	b, err := build.New(cfg, engine.New(), log, fs.NewOSFileSystem(), nil)
	if err != nil {
		t.Fatal(err)
	}

	pfd := &instrument.Instrument{
		Name:             "PFD",
		Index:            "src/pfd/index.ts",
		SimulatorPackage: &instrument.SimulatorPackage{Type: instrument.TypeReact, TemplateID: "A32NX_PFD"},
		Modules: []*instrument.Instrument{
			{Name: "map", Index: "src/map/index.ts", Resolve: "@instruments/map"},
		},
	}

	m := b.BuildModule(pfd, false)
	defer m.Dispose()
	if !m.Success() {
		t.Fatalf("build failed: %v", m.Errors)
	}

	moduleFile := filepath.Join(dir, "bundles", "map", "module", "module.mjs")
	if _, ok := m.InputSet()[moduleFile]; !ok {
		t.Errorf("parent inputs should include the submodule bundle, got %v", m.Inputs)
	}

	bundle := readFile(t, filepath.Join(dir, "bundles", "PFD", "bundle.js"))
	if !strings.Contains(bundle, "map @ ") {
		t.Error("bundle should inline the submodule")
	}
	if !strings.Contains(bundle, "false") || strings.Contains(bundle, "process.env.MODULE") {
		t.Error("process.env.MODULE should be defined as false for a top-level bundle")
	}

	css := readFile(t, filepath.Join(dir, "bundles", "PFD", "bundle.css"))
	pfdAt, mapAt := strings.Index(css, ".pfd"), strings.Index(css, ".map")
	if pfdAt < 0 || mapAt < pfdAt {
		t.Errorf("bundle.css should hold own css followed by submodule css:\n%s", css)
	}
	if !strings.Contains(css, "/Images/logo.png") {
		t.Error("simulator image paths must stay external")
	}

	readFile(t, filepath.Join(dir, "bundles", "PFD", "build_meta.json"))

	target := filepath.Join(dir, "PackageSources", "html_ui", "Pages", "VCockpit", "Instruments", "A32NX", "PFD")
	for _, name := range []string{"instrument.js", "instrument.css", "instrument.html", "instrument.index.js"} {
		readFile(t, filepath.Join(target, name))
	}

	// A second build must not duplicate the appended stylesheet.
	again := m.Rebuild()
	if !again.Success() {
		t.Fatalf("rebuild failed: %v", again.Errors)
	}
	css = readFile(t, filepath.Join(dir, "bundles", "PFD", "bundle.css"))
	if strings.Count(css, ".map") != 1 {
		t.Errorf("submodule css appended more than once:\n%s", css)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
	return string(data)
}
