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
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/go-cmp/cmp"

	"bennypowers.dev/mach/build"
	"bennypowers.dev/mach/instrument"
	"bennypowers.dev/mach/internal/mapfs"
	"bennypowers.dev/mach/plugins"
	"bennypowers.dev/mach/testutil"
)

func pluginNames(opts api.BuildOptions) []string {
	names := make([]string, 0, len(opts.Plugins))
	for _, p := range opts.Plugins {
		names = append(names, p.Name)
	}
	return names
}

func TestOptions(t *testing.T) {
	pkg := &instrument.SimulatorPackage{Type: instrument.TypeReact}
	withModules := &instrument.Instrument{
		Name:             "PFD",
		Index:            "src/pfd/index.tsx",
		SimulatorPackage: pkg,
		Plugins:          []string{"own"},
		Modules:          []*instrument.Instrument{leaf("map")},
	}

	tests := []struct {
		name        string
		inst        *instrument.Instrument
		isSubmodule bool
		configure   func(*build.Builder)
		wantOutfile string
		wantFormat  api.Format
		wantModule  string
		wantPlugins []string
	}{
		{
			name:        "top level with submodules and package",
			inst:        withModules,
			wantOutfile: "/work/bundles/PFD/bundle.js",
			wantFormat:  api.FormatIIFE,
			wantModule:  "false",
			wantPlugins: []string{"global", "own", plugins.NameResolve, plugins.NameIncludeCSS, plugins.NameWritePackageSources},
		},
		{
			name:        "submodule",
			inst:        leaf("map"),
			isSubmodule: true,
			wantOutfile: "/work/bundles/map/module/module.mjs",
			wantFormat:  api.FormatESModule,
			wantModule:  "true",
			wantPlugins: []string{"global"},
		},
		{
			name:        "submodule with package metadata does not export",
			inst:        &instrument.Instrument{Name: "map", Index: "src/map.ts", Resolve: "m", SimulatorPackage: pkg},
			isSubmodule: true,
			wantOutfile: "/work/bundles/map/module/module.mjs",
			wantFormat:  api.FormatESModule,
			wantModule:  "true",
			wantPlugins: []string{"global"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			noop := func(api.PluginBuild) {}
			registry, err := plugins.NewRegistry(api.Plugin{Name: "global", Setup: noop}, api.Plugin{Name: "own", Setup: noop})
			if err != nil {
				t.Fatal(err)
			}
			cfg := testConfig()
			cfg.Plugins = []string{"global"}
			b, err := build.New(cfg, testutil.NewEngine(), nil, mapfs.New(), registry)
			if err != nil {
				t.Fatal(err)
			}

			opts, err := b.Options(tt.inst, tt.isSubmodule)
			if err != nil {
				t.Fatalf("Options() error: %v", err)
			}

			if opts.Outfile != tt.wantOutfile {
				t.Errorf("Outfile = %q, want %q", opts.Outfile, tt.wantOutfile)
			}
			if opts.Format != tt.wantFormat {
				t.Errorf("Format = %v, want %v", opts.Format, tt.wantFormat)
			}
			if got := opts.Define["process.env.MODULE"]; got != tt.wantModule {
				t.Errorf("MODULE define = %q, want %q", got, tt.wantModule)
			}
			if got := opts.Define["process.env.NODE_ENV"]; got != `"production"` {
				t.Errorf("NODE_ENV define = %q", got)
			}
			if diff := cmp.Diff(tt.wantPlugins, pluginNames(opts)); diff != "" {
				t.Errorf("plugin order mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{"/Images/*", "/Fonts/*"}, opts.External); diff != "" {
				t.Errorf("external mismatch (-want +got):\n%s", diff)
			}
			if opts.AbsWorkingDir != "/work" || opts.Target != api.ES2017 || !opts.Bundle || !opts.Metafile {
				t.Errorf("unexpected base options: %+v", opts)
			}
			if opts.LogLevel != api.LogLevelSilent {
				t.Error("engine logging must be silent")
			}
		})
	}
}

func TestOptions_ConfigToggles(t *testing.T) {
	cfg := testConfig()
	cfg.Minify = true
	cfg.Sourcemaps = true
	cfg.WarningsAsErrors = true
	cfg.Metafile = true
	cfg.SkipSimulatorPackage = true
	b, err := build.New(cfg, testutil.NewEngine(), nil, mapfs.New(), nil)
	if err != nil {
		t.Fatal(err)
	}

	inst := leaf("PFD")
	inst.SimulatorPackage = &instrument.SimulatorPackage{Type: instrument.TypeSolid}
	opts, err := b.Options(inst, false)
	if err != nil {
		t.Fatal(err)
	}

	if !opts.MinifyWhitespace || !opts.MinifyIdentifiers || !opts.MinifySyntax {
		t.Error("minify should enable every minifier")
	}
	if opts.Sourcemap != api.SourceMapInline {
		t.Errorf("Sourcemap = %v, want inline", opts.Sourcemap)
	}
	if opts.LogOverride["duplicate-object-key"] != api.LogLevelError {
		t.Error("warnings should be promoted to errors")
	}
	if diff := cmp.Diff([]string{plugins.NameWriteMetafile}, pluginNames(opts)); diff != "" {
		t.Errorf("plugins mismatch (-want +got):\n%s", diff)
	}
}

func TestOptions_Pure(t *testing.T) {
	b := newBuilder(t, testConfig(), testutil.NewEngine(), testutil.NewLogger())
	inst := &instrument.Instrument{Name: "PFD", Index: "src/pfd.ts", Modules: []*instrument.Instrument{leaf("map")}}

	first, err := b.Options(inst, false)
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.Options(inst, false)
	if err != nil {
		t.Fatal(err)
	}

	if first.Outfile != second.Outfile || first.Format != second.Format {
		t.Errorf("options differ between calls: %s/%v vs %s/%v", first.Outfile, first.Format, second.Outfile, second.Format)
	}
	if diff := cmp.Diff(first.Define, second.Define); diff != "" {
		t.Errorf("defines differ between calls (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(pluginNames(first), pluginNames(second)); diff != "" {
		t.Errorf("plugins differ between calls:\n%s", diff)
	}
}

func TestOutfile_CustomTemplates(t *testing.T) {
	cfg := testConfig()
	cfg.Output.Bundle = "{lower}.js"
	cfg.Output.Module = "modules/{name}.mjs"
	b, err := build.New(cfg, testutil.NewEngine(), nil, mapfs.New(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if got := b.Outfile(leaf("PFD"), false); got != "/work/bundles/pfd.js" {
		t.Errorf("bundle outfile = %q", got)
	}
	if got := b.Outfile(leaf("Map"), true); got != "/work/bundles/modules/Map.mjs" {
		t.Errorf("module outfile = %q", got)
	}
}
