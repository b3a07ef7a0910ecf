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

package build

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/evanw/esbuild/pkg/api"

	"bennypowers.dev/mach/instrument"
	"bennypowers.dev/mach/plugins"
)

// External are the simulator-provided asset paths left unbundled.
var External = []string{"/Images/*", "/Fonts/*"}

// Outfile returns the absolute path the instrument's bundle is written to.
func (b *Builder) Outfile(inst *instrument.Instrument, isSubmodule bool) string {
	tmpl := b.bundle
	if isSubmodule {
		tmpl = b.module
	}
	return filepath.Join(b.cfg.BundlesDir, filepath.FromSlash(tmpl.Expand(inst.Name)))
}

// Options assembles the engine options for one instrument. It depends only
// on the instrument, isSubmodule and the builder's configuration.
//
// Plugins are attached in a fixed order: configured global plugins, the
// instrument's own plugins, the metafile writer, submodule resolution and
// stylesheet aggregation, and finally the simulator package export.
func (b *Builder) Options(inst *instrument.Instrument, isSubmodule bool) (api.BuildOptions, error) {
	cfg := b.cfg

	opts := api.BuildOptions{
		AbsWorkingDir: cfg.WorkDir,
		EntryPoints:   []string{inst.Index},
		Outfile:       b.Outfile(inst, isSubmodule),
		External:      slices.Clone(External),
		Bundle:        true,
		Metafile:      true,
		Write:         true,
		Target:        api.ES2017,
		Format:        api.FormatIIFE,
		LogLevel:      api.LogLevelSilent,
		Define:        Defines(cfg.Env, isSubmodule),
	}
	if isSubmodule {
		opts.Format = api.FormatESModule
	}
	if cfg.WarningsAsErrors {
		opts.LogOverride = WarningsAsErrors()
	}
	if cfg.Sourcemaps {
		opts.Sourcemap = api.SourceMapInline
	}
	if cfg.Minify {
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
	}

	global, err := b.registry.Lookup(cfg.Plugins)
	if err != nil {
		return api.BuildOptions{}, fmt.Errorf("global plugins: %w", err)
	}
	own, err := b.registry.Lookup(inst.Plugins)
	if err != nil {
		return api.BuildOptions{}, fmt.Errorf("%s plugins: %w", inst.Name, err)
	}
	opts.Plugins = append(global, own...)

	if cfg.Metafile {
		opts.Plugins = append(opts.Plugins, plugins.WriteMetafile(b.fs))
	}

	if inst.HasModules() {
		specifiers := make(map[string]string, len(inst.Modules))
		stylesheets := make([]string, 0, len(inst.Modules))
		for _, mod := range inst.Modules {
			if mod == nil {
				continue
			}
			out := b.Outfile(mod, true)
			specifiers[mod.Resolve] = out
			stylesheets = append(stylesheets, plugins.CSSPath(out))
		}
		opts.Plugins = append(opts.Plugins,
			plugins.Resolve(specifiers),
			plugins.IncludeCSS(b.fs, stylesheets),
		)
	}

	if inst.SimulatorPackage != nil && !cfg.SkipSimulatorPackage && !isSubmodule {
		opts.Plugins = append(opts.Plugins, plugins.WritePackageSources(b.fs, plugins.PackageOptions{
			WorkDir:     cfg.WorkDir,
			PackageDir:  cfg.PackageDir,
			PackageName: cfg.PackageName,
		}, inst))
	}

	return opts, nil
}
