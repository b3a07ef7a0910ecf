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

// Package plugins provides the bundler extensions mach attaches to builds.
//
// Every plugin is a plain esbuild plugin value produced by a pure
// constructor. Plugins that write files do so through an fs.FileSystem and
// only after a build finished without errors. Their own failures are
// reported as build errors rather than Go errors.
package plugins

import (
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
)

// Plugin names, as they appear in diagnostics.
const (
	NameResolve             = "resolve"
	NameIncludeCSS          = "includeCSS"
	NameWriteMetafile       = "writeMetafile"
	NameWritePackageSources = "writePackageSources"
)

// outDir returns the directory the build writes its outfile into.
func outDir(build api.PluginBuild) string {
	return filepath.Dir(outfile(build))
}

func outfile(build api.PluginBuild) string {
	if build.InitialOptions == nil {
		return ""
	}
	out := build.InitialOptions.Outfile
	if out != "" && !filepath.IsAbs(out) && build.InitialOptions.AbsWorkingDir != "" {
		out = filepath.Join(build.InitialOptions.AbsWorkingDir, out)
	}
	return out
}

func workDir(build api.PluginBuild) string {
	if build.InitialOptions == nil {
		return ""
	}
	return build.InitialOptions.AbsWorkingDir
}

// failed reports whether the build already has errors.
func failed(result *api.BuildResult) bool {
	return result == nil || len(result.Errors) > 0
}

// endError turns err into an onEnd error attributed to plugin.
func endError(plugin string, err error) (api.OnEndResult, error) {
	return api.OnEndResult{
		Errors: []api.Message{{PluginName: plugin, Text: err.Error()}},
	}, nil
}
