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

package plugins

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"bennypowers.dev/mach/fs"
	"bennypowers.dev/mach/manifest"
)

// CSSPath returns the stylesheet the bundler emits alongside a JS outfile.
func CSSPath(outfile string) string {
	return strings.TrimSuffix(outfile, filepath.Ext(outfile)) + ".css"
}

// IncludeCSS appends the given stylesheets, in order, to the build's own
// stylesheet once the build succeeds. Stylesheets that do not exist are
// skipped, since not every submodule imports CSS.
//
// The build's stylesheet is first cut back to the size the bundler reported
// for it, so rebuilds never accumulate previously appended content even
// when the bundler leaves an unchanged file alone.
func IncludeCSS(fsys fs.FileSystem, stylesheets []string) api.Plugin {
	stylesheets = append([]string(nil), stylesheets...)

	return api.Plugin{
		Name: NameIncludeCSS,
		Setup: func(build api.PluginBuild) {
			target := CSSPath(outfile(build))
			dir := workDir(build)

			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if failed(result) || len(stylesheets) == 0 {
					return api.OnEndResult{}, nil
				}
				if err := includeCSS(fsys, dir, target, result.Metafile, stylesheets); err != nil {
					return endError(NameIncludeCSS, err)
				}
				return api.OnEndResult{}, nil
			})
		},
	}
}

func includeCSS(fsys fs.FileSystem, workDir, target, metafile string, stylesheets []string) error {
	var present []string
	for _, sheet := range stylesheets {
		if fsys.Exists(sheet) {
			present = append(present, sheet)
		}
	}
	if len(present) == 0 {
		return nil
	}

	own, err := ownCSS(fsys, workDir, target, metafile)
	if err != nil {
		return err
	}
	if err := fsys.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
	}
	if err := fsys.WriteFile(target, own, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}

	for _, sheet := range present {
		css, err := fsys.ReadFile(sheet)
		if err != nil {
			return fmt.Errorf("reading %s: %w", sheet, err)
		}
		if err := fsys.AppendFile(target, css, 0o644); err != nil {
			return fmt.Errorf("appending %s to %s: %w", sheet, target, err)
		}
	}
	return nil
}

// ownCSS returns the part of target the bundler wrote in this build.
func ownCSS(fsys fs.FileSystem, workDir, target, metafile string) ([]byte, error) {
	if metafile == "" {
		return nil, nil
	}
	mf, err := manifest.ParseMetafile([]byte(metafile))
	if err != nil {
		return nil, fmt.Errorf("reading metafile: %w", err)
	}
	size, ok := mf.OutputSizes(workDir)[filepath.Clean(target)]
	if !ok {
		return nil, nil
	}

	data, err := fsys.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", target, err)
	}
	return data[:min(size, len(data))], nil
}
