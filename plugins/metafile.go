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

	"github.com/evanw/esbuild/pkg/api"

	"bennypowers.dev/mach/fs"
)

// MetafileName is the file the metafile writer creates in the bundle
// directory.
const MetafileName = "build_meta.json"

// WriteMetafile writes the bundler's metafile next to the outfile after
// every successful build.
func WriteMetafile(fsys fs.FileSystem) api.Plugin {
	return api.Plugin{
		Name: NameWriteMetafile,
		Setup: func(build api.PluginBuild) {
			dir := outDir(build)

			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if failed(result) || result.Metafile == "" {
					return api.OnEndResult{}, nil
				}
				if err := fsys.MkdirAll(dir, 0o755); err != nil {
					return endError(NameWriteMetafile, fmt.Errorf("creating %s: %w", dir, err))
				}
				target := filepath.Join(dir, MetafileName)
				if err := fsys.WriteFile(target, []byte(result.Metafile), 0o644); err != nil {
					return endError(NameWriteMetafile, fmt.Errorf("writing %s: %w", target, err))
				}
				return api.OnEndResult{}, nil
			})
		},
	}
}
