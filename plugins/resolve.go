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
	"regexp"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Resolve overrides resolution of exact import specifiers. Each key of
// specifiers resolves to its value, which must be an absolute path.
func Resolve(specifiers map[string]string) api.Plugin {
	mapping := make(map[string]string, len(specifiers))
	keys := make([]string, 0, len(specifiers))
	for spec, target := range specifiers {
		mapping[spec] = target
		keys = append(keys, regexp.QuoteMeta(spec))
	}
	slices.Sort(keys)

	return api.Plugin{
		Name: NameResolve,
		Setup: func(build api.PluginBuild) {
			if len(keys) == 0 {
				return
			}
			build.OnResolve(api.OnResolveOptions{Filter: ResolveFilter(keys)},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					target, ok := mapping[args.Path]
					if !ok {
						return api.OnResolveResult{}, nil
					}
					return api.OnResolveResult{Path: target}, nil
				})
		},
	}
}

// ResolveFilter builds the anchored alternation matching exactly the given
// pre-quoted specifiers.
func ResolveFilter(quoted []string) string {
	return "^(" + strings.Join(quoted, "|") + ")$"
}
