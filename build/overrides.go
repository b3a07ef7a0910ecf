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

import "github.com/evanw/esbuild/pkg/api"

// strictWarnings are the bundler warnings promoted to errors when
// warnings_as_errors is set.
var strictWarnings = []string{
	"assign-to-constant",
	"assign-to-import",
	"call-import-namespace",
	"commonjs-variable-in-esm",
	"delete-super-property",
	"duplicate-case",
	"duplicate-class-member",
	"duplicate-object-key",
	"empty-import-meta",
	"equals-nan",
	"equals-negative-zero",
	"equals-new-object",
	"html-comment-in-js",
	"impossible-typeof",
	"indirect-require",
	"private-name-will-throw",
	"semicolon-after-return",
	"suspicious-boolean-not",
	"this-is-undefined-in-esm",
	"unsupported-dynamic-import",
	"unsupported-jsx-comment",
	"unsupported-regexp",
	"unsupported-require-call",
	"css-syntax-error",
	"invalid-@charset",
	"invalid-@import",
	"invalid-@layer",
	"invalid-@nest",
	"invalid-calc",
	"js-comment-in-css",
	"unsupported-@charset",
	"unsupported-@namespace",
	"unsupported-css-property",
	"ambiguous-reexport",
	"different-path-case",
	"ignored-bare-import",
	"ignored-dynamic-import",
	"import-is-undefined",
	"require-resolve-not-external",
	"invalid-source-mappings",
	"sections-in-source-map",
	"missing-source-map",
	"unsupported-source-map-comment",
	"package.json",
	"tsconfig.json",
}

// WarningsAsErrors returns log overrides promoting every strict warning to
// an error.
func WarningsAsErrors() map[string]api.LogLevel {
	overrides := make(map[string]api.LogLevel, len(strictWarnings))
	for _, id := range strictWarnings {
		overrides[id] = api.LogLevelError
	}
	return overrides
}
