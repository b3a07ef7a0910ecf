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
	"regexp"
	"strconv"
	"strings"
)

var defineName = regexp.MustCompile(`^[A-Za-z_]*$`)

// defineEscaper keeps values valid string literals. Backslashes become
// forward slashes so Windows paths survive.
var defineEscaper = strings.NewReplacer(
	`\`, "/",
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// Defines converts an environment snapshot to process.env.* compile-time
// definitions. Variables whose names are not plain identifiers are skipped.
// Boolean values are passed through as literals; everything else becomes a
// string literal with backslashes turned into forward slashes.
func Defines(env map[string]string, isSubmodule bool) map[string]string {
	defines := make(map[string]string, len(env)+1)
	for key, value := range env {
		if key == "" || !defineName.MatchString(key) {
			continue
		}
		defines["process.env."+key] = DefineValue(value)
	}
	defines["process.env.MODULE"] = strconv.FormatBool(isSubmodule)
	return defines
}

// DefineValue encodes a single environment value.
func DefineValue(value string) string {
	switch lower := strings.ToLower(value); lower {
	case "true", "false":
		return lower
	}
	return `"` + defineEscaper.Replace(value) + `"`
}
