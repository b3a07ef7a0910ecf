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
	"path"
	"regexp"
	"slices"
	"strings"
)

// OutputTemplate is a bundle path pattern relative to the bundles
// directory. Supported variables:
//   - {name} - Instrument name
//   - {lower} - Instrument name, lowercased
type OutputTemplate struct {
	pattern   string
	variables []string
}

var variablePattern = regexp.MustCompile(`\{(\w+)\}`)

// Default output templates.
const (
	DefaultBundleTemplate = "{name}/bundle.js"
	DefaultModuleTemplate = "{name}/module/module.mjs"
)

// ParseOutputTemplate parses an output path pattern.
func ParseOutputTemplate(pattern string) (*OutputTemplate, error) {
	if pattern == "" {
		return nil, fmt.Errorf("output template cannot be empty")
	}
	if path.IsAbs(pattern) || strings.HasPrefix(pattern, `\`) {
		return nil, fmt.Errorf("output template %q must be relative to the bundles directory", pattern)
	}

	var variables []string
	for _, match := range variablePattern.FindAllStringSubmatch(pattern, -1) {
		variables = append(variables, match[1])
	}

	validVars := map[string]bool{
		"name":  true,
		"lower": true,
	}
	for _, v := range variables {
		if !validVars[v] {
			return nil, fmt.Errorf("unknown template variable: {%s}", v)
		}
	}
	if !slices.Contains(variables, "name") && !slices.Contains(variables, "lower") {
		return nil, fmt.Errorf("output template %q must contain {name} or {lower}", pattern)
	}

	return &OutputTemplate{
		pattern:   pattern,
		variables: variables,
	}, nil
}

// Expand substitutes the instrument name into the template.
func (t *OutputTemplate) Expand(name string) string {
	result := t.pattern
	result = strings.ReplaceAll(result, "{name}", name)
	result = strings.ReplaceAll(result, "{lower}", strings.ToLower(name))
	return result
}

// Pattern returns the original template pattern.
func (t *OutputTemplate) Pattern() string {
	return t.pattern
}

// Variables returns the list of variables used in the template.
func (t *OutputTemplate) Variables() []string {
	return t.variables
}
