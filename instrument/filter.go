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

package instrument

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter returns the top-level instruments whose names match the glob
// pattern. An empty pattern matches everything. Submodules are never
// filtered individually; they follow their parent.
func Filter(instruments []*Instrument, pattern string) ([]*Instrument, error) {
	if pattern == "" {
		return instruments, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid filter pattern %q", pattern)
	}

	var matched []*Instrument
	for _, inst := range instruments {
		ok, err := doublestar.Match(pattern, inst.Name)
		if err != nil {
			return nil, fmt.Errorf("matching %q: %w", inst.Name, err)
		}
		if ok {
			matched = append(matched, inst)
		}
	}
	return matched, nil
}
