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

package watch

import (
	"errors"
	"path/filepath"
	"slices"
)

// Reconcile makes the watcher's watch set equal to inputs. Paths are
// compared after cleaning, so reconciling twice with the same inputs
// changes nothing the second time. The added and removed paths are
// returned sorted.
func Reconcile(w FileWatcher, inputs []string) (added, removed []string, err error) {
	want := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		want[filepath.Clean(in)] = true
	}

	have := make(map[string]bool)
	for dir, files := range w.Watched() {
		for _, file := range files {
			have[filepath.Clean(filepath.Join(dir, file))] = true
		}
	}

	for p := range want {
		if !have[p] {
			added = append(added, p)
		}
	}
	for p := range have {
		if !want[p] {
			removed = append(removed, p)
		}
	}
	slices.Sort(added)
	slices.Sort(removed)

	var errs []error
	if len(added) > 0 {
		errs = append(errs, w.Add(added...))
	}
	if len(removed) > 0 {
		errs = append(errs, w.Unwatch(removed...))
	}
	return added, removed, errors.Join(errs...)
}
