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
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
)

// ErrUnknownPlugin is returned when configuration names a plugin that was
// never registered.
var ErrUnknownPlugin = errors.New("unknown plugin")

// Registry holds named plugin extensions that configuration can refer to.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]api.Plugin
}

// NewRegistry returns a registry holding the given plugins.
func NewRegistry(plugins ...api.Plugin) (*Registry, error) {
	r := &Registry{plugins: make(map[string]api.Plugin)}
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds p under its name.
func (r *Registry) Register(p api.Plugin) error {
	if p.Name == "" {
		return fmt.Errorf("registering plugin: name is required")
	}
	if p.Setup == nil {
		return fmt.Errorf("registering plugin %q: setup is required", p.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plugins[p.Name]; exists {
		return fmt.Errorf("registering plugin %q: already registered", p.Name)
	}
	r.plugins[p.Name] = p
	return nil
}

// Lookup returns the named plugins in order. Every unknown name is
// reported.
func (r *Registry) Lookup(names []string) ([]api.Plugin, error) {
	if len(names) == 0 {
		return nil, nil
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownPlugin, names)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	found := make([]api.Plugin, 0, len(names))
	var errs []error
	for _, name := range names {
		p, ok := r.plugins[name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownPlugin, name))
			continue
		}
		found = append(found, p)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return found, nil
}

// Names lists the registered plugin names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
