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

// Package instrument models the tree of independently bundled instruments.
//
// An Instrument may carry submodules: instruments that are bundled first as
// ES modules and then imported by their parent through a bare specifier.
// Instruments form a strict tree. Cycles are a configuration error and are
// not detected; building a cyclic definition does not terminate.
package instrument

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid instrument")

// Simulator package types.
const (
	TypeBaseInstrument = "baseInstrument"
	TypeReact          = "react"
	TypeSolid          = "solid"
)

// Instrument is a buildable unit with one entry point, optionally composed
// of submodules.
type Instrument struct {
	// Name identifies the instrument and names its bundle directory.
	Name string `mapstructure:"name" json:"name"`

	// Index is the entry point, relative to the working directory.
	Index string `mapstructure:"index" json:"index"`

	// Resolve is the import specifier a parent uses to import this
	// instrument's module bundle. Required for submodules.
	Resolve string `mapstructure:"resolve" json:"resolve,omitempty"`

	// Modules are built before this instrument and made importable to it.
	Modules []*Instrument `mapstructure:"modules" json:"modules,omitempty"`

	// SimulatorPackage enables exporting the bundle into the package sources.
	SimulatorPackage *SimulatorPackage `mapstructure:"simulator_package" json:"simulatorPackage,omitempty"`

	// Plugins names registered plugin extensions applied to this instrument.
	Plugins []string `mapstructure:"plugins" json:"plugins,omitempty"`
}

// SimulatorPackage describes how a top-level bundle is laid out inside the
// simulator package.
type SimulatorPackage struct {
	Type           string   `mapstructure:"type" json:"type"`
	FileName       string   `mapstructure:"file_name" json:"fileName,omitempty"`
	TemplateID     string   `mapstructure:"template_id" json:"templateId,omitempty"`
	MountElementID string   `mapstructure:"mount_element_id" json:"mountElementId,omitempty"`
	Imports        []string `mapstructure:"imports" json:"imports,omitempty"`
}

// HasModules reports whether the instrument has submodules.
func (i *Instrument) HasModules() bool {
	return len(i.Modules) > 0
}

// Walk visits the instrument tree depth-first, submodules before their
// parent, which is the order in which they are built. Walk stops at the
// first error returned by fn.
func (i *Instrument) Walk(fn func(inst *Instrument, isSubmodule bool) error) error {
	return i.walk(fn, false)
}

func (i *Instrument) walk(fn func(*Instrument, bool) error, isSubmodule bool) error {
	for _, mod := range i.Modules {
		if mod == nil {
			continue
		}
		if err := mod.walk(fn, true); err != nil {
			return err
		}
	}
	return fn(i, isSubmodule)
}

// FileNameOrDefault returns the base name used for exported package files.
func (p *SimulatorPackage) FileNameOrDefault() string {
	if p.FileName != "" {
		return p.FileName
	}
	return "instrument"
}

// TemplateIDOrDefault returns the template id, falling back to the
// instrument name.
func (p *SimulatorPackage) TemplateIDOrDefault(instrumentName string) string {
	if p.TemplateID != "" {
		return p.TemplateID
	}
	return instrumentName
}

// MountElement returns the element id the instrument mounts into.
// Component-framework instruments use a fixed id.
func (p *SimulatorPackage) MountElement() string {
	switch p.Type {
	case TypeReact:
		return "MSFS_REACT_MOUNT"
	case TypeSolid:
		return "MSFS_SOLID_MOUNT"
	default:
		return p.MountElementID
	}
}

// UsesMountShim reports whether the package needs a generated JS shim that
// mounts the bundle.
func (p *SimulatorPackage) UsesMountShim() bool {
	return p.Type == TypeReact || p.Type == TypeSolid
}

// Validate checks a set of top-level instruments and their submodules,
// reporting every problem found.
func Validate(instruments []*Instrument) error {
	var errs []error
	seen := make(map[string]bool)

	for _, top := range instruments {
		if top == nil {
			errs = append(errs, fmt.Errorf("%w: nil instrument", ErrInvalid))
			continue
		}
		_ = top.Walk(func(inst *Instrument, isSubmodule bool) error {
			errs = append(errs, inst.validate(isSubmodule)...)
			if inst.Name != "" {
				if seen[inst.Name] {
					errs = append(errs, fmt.Errorf("%w: duplicate name %q", ErrInvalid, inst.Name))
				}
				seen[inst.Name] = true
			}
			return nil
		})
	}
	return errors.Join(errs...)
}

func (i *Instrument) validate(isSubmodule bool) []error {
	var errs []error
	label := i.Name
	if label == "" {
		label = i.Index
	}

	if i.Name == "" {
		errs = append(errs, fmt.Errorf("%w: instrument with index %q has no name", ErrInvalid, i.Index))
	}
	if i.Index == "" {
		errs = append(errs, fmt.Errorf("%w: %s: index is required", ErrInvalid, label))
	}
	if isSubmodule && i.Resolve == "" {
		errs = append(errs, fmt.Errorf("%w: %s: submodules require a resolve specifier", ErrInvalid, label))
	}

	specifiers := make(map[string]bool)
	for _, mod := range i.Modules {
		if mod == nil {
			errs = append(errs, fmt.Errorf("%w: %s: nil submodule", ErrInvalid, label))
			continue
		}
		if mod.Resolve != "" && specifiers[mod.Resolve] {
			errs = append(errs, fmt.Errorf("%w: %s: specifier %q resolves to more than one submodule", ErrInvalid, label, mod.Resolve))
		}
		specifiers[mod.Resolve] = true
	}

	if pkg := i.SimulatorPackage; pkg != nil {
		switch pkg.Type {
		case TypeBaseInstrument:
			if pkg.MountElementID == "" {
				errs = append(errs, fmt.Errorf("%w: %s: baseInstrument packages require a mount element id", ErrInvalid, label))
			}
		case TypeReact, TypeSolid:
		default:
			errs = append(errs, fmt.Errorf("%w: %s: unknown simulator package type %q", ErrInvalid, label, pkg.Type))
		}
	}
	return errs
}
