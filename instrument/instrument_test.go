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

package instrument_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"bennypowers.dev/mach/instrument"
)

func TestWalkVisitsSubmodulesFirst(t *testing.T) {
	tree := &instrument.Instrument{
		Name: "pfd",
		Modules: []*instrument.Instrument{
			{Name: "map", Modules: []*instrument.Instrument{{Name: "tiles"}}},
			{Name: "fonts"},
		},
	}

	var order []string
	var subs []bool
	err := tree.Walk(func(inst *instrument.Instrument, isSubmodule bool) error {
		order = append(order, inst.Name)
		subs = append(subs, isSubmodule)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk returned error: %v", err)
	}

	if diff := cmp.Diff([]string{"tiles", "map", "fonts", "pfd"}, order); diff != "" {
		t.Errorf("visit order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]bool{true, true, true, false}, subs); diff != "" {
		t.Errorf("submodule flags mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkStopsOnError(t *testing.T) {
	tree := &instrument.Instrument{
		Name:    "pfd",
		Modules: []*instrument.Instrument{{Name: "a"}, {Name: "b"}},
	}
	stop := errors.New("stop")

	var visited []string
	err := tree.Walk(func(inst *instrument.Instrument, _ bool) error {
		visited = append(visited, inst.Name)
		if inst.Name == "a" {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected stop error, got %v", err)
	}
	if len(visited) != 1 {
		t.Errorf("expected walk to stop after first module, visited %v", visited)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		instruments []*instrument.Instrument
		wantErrs    []string
	}{
		{
			name: "valid tree",
			instruments: []*instrument.Instrument{{
				Name:  "pfd",
				Index: "src/pfd/index.tsx",
				Modules: []*instrument.Instrument{
					{Name: "map", Index: "src/map/index.ts", Resolve: "@fbw/map"},
				},
				SimulatorPackage: &instrument.SimulatorPackage{Type: instrument.TypeReact},
			}},
		},
		{
			name:        "missing name and index",
			instruments: []*instrument.Instrument{{}},
			wantErrs:    []string{"has no name", "index is required"},
		},
		{
			name: "submodule without specifier",
			instruments: []*instrument.Instrument{{
				Name:    "pfd",
				Index:   "index.ts",
				Modules: []*instrument.Instrument{{Name: "map", Index: "map.ts"}},
			}},
			wantErrs: []string{"submodules require a resolve specifier"},
		},
		{
			name: "duplicate names across tree",
			instruments: []*instrument.Instrument{
				{Name: "pfd", Index: "a.ts", Modules: []*instrument.Instrument{{Name: "shared", Index: "s.ts", Resolve: "s"}}},
				{Name: "mfd", Index: "b.ts", Modules: []*instrument.Instrument{{Name: "shared", Index: "s.ts", Resolve: "s"}}},
			},
			wantErrs: []string{`duplicate name "shared"`},
		},
		{
			name: "duplicate sibling specifiers",
			instruments: []*instrument.Instrument{{
				Name:  "pfd",
				Index: "a.ts",
				Modules: []*instrument.Instrument{
					{Name: "one", Index: "1.ts", Resolve: "lib"},
					{Name: "two", Index: "2.ts", Resolve: "lib"},
				},
			}},
			wantErrs: []string{`specifier "lib" resolves to more than one submodule`},
		},
		{
			name: "base instrument without mount element",
			instruments: []*instrument.Instrument{{
				Name:             "pfd",
				Index:            "a.ts",
				SimulatorPackage: &instrument.SimulatorPackage{Type: instrument.TypeBaseInstrument},
			}},
			wantErrs: []string{"require a mount element id"},
		},
		{
			name: "unknown package type",
			instruments: []*instrument.Instrument{{
				Name:             "pfd",
				Index:            "a.ts",
				SimulatorPackage: &instrument.SimulatorPackage{Type: "vue"},
			}},
			wantErrs: []string{`unknown simulator package type "vue"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := instrument.Validate(tt.instruments)
			if len(tt.wantErrs) == 0 {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected errors %v, got nil", tt.wantErrs)
			}
			if !errors.Is(err, instrument.ErrInvalid) {
				t.Errorf("expected error to wrap ErrInvalid, got %v", err)
			}
			for _, want := range tt.wantErrs {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("expected error containing %q, got %v", want, err)
				}
			}
		})
	}
}

func TestSimulatorPackageDefaults(t *testing.T) {
	react := &instrument.SimulatorPackage{Type: instrument.TypeReact}
	if got := react.FileNameOrDefault(); got != "instrument" {
		t.Errorf("FileNameOrDefault() = %q, want instrument", got)
	}
	if got := react.TemplateIDOrDefault("pfd"); got != "pfd" {
		t.Errorf("TemplateIDOrDefault() = %q, want pfd", got)
	}
	if got := react.MountElement(); got != "MSFS_REACT_MOUNT" {
		t.Errorf("MountElement() = %q", got)
	}
	if !react.UsesMountShim() {
		t.Error("react packages use a mount shim")
	}

	base := &instrument.SimulatorPackage{
		Type:           instrument.TypeBaseInstrument,
		FileName:       "pfd",
		TemplateID:     "A32NX_PFD",
		MountElementID: "PFD_CONTENT",
	}
	if got := base.MountElement(); got != "PFD_CONTENT" {
		t.Errorf("MountElement() = %q", got)
	}
	if base.UsesMountShim() {
		t.Error("baseInstrument packages do not use a mount shim")
	}
	if got := base.TemplateIDOrDefault("pfd"); got != "A32NX_PFD" {
		t.Errorf("TemplateIDOrDefault() = %q", got)
	}
}

func TestFilter(t *testing.T) {
	instruments := []*instrument.Instrument{
		{Name: "pfd"}, {Name: "pfd-standby"}, {Name: "mfd"}, {Name: "eicas/upper"},
	}

	tests := []struct {
		pattern string
		want    []string
		wantErr bool
	}{
		{pattern: "", want: []string{"pfd", "pfd-standby", "mfd", "eicas/upper"}},
		{pattern: "pfd*", want: []string{"pfd", "pfd-standby"}},
		{pattern: "{pfd,mfd}", want: []string{"pfd", "mfd"}},
		{pattern: "eicas/**", want: []string{"eicas/upper"}},
		{pattern: "nothing", want: nil},
		{pattern: "[", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := instrument.Filter(instruments, tt.pattern)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Filter() error = %v, wantErr %v", err, tt.wantErr)
			}
			var names []string
			for _, inst := range got {
				names = append(names, inst.Name)
			}
			if diff := cmp.Diff(tt.want, names); diff != "" {
				t.Errorf("Filter(%q) mismatch (-want +got):\n%s", tt.pattern, diff)
			}
		})
	}
}
