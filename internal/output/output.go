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

// Package output renders build reports for mach CLI commands.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"bennypowers.dev/mach/fs"
	"bennypowers.dev/mach/manifest"
)

// KeyReport is the viper key holding the report file path.
const KeyReport = "report"

// Report summarizes one mach build run.
type Report struct {
	Success     bool               `json:"success"`
	Instruments []InstrumentReport `json:"instruments"`
}

// InstrumentReport is one instrument's result. Paths are relative to the
// work directory.
type InstrumentReport struct {
	Name     string                `json:"name"`
	Success  bool                  `json:"success"`
	Errors   []manifest.Diagnostic `json:"errors,omitempty"`
	Warnings []manifest.Diagnostic `json:"warnings,omitempty"`
	Inputs   int                   `json:"inputs"`
	Outputs  map[string]int        `json:"outputs,omitempty"`
}

// NewReport summarizes manifests, keeping their order.
func NewReport(workDir string, manifests []*manifest.Manifest) *Report {
	r := &Report{Success: true, Instruments: make([]InstrumentReport, 0, len(manifests))}
	for _, m := range manifests {
		ir := InstrumentReport{
			Name:     m.Module,
			Success:  m.Success(),
			Errors:   m.Errors,
			Warnings: m.Warnings,
			Inputs:   len(m.Inputs),
		}
		if len(m.Outputs) > 0 {
			ir.Outputs = make(map[string]int, len(m.Outputs))
			for path, size := range m.Outputs {
				ir.Outputs[relative(workDir, path)] = size
			}
		}
		r.Success = r.Success && ir.Success
		r.Instruments = append(r.Instruments, ir)
	}
	return r
}

func relative(workDir, path string) string {
	if workDir == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(workDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Format renders the report as "json" or "text".
func (r *Report) Format(format string) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding report: %w", err)
		}
		return string(data), nil
	case "text", "":
		var b strings.Builder
		r.writeText(&b)
		return strings.TrimSuffix(b.String(), "\n"), nil
	default:
		return "", fmt.Errorf("invalid format %q: must be 'json' or 'text'", format)
	}
}

func (r *Report) writeText(w io.Writer) {
	built := 0
	for _, ir := range r.Instruments {
		if !ir.Success {
			fmt.Fprintf(w, "✗ %s (%d errors)\n", ir.Name, len(ir.Errors))
			for _, d := range ir.Errors {
				fmt.Fprintf(w, "    %s\n", d)
			}
			continue
		}
		built++
		total := 0
		for _, size := range ir.Outputs {
			total += size
		}
		fmt.Fprintf(w, "✓ %s %s from %d inputs\n", ir.Name, humanize.Bytes(uint64(total)), ir.Inputs)
		for _, path := range slices.Sorted(maps.Keys(ir.Outputs)) {
			fmt.Fprintf(w, "    %s %s\n", path, humanize.Bytes(uint64(ir.Outputs[path])))
		}
		for _, d := range ir.Warnings {
			fmt.Fprintf(w, "    warning: %s\n", d)
		}
	}
	fmt.Fprintf(w, "%d of %d instruments built\n", built, len(r.Instruments))
}

// Write renders the report. If viper's "report" key is set, it writes to
// that file; otherwise it prints to out.
func Write(osfs fs.FileSystem, out io.Writer, r *Report, format string) error {
	rendered, err := r.Format(format)
	if err != nil {
		return err
	}
	if reportPath := viper.GetString(KeyReport); reportPath != "" {
		if err := osfs.WriteFile(reportPath, []byte(rendered+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		return nil
	}
	_, err = fmt.Fprintln(out, rendered)
	return err
}
