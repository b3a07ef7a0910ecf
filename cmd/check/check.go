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

// Package check provides the check command for mach.
package check

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"bennypowers.dev/mach/internal/cli"
	"bennypowers.dev/mach/scan"
)

// Cmd is the check cobra command that lints how instruments import their
// submodules.
var Cmd = &cobra.Command{
	Use:   "check",
	Short: "Check submodule wiring without building",
	Long: `Scan instrument sources and report submodules that are never imported
by their parent, submodules imported by file path instead of by their resolve
specifier, and entry files that cannot be read.`,
	Example: `  # Check every instrument
  mach check

  # Machine-readable output
  mach check --format json`,
	RunE: run,
}

func init() {
	Cmd.Flags().String("format", "text", "Output format (text, json)")
}

func run(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("error reading format flag: %w", err)
	}

	project, err := cli.LoadProject()
	if err != nil {
		return err
	}

	issues := []scan.Issue{}
	for _, inst := range project.Instruments {
		issues = append(issues, scan.Check(project.FS, project.Config.WorkDir, inst)...)
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		data, err := json.MarshalIndent(map[string]any{"issues": issues}, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding issues: %w", err)
		}
		fmt.Fprintln(out, string(data))
	case "text":
		for _, issue := range issues {
			fmt.Fprintln(out, issue)
		}
	default:
		return fmt.Errorf("invalid format %q: must be 'json' or 'text'", format)
	}

	if len(issues) > 0 {
		return fmt.Errorf("found %d wiring issues", len(issues))
	}
	return nil
}
