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

// Package build provides the build command for mach.
package build

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/mach/internal/cli"
	"bennypowers.dev/mach/internal/output"
)

// Cmd is the build cobra command that bundles every configured instrument
// once.
var Cmd = &cobra.Command{
	Use:   "build",
	Short: "Build instruments",
	Long: `Build every configured instrument, submodules first.

Build output is logged to stderr. The command fails if any instrument fails,
after all of them have finished.`,
	Example: `  # Build everything in mach.config.yaml
  mach build

  # Build instruments whose name matches a glob, minified
  mach build -f "PFD*" -m

  # Write a JSON build report
  mach build -o report.json --format json`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("report", "o", "", "Write a build report to file")
	Cmd.Flags().String("format", "text", "Build report format (text, json)")

	_ = viper.BindPFlag(output.KeyReport, Cmd.Flags().Lookup("report"))
}

func run(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("error reading format flag: %w", err)
	}
	if format != "json" && format != "text" {
		return fmt.Errorf("invalid format %q: must be 'json' or 'text'", format)
	}

	project, err := cli.LoadProject()
	if err != nil {
		return err
	}
	builder, err := project.Builder(project.Logger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	results := builder.BuildAll(project.Instruments)
	failed := 0
	for _, m := range results {
		if !m.Success() {
			failed++
		}
		m.Dispose()
	}

	if viper.GetString(output.KeyReport) != "" || cmd.Flags().Changed("format") {
		report := output.NewReport(project.Config.WorkDir, results)
		if err := output.Write(project.FS, cmd.OutOrStdout(), report, format); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d instruments failed to build", failed, len(results))
	}
	return nil
}
