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

// Command mach bundles flight simulator instruments with esbuild.
package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/mach/cmd/build"
	"bennypowers.dev/mach/cmd/check"
	"bennypowers.dev/mach/cmd/version"
	"bennypowers.dev/mach/cmd/watch"
	"bennypowers.dev/mach/config"
)

var (
	cpuprofile     string
	cpuprofileFile *os.File
	rootCmd        = &cobra.Command{
		Use:   "mach",
		Short: "Bundle flight simulator instruments",
		Long: `mach bundles instruments and their submodules with esbuild and exports
them into a simulator package.

Configuration is read from mach.config.{yaml,toml,json} in the current
directory. Flags and MACH_* environment variables override it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cpuprofile != "" {
				f, err := os.Create(cpuprofile)
				if err != nil {
					return fmt.Errorf("could not create CPU profile: %w", err)
				}
				cpuprofileFile = f
				if err := pprof.StartCPUProfile(f); err != nil {
					closeErr := f.Close()
					return errors.Join(
						fmt.Errorf("could not start CPU profile: %w", err),
						closeErr,
					)
				}
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cpuprofileFile != nil {
				pprof.StopCPUProfile()
				if err := cpuprofileFile.Close(); err != nil {
					return fmt.Errorf("closing CPU profile: %w", err)
				}
			}
			return nil
		},
	}
)

func init() {
	cobra.OnInitialize(config.BindEnv)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Configuration file (default: mach.config.* in the current directory)")
	flags.StringP("bundles", "b", "", "Bundles output directory (default: ./bundles)")
	flags.BoolP("werror", "e", false, "Treat esbuild warnings as errors")
	flags.StringP("filter", "f", "", "Only build instruments whose name matches this glob")
	flags.BoolP("minify", "m", false, "Minify bundles")
	flags.BoolP("skip-simulator-package", "s", false, "Skip writing simulator package files")
	flags.BoolP("output-metafile", "t", false, "Write build_meta.json next to each bundle")
	flags.BoolP("output-sourcemaps", "u", false, "Append inline sourcemaps")
	flags.BoolP("verbose", "v", false, "Log input counts and warnings")
	flags.BoolP("work-in-config-dir", "w", false, "Resolve paths relative to the configuration file")
	flags.Bool("no-color", false, "Disable colored output")
	flags.StringVar(&cpuprofile, "cpuprofile", "", "Write CPU profile to file")

	bind := map[string]string{
		config.KeyConfig:               "config",
		config.KeyBundlesDir:           "bundles",
		config.KeyWarningsAsErrors:     "werror",
		config.KeyFilter:               "filter",
		config.KeyMinify:               "minify",
		config.KeySkipSimulatorPackage: "skip-simulator-package",
		config.KeyMetafile:             "output-metafile",
		config.KeySourcemaps:           "output-sourcemaps",
		config.KeyVerbose:              "verbose",
		config.KeyWorkInConfigDir:      "work-in-config-dir",
		config.KeyNoColor:              "no-color",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(build.Cmd)
	rootCmd.AddCommand(watch.Cmd)
	rootCmd.AddCommand(check.Cmd)
	rootCmd.AddCommand(version.Cmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
