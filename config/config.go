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

// Package config loads mach's configuration.
//
// Values come from a mach.config.{yaml,toml,json} file, MACH_* environment
// variables (the unprefixed names used by earlier releases are honored
// too) and CLI flags bound by the commands. The loaded Config is an
// immutable value that is passed explicitly to the builder and the watch
// coordinator.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"bennypowers.dev/mach/instrument"
)

// FileName is the base name of the configuration file, without extension.
const FileName = "mach.config"

// Viper keys.
const (
	KeyConfig               = "config"
	KeyBundlesDir           = "bundles_dir"
	KeyPackageDir           = "package_dir"
	KeyPackageName          = "package_name"
	KeyMinify               = "minify"
	KeySkipSimulatorPackage = "skip_simulator_package"
	KeyWarningsAsErrors     = "warnings_as_errors"
	KeyMetafile             = "output_metafile"
	KeySourcemaps           = "output_sourcemaps"
	KeyVerbose              = "verbose"
	KeyWorkInConfigDir      = "work_in_config_dir"
	KeyFilter               = "filter"
	KeyNoColor              = "no_color"
	KeyOutputBundle         = "output.bundle"
	KeyOutputModule         = "output.module"
	KeyPlugins              = "plugins"
	KeyInstruments          = "instruments"
)

// Output holds the output path templates, relative to the bundles
// directory. {name} expands to the instrument name.
type Output struct {
	Bundle string `mapstructure:"bundle" json:"bundle"`
	Module string `mapstructure:"module" json:"module"`
}

// Config holds all runtime configuration for a mach invocation.
type Config struct {
	// ConfigFile is the configuration file that was read, if any.
	ConfigFile string `mapstructure:"-" json:"configFile,omitempty"`
	// WorkDir is the absolute directory builds run in.
	WorkDir string `mapstructure:"-" json:"workDir"`

	BundlesDir           string `mapstructure:"bundles_dir" json:"bundlesDir"`
	PackageDir           string `mapstructure:"package_dir" json:"packageDir"`
	PackageName          string `mapstructure:"package_name" json:"packageName"`
	Minify               bool   `mapstructure:"minify" json:"minify"`
	SkipSimulatorPackage bool   `mapstructure:"skip_simulator_package" json:"skipSimulatorPackage"`
	WarningsAsErrors     bool   `mapstructure:"warnings_as_errors" json:"warningsAsErrors"`
	Metafile             bool   `mapstructure:"output_metafile" json:"outputMetafile"`
	Sourcemaps           bool   `mapstructure:"output_sourcemaps" json:"outputSourcemaps"`
	Verbose              bool   `mapstructure:"verbose" json:"verbose"`
	WorkInConfigDir      bool   `mapstructure:"work_in_config_dir" json:"workInConfigDir"`
	NoColor              bool   `mapstructure:"no_color" json:"noColor"`
	Filter               string `mapstructure:"filter" json:"filter,omitempty"`
	Output               Output `mapstructure:"output" json:"output"`

	// Plugins names registered plugins applied to every instrument.
	Plugins     []string                 `mapstructure:"plugins" json:"plugins,omitempty"`
	Instruments []*instrument.Instrument `mapstructure:"instruments" json:"instruments"`

	// Env is the environment snapshot exposed to bundles as
	// process.env defines.
	Env map[string]string `mapstructure:"-" json:"-"`
}

// legacyEnv maps keys to the unprefixed variables earlier releases read.
var legacyEnv = map[string]string{
	KeyBundlesDir:           "BUNDLES_DIR",
	KeyPackageDir:           "PACKAGE_DIR",
	KeyPackageName:          "PACKAGE_NAME",
	KeyMinify:               "MINIFY_BUNDLES",
	KeySkipSimulatorPackage: "SKIP_SIM_PACKAGE",
	KeyWarningsAsErrors:     "WARNINGS_ERROR",
	KeyMetafile:             "OUTPUT_METAFILE",
	KeySourcemaps:           "OUTPUT_SOURCEMAPS",
	KeyVerbose:              "VERBOSE_OUTPUT",
	KeyWorkInConfigDir:      "WORK_IN_CONFIG_DIR",
}

// BindEnv wires MACH_* and legacy environment variables into viper.
func BindEnv() {
	viper.SetEnvPrefix("MACH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for key, legacy := range legacyEnv {
		_ = viper.BindEnv(key, "MACH_"+strings.ToUpper(key), legacy)
	}
}

func setDefaults() {
	viper.SetDefault(KeyBundlesDir, "./bundles")
	viper.SetDefault(KeyPackageDir, "")
	viper.SetDefault(KeyPackageName, "")
	viper.SetDefault(KeyMinify, false)
	viper.SetDefault(KeySkipSimulatorPackage, false)
	viper.SetDefault(KeyWarningsAsErrors, false)
	viper.SetDefault(KeyMetafile, false)
	viper.SetDefault(KeySourcemaps, false)
	viper.SetDefault(KeyVerbose, false)
	viper.SetDefault(KeyWorkInConfigDir, false)
	viper.SetDefault(KeyNoColor, false)
	viper.SetDefault(KeyOutputBundle, "{name}/bundle.js")
	viper.SetDefault(KeyOutputModule, "{name}/module/module.mjs")
}

// Load reads the configuration file and resolves the result against the
// working directory. Directories in the returned Config are absolute.
func Load() (*Config, error) {
	setDefaults()

	file, err := readFile()
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	cfg.ConfigFile = file

	if cfg.WorkDir, err = workDir(file, cfg.WorkInConfigDir); err != nil {
		return nil, err
	}
	cfg.BundlesDir = cfg.Abs(cfg.BundlesDir)
	if cfg.PackageDir != "" {
		cfg.PackageDir = cfg.Abs(cfg.PackageDir)
	}
	cfg.Env = Environ(os.Environ())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// readFile loads the explicit config file, or searches the current
// directory for mach.config.*. It returns the file that was read.
func readFile() (string, error) {
	if explicit := viper.GetString(KeyConfig); explicit != "" {
		viper.SetConfigFile(explicit)
	} else {
		viper.SetConfigName(FileName)
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("no %s.{yaml,toml,json} found in the current directory", FileName)
		}
		return "", fmt.Errorf("reading configuration: %w", err)
	}

	file, err := filepath.Abs(viper.ConfigFileUsed())
	if err != nil {
		return "", fmt.Errorf("resolving config path: %w", err)
	}
	return file, nil
}

func workDir(file string, inConfigDir bool) (string, error) {
	if inConfigDir && file != "" {
		return filepath.Dir(file), nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return wd, nil
}

// Abs resolves p against the working directory.
func (c *Config) Abs(p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.WorkDir, p)
}

// Validate reports every problem with the configuration.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Instruments) == 0 {
		errs = append(errs, fmt.Errorf("%w: no instruments configured", instrument.ErrInvalid))
	}
	if err := instrument.Validate(c.Instruments); err != nil {
		errs = append(errs, err)
	}
	if !c.SkipSimulatorPackage && c.hasPackages() {
		if c.PackageDir == "" {
			errs = append(errs, errors.New("package_dir is required when instruments declare a simulator package"))
		}
		if c.PackageName == "" {
			errs = append(errs, errors.New("package_name is required when instruments declare a simulator package"))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) hasPackages() bool {
	for _, inst := range c.Instruments {
		if inst != nil && inst.SimulatorPackage != nil {
			return true
		}
	}
	return false
}

// Environ converts KEY=VALUE pairs to a map. Later duplicates win.
func Environ(pairs []string) map[string]string {
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}
