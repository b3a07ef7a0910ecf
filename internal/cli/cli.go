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

// Package cli holds setup shared by mach's commands.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/evanw/esbuild/pkg/api"

	"bennypowers.dev/mach/build"
	"bennypowers.dev/mach/config"
	"bennypowers.dev/mach/engine"
	"bennypowers.dev/mach/fs"
	"bennypowers.dev/mach/instrument"
	"bennypowers.dev/mach/logger"
	"bennypowers.dev/mach/plugins"
)

// ErrNoInstruments is returned when the filter excludes every instrument.
var ErrNoInstruments = errors.New("no instruments match the filter")

// Project is a loaded configuration with the instruments selected for
// this run.
type Project struct {
	Config      *config.Config
	Instruments []*instrument.Instrument
	FS          fs.FileSystem
}

// LoadProject loads the configuration and applies the instrument filter.
func LoadProject() (*Project, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	selected, err := instrument.Filter(cfg.Instruments, cfg.Filter)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w %q", ErrNoInstruments, cfg.Filter)
	}
	return &Project{
		Config:      cfg,
		Instruments: selected,
		FS:          fs.NewOSFileSystem(),
	}, nil
}

// Logger creates the console logger for the project.
func (p *Project) Logger(out io.Writer) *logger.Console {
	return logger.NewConsole(out, logger.Options{
		Verbose: p.Config.Verbose,
		NoColor: p.Config.NoColor,
		WorkDir: p.Config.WorkDir,
	})
}

// Builder creates an esbuild-backed builder. Extra plugins become
// available to the configuration's plugin lists by name.
func (p *Project) Builder(log logger.BuildLogger, extra ...api.Plugin) (*build.Builder, error) {
	registry, err := plugins.NewRegistry(extra...)
	if err != nil {
		return nil, err
	}
	return build.New(p.Config, engine.New(), log, p.FS, registry)
}
