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

// Package build bundles instruments in dependency order.
//
// An instrument's submodules are bundled first, concurrently, as ES
// modules. Only when every submodule succeeded is the parent bundled, with
// each submodule's resolve specifier redirected to its module bundle.
package build

import (
	"fmt"
	"sync"
	"time"

	"bennypowers.dev/mach/config"
	"bennypowers.dev/mach/engine"
	"bennypowers.dev/mach/fs"
	"bennypowers.dev/mach/instrument"
	"bennypowers.dev/mach/logger"
	"bennypowers.dev/mach/manifest"
	"bennypowers.dev/mach/plugins"
)

// Builder builds instrument trees.
type Builder struct {
	cfg      *config.Config
	engine   engine.Engine
	log      logger.BuildLogger
	fs       fs.FileSystem
	registry *plugins.Registry

	bundle *OutputTemplate
	module *OutputTemplate
}

// New creates a Builder. The registry may be nil when no named plugins
// are configured.
func New(cfg *config.Config, eng engine.Engine, log logger.BuildLogger, fsys fs.FileSystem, registry *plugins.Registry) (*Builder, error) {
	bundlePattern := cfg.Output.Bundle
	if bundlePattern == "" {
		bundlePattern = DefaultBundleTemplate
	}
	modulePattern := cfg.Output.Module
	if modulePattern == "" {
		modulePattern = DefaultModuleTemplate
	}

	bundle, err := ParseOutputTemplate(bundlePattern)
	if err != nil {
		return nil, fmt.Errorf("bundle output: %w", err)
	}
	module, err := ParseOutputTemplate(modulePattern)
	if err != nil {
		return nil, fmt.Errorf("module output: %w", err)
	}

	if log == nil {
		log = logger.Nop{}
	}

	return &Builder{
		cfg:      cfg,
		engine:   eng,
		log:      log,
		fs:       fsys,
		registry: registry,
		bundle:   bundle,
		module:   module,
	}, nil
}

// Config returns the configuration the builder was created with.
func (b *Builder) Config() *config.Config {
	return b.cfg
}

// Logger returns the builder's logger.
func (b *Builder) Logger() logger.BuildLogger {
	return b.log
}

// BuildModule builds inst after its submodules.
//
// If any submodule fails, the first failure in declaration order is
// returned and inst is not built; the failing submodule has already logged
// its errors. Otherwise the submodules' rebuild handles are released and
// inst is built. Compile errors never surface as Go errors.
func (b *Builder) BuildModule(inst *instrument.Instrument, isSubmodule bool) *manifest.Manifest {
	if inst.HasModules() {
		results := make([]*manifest.Manifest, len(inst.Modules))
		var wg sync.WaitGroup
		for i, mod := range inst.Modules {
			if mod == nil {
				continue
			}
			wg.Go(func() {
				results[i] = b.BuildModule(mod, true)
			})
		}
		wg.Wait()

		var failed *manifest.Manifest
		for _, result := range results {
			if result != nil && !result.Success() && failed == nil {
				failed = result
			}
		}
		for _, result := range results {
			if result != nil {
				result.Dispose()
			}
		}
		if failed != nil {
			return failed
		}
	}

	opts, err := b.Options(inst, isSubmodule)
	if err != nil {
		m := manifest.FailedWithError(inst.Name, err)
		b.log.BuildFailed(m.Errors)
		return m
	}

	start := time.Now()
	m := b.engine.Build(inst.Name, opts)
	elapsed := time.Since(start)

	if !m.Success() {
		b.log.BuildFailed(m.Errors)
		return m
	}
	b.log.BuildComplete(inst.Name, elapsed, m)
	return m
}

// BuildAll builds every instrument concurrently and returns their
// manifests in input order.
func (b *Builder) BuildAll(instruments []*instrument.Instrument) []*manifest.Manifest {
	results := make([]*manifest.Manifest, len(instruments))
	var wg sync.WaitGroup
	for i, inst := range instruments {
		wg.Go(func() {
			results[i] = b.BuildModule(inst, false)
		})
	}
	wg.Wait()
	return results
}
