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

// Package version provides version information for the mach CLI.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// EsbuildModule is the module path of the bundling engine.
const EsbuildModule = "github.com/evanw/esbuild"

var (
	// Version information, set at build time via ldflags
	Version   = "dev"     // Version string (e.g., "v0.3.0")
	GitCommit = "unknown" // Git commit hash
	GitTag    = "unknown" // Git tag
	BuildTime = "unknown" // Build timestamp
	GitDirty  = ""        // "dirty" if working directory has uncommitted changes
)

// GetVersion returns the version string for the application
func GetVersion() string {
	if Version != "dev" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			return info.Main.Version
		}
	}

	if GitTag != "unknown" && GitCommit != "unknown" {
		return gitVersion()
	}

	return "dev"
}

func gitVersion() string {
	version := GitTag
	if GitCommit != "" {
		commitSuffix := GitCommit
		if len(GitCommit) > 7 {
			commitSuffix = GitCommit[:7]
		}
		if !strings.HasSuffix(GitTag, commitSuffix) {
			version = fmt.Sprintf("%s-%s", GitTag, commitSuffix)
		}
	}
	if GitDirty == "dirty" {
		version += "-dirty"
	}
	return version
}

// EsbuildVersion returns the version of esbuild linked into the binary, or
// "unknown" when build info is unavailable.
func EsbuildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	return DependencyVersion(info, EsbuildModule)
}

// DependencyVersion finds a module's version in build info, following
// replacements.
func DependencyVersion(info *debug.BuildInfo, path string) string {
	for _, dep := range info.Deps {
		if dep.Path != path {
			continue
		}
		if dep.Replace != nil && dep.Replace.Version != "" {
			return dep.Replace.Version
		}
		return dep.Version
	}
	return "unknown"
}

// GetFullVersion returns detailed version information
func GetFullVersion() string {
	version := GetVersion()
	if GitCommit != "unknown" {
		return fmt.Sprintf("%s (commit: %s, esbuild %s)", version, GitCommit, EsbuildVersion())
	}
	return fmt.Sprintf("%s (esbuild %s)", version, EsbuildVersion())
}

// GetBuildInfo returns detailed build information
func GetBuildInfo() map[string]string {
	return map[string]string{
		"version":   GetVersion(),
		"gitCommit": GitCommit,
		"gitTag":    GitTag,
		"buildTime": BuildTime,
		"gitDirty":  GitDirty,
		"esbuild":   EsbuildVersion(),
	}
}
