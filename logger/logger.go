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

// Package logger reports build progress to the user.
package logger

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"bennypowers.dev/mach/manifest"
)

// BuildLogger receives build lifecycle events.
type BuildLogger interface {
	// BuildFailed reports the errors of a failed build. Failures carry no
	// duration.
	BuildFailed(errs []manifest.Diagnostic)
	// BuildComplete reports a successful build.
	BuildComplete(name string, elapsed time.Duration, m *manifest.Manifest)
	// ChangeDetected reports a watched file change.
	ChangeDetected(path string)
}

// Options configures a Console logger.
type Options struct {
	Verbose bool
	NoColor bool
	// WorkDir shortens paths in messages when set.
	WorkDir string
}

// Console logs to a terminal through zerolog's console writer.
// Events from concurrent builds are serialized so frames stay contiguous.
type Console struct {
	mu     sync.Mutex
	log    zerolog.Logger
	out    io.Writer
	opts   Options
	styles styles
}

type styles struct {
	location lipgloss.Style
	gutter   lipgloss.Style
	marker   lipgloss.Style
}

// NewConsole creates a logger writing human-readable lines to out.
func NewConsole(out io.Writer, opts Options) *Console {
	writer := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    opts.NoColor,
		TimeFormat: time.Kitchen,
	}
	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	renderer := lipgloss.NewRenderer(out)
	st := styles{
		location: renderer.NewStyle().Bold(true),
		gutter:   renderer.NewStyle().Faint(true),
		marker:   renderer.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
	if opts.NoColor {
		st = styles{
			location: renderer.NewStyle(),
			gutter:   renderer.NewStyle(),
			marker:   renderer.NewStyle(),
		}
	}

	return &Console{
		log:    zerolog.New(writer).Level(level).With().Timestamp().Logger(),
		out:    out,
		opts:   opts,
		styles: st,
	}
}

// BuildFailed implements BuildLogger.
func (c *Console) BuildFailed(errs []manifest.Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log.Error().Int("errors", len(errs)).Msg("build failed")
	for _, d := range errs {
		fmt.Fprintln(c.out, c.frame(d))
	}
}

// BuildComplete implements BuildLogger.
func (c *Console) BuildComplete(name string, elapsed time.Duration, m *manifest.Manifest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	event := c.log.Info().
		Str("instrument", name).
		Str("took", elapsed.Round(time.Millisecond).String()).
		Str("size", humanize.Bytes(uint64(m.TotalOutputBytes())))
	if c.opts.Verbose {
		event = event.Int("inputs", len(m.Inputs))
	}
	event.Msg("built")

	if !c.opts.Verbose {
		return
	}

	outputs := make([]string, 0, len(m.Outputs))
	for out := range m.Outputs {
		outputs = append(outputs, out)
	}
	sort.Strings(outputs)
	for _, out := range outputs {
		c.log.Debug().Str("file", c.rel(out)).Str("size", humanize.Bytes(uint64(m.Outputs[out]))).Msg("output")
	}
	for _, w := range m.Warnings {
		c.log.Warn().Msg(w.Text)
		fmt.Fprintln(c.out, c.frame(w))
	}
}

// ChangeDetected implements BuildLogger.
func (c *Console) ChangeDetected(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log.Info().Str("file", c.rel(path)).Msg("change detected")
}

// frame renders a diagnostic with its source line and a column marker.
func (c *Console) frame(d manifest.Diagnostic) string {
	var b strings.Builder
	if d.File == "" {
		b.WriteString("  ")
		b.WriteString(d.Text)
		return b.String()
	}

	fmt.Fprintf(&b, "  %s %s\n", c.styles.location.Render(fmt.Sprintf("%s:%d:%d:", d.File, d.Line, d.Column)), d.Text)
	if d.LineText != "" {
		gutter := fmt.Sprintf("%5d │ ", d.Line)
		fmt.Fprintf(&b, "  %s%s\n", c.styles.gutter.Render(gutter), d.LineText)
		pad := strings.Repeat(" ", len(fmt.Sprintf("%5d", d.Line))+1)
		col := min(max(d.Column, 0), len(d.LineText))
		fmt.Fprintf(&b, "  %s%s%s", pad, c.styles.gutter.Render("╵ "), strings.Repeat(" ", col)+c.styles.marker.Render("^"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (c *Console) rel(path string) string {
	if c.opts.WorkDir == "" {
		return path
	}
	if rel, err := filepath.Rel(c.opts.WorkDir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// Nop discards every event.
type Nop struct{}

func (Nop) BuildFailed([]manifest.Diagnostic)                        {}
func (Nop) BuildComplete(string, time.Duration, *manifest.Manifest) {}
func (Nop) ChangeDetected(string)                                    {}
