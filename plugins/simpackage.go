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

package plugins

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/evanw/esbuild/pkg/api"
	"golang.org/x/net/html"

	"bennypowers.dev/mach/fs"
	"bennypowers.dev/mach/instrument"
)

//go:embed templates/*
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*"))

// PackageOptions locates the simulator package sources.
type PackageOptions struct {
	// WorkDir is the directory PackageDir is relative to.
	WorkDir string
	// PackageDir is the package sources directory.
	PackageDir string
	// PackageName is the package's directory under Instruments.
	PackageName string
}

// HTMLUI returns the package's html_ui directory.
func (o PackageOptions) HTMLUI() string {
	dir := o.PackageDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(o.WorkDir, dir)
	}
	return filepath.Join(dir, "html_ui")
}

// Target returns the directory an instrument's package files are written to.
func (o PackageOptions) Target(instrumentName string) string {
	return filepath.Join(o.HTMLUI(), "Pages", "VCockpit", "Instruments", o.PackageName, instrumentName)
}

// PageParams are the values the package templates are rendered with.
type PageParams struct {
	TemplateID     string
	InstrumentName string
	MountElementID string
	Imports        []string
	// CSSPath, JSPath and InstrumentPath are html_ui-relative URLs.
	CSSPath        string
	JSPath         string
	InstrumentPath string
}

// NewPageParams computes the template parameters for inst.
func NewPageParams(opts PackageOptions, inst *instrument.Instrument) PageParams {
	pkg := inst.SimulatorPackage
	fileName := pkg.FileNameOrDefault()
	templateID := pkg.TemplateIDOrDefault(inst.Name)

	target := opts.Target(inst.Name)
	jsPath := filepath.Join(target, fileName+".js")
	instrumentPath := jsPath
	if pkg.UsesMountShim() {
		instrumentPath = filepath.Join(target, fileName+".index.js")
	}

	return PageParams{
		TemplateID:     templateID,
		InstrumentName: strings.ToLower(opts.PackageName) + "-" + strings.ToLower(templateID),
		MountElementID: pkg.MountElement(),
		Imports:        append([]string{}, pkg.Imports...),
		CSSPath:        htmlURL(opts.HTMLUI(), filepath.Join(target, fileName+".css")),
		JSPath:         htmlURL(opts.HTMLUI(), jsPath),
		InstrumentPath: htmlURL(opts.HTMLUI(), instrumentPath),
	}
}

func htmlURL(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = strings.TrimPrefix(path, root)
	}
	return "/" + strings.TrimPrefix(filepath.ToSlash(rel), "/")
}

// WritePackageSources exports a successful top-level build into the
// simulator package sources: the bundle and its stylesheet, the instrument
// page, and for component-framework instruments a script that mounts the
// bundle.
func WritePackageSources(fsys fs.FileSystem, opts PackageOptions, inst *instrument.Instrument) api.Plugin {
	return api.Plugin{
		Name: NameWritePackageSources,
		Setup: func(build api.PluginBuild) {
			out := outfile(build)

			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if failed(result) || inst.SimulatorPackage == nil {
					return api.OnEndResult{}, nil
				}
				if err := writePackage(fsys, opts, inst, out); err != nil {
					return endError(NameWritePackageSources, fmt.Errorf("%s: %w", inst.Name, err))
				}
				return api.OnEndResult{}, nil
			})
		},
	}
}

func writePackage(fsys fs.FileSystem, opts PackageOptions, inst *instrument.Instrument, out string) error {
	js, err := fsys.ReadFile(out)
	if err != nil {
		return fmt.Errorf("reading bundle: %w", err)
	}
	var css []byte
	if cssPath := CSSPath(out); fsys.Exists(cssPath) {
		if css, err = fsys.ReadFile(cssPath); err != nil {
			return fmt.Errorf("reading stylesheet: %w", err)
		}
	}

	pkg := inst.SimulatorPackage
	fileName := pkg.FileNameOrDefault()
	target := opts.Target(inst.Name)
	params := NewPageParams(opts, inst)

	if err := fsys.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}

	files := map[string][]byte{
		fileName + ".css": css,
		fileName + ".js":  js,
	}

	if pkg.UsesMountShim() {
		shim, err := render("instrument.js", params)
		if err != nil {
			return err
		}
		files[fileName+".index.js"] = shim
	}

	page, err := render("index.html", params)
	if err != nil {
		return err
	}
	if err := VerifyPage(page, params); err != nil {
		return err
	}
	files[fileName+".html"] = page

	var errs []error
	for name, data := range files {
		if err := fsys.WriteFile(filepath.Join(target, name), data, 0o644); err != nil {
			errs = append(errs, fmt.Errorf("writing %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func render(name string, params PageParams) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, params); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// VerifyPage checks that a rendered instrument page links its stylesheet,
// declares its template and imports its instrument script.
func VerifyPage(page []byte, params PageParams) error {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return fmt.Errorf("parsing instrument page: %w", err)
	}

	var stylesheet, tmpl, script bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "link":
				if attr(n, "rel") == "stylesheet" && attr(n, "href") == params.CSSPath {
					stylesheet = true
				}
			case "script":
				if attr(n, "id") == params.TemplateID {
					tmpl = true
				}
				if attr(n, "import-script") == params.InstrumentPath {
					script = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	var errs []error
	if !stylesheet {
		errs = append(errs, fmt.Errorf("instrument page does not link %s", params.CSSPath))
	}
	if !tmpl {
		errs = append(errs, fmt.Errorf("instrument page does not declare template %q", params.TemplateID))
	}
	if !script {
		errs = append(errs, fmt.Errorf("instrument page does not import %s", params.InstrumentPath))
	}
	return errors.Join(errs...)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
