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

// Package scan reads instrument sources without bundling them.
//
// Imports are extracted with tree-sitter, which is enough to lint how
// instruments are wired to their submodules before esbuild ever runs.
package scan

import (
	"fmt"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// ModuleImport is one import specifier found in a source file.
type ModuleImport struct {
	Specifier  string
	IsDynamic  bool
	IsReexport bool
	// Line is 1-indexed.
	Line int
}

// ExtractImports parses a TypeScript or JavaScript source and returns its
// import, re-export and literal dynamic import specifiers in source order.
func ExtractImports(d Dialect, content []byte) ([]ModuleImport, error) {
	qm, err := GetQueryManager()
	if err != nil {
		return nil, err
	}
	query, err := qm.Query(d, "imports")
	if err != nil {
		return nil, err
	}

	parser := getParser(d)
	defer putParser(d, parser)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse content")
	}
	defer tree.Close()

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	var imports []ModuleImport
	matches := cursor.Matches(query, tree.RootNode(), content)
	captureNames := query.CaptureNames()

	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, capture := range match.Captures {
			imp := ModuleImport{
				Specifier: capture.Node.Utf8Text(content),
				Line:      int(capture.Node.StartPosition().Row) + 1,
			}
			switch captureNames[capture.Index] {
			case "import.spec":
			case "reexport.spec":
				imp.IsReexport = true
			case "dynamicImport.spec":
				imp.IsDynamic = true
			default:
				continue
			}
			imports = append(imports, imp)
		}
	}
	return imports, nil
}
