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

package scan

import (
	"embed"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
	tsTypescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

//go:embed queries/*.scm
var queryFiles embed.FS

// Dialect selects the grammar a source file is parsed with.
type Dialect int

const (
	// TypeScript parses .ts, .mts, .js and .mjs sources.
	TypeScript Dialect = iota
	// TSX parses sources that may contain JSX.
	TSX
)

// DialectFor picks the grammar for a file by its extension.
func DialectFor(name string) Dialect {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tsx", ".jsx":
		return TSX
	default:
		return TypeScript
	}
}

func (d Dialect) String() string {
	if d == TSX {
		return "tsx"
	}
	return "typescript"
}

var languages = map[Dialect]*ts.Language{
	TypeScript: ts.NewLanguage(tsTypescript.LanguageTypescript()),
	TSX:        ts.NewLanguage(tsTypescript.LanguageTSX()),
}

var parserPools = map[Dialect]*sync.Pool{
	TypeScript: newParserPool(TypeScript),
	TSX:        newParserPool(TSX),
}

func newParserPool(d Dialect) *sync.Pool {
	return &sync.Pool{
		New: func() any {
			parser := ts.NewParser()
			if err := parser.SetLanguage(languages[d]); err != nil {
				panic("failed to set " + d.String() + " language: " + err.Error())
			}
			return parser
		},
	}
}

func getParser(d Dialect) *ts.Parser {
	return parserPools[d].Get().(*ts.Parser)
}

func putParser(d Dialect, p *ts.Parser) {
	p.Reset()
	parserPools[d].Put(p)
}

// QueryManager holds compiled queries for each dialect.
type QueryManager struct {
	mu      sync.Mutex
	closed  bool
	queries map[Dialect]map[string]*ts.Query
}

// NewQueryManager compiles the named queries for every dialect.
func NewQueryManager(names ...string) (*QueryManager, error) {
	qm := &QueryManager{queries: make(map[Dialect]map[string]*ts.Query)}
	for d := range languages {
		qm.queries[d] = make(map[string]*ts.Query)
		for _, name := range names {
			if err := qm.load(d, name); err != nil {
				qm.Close()
				return nil, err
			}
		}
	}
	return qm, nil
}

func (qm *QueryManager) load(d Dialect, name string) error {
	queryPath := path.Join("queries", name+".scm")
	data, err := queryFiles.ReadFile(queryPath)
	if err != nil {
		return fmt.Errorf("failed to read query %s: %w", queryPath, err)
	}
	query, qerr := ts.NewQuery(languages[d], string(data))
	if qerr != nil {
		return fmt.Errorf("failed to parse query %s for %s: %w", name, d, qerr)
	}
	qm.queries[d][name] = query
	return nil
}

// Close releases all query resources. Safe to call multiple times.
func (qm *QueryManager) Close() {
	qm.mu.Lock()
	if qm.closed {
		qm.mu.Unlock()
		return
	}
	qm.closed = true
	queries := qm.queries
	qm.queries = nil
	qm.mu.Unlock()

	for _, byName := range queries {
		for _, q := range byName {
			q.Close()
		}
	}
}

// Query returns a compiled query.
func (qm *QueryManager) Query(d Dialect, name string) (*ts.Query, error) {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	q, ok := qm.queries[d][name]
	if !ok {
		return nil, fmt.Errorf("query not found: %s/%s", d, name)
	}
	return q, nil
}

var (
	globalQM     *QueryManager
	globalQMOnce sync.Once
	globalQMErr  error
)

// GetQueryManager returns the shared query manager.
func GetQueryManager() (*QueryManager, error) {
	globalQMOnce.Do(func() {
		globalQM, globalQMErr = NewQueryManager("imports")
	})
	return globalQM, globalQMErr
}
