// Package reporttemplate lets a translation shop define its own client-facing
// report layouts as TOML files: a small typed struct is parsed from TOML,
// resolved through a project -> user -> home search path, and executed as a
// text/template against real data at render time.
package reporttemplate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/template"

	"github.com/BurntSushi/toml"
)

// FormulaExt is the file suffix a report template is recognized by.
const FormulaExt = ".report.toml"

// Template is one named report layout: Header is rendered once, Line is
// rendered once per row, both as Go text/template source against whatever
// fields the caller's row type exposes.
type Template struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Kind        string `toml:"kind"` // "diff", "history", or "verify"
	Header      string `toml:"header"`
	Line        string `toml:"line"`
	Footer      string `toml:"footer"`

	Source string `toml:"-"`
}

// Parser resolves and parses report templates from a fixed search path.
type Parser struct {
	searchPaths []string
}

// NewParser returns a Parser over dirs, or the default project -> user ->
// home search path when dirs is empty.
func NewParser(dirs ...string) *Parser {
	if len(dirs) > 0 {
		return &Parser{searchPaths: dirs}
	}
	return &Parser{searchPaths: DefaultSearchPaths()}
}

// DefaultSearchPaths returns the report-template search path in priority
// order: project-local .cattrans/templates, the user config directory, and
// the user's home directory.
func DefaultSearchPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".cattrans", "templates"))
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "cattrans", "templates"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".cattrans", "templates"))
	}
	return paths
}

// LoadByName searches p's paths in order for name+FormulaExt, parsing the
// first match. Later paths are never consulted once an earlier one matches.
func (p *Parser) LoadByName(name string) (*Template, error) {
	for _, dir := range p.searchPaths {
		path := filepath.Join(dir, name+FormulaExt)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return p.ParseFile(path)
	}
	return nil, fmt.Errorf("report template %q not found in %v", name, p.searchPaths)
}

// ParseFile parses one report template TOML file.
func (p *Parser) ParseFile(path string) (*Template, error) {
	var t Template
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("parsing report template %s: %w", path, err)
	}
	t.Source = path
	return &t, nil
}

// List scans every search path for report templates, first occurrence per
// name winning (project shadows user shadows home).
func (p *Parser) List() ([]*Template, error) {
	seen := make(map[string]bool)
	var out []*Template
	for _, dir := range p.searchPaths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".toml" {
				continue
			}
			t, err := p.ParseFile(filepath.Join(dir, e.Name()))
			if err != nil || seen[t.Name] {
				continue
			}
			seen[t.Name] = true
			out = append(out, t)
		}
	}
	return out, nil
}

// Render executes t.Header once, t.Line once per element of rows, and
// t.Footer once, writing the results to w. Each template is parsed fresh on
// every call; report templates are not rendered often enough for compile
// caching to matter.
func (t *Template) Render(w io.Writer, rows any, footerData any) error {
	if t.Header != "" {
		if err := execTemplate(w, "header", t.Header, footerData); err != nil {
			return err
		}
	}
	if t.Line != "" {
		if err := renderRows(w, t.Line, rows); err != nil {
			return err
		}
	}
	if t.Footer != "" {
		if err := execTemplate(w, "footer", t.Footer, footerData); err != nil {
			return err
		}
	}
	return nil
}

func execTemplate(w io.Writer, name, src string, data any) error {
	tmpl, err := template.New(name).Parse(src)
	if err != nil {
		return fmt.Errorf("parsing %s template: %w", name, err)
	}
	return tmpl.Execute(w, data)
}

func renderRows(w io.Writer, src string, rows any) error {
	tmpl, err := template.New("line").Parse(src)
	if err != nil {
		return fmt.Errorf("parsing line template: %w", err)
	}
	switch v := rows.(type) {
	case []map[string]any:
		for _, row := range v {
			if err := tmpl.Execute(w, row); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported row type %T", rows)
	}
	return nil
}
