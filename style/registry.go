package style

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Registry holds named stylesheets. The zero value is empty and ready to use.
type Registry struct {
	sheets map[string]*Stylesheet
}

// NewRegistry returns a registry with the default stylesheet.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Add(Default())
	return r
}

// Add registers the stylesheet under its name, replacing an earlier one of the same name.
func (r *Registry) Add(sheet *Stylesheet) {
	if r.sheets == nil {
		r.sheets = map[string]*Stylesheet{}
	}
	r.sheets[sheet.Name] = sheet
}

// Get returns the stylesheet by name.
func (r *Registry) Get(name string) (*Stylesheet, bool) {
	sheet, ok := r.sheets[name]
	return sheet, ok
}

// Names returns the sorted names of all stylesheets.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sheets))
	for name := range r.sheets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LoadDir adds every .yaml and .yml stylesheet in the directory, named by its file name. It returns the number of stylesheets added.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || ext != ".yaml" && ext != ".yml" {
			continue
		}
		sheet, err := LoadStylesheetFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return n, err
		}
		sheet.Name = strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		r.Add(sheet)
		n++
	}
	return n, nil
}

// Resolve returns the stylesheet by name or loads it from a file if name is a path to a YAML file.
func (r *Registry) Resolve(name string) (*Stylesheet, error) {
	if sheet, ok := r.Get(name); ok {
		return sheet, nil
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".yaml" || ext == ".yml" {
		sheet, err := LoadStylesheetFile(name)
		if err != nil {
			return nil, err
		}
		r.Add(sheet)
		return sheet, nil
	}
	return nil, fmt.Errorf("unknown stylesheet %q, available: %s", name, strings.Join(r.Names(), ", "))
}
