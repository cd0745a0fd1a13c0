// Package catalog holds the pre-authored dashboard content: the intro text,
// the column documentation, the preprocessing issue table and the list of
// cleaning steps. None of it is derived from data.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultYAML []byte

// ColumnDoc documents one raw column.
type ColumnDoc struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// Issue is one row of the preprocessing issue table.
type Issue struct {
	Column string `yaml:"column" json:"column"`
	Issue  string `yaml:"issue" json:"issue"`
	Fix    string `yaml:"fix" json:"recommendedFix"`
}

// Step is one entry of the detailed cleaning steps list.
type Step struct {
	Title  string `yaml:"title" json:"title"`
	Detail string `yaml:"detail" json:"detail"`
}

// Catalog is the complete static content.
type Catalog struct {
	Title   string      `yaml:"title" json:"title"`
	Intro   string      `yaml:"intro" json:"intro"`
	Columns []ColumnDoc `yaml:"columns" json:"columns"`
	Issues  []Issue     `yaml:"issues" json:"issues"`
	Steps   []Step      `yaml:"steps" json:"steps"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog. It panics if the embedded YAML is
// invalid, which can only happen with a broken build.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(defaultYAML)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded content: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Parse decodes catalog YAML and checks that every section is populated.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Columns) == 0 {
		return nil, fmt.Errorf("parse catalog: no columns documented")
	}
	if len(c.Issues) == 0 {
		return nil, fmt.Errorf("parse catalog: no issues listed")
	}
	return &c, nil
}

// Describe returns the documentation for a raw column name.
func (c *Catalog) Describe(column string) (string, bool) {
	for _, doc := range c.Columns {
		if doc.Name == column {
			return doc.Description, true
		}
	}
	return "", false
}
