package core

import (
	"math"
	"strings"
)

// ColumnProfile summarizes one column.
type ColumnProfile struct {
	Name     string     `json:"name"`
	Kind     ColumnKind `json:"kind"`
	Missing  int        `json:"missing"`
	Distinct int        `json:"distinct"`
	Min      *float64   `json:"min,omitempty"` // numeric columns only, nil if no values
	Max      *float64   `json:"max,omitempty"`
}

// Profile is the "basic info" view of a table: its shape, per-column kinds
// and missing counts, and how many rows exactly repeat an earlier row.
type Profile struct {
	Name          string          `json:"name"`
	Rows          int             `json:"rows"`
	Columns       int             `json:"columns"`
	DuplicateRows int             `json:"duplicateRows"`
	Fields        []ColumnProfile `json:"fields"`
}

// Describe computes the profile of t. Text cells that are empty after
// trimming count as missing; numeric cells count as missing when invalid.
func Describe(t *Table) Profile {
	p := Profile{
		Name:    t.name,
		Rows:    len(t.rows),
		Columns: len(t.columns),
		Fields:  make([]ColumnProfile, len(t.columns)),
	}

	distinct := make([]map[string]struct{}, len(t.columns))
	for j, c := range t.columns {
		p.Fields[j] = ColumnProfile{Name: c.Name, Kind: c.Kind}
		distinct[j] = make(map[string]struct{})
	}

	seenRows := make(map[string]struct{}, len(t.rows))
	for i, row := range t.rows {
		for j, c := range t.columns {
			cp := &p.Fields[j]
			v := row[j]

			if c.Kind == KindNumeric {
				if !v.Number.Valid {
					cp.Missing++
					continue
				}
				f := v.Number.Float64
				if cp.Min == nil || f < *cp.Min {
					cp.Min = ptr(f)
				}
				if cp.Max == nil || f > *cp.Max {
					cp.Max = ptr(f)
				}
			} else if strings.TrimSpace(v.Text) == "" {
				cp.Missing++
				continue
			}
			distinct[j][v.Format(c.Kind)] = struct{}{}
		}

		key := strings.Join(t.Record(i), "\x1f")
		if _, dup := seenRows[key]; dup {
			p.DuplicateRows++
		} else {
			seenRows[key] = struct{}{}
		}
	}

	for j := range p.Fields {
		p.Fields[j].Distinct = len(distinct[j])
	}
	return p
}

// MissingTotal returns the number of missing cells across all columns.
func (p Profile) MissingTotal() int {
	n := 0
	for _, c := range p.Fields {
		n += c.Missing
	}
	return n
}

func ptr(f float64) *float64 {
	if math.IsNaN(f) {
		return nil
	}
	return &f
}
