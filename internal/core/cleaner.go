package core

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// Normalized names of the columns the cleaner touches.
const (
	ColSuicidesNo      = "suicides_no"
	ColGDPForYear      = "gdp_for_year_$"
	ColGDPPerCapitaRaw = "gdp_per_capita_$"
	ColGDPPerCapita    = "gdp_per_capita"
	ColHDIForYear      = "hdi_for_year"
)

// maxInvalidSamples caps the distinct rejected inputs kept per column.
const maxInvalidSamples = 5

// requiredColumns must be present after name normalization.
var requiredColumns = []string{ColSuicidesNo, ColGDPForYear, ColGDPPerCapitaRaw}

// coercer turns a cell's text into a typed optional number.
type coercer func(string) pgtype.Float8

// coercers maps a normalized column name to its numeric coercion.
var coercers = map[string]coercer{
	ColSuicidesNo:      ToFloat8,
	ColGDPForYear:      ToCurrencyFloat8,
	ColGDPPerCapitaRaw: ToFloat8,
}

// renames maps a normalized column name to its final name.
var renames = map[string]string{
	ColGDPPerCapitaRaw: ColGDPPerCapita,
}

// dropped lists normalized column names removed from the output.
var dropped = map[string]bool{
	ColHDIForYear: true,
}

// Rename records a column whose name changed during cleaning.
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Coercion summarizes numeric coercion of one column.
type Coercion struct {
	Column  string   `json:"column"`
	Parsed  int      `json:"parsed"`
	Empty   int      `json:"empty"`
	Invalid int      `json:"invalid"`
	Samples []string `json:"samples,omitempty"` // distinct rejected inputs
}

// Missing returns the number of cells that became the missing marker.
func (c Coercion) Missing() int { return c.Empty + c.Invalid }

// CleanReport describes what Clean did to a table.
type CleanReport struct {
	Rows      int        `json:"rows"`
	Renamed   []Rename   `json:"renamed"`
	Dropped   []string   `json:"dropped"`
	Coercions []Coercion `json:"coercions"`
}

// Clean derives the clean table from raw. raw is not modified.
//
// Column names are normalized (lowercase, spaces to underscores, no
// parentheses), suicides_no, gdp_for_year_$ and gdp_per_capita_$ are coerced
// to numbers with unparsable cells becoming missing, hdi_for_year is dropped
// when present, and gdp_per_capita_$ is renamed to gdp_per_capita. Rows are
// never filtered or reordered.
//
// The only errors wrap ErrSchemaMismatch: a required column is absent, or
// two columns share a name after normalization or renaming.
func Clean(raw *Table) (*Table, error) {
	clean, _, err := CleanWithReport(raw)
	return clean, err
}

// CleanWithReport is Clean plus a summary of renames, drops and coercions.
func CleanWithReport(raw *Table) (*Table, *CleanReport, error) {
	plan, err := planColumns(raw.columns)
	if err != nil {
		return nil, nil, fmt.Errorf("clean %s: %w", raw.name, err)
	}

	report := &CleanReport{
		Rows:    len(raw.rows),
		Renamed: plan.renamed,
		Dropped: plan.dropped,
	}

	stats := make([]*Coercion, len(plan.steps))
	for i, step := range plan.steps {
		if step.coerce != nil {
			stats[i] = &Coercion{Column: step.column.Name}
		}
	}

	columns := make([]Column, len(plan.steps))
	for i, step := range plan.steps {
		columns[i] = step.column
	}

	rows := make([][]Value, len(raw.rows))
	for r, src := range raw.rows {
		row := make([]Value, len(plan.steps))
		for i, step := range plan.steps {
			cell := src[step.source]
			if step.coerce == nil {
				row[i] = cell
				continue
			}

			text := cell.Format(raw.columns[step.source].Kind)
			num := step.coerce(text)
			row[i] = Value{Number: num}
			stats[i].record(text, num)
		}
		rows[r] = row
	}

	for _, s := range stats {
		if s != nil {
			report.Coercions = append(report.Coercions, *s)
		}
	}

	clean := &Table{
		name:    raw.name,
		digest:  raw.digest,
		columns: columns,
		rows:    rows,
	}
	return clean, report, nil
}

// record tallies one coerced cell.
func (c *Coercion) record(text string, num pgtype.Float8) {
	switch {
	case num.Valid:
		c.Parsed++
	case strings.TrimSpace(text) == "":
		c.Empty++
	default:
		c.Invalid++
		if len(c.Samples) < maxInvalidSamples && !slices.Contains(c.Samples, text) {
			c.Samples = append(c.Samples, text)
		}
	}
}

// columnStep describes how one output column is produced.
type columnStep struct {
	source int
	column Column
	coerce coercer
}

// columnPlan is the resolved output layout for a raw header.
type columnPlan struct {
	steps   []columnStep
	renamed []Rename
	dropped []string
}

// planColumns normalizes names, checks required columns and collisions, and
// decides the kind and source of every output column.
func planColumns(cols []Column) (*columnPlan, error) {
	normalized := make([]string, len(cols))
	sources := make(map[string][]string, len(cols))
	var order []string
	for i, c := range cols {
		n := NormalizeColumnName(c.Name)
		normalized[i] = n
		if _, seen := sources[n]; !seen {
			order = append(order, n)
		}
		sources[n] = append(sources[n], c.Name)
	}

	for _, n := range order {
		if len(sources[n]) > 1 {
			return nil, &CollisionError{Name: n, Sources: sources[n]}
		}
	}

	var missing []string
	for _, req := range requiredColumns {
		if _, ok := sources[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	for from, to := range renames {
		if existing, ok := sources[to]; ok {
			return nil, &CollisionError{Name: to, Sources: append(append([]string(nil), sources[from]...), existing...)}
		}
	}

	plan := &columnPlan{}
	for i, c := range cols {
		name := normalized[i]
		if dropped[name] {
			plan.dropped = append(plan.dropped, name)
			continue
		}

		step := columnStep{source: i, column: Column{Name: name, Kind: c.Kind}}
		if fn, ok := coercers[name]; ok {
			step.coerce = fn
			step.column.Kind = KindNumeric
		}
		if to, ok := renames[name]; ok {
			step.column.Name = to
		}
		if step.column.Name != c.Name {
			plan.renamed = append(plan.renamed, Rename{From: c.Name, To: step.column.Name})
		}
		plan.steps = append(plan.steps, step)
	}

	return plan, nil
}
