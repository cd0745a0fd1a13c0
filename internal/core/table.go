package core

import (
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
)

// ColumnKind describes how the cells of a column are stored.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindNumeric
)

// String returns the kind name used in profiles and JSON output.
func (k ColumnKind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	default:
		return "text"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ColumnKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Column is a named, typed column of a Table.
type Column struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// Value is a single cell.
//
// Text columns carry their literal string in Text. Numeric columns carry
// their value in Number; Number.Valid == false is the missing marker, which
// is distinct from a valid zero and from an empty string.
type Value struct {
	Text   string
	Number pgtype.Float8
}

// TextValue returns a text cell.
func TextValue(s string) Value {
	return Value{Text: s}
}

// NumberValue returns a present numeric cell.
func NumberValue(f float64) Value {
	return Value{Number: pgtype.Float8{Float64: f, Valid: true}}
}

// MissingValue returns a numeric cell holding the missing marker.
func MissingValue() Value {
	return Value{}
}

// Format renders the cell for a column of the given kind. Numbers use the
// shortest representation that round-trips; missing numbers render as "".
func (v Value) Format(kind ColumnKind) string {
	if kind == KindText {
		return v.Text
	}
	if !v.Number.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Number.Float64, 'f', -1, 64)
}

// Table is an ordered, immutable collection of uniformly shaped rows.
// All accessors return copies so callers cannot mutate a shared table.
type Table struct {
	name    string
	digest  string
	columns []Column
	rows    [][]Value
}

// NewTable builds a table from columns and rows. Every row must have
// exactly len(columns) cells. The inputs are copied.
func NewTable(name string, columns []Column, rows [][]Value) (*Table, error) {
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, &RowShapeError{Row: i + 1, Got: len(row), Want: len(columns)}
		}
	}

	t := &Table{
		name:    name,
		columns: append([]Column(nil), columns...),
		rows:    make([][]Value, len(rows)),
	}
	for i, row := range rows {
		t.rows[i] = append([]Value(nil), row...)
	}
	return t, nil
}

// Name returns the source name of the table (usually the file name).
func (t *Table) Name() string { return t.name }

// Digest identifies the content the table was derived from. Loaded tables
// carry the SHA-256 of the source bytes; cleaned tables carry the digest of
// their raw input.
func (t *Table) Digest() string { return t.digest }

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.rows) }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.columns) }

// Columns returns a copy of the column list.
func (t *Table) Columns() []Column {
	return append([]Column(nil), t.columns...)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.columns {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []Value {
	return append([]Value(nil), t.rows[i]...)
}

// Cell returns the value of the named column in row i.
func (t *Table) Cell(i int, column string) (Value, bool) {
	idx, ok := t.ColumnIndex(column)
	if !ok || i < 0 || i >= len(t.rows) {
		return Value{}, false
	}
	return t.rows[i][idx], true
}

// Record returns row i formatted as strings, in column order.
func (t *Table) Record(i int) []string {
	rec := make([]string, len(t.columns))
	for j, c := range t.columns {
		rec[j] = t.rows[i][j].Format(c.Kind)
	}
	return rec
}

// Head returns a table holding at most the first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 || n > len(t.rows) {
		n = len(t.rows)
	}
	return &Table{
		name:    t.name,
		digest:  t.digest,
		columns: t.columns,
		rows:    t.rows[:n:n],
	}
}
