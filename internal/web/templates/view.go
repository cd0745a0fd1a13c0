// Package templates holds the dashboard's templ components. Edit the .templ
// sources and run `templ generate`; the _templ.go files are generated.
package templates

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/suicide-explorer/internal/core"
	"github.com/JonMunkholm/suicide-explorer/internal/core/catalog"
)

// DashboardData is everything the dashboard page shows.
type DashboardData struct {
	Catalog     *catalog.Catalog
	ShowDataset bool
	ShowColumns bool

	RawPreview   *core.Table
	CleanPreview *core.Table
	Report       *core.CleanReport

	// Dataset and Profile are set only when the dataset panel is open.
	Dataset     *core.Table
	DatasetRows int
	Profile     *core.Profile

	ExportName     string
	PublishEnabled bool
}

// PublishSummary describes a completed publish for display.
type PublishSummary struct {
	BatchID     string
	Rows        int
	Existing    bool
	PublishedAt time.Time
}

// Message is the one-line status shown after a publish.
func (p PublishSummary) Message() string {
	if p.Existing {
		return "This dataset was already published " + humanize.Time(p.PublishedAt) + " as batch " + p.BatchID + "."
	}
	return "Published " + humanize.Comma(int64(p.Rows)) + " rows as batch " + p.BatchID + "."
}

// Shape renders "rows x columns" with thousands separators.
func Shape(rows, columns int) string {
	return fmt.Sprintf("%s rows × %d columns", humanize.Comma(int64(rows)), columns)
}

func profileSummary(p core.Profile) string {
	return fmt.Sprintf("%s, %s duplicate rows, %s missing cells", Shape(p.Rows, p.Columns),
		humanize.Comma(int64(p.DuplicateRows)), humanize.Comma(int64(p.MissingTotal())))
}

func formatBound(f *float64) string {
	if f == nil {
		return ""
	}
	return humanize.Commaf(*f)
}

func coercionLine(c core.Coercion) string {
	return fmt.Sprintf("%s: %s parsed, %s empty, %s unparsable",
		c.Column, humanize.Comma(int64(c.Parsed)), humanize.Comma(int64(c.Empty)), humanize.Comma(int64(c.Invalid)))
}

// paragraphs splits blank-line separated text and folds inner whitespace.
func paragraphs(text string) []string {
	var out []string
	for _, para := range strings.Split(strings.TrimSpace(text), "\n\n") {
		if para = strings.Join(strings.Fields(para), " "); para != "" {
			out = append(out, para)
		}
	}
	return out
}

// cell is one rendered table cell. Missing numbers show as "None".
type cell struct {
	Text    string
	Numeric bool
	Missing bool
}

func rowCells(t *core.Table, i int) []cell {
	cols := t.Columns()
	row := t.Row(i)
	cells := make([]cell, len(cols))
	for j, c := range cols {
		switch {
		case c.Kind == core.KindNumeric && !row[j].Number.Valid:
			cells[j] = cell{Numeric: true, Missing: true}
		case c.Kind == core.KindNumeric:
			cells[j] = cell{Text: row[j].Format(c.Kind), Numeric: true}
		default:
			cells[j] = cell{Text: row[j].Text}
		}
	}
	return cells
}

const styles = `
body{font-family:system-ui,sans-serif;margin:0;display:flex;color:#1f2937;background:#f9fafb}
aside{width:14rem;padding:1.5rem;background:#111827;color:#f9fafb;min-height:100vh;box-sizing:border-box}
aside form{margin:0 0 .75rem}
aside button{width:100%;padding:.5rem;border:0;border-radius:.375rem;background:#374151;color:#f9fafb;cursor:pointer}
aside button.active{background:#2563eb}
main{flex:1;padding:2rem;max-width:72rem;overflow-x:auto}
section{margin-bottom:2rem}
table{border-collapse:collapse;font-size:.875rem;background:#fff}
th,td{border:1px solid #e5e7eb;padding:.25rem .5rem;text-align:left;white-space:nowrap}
th{background:#f3f4f6}
td.num{text-align:right;font-variant-numeric:tabular-nums}
td.missing{color:#9ca3af}
.scroll{max-height:28rem;overflow:auto}
.alert{border:1px solid #fca5a5;background:#fef2f2;padding:1rem;border-radius:.375rem}
.muted{color:#6b7280;font-size:.875rem}
a.button,button.primary{display:inline-block;padding:.5rem 1rem;background:#2563eb;color:#fff;border:0;border-radius:.375rem;text-decoration:none;cursor:pointer}
`
