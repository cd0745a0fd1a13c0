package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/JonMunkholm/suicide-explorer/internal/core"
	"github.com/JonMunkholm/suicide-explorer/internal/core/catalog"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newCleanCommand(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Write the cleaned dataset as CSV",
		Long: `Load the dataset, run the cleaner and write the cleaned table as CSV.

A summary of renamed, dropped and coerced columns goes to stderr.`,
		Example: `  # Write cleaned_suicide_data.csv
  explorer clean --out cleaned_suicide_data.csv

  # Stream to stdout
  explorer clean > cleaned.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.service.Cleaned(cmd.Context())
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				if err := core.WriteCSV(cmd.OutOrStdout(), res.Table); err != nil {
					return err
				}
			} else if err := writeFile(out, res.Table); err != nil {
				return err
			}

			printReport(cmd.ErrOrStderr(), res.Report)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output file ("+core.ExportFileName+" style); stdout when empty")
	return cmd
}

func writeFile(path string, t *core.Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return core.WriteCSV(f, t)
}

func printReport(w io.Writer, r *core.CleanReport) {
	_, _ = fmt.Fprintf(w, "cleaned %s rows\n", humanize.Comma(int64(r.Rows)))
	for _, rn := range r.Renamed {
		_, _ = fmt.Fprintf(w, "  renamed  %q -> %q\n", rn.From, rn.To)
	}
	for _, d := range r.Dropped {
		_, _ = fmt.Fprintf(w, "  dropped  %q\n", d)
	}
	for _, c := range r.Coercions {
		_, _ = fmt.Fprintf(w, "  coerced  %q: %s parsed, %s missing", c.Column,
			humanize.Comma(int64(c.Parsed)), humanize.Comma(int64(c.Missing())))
		if len(c.Samples) > 0 {
			_, _ = fmt.Fprintf(w, " (e.g. %s)", strings.Join(quoteAll(c.Samples), ", "))
		}
		_, _ = fmt.Fprintln(w)
	}
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strconv.Quote(s)
	}
	return out
}

// tableFlag selects the raw or clean table.
func (a *app) table(cmd *cobra.Command, which string) (*core.Table, error) {
	switch which {
	case "raw":
		return a.service.Raw(cmd.Context())
	case "clean":
		return a.service.Clean(cmd.Context())
	default:
		return nil, fmt.Errorf("unknown table %q (want raw or clean)", which)
	}
}

func newDescribeCommand(a *app) *cobra.Command {
	var which string

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Show shape, kinds and missing counts per column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := a.table(cmd, which)
			if err != nil {
				return err
			}
			p := core.Describe(t)

			if a.format == "table" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s rows x %d columns, %s duplicate rows, %s missing cells\n",
					which, humanize.Comma(int64(p.Rows)), p.Columns,
					humanize.Comma(int64(p.DuplicateRows)), humanize.Comma(int64(p.MissingTotal())))
			}
			return profileGrid(p).render(cmd.OutOrStdout(), a.format)
		},
	}

	cmd.Flags().StringVar(&which, "table", "clean", "Table to describe (raw|clean)")
	return cmd
}

func profileGrid(p core.Profile) grid {
	g := grid{
		header:  []string{"column", "kind", "non-null", "missing", "distinct", "min", "max"},
		numeric: map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true},
		data:    p,
	}
	for _, f := range p.Fields {
		g.rows = append(g.rows, []string{
			f.Name,
			f.Kind.String(),
			humanize.Comma(int64(p.Rows - f.Missing)),
			humanize.Comma(int64(f.Missing)),
			humanize.Comma(int64(f.Distinct)),
			formatBound(f.Min),
			formatBound(f.Max),
		})
	}
	return g
}

func formatBound(f *float64) string {
	if f == nil {
		return ""
	}
	return humanize.Commaf(*f)
}

func newPreviewCommand(a *app) *cobra.Command {
	var (
		which string
		rows  int
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the first rows of the raw or clean table",
		Example: `  explorer preview --table raw --rows 5
  explorer preview -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rows < 0 {
				return fmt.Errorf("--rows must not be negative")
			}
			t, err := a.table(cmd, which)
			if err != nil {
				return err
			}
			return previewGrid(t.Head(rows)).render(cmd.OutOrStdout(), a.format)
		},
	}

	cmd.Flags().StringVar(&which, "table", "clean", "Table to preview (raw|clean)")
	cmd.Flags().IntVarP(&rows, "rows", "n", 10, "Number of rows")
	return cmd
}

func previewGrid(t *core.Table) grid {
	cols := t.Columns()
	g := grid{
		header:  t.ColumnNames(),
		numeric: make(map[int]bool),
	}
	for j, c := range cols {
		g.numeric[j] = c.Kind == core.KindNumeric
	}

	records := make([]map[string]any, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		row := t.Row(i)
		cells := make([]string, len(cols))
		record := make(map[string]any, len(cols))
		for j, c := range cols {
			v := row[j]
			switch {
			case c.Kind == core.KindText:
				cells[j] = v.Text
				record[c.Name] = v.Text
			case v.Number.Valid:
				cells[j] = v.Format(c.Kind)
				record[c.Name] = v.Number.Float64
			default:
				cells[j] = "None"
				record[c.Name] = nil
			}
		}
		g.rows = append(g.rows, cells)
		records = append(records, record)
	}
	g.data = records
	return g
}

func newColumnsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "Describe each column of the dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			docs := catalog.Default().Columns
			g := grid{header: []string{"column", "description"}, data: docs}
			for _, d := range docs {
				g.rows = append(g.rows, []string{d.Name, d.Description})
			}
			return g.render(cmd.OutOrStdout(), a.format)
		},
	}
}

func newIssuesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "issues",
		Short: "List known data quality issues and their fixes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			issues := catalog.Default().Issues
			g := grid{header: []string{"column", "issue", "recommended fix"}, data: issues}
			for _, is := range issues {
				g.rows = append(g.rows, []string{is.Column, is.Issue, is.Fix})
			}
			return g.render(cmd.OutOrStdout(), a.format)
		},
	}
}

func newStepsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the cleaning steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps := catalog.Default().Steps
			g := grid{header: []string{"#", "step", "detail"}, numeric: map[int]bool{0: true}, data: steps}
			for i, s := range steps {
				g.rows = append(g.rows, []string{strconv.Itoa(i + 1), s.Title, s.Detail})
			}
			return g.render(cmd.OutOrStdout(), a.format)
		},
	}
}
