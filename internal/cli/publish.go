package cli

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/suicide-explorer/internal/config"
	"github.com/JonMunkholm/suicide-explorer/internal/core"
	"github.com/JonMunkholm/suicide-explorer/internal/store"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// openStore loads the environment configuration and connects to the publish
// database, applying pending migrations.
func openStore(ctx context.Context) (*store.Store, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Database.Enabled() {
		return nil, nil, store.ErrNotConfigured
	}

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}
	return st, cfg, nil
}

func newPublishCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Store the cleaned table in PostgreSQL",
		Long: `Clean the dataset and copy it into the cleaned_suicide_stats table of
the database named by DATABASE_URL. Publishing the same file twice returns
the existing batch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, cfg, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			clean, err := a.service.Clean(cmd.Context())
			if err != nil {
				return err
			}

			ctx := core.ContextWithOrigin(cmd.Context(), "cli")
			ctx, cancel := context.WithTimeout(ctx, cfg.Database.PublishTimeout)
			defer cancel()

			batch, err := st.Publish(ctx, clean)
			if err != nil {
				return err
			}

			verb := "published"
			if batch.Existing {
				verb = "already published"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s rows as batch %s\n",
				verb, humanize.Comma(int64(batch.Rows)), batch.ID)
			return err
		},
	}
}

func newBatchesCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "batches",
		Short: "List recent publish batches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			st, _, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			batches, err := st.Batches(cmd.Context(), limit)
			if err != nil {
				return err
			}

			g := grid{
				header:  []string{"id", "source", "rows", "digest", "origin", "published"},
				numeric: map[int]bool{2: true},
				data:    batches,
			}
			for _, b := range batches {
				g.rows = append(g.rows, []string{
					b.ID.String(),
					b.SourceName,
					humanize.Comma(int64(b.Rows)),
					shortDigest(b.Digest),
					b.Origin,
					humanize.Time(b.PublishedAt),
				})
			}
			return g.render(cmd.OutOrStdout(), a.format)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum batches to list")
	return cmd
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
