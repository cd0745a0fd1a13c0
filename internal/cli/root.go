// Package cli provides the command-line interface for the suicide dataset
// explorer. It runs the same loader, cleaner and exporter as the dashboard.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JonMunkholm/suicide-explorer/internal/core"
	"github.com/JonMunkholm/suicide-explorer/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// app holds state shared by every subcommand of one invocation.
type app struct {
	dataPath string
	logLevel string
	format   string
	service  *core.Service
}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "explorer",
		Short: "Explore and clean the suicide statistics dataset",
		Long: `explorer loads the suicide statistics CSV, shows its raw and cleaned
forms, and exports or publishes the cleaned table.

The data file defaults to DATA_PATH, or ./sucide_case.csv when unset.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			return a.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.dataPath, "data", "d", core.DefaultDataPath, "Path to the dataset CSV")
	flags.StringVar(&a.logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
	flags.StringVarP(&a.format, "output", "o", "table", "Output format (table|markdown|csv|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return outputFormats, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		newCleanCommand(a),
		newDescribeCommand(a),
		newPreviewCommand(a),
		newColumnsCommand(a),
		newIssuesCommand(a),
		newStepsCommand(a),
		newPublishCommand(a),
		newBatchesCommand(a),
		newVersionCommand(),
	)

	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err for a terminal user. Errors with a known code get
// the friendly message and suggested action above the technical detail.
func reportError(w io.Writer, err error) {
	if !core.IsUserFacing(err) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}

	ue := core.NewUserError(err)
	fmt.Fprintf(w, "Error: %s (Code: %s)\n", ue, ue.User.Code)
	if ue.User.Action != "" {
		fmt.Fprintf(w, "  %s\n", ue.User.Action)
	}
	fmt.Fprintf(w, "  %v\n", ue.Technical)
}

func (a *app) setup(cmd *cobra.Command) error {
	if !validFormat(a.format) {
		return fmt.Errorf("unknown output format %q", a.format)
	}

	slog.SetDefault(logging.New(cmd.ErrOrStderr(), a.logLevel, "text"))

	a.dataPath = resolveDataPath(cmd.Flags(), a.dataPath)
	a.service = core.NewService(a.dataPath)
	slog.Debug("using dataset", "path", a.dataPath)
	return nil
}

// resolveDataPath prefers an explicit --data flag, then DATA_PATH.
func resolveDataPath(flags *pflag.FlagSet, current string) string {
	if f := flags.Lookup("data"); f != nil && f.Changed {
		return current
	}
	if env := os.Getenv("DATA_PATH"); env != "" {
		return env
	}
	return current
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "explorer %s (%s)\n", Version, GitCommit)
			return err
		},
	}
}
