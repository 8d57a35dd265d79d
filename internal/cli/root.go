// Package cli builds the newsfetcher command tree.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"NewsFetcher/internal/app"
	"NewsFetcher/internal/config"
	"NewsFetcher/internal/logging"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	logLevel   string
	version    string
}

// NewRootCommand returns the root command with every subcommand attached.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{version: version}

	root := &cobra.Command{
		Use:   "newsfetcher",
		Short: "Fetch trucking and logistics news into a pending queue",
		Long: `newsfetcher pulls RSS/Atom feeds and listing pages, keeps what looks like
trucking or logistics news, and stores it as pending records for review.

It tracks per-source health, disables sources that keep refusing access,
and probes disabled sources again once they have cooled down.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: $NEWSFETCHER_CONFIG)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.AddCommand(
		newRunCommand(opts),
		newServeCommand(opts),
		newRecoverCommand(opts),
		newHealthCommand(opts),
		newTestSourceCommand(opts),
		newValidateCommand(opts),
		newVersionCommand(opts),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute(version string) error {
	return NewRootCommand(version).Execute()
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(o.configPath)
	}
	return config.Load()
}

// withApp loads config, builds the application and closes it after fn.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.Application) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	logger := logging.NewWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	application, err := app.New(ctx, cfg, logger, o.version)
	if err != nil {
		return err
	}
	defer application.Close()

	return fn(ctx, application)
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one fetch over every enabled source and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				report, err := a.Run(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled fetches and the HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				return a.Serve(ctx)
			})
		},
	}
}

func newRecoverCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Probe disabled sources past their cooldown and re-enable the ones that answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				report, err := a.Sweeper.Sweep(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
}

func newHealthCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Print the source health report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				report, err := a.Tracker.Report(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
}

func newTestSourceCommand(opts *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "test-source <id> | --all",
		Short: "Preview a source without saving anything or touching its health",
		Args: func(_ *cobra.Command, args []string) error {
			switch {
			case all && len(args) > 0:
				return errors.New("pass either a source id or --all")
			case !all && len(args) != 1:
				return errors.New("a source id is required unless --all is set")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if !all {
				parsed, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil || parsed <= 0 {
					return fmt.Errorf("invalid source id %q", args[0])
				}
				id = parsed
			}

			return opts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				if all {
					summary, err := a.Diagnostics.TestEnabled(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), summary)
				}
				result, err := a.Diagnostics.TestSourceByID(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "test every enabled source")
	return cmd
}

func newValidateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <url>",
		Short: "Check a feed URL before registering it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				result := a.Diagnostics.ValidateFeedURL(ctx, args[0])
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				if !result.IsValid {
					return fmt.Errorf("feed %s is not valid", args[0])
				}
				return nil
			})
		},
	}
}

func newVersionCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "newsfetcher %s\n", opts.version)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
