package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"AINewsBrief/internal/app"
	"AINewsBrief/internal/config"
	"AINewsBrief/internal/logging"
)

const exitInterrupted = 130

var (
	configPath string
	dryRun     bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd().ExecuteContext(ctx)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		fmt.Fprintln(os.Stderr, "interrupted")
		stop()
		os.Exit(exitInterrupted)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ainewsbrief",
		Short:         "Collect, score and deliver a daily AI news brief",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := build()
			if err != nil {
				return err
			}
			defer application.Close()

			state, err := application.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: fetched %d, admitted %d, deep %d, delivered %t, errors %d\n",
				state.RunID, len(state.Fetched), len(state.Admitted), len(state.Deep), state.Delivered, len(state.Errors))
			if state.ReportPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "report saved to %s\n", state.ReportPath)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML config (default $AI_NEWS_BRIEF_CONFIG)")
	root.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Render and save the report without sending it or recording history")

	root.AddCommand(scheduleCmd(), historyCmd())
	return root
}

func scheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the brief on the configured cron expression until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := build()
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Schedule(cmd.Context())
		},
	}
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or prune the delivered-article history",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show how many articles are remembered",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildHistory()
			if err != nil {
				return err
			}
			defer application.Close()

			stats, err := application.History().Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "records: %d\n", stats.Records)
			if stats.Records > 0 {
				fmt.Fprintf(out, "oldest:  %s\n", stats.Oldest.Format(time.RFC3339))
				fmt.Fprintf(out, "newest:  %s\n", stats.Newest.Format(time.RFC3339))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Drop records older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildHistory()
			if err != nil {
				return err
			}
			defer application.Close()

			removed, err := application.History().Prune(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d records\n", removed)
			return nil
		},
	})
	return cmd
}

func loadConfig() config.Config {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

func build() (*app.Application, error) {
	cfg := loadConfig()
	return app.New(cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format), app.WithDryRun(dryRun))
}

func buildHistory() (*app.Application, error) {
	cfg := loadConfig()
	return app.NewHistoryOnly(cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format))
}
