package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/trueinf/Repushieldv7-sub000/internal/app"
	"github.com/trueinf/Repushieldv7-sub000/internal/config"
	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
	"github.com/trueinf/Repushieldv7-sub000/internal/logging"
)

var version = "dev"

var (
	initSchema  bool
	statusLimit int
	configFile  string
)

func main() {
	root := &cobra.Command{
		Use:           "repushield",
		Short:         "Reputation monitoring ingestion and analysis pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a single orchestration for the active configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				if initSchema {
					if err := a.InitSchema(ctx); err != nil {
						return fmt.Errorf("init schema: %w", err)
					}
				}

				result, err := a.RunOnce(ctx)
				if err != nil {
					return err
				}

				fmt.Printf("run %s: fetched=%d stored=%d errors=%d duration=%s\n",
					result.RunID, result.TotalFetched, result.TotalStored,
					len(result.Errors), result.Duration.Round(time.Millisecond))
				for _, e := range result.Errors {
					fmt.Printf("  error: %s\n", e)
				}
				return nil
			})
		},
	}
	runCmd.Flags().BoolVar(&initSchema, "init", false, "create database tables before running")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run orchestrations on a cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return withApp(ctx, func(ctx context.Context, a *app.Application) error {
				if initSchema {
					if err := a.InitSchema(ctx); err != nil {
						return fmt.Errorf("init schema: %w", err)
					}
				}
				return a.Serve(ctx)
			})
		},
	}
	serveCmd.Flags().BoolVar(&initSchema, "init", false, "create database tables before serving")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent pipeline stage outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				stages, err := a.RecentStages(ctx, statusLimit)
				if err != nil {
					return fmt.Errorf("load stage history: %w", err)
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "STARTED\tSTAGE\tSTATUS\tFETCHED\tSTORED\tERROR")
				for _, s := range stages {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
						s.StartedAt.Format(time.RFC3339), s.Stage, s.Status,
						s.Fetched, s.Stored, s.ErrorText)
				}
				return w.Flush()
			})
		},
	}
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "number of stage entries to show")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage monitoring configurations",
	}

	configApplyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Create a configuration from a YAML file and make it active",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(configFile)
			if err != nil {
				return fmt.Errorf("read %s: %w", configFile, err)
			}
			var mc domain.Configuration
			if err := yaml.Unmarshal(raw, &mc); err != nil {
				return fmt.Errorf("parse %s: %w", configFile, err)
			}

			return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				created, err := a.Configurations().Create(ctx, mc)
				if err != nil {
					return fmt.Errorf("create configuration: %w", err)
				}
				if err := a.Configurations().SetActive(ctx, created.ID); err != nil {
					return fmt.Errorf("activate configuration: %w", err)
				}
				fmt.Printf("configuration %s for %q is now active\n", created.ID, created.EntityName)
				return nil
			})
		},
	}
	configApplyCmd.Flags().StringVarP(&configFile, "file", "f", "", "YAML file with the configuration")
	_ = configApplyCmd.MarkFlagRequired("file")

	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the active configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				mc, err := a.Configurations().Active(ctx)
				if err != nil {
					return fmt.Errorf("load active configuration: %w", err)
				}
				out, err := yaml.Marshal(mc)
				if err != nil {
					return err
				}
				fmt.Print(string(out))
				return nil
			})
		},
	}

	configCmd.AddCommand(configApplyCmd, configShowCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	root.AddCommand(runCmd, serveCmd, statusCmd, configCmd, versionCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func withApp(ctx context.Context, fn func(context.Context, *app.Application) error) error {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.JSON)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
