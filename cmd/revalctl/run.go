package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/CONEXUS-dev/research-validation/pkg/config"
	"github.com/CONEXUS-dev/research-validation/pkg/experiment"
	"github.com/CONEXUS-dev/research-validation/pkg/logging"
	"github.com/CONEXUS-dev/research-validation/pkg/results"
)

func newRunCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a full validation experiment",
		Long: `Run the trial sweep described by the configuration file: the forgetting
engine and the random-search baseline each run once per seed, every trial
record is archived, and the statistical comparison is written as a JSON
report and rendered to stdout.

Interrupting the run cancels cleanly between generations.`,
		Example: `  # Run with the default configuration file
  revalctl run

  # Run a specific experiment
  revalctl run --config experiments/nas.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := setupLogging(cfg); err != nil {
				return err
			}

			var store *results.Store
			if cfg.Output.DatabasePath != "" {
				store, err = results.NewStore(cfg.Output.DatabasePath)
				if err != nil {
					return err
				}
				defer store.Close()
			}

			runner, err := experiment.NewRunner(cfg, store)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rep, err := runner.Run(ctx)
			if err != nil {
				return err
			}
			return rep.Render(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "experiment.yaml", "path to the experiment configuration file")
	return cmd
}

func setupLogging(cfg *config.Config) error {
	outputs := []logging.Output{logging.NewConsoleOutput(true, logging.WithColor(true))}
	if cfg.Logging.FilePath != "" {
		fileOut, err := logging.NewFileOutput(cfg.Logging.FilePath)
		if err != nil {
			return err
		}
		outputs = append(outputs, fileOut)
	}

	logging.SetLogger(logging.NewLogger(logging.Config{
		Severity: logging.ParseSeverity(cfg.Logging.Level),
		Outputs:  outputs,
	}))
	return nil
}
