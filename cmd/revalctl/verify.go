package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CONEXUS-dev/research-validation/pkg/config"
	"github.com/CONEXUS-dev/research-validation/pkg/errors"
	"github.com/CONEXUS-dev/research-validation/pkg/repro"
	"github.com/CONEXUS-dev/research-validation/pkg/results"
)

func newVerifyCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the integrity of archived trial records",
		Long: `Re-derive the checksum of every archived trial record for the configured
seed sweep and report which trials are verified, failed, or missing.

A run is reproducible when every seed of both methods verifies.`,
		Example: `  # Verify the archive of the default configuration
  revalctl verify

  # Verify a specific experiment's archive
  revalctl verify --config experiments/nas.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			seeds := make([]int64, cfg.Experiment.Trials)
			for i := range seeds {
				seeds[i] = cfg.Experiment.SeedBase + int64(i)
			}

			out := cmd.OutOrStdout()
			clean := true
			for _, method := range []string{results.MethodForgettingEngine, results.MethodRandomSearch} {
				summary := repro.VerifyDomain(cfg.Output.DataDir, cfg.Experiment.Domain, method, seeds)
				fmt.Fprintf(out, "%s / %s: %d verified, %d failed, %d missing (rate %.0f%%)\n",
					summary.Domain, summary.Method,
					summary.Verified, summary.Failed, summary.Missing,
					summary.ReproducibilityRate*100)
				for _, trial := range summary.Trials {
					if trial.Status == repro.StatusVerified {
						continue
					}
					fmt.Fprintf(out, "  seed %d: %s\n", trial.Seed, trial.Status)
				}
				if summary.Failed > 0 || summary.Missing > 0 {
					clean = false
				}
			}

			if !clean {
				return errors.New(errors.ChecksumMismatch, "archive verification failed")
			}
			fmt.Fprintln(out, "All archived trials verified.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "experiment.yaml", "path to the experiment configuration file")
	return cmd
}
