package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "revalctl",
	Short: "Run and verify forgetting-engine validation experiments",
	Long: `revalctl drives the research-validation pipeline end to end: it runs the
forgetting-engine and random-search trial sweeps described by a YAML
configuration, archives every trial record, performs the statistical
comparison, and writes the validation report.

The CLI provides:
- Seeded, reproducible trial sweeps for both search methods
- Checksummed per-seed trial archives and a SQLite results database
- Statistical validation with multiple-testing correction
- Integrity verification of previously archived runs`,
	Version: "0.1.0",
}

func main() {
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newVerifyCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
