// cmd/tools/model-trainer/main.go
//
// model-trainer trains, inspects and activates success models offline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scholarship-engine/internal/common/logger"
)

var logLevel string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "model-trainer",
		Short: "Train and manage scholarship success models",
		Long: `Offline tooling for the success-prediction model.

Available subcommands:
  train    - Fit a model from a JSON corpus and write it to a file
  inspect  - Validate a model file and print its parameters
  activate - Mark a stored model version active and notify replicas`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newTrainCmd(), newInspectCmd(), newActivateCmd())
	return root
}

func cliLogger() logger.Logger {
	return logger.NewStructured(logLevel, "console")
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
