package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"discoseg/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "discoseg",
	Short: "Discourse segmentation training, cross-validation, and inference",
	Long: "Discoseg trains tree-based discourse segment classifiers and evaluates\n" +
		"them with document-grouped k-fold cross-validation.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return logging.Setup(logging.Options{
			Level:  rootFlags.logLevel,
			Format: rootFlags.logFormat,
		})
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(cvCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(segmentCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
