package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"discoseg/internal/format"
	"discoseg/internal/store"
)

var runsFlags struct {
	history string
	limit   int
	output  string
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded cross-validation runs",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	f := runsCmd.Flags()
	f.StringVar(&runsFlags.history, "history", "", "SQLite run-history path")
	f.IntVar(&runsFlags.limit, "limit", 20, "Maximum runs to list, newest first")
	f.StringVar(&runsFlags.output, "output", "ascii", "Table format (ascii, markdown, tsv)")
	runsCmd.MarkFlagRequired("history")
}

func runRuns(cmd *cobra.Command, _ []string) error {
	mode, err := parseMode(runsFlags.output)
	if err != nil {
		return err
	}

	st, err := store.Open(runsFlags.history)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(runsFlags.limit)
	if err != nil {
		return err
	}

	t := format.NewTable(mode)
	t.Header("id", "started", "variant", "docs", "folds", "macro", "micro", "det_f1", "best")
	for _, r := range runs {
		t.Row(r.ID, r.Started, r.Variant, r.Documents, r.Folds,
			fmt.Sprintf("%.4f±%.4f", r.MacroMean, r.MacroStddev),
			fmt.Sprintf("%.4f±%.4f", r.MicroMean, r.MicroStddev),
			fmt.Sprintf("%.4f", r.DetectionF1),
			fmt.Sprintf("#%d %.4f", r.BestFold, r.BestMacroF1))
	}
	fmt.Println(t.String())
	return nil
}

func parseMode(s string) (format.Mode, error) {
	switch s {
	case "ascii":
		return format.ASCII, nil
	case "markdown":
		return format.Markdown, nil
	case "tsv":
		return format.TSV, nil
	}
	return 0, fmt.Errorf("unknown output format %q", s)
}
