package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"discoseg/internal/crossval"
	"discoseg/internal/store"
)

var cvFlags struct {
	folds    int
	outDir   string
	parallel int
	history  string
}

var cvCmd = &cobra.Command{
	Use:   "cv <model-path> <tree-dir> <seg-dir>",
	Short: "Run document-grouped k-fold cross-validation",
	Long: `Cross-validates a segment classifier over a corpus. Documents are
partitioned into folds; items from one document never straddle the
train/test split. The best-scoring fold's model is persisted to the
model path.`,
	Args: cobra.ExactArgs(3),
	RunE: runCV,
}

func init() {
	f := cvCmd.Flags()
	f.IntVar(&cvFlags.folds, "folds", crossval.DefaultFolds, "Requested fold count; clamped to the document count")
	f.StringVar(&cvFlags.outDir, "out", "", "Write reconstructed segmentations for test documents to this directory")
	f.IntVar(&cvFlags.parallel, "parallel", 1, "Feature extraction workers (1 = serial; folds always run in order)")
	f.StringVar(&cvFlags.history, "history", "", "SQLite run-history path; empty = no history")
	addSegmenterFlags(cvCmd)
	addModelFlags(cvCmd)
}

func runCV(cmd *cobra.Command, args []string) error {
	seg, err := buildSegmenter()
	if err != nil {
		return err
	}
	model, err := buildModel()
	if err != nil {
		return err
	}

	cfg := crossval.DefaultRunConfig(args[1], args[2], args[0], seg, model)
	cfg.Folds = cvFlags.folds
	cfg.OutDir = cvFlags.outDir
	cfg.Parallel = cvFlags.parallel

	if cvFlags.history != "" {
		st, err := store.Open(cvFlags.history)
		if err != nil {
			return err
		}
		defer st.Close()
		cfg.History = st
	}

	report, err := crossval.Run(cmd.Context(), cfg)
	if errors.Is(err, crossval.ErrTooFewDocuments) {
		// Expected for small corpora; distinguishable from a crash.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err != nil {
		return err
	}

	fmt.Print(crossval.FormatReport(report))
	return nil
}
