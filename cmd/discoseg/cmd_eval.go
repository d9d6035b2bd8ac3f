package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"discoseg/internal/classify"
	"discoseg/internal/crossval"
)

var testCmd = &cobra.Command{
	Use:   "test <model-path> <tree-dir> <seg-dir>",
	Short: "Score a trained model against a gold-labeled corpus",
	Args:  cobra.ExactArgs(3),
	RunE:  runTest,
}

func init() {
	addSegmenterFlags(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	seg, err := buildSegmenter()
	if err != nil {
		return err
	}
	model, err := classify.Load(args[0])
	if err != nil {
		return err
	}

	cfg := crossval.DefaultRunConfig(args[1], args[2], "", seg, model)
	res, err := crossval.Evaluate(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("items          %d\n", res.Items)
	fmt.Printf("macro F1       %.4f\n", res.MacroF1)
	fmt.Printf("micro F1       %.4f\n", res.MicroF1)
	fmt.Printf("detection F1   %.4f  (tp=%d fp=%d fn=%d)\n",
		res.Counts.F1(), res.Counts.TP, res.Counts.FP, res.Counts.FN)
	return nil
}
