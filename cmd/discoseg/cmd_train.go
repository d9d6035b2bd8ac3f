package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"discoseg/internal/crossval"
)

var trainCmd = &cobra.Command{
	Use:   "train <model-path> <tree-dir> <seg-dir>",
	Short: "Train a segment classifier on the full corpus",
	Args:  cobra.ExactArgs(3),
	RunE:  runTrain,
}

func init() {
	addSegmenterFlags(trainCmd)
	addModelFlags(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	seg, err := buildSegmenter()
	if err != nil {
		return err
	}
	model, err := buildModel()
	if err != nil {
		return err
	}

	cfg := crossval.DefaultRunConfig(args[1], args[2], args[0], seg, model)
	n, err := crossval.Train(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("trained %s on %d items, model written to %s\n", model.Name(), n, args[0])
	return nil
}
