package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"discoseg/internal/classify"
	"discoseg/internal/logging"
	"discoseg/internal/segmenter"
)

var segmentFlags struct {
	outDir string
}

var segmentCmd = &cobra.Command{
	Use:   "segment <model-path> <tree-dir>",
	Short: "Segment unlabeled documents with a trained model",
	Long: `Runs a trained classifier over every tree file in the directory and
writes one bracketed segmentation per document. Without --out the
results go to standard output.`,
	Args: cobra.ExactArgs(2),
	RunE: runSegment,
}

func init() {
	segmentCmd.Flags().StringVar(&segmentFlags.outDir, "out", "", "Output directory; empty = stdout")
	addSegmenterFlags(segmentCmd)
}

func runSegment(cmd *cobra.Command, args []string) error {
	logger := logging.New("segment")

	seg, err := buildSegmenter()
	if err != nil {
		return err
	}
	model, err := classify.Load(args[0])
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(args[1])
	if err != nil {
		return fmt.Errorf("read tree dir: %w", err)
	}

	if segmentFlags.outDir != "" {
		if err := os.MkdirAll(segmentFlags.outDir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		base, ok := strings.CutSuffix(e.Name(), seg.TreeSuffix)
		if !ok {
			continue
		}
		out, err := segmenter.Reconstruct(seg, model, filepath.Join(args[1], e.Name()))
		if err != nil {
			return fmt.Errorf("segment %s: %w", e.Name(), err)
		}
		if segmentFlags.outDir == "" {
			fmt.Print(out)
		} else {
			path := filepath.Join(segmentFlags.outDir, base+seg.OutSuffix)
			if err := os.WriteFile(path, []byte(out), 0644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
		}
		n++
	}
	logger.Info("segmentation complete", "documents", n)
	return nil
}
