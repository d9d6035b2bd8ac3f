package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"discoseg/internal/classify"
	"discoseg/internal/segmenter"
)

// segFlags is shared by the corpus-reading subcommands. A YAML config file
// supplies defaults; explicitly set flags win.
var segFlags struct {
	variant    string
	treeSuffix string
	segSuffix  string
	outSuffix  string
	encoding   string
	config     string
	modelType  string
	maxDepth   int
	minLeaf    int
}

func addSegmenterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&segFlags.variant, "type", "", "Segmenter variant (rule, constituency, dependency); default constituency")
	f.StringVar(&segFlags.treeSuffix, "tree-suffix", "", "Tree file suffix; default per variant")
	f.StringVar(&segFlags.segSuffix, "seg-suffix", "", "Segment file suffix; default .seg")
	f.StringVar(&segFlags.outSuffix, "out-suffix", "", "Output file suffix; default .seg")
	f.StringVar(&segFlags.encoding, "encoding", "", "Input text encoding (utf-8, latin-1, windows-1251, windows-1252)")
	f.StringVar(&segFlags.config, "config", "", "YAML config file; flags override file values")
}

func addModelFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&segFlags.modelType, "model-type", "", "Classifier backend (dtree, majority); default dtree")
	f.IntVar(&segFlags.maxDepth, "max-depth", 0, "Decision tree depth limit; 0 = default")
	f.IntVar(&segFlags.minLeaf, "min-leaf", 0, "Minimum samples per decision tree leaf; 0 = default")
}

// buildSegmenter resolves the YAML config and flag overrides into a bound
// segmenter configuration.
func buildSegmenter() (segmenter.Config, error) {
	fc := &segmenter.FileConfig{}
	if segFlags.config != "" {
		loaded, err := segmenter.LoadFileConfig(segFlags.config)
		if err != nil {
			return segmenter.Config{}, err
		}
		fc = loaded
	}

	variant := firstOf(segFlags.variant, fc.Variant, string(segmenter.Constituency))
	return segmenter.New(segmenter.Variant(variant), segmenter.Options{
		TreeSuffix: firstOf(segFlags.treeSuffix, fc.TreeSuffix),
		SegSuffix:  firstOf(segFlags.segSuffix, fc.SegSuffix),
		OutSuffix:  firstOf(segFlags.outSuffix, fc.OutSuffix),
		Encoding:   firstOf(segFlags.encoding, fc.Encoding),
	})
}

// buildModel constructs a fresh classifier backend for training modes.
func buildModel() (classify.Classifier, error) {
	fc := &segmenter.FileConfig{}
	if segFlags.config != "" {
		loaded, err := segmenter.LoadFileConfig(segFlags.config)
		if err != nil {
			return nil, err
		}
		fc = loaded
	}

	maxDepth := segFlags.maxDepth
	if maxDepth == 0 {
		maxDepth = fc.MaxDepth
	}
	minLeaf := segFlags.minLeaf
	if minLeaf == 0 {
		minLeaf = fc.MinLeaf
	}

	switch firstOf(segFlags.modelType, "dtree") {
	case "dtree":
		return classify.NewDecisionTree(maxDepth, minLeaf), nil
	case "majority":
		return &classify.Majority{}, nil
	default:
		return nil, fmt.Errorf("unknown model type %q", segFlags.modelType)
	}
}

func firstOf(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
