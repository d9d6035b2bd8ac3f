// Package segmenter binds a segmenter variant to its tree reader, segment
// reader, alignment function, and feature generator. The configuration
// record replaces per-variant global switches: the loader and orchestrator
// receive a Config at construction time.
package segmenter

import (
	"fmt"
	"sort"
	"strings"

	"discoseg/internal/classify"
	"discoseg/internal/corpus"
	"discoseg/internal/metrics"
	"discoseg/internal/tree"
)

// Variant selects the segmenter family.
type Variant string

const (
	Rule         Variant = "rule"
	Constituency Variant = "constituency"
	Dependency   Variant = "dependency"
)

// FeatureFunc derives a sparse feature vector from one elementary tree.
type FeatureFunc func(n *tree.Node) classify.FeatureVector

// Config binds one segmenter variant's collaborators. Zero-value fields in
// Options fall back to per-variant defaults.
type Config struct {
	Variant      Variant
	TreeSuffix   string
	SegSuffix    string
	OutSuffix    string
	Encoding     string
	ReadTrees    corpus.TreeReader
	ReadSegments corpus.SegmentReader
	Align        corpus.AlignFunc
	Features     FeatureFunc
}

// Options overrides Config defaults.
type Options struct {
	TreeSuffix string
	SegSuffix  string
	OutSuffix  string
	Encoding   string
}

// New returns the Config for a variant.
func New(v Variant, opts Options) (Config, error) {
	cfg := Config{
		Variant:    v,
		TreeSuffix: opts.TreeSuffix,
		SegSuffix:  orDefault(opts.SegSuffix, ".seg"),
		OutSuffix:  orDefault(opts.OutSuffix, ".seg"),
		Encoding:   opts.Encoding,
	}
	if _, err := decode(nil, cfg.Encoding); err != nil {
		return Config{}, err
	}

	switch v {
	case Rule:
		cfg.TreeSuffix = orDefault(cfg.TreeSuffix, ".txt")
		cfg.ReadTrees = lineTreeReader(cfg.Encoding)
		cfg.Features = ruleFeatures
	case Constituency:
		cfg.TreeSuffix = orDefault(cfg.TreeSuffix, ".tree")
		cfg.ReadTrees = bracketedReader(cfg.Encoding)
		cfg.Features = constituencyFeatures
	case Dependency:
		cfg.TreeSuffix = orDefault(cfg.TreeSuffix, ".conll")
		cfg.ReadTrees = dependencyReader(cfg.Encoding)
		cfg.Features = dependencyFeatures
	default:
		return Config{}, fmt.Errorf("unknown segmenter variant %q", v)
	}
	cfg.ReadSegments = segmentReader(cfg.Encoding)
	cfg.Align = AlignByOffset
	return cfg, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// AlignByOffset matches elementary trees to gold labels by leaf-token
// offset. A tree spanning [off, off+n) takes the first label recorded inside
// that range, defaulting to the sentinel "none". It fails when fewer than
// half of the recorded labels land inside any tree's range: the two token
// streams do not describe the same text.
func AlignByOffset(trees map[int]*tree.Node, labels map[int]string) ([]corpus.Item, error) {
	offsets := make([]int, 0, len(trees))
	for off := range trees {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)

	covered := 0
	var items []corpus.Item
	for _, off := range offsets {
		n := trees[off]
		width := len(n.Leaves())
		label := metrics.NoneLabel
		for k := off; k < off+width; k++ {
			if l, ok := labels[k]; ok {
				if label == metrics.NoneLabel {
					label = l
				}
				covered++
			}
		}
		items = append(items, corpus.Item{Tree: n, Label: label})
	}

	if len(labels) > 0 && covered*2 < len(labels) {
		return nil, fmt.Errorf("token streams diverge: %d of %d labels outside tree ranges",
			len(labels)-covered, len(labels))
	}
	return items, nil
}

// Reconstruct re-segments the raw input of treePath in inference mode and
// renders the flat bracketed output: a (TEXT ... ) wrapper with one entry
// per elementary unit, labeled units bracketed with their predicted class.
func Reconstruct(cfg Config, model classify.Classifier, treePath string) (string, error) {
	trees, err := cfg.ReadTrees(treePath)
	if err != nil {
		return "", err
	}
	offsets := make([]int, 0, len(trees))
	for off := range trees {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)

	feats := make([]classify.FeatureVector, len(offsets))
	for i, off := range offsets {
		feats[i] = cfg.Features(trees[off])
	}
	predicted := model.Predict(feats)

	var b strings.Builder
	b.WriteString("(TEXT")
	for i, off := range offsets {
		text := strings.Join(trees[off].Leaves(), " ")
		if metrics.IsNone(predicted[i]) {
			fmt.Fprintf(&b, "\n  %s", text)
		} else {
			fmt.Fprintf(&b, "\n  (%s %s)", strings.ToUpper(predicted[i]), text)
		}
	}
	b.WriteString(" )\n")
	return b.String(), nil
}
