package agree

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"discoseg/internal/logging"
	"discoseg/internal/metrics"
	"discoseg/internal/tree"
)

// Config controls one evaluation run.
type Config struct {
	Suffix string // only compare files carrying this suffix; empty = all files
	Delex  bool   // replace tokens with a placeholder before alignment
}

// DocScore is one document's metric values, in Metrics() column order.
type DocScore struct {
	Doc    string
	Values []float64
}

// Result is the full evaluation: per-document scores, corpus aggregates,
// the kappa coefficient set, and the documents excluded along the way.
type Result struct {
	Metrics []NamedMetric
	Pairs   []DocPair
	PerDoc  []DocScore
	Mean    []float64
	Stddev  []float64
	Pooled  []float64
	Kappa   KappaSet
	Skipped []string
}

// Evaluate compares every suffix-matched document present in both
// directories. Documents whose token streams cannot be aligned are logged,
// recorded in Skipped, and excluded from every aggregate.
func Evaluate(goldDir, predDir string, cfg Config) (*Result, error) {
	logger := logging.New("agree")

	names, err := sharedBasenames(goldDir, predDir, cfg.Suffix)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no documents with suffix %q present in both %s and %s", cfg.Suffix, goldDir, predDir)
	}

	res := &Result{Metrics: Metrics()}
	for _, name := range names {
		pair, err := loadPair(filepath.Join(goldDir, name), filepath.Join(predDir, name), cfg.Delex)
		if err != nil {
			logger.Warn("document excluded", "doc", name, "error", err)
			res.Skipped = append(res.Skipped, name)
			continue
		}
		pair.Doc = name
		res.Pairs = append(res.Pairs, pair)
	}
	if len(res.Pairs) == 0 {
		return nil, fmt.Errorf("all %d document pairs failed alignment", len(names))
	}

	for _, p := range res.Pairs {
		ds := DocScore{Doc: p.Doc, Values: make([]float64, len(res.Metrics))}
		for i, m := range res.Metrics {
			ds.Values[i] = m.Score(p)
		}
		res.PerDoc = append(res.PerDoc, ds)
	}

	pooled := concat(res.Pairs)
	res.Mean = make([]float64, len(res.Metrics))
	res.Stddev = make([]float64, len(res.Metrics))
	res.Pooled = make([]float64, len(res.Metrics))
	for i, m := range res.Metrics {
		col := make([]float64, len(res.PerDoc))
		for j, ds := range res.PerDoc {
			col[j] = ds.Values[i]
		}
		res.Mean[i] = metrics.Mean(col)
		res.Stddev[i] = metrics.Stddev(col)
		res.Pooled[i] = m.Score(pooled)
	}

	res.Kappa = Kappas(corpusPairs(res.Pairs))
	logger.Info("evaluation complete",
		"documents", len(res.Pairs), "skipped", len(res.Skipped))
	return res, nil
}

// sharedBasenames lists suffix-matched file names present in both
// directories, sorted.
func sharedBasenames(goldDir, predDir, suffix string) ([]string, error) {
	goldNames, err := listSuffix(goldDir, suffix)
	if err != nil {
		return nil, err
	}
	predNames, err := listSuffix(predDir, suffix)
	if err != nil {
		return nil, err
	}

	inPred := make(map[string]bool, len(predNames))
	for _, n := range predNames {
		inPred[n] = true
	}
	var shared []string
	for _, n := range goldNames {
		if inPred[n] {
			shared = append(shared, n)
		}
	}
	sort.Strings(shared)
	return shared, nil
}

func listSuffix(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// loadPair reads both segmentation files, aligns the token streams, and
// expresses the comparison side's spans in the reference side's token
// coordinates.
func loadPair(goldPath, predPath string, delex bool) (DocPair, error) {
	goldForest, goldToks, err := readForest(goldPath)
	if err != nil {
		return DocPair{}, err
	}
	predForest, predToks, err := readForest(predPath)
	if err != nil {
		return DocPair{}, err
	}

	if delex {
		goldToks = delexed(goldToks)
		predToks = delexed(predToks)
	}
	mapping, err := alignTokens(goldToks, predToks)
	if err != nil {
		return DocPair{}, err
	}

	pair := DocPair{
		Tokens:    len(goldToks),
		GoldSpans: dropWrapper(tree.Spans(goldForest), len(goldToks)),
	}
	for _, s := range dropWrapper(tree.Spans(predForest), len(predToks)) {
		pair.PredSpans = append(pair.PredSpans, tree.Span{
			Label: s.Label,
			Start: mapping[s.Start],
			End:   mapping[s.End-1] + 1,
		})
	}
	return pair, nil
}

// dropWrapper removes spans covering the whole document: the bracketing
// wrapper both sides carry is not an annotation unit and would inflate
// every agreement statistic identically.
func dropWrapper(spans []tree.Span, tokens int) []tree.Span {
	var out []tree.Span
	for _, s := range spans {
		if s.Start == 0 && s.End >= tokens {
			continue
		}
		out = append(out, s)
	}
	return out
}

func readForest(path string) ([]*tree.Node, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	forest, err := tree.Parse(normalizeBadChars(string(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	var toks []string
	for _, n := range forest {
		toks = append(toks, n.Leaves()...)
	}
	if len(toks) == 0 {
		return nil, nil, fmt.Errorf("%s: no tokens", path)
	}
	return forest, toks, nil
}

func delexed(toks []string) []string {
	out := make([]string, len(toks))
	for i := range out {
		out[i] = "tok"
	}
	return out
}
