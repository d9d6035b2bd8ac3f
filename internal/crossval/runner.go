// Package crossval drives document-grouped k-fold cross-validation of a
// segment classifier: fold partitioning over documents, training and
// prediction per fold, best-model tracking, and score aggregation.
package crossval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"discoseg/internal/classify"
	"discoseg/internal/corpus"
	"discoseg/internal/logging"
	"discoseg/internal/metrics"
	"discoseg/internal/segmenter"
	"discoseg/internal/store"
)

// ErrTooFewDocuments signals the degenerate-input case: cross-validation is
// meaningless with fewer than 2 documents. Callers map it to a dedicated
// exit status rather than treating it as a crash.
var ErrTooFewDocuments = errors.New("cross-validation requires at least 2 documents")

// DefaultFolds is the fold count when none is requested.
const DefaultFolds = 10

// RunConfig holds everything one cross-validation run needs.
type RunConfig struct {
	TreeDir   string
	SegDir    string
	Seg       segmenter.Config
	Model     classify.Classifier
	ModelPath string       // best model is persisted here; empty = no persistence
	Folds     int          // requested fold count; clamped to document count
	OutDir    string       // when set, reconstructed outputs are written per test document
	Parallel  int          // feature precompute workers; <=1 = serial
	History   *store.Store // optional run-history sink
}

// DefaultRunConfig returns defaults for a run.
func DefaultRunConfig(treeDir, segDir, modelPath string, seg segmenter.Config, model classify.Classifier) RunConfig {
	return RunConfig{
		TreeDir:   treeDir,
		SegDir:    segDir,
		Seg:       seg,
		Model:     model,
		ModelPath: modelPath,
		Folds:     DefaultFolds,
		Parallel:  1,
	}
}

// FoldResult is one fold's scores.
type FoldResult struct {
	Fold     int
	MacroF1  float64
	MicroF1  float64
	Counts   metrics.DetectionCounts
	TestDocs []string
}

// Report aggregates a full run.
type Report struct {
	Folds       []FoldResult
	Documents   int
	MacroMean   float64
	MacroStddev float64
	MicroMean   float64
	MicroStddev float64
	Detection   metrics.DetectionCounts // pooled across all folds
	DetectionF1 float64
	BestFold    int
	BestMacroF1 float64
}

// docRange records the half-open slice a test document's items occupy in
// the pooled test arrays.
type docRange struct {
	doc   int
	start int
	end   int
}

// Run executes the cross-validation loop and returns the aggregated report.
// The model is refit in place each fold; the best state is persisted
// immediately after scoring, before the next fold's fit overwrites it.
func Run(ctx context.Context, cfg RunConfig) (*Report, error) {
	logger := logging.New("crossval")

	docs, err := loadDocs(cfg)
	if err != nil {
		return nil, err
	}
	if len(docs) < 2 {
		logger.Error("not enough documents for cross-validation",
			"documents", len(docs), "tree_dir", cfg.TreeDir)
		return nil, ErrTooFewDocuments
	}

	k := cfg.Folds
	if k <= 0 {
		k = DefaultFolds
	}
	if k > len(docs) {
		k = len(docs)
	}
	logger.Info("starting cross-validation",
		"documents", len(docs), "folds", k, "model", cfg.Model.Name())

	feats, err := precomputeFeatures(ctx, cfg, docs)
	if err != nil {
		return nil, err
	}

	report := &Report{Documents: len(docs), BestFold: -1}
	bestByDoc := make(map[string]float64)

	for fi, testIdx := range Partition(len(docs), k) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		inTest := make(map[int]bool, len(testIdx))
		for _, di := range testIdx {
			inTest[di] = true
		}

		var trainX, testX []classify.FeatureVector
		var trainY, testY []string
		var ranges []docRange
		for di := range docs {
			if inTest[di] {
				start := len(testX)
				testX = append(testX, feats[di]...)
				testY = append(testY, docs[di].Labels()...)
				ranges = append(ranges, docRange{doc: di, start: start, end: len(testX)})
			} else {
				trainX = append(trainX, feats[di]...)
				trainY = append(trainY, docs[di].Labels()...)
			}
		}

		if err := cfg.Model.Fit(trainX, trainY); err != nil {
			return nil, fmt.Errorf("fold %d: fit: %w", fi, err)
		}
		pred := cfg.Model.Predict(testX)

		fr := FoldResult{
			Fold:    fi,
			MacroF1: metrics.MacroF1(testY, pred),
			MicroF1: metrics.MicroF1(testY, pred),
		}
		fr.Counts.Add(testY, pred)
		for _, r := range ranges {
			fr.TestDocs = append(fr.TestDocs, docs[r.doc].ID)
		}
		report.Folds = append(report.Folds, fr)
		report.Detection.Merge(fr.Counts)
		logger.Info("fold scored", "fold", fi,
			"macro_f1", fr.MacroF1, "micro_f1", fr.MicroF1,
			"test_docs", len(testIdx), "test_items", len(testX))

		// Persist before the next fold's fit replaces the in-memory state.
		if report.BestFold < 0 || fr.MacroF1 > report.BestMacroF1 {
			if cfg.ModelPath != "" {
				if err := classify.Save(cfg.ModelPath, cfg.Model); err != nil {
					return nil, fmt.Errorf("persist best model: %w", err)
				}
			}
			report.BestFold = fi
			report.BestMacroF1 = fr.MacroF1
			logger.Info("new best fold", "fold", fi, "macro_f1", fr.MacroF1)
		}

		if cfg.OutDir != "" {
			if err := writeOutputs(cfg, docs, ranges, fr.MacroF1, bestByDoc, logger); err != nil {
				return nil, err
			}
		}
	}

	macros := make([]float64, len(report.Folds))
	micros := make([]float64, len(report.Folds))
	for i, fr := range report.Folds {
		macros[i] = fr.MacroF1
		micros[i] = fr.MicroF1
	}
	report.MacroMean = metrics.Mean(macros)
	report.MacroStddev = metrics.Stddev(macros)
	report.MicroMean = metrics.Mean(micros)
	report.MicroStddev = metrics.Stddev(micros)
	report.DetectionF1 = report.Detection.F1()

	if cfg.History != nil {
		recordHistory(cfg, report, logger)
	}
	return report, nil
}

// loadDocs validates the corpus preconditions and loads document-grouped
// items. A tree/segment file count mismatch is fatal.
func loadDocs(cfg RunConfig) ([]corpus.Document, error) {
	nTrees, err := corpus.CountSuffix(cfg.TreeDir, cfg.Seg.TreeSuffix)
	if err != nil {
		return nil, err
	}
	nSegs, err := corpus.CountSuffix(cfg.SegDir, cfg.Seg.SegSuffix)
	if err != nil {
		return nil, err
	}
	if nTrees != nSegs {
		return nil, fmt.Errorf("document count mismatch: %d tree files (%s) vs %d segment files (%s)",
			nTrees, cfg.Seg.TreeSuffix, nSegs, cfg.Seg.SegSuffix)
	}

	pairs, err := corpus.AlignDirs(cfg.TreeDir, cfg.SegDir, cfg.Seg.TreeSuffix, cfg.Seg.SegSuffix)
	if err != nil {
		return nil, err
	}
	return corpus.LoadGrouped(pairs, cfg.Seg.ReadTrees, cfg.Seg.ReadSegments, cfg.Seg.Align, cfg.Seg.OutSuffix)
}

// precomputeFeatures extracts feature vectors once per document, not per
// fold. With Parallel > 1 documents are processed concurrently; folds stay
// strictly sequential regardless.
func precomputeFeatures(ctx context.Context, cfg RunConfig, docs []corpus.Document) ([][]classify.FeatureVector, error) {
	feats := make([][]classify.FeatureVector, len(docs))
	extract := func(i int) {
		fv := make([]classify.FeatureVector, len(docs[i].Items))
		for j, it := range docs[i].Items {
			fv[j] = cfg.Seg.Features(it.Tree)
		}
		feats[i] = fv
	}

	if cfg.Parallel <= 1 {
		for i := range docs {
			extract(i)
		}
		return feats, nil
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallel)
	for i := range docs {
		i := i
		g.Go(func() error {
			extract(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return feats, nil
}

// writeOutputs regenerates bracketed output for this fold's test documents.
// A document already written from an equal-or-better fold is left alone.
func writeOutputs(cfg RunConfig, docs []corpus.Document, ranges []docRange, foldScore float64, bestByDoc map[string]float64, logger *slog.Logger) error {
	if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, r := range ranges {
		d := docs[r.doc]
		if prev, ok := bestByDoc[d.ID]; ok && prev >= foldScore {
			continue
		}
		out, err := segmenter.Reconstruct(cfg.Seg, cfg.Model, d.TreePath)
		if err != nil {
			return fmt.Errorf("reconstruct %s: %w", d.ID, err)
		}
		path := filepath.Join(cfg.OutDir, d.ID)
		if err := os.WriteFile(path, []byte(out), 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		bestByDoc[d.ID] = foldScore
		logger.Debug("wrote reconstructed output", "doc", d.ID, "macro_f1", foldScore)
	}
	return nil
}

func recordHistory(cfg RunConfig, r *Report, logger *slog.Logger) {
	run := &store.Run{
		TreeDir:     cfg.TreeDir,
		SegDir:      cfg.SegDir,
		Variant:     string(cfg.Seg.Variant),
		Folds:       len(r.Folds),
		Documents:   r.Documents,
		MacroMean:   r.MacroMean,
		MacroStddev: r.MacroStddev,
		MicroMean:   r.MicroMean,
		MicroStddev: r.MicroStddev,
		DetectionF1: r.DetectionF1,
		BestFold:    r.BestFold,
		BestMacroF1: r.BestMacroF1,
	}
	folds := make([]store.FoldScore, len(r.Folds))
	for i, fr := range r.Folds {
		folds[i] = store.FoldScore{
			Fold:    fr.Fold,
			MacroF1: fr.MacroF1,
			MicroF1: fr.MicroF1,
			TP:      fr.Counts.TP,
			FP:      fr.Counts.FP,
			FN:      fr.Counts.FN,
		}
	}
	if _, err := cfg.History.SaveRun(run, folds); err != nil {
		logger.Warn("save run history", "error", err)
	}
}

// EvalResult scores a trained model over a corpus without folding.
type EvalResult struct {
	Items   int
	MacroF1 float64
	MicroF1 float64
	Counts  metrics.DetectionCounts
}

// Evaluate runs inference over the full corpus and scores it against the
// gold labels; used by the test mode.
func Evaluate(cfg RunConfig) (*EvalResult, error) {
	docs, err := loadDocs(cfg)
	if err != nil {
		return nil, err
	}
	var X []classify.FeatureVector
	var gold []string
	for _, d := range docs {
		for _, it := range d.Items {
			X = append(X, cfg.Seg.Features(it.Tree))
			gold = append(gold, it.Label)
		}
	}
	pred := cfg.Model.Predict(X)
	res := &EvalResult{
		Items:   len(X),
		MacroF1: metrics.MacroF1(gold, pred),
		MicroF1: metrics.MicroF1(gold, pred),
	}
	res.Counts.Add(gold, pred)
	return res, nil
}

// Train fits the model on the full corpus and persists it to ModelPath.
// Returns the number of training items.
func Train(cfg RunConfig) (int, error) {
	docs, err := loadDocs(cfg)
	if err != nil {
		return 0, err
	}
	var X []classify.FeatureVector
	var y []string
	for _, d := range docs {
		for _, it := range d.Items {
			X = append(X, cfg.Seg.Features(it.Tree))
			y = append(y, it.Label)
		}
	}
	if err := cfg.Model.Fit(X, y); err != nil {
		return 0, err
	}
	if cfg.ModelPath != "" {
		if err := classify.Save(cfg.ModelPath, cfg.Model); err != nil {
			return 0, err
		}
	}
	return len(X), nil
}
