package crossval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"discoseg/internal/classify"
	"discoseg/internal/metrics"
	"discoseg/internal/segmenter"
	"discoseg/internal/tree"
)

// stubModel records the feature keys it sees and plays back scripted
// predictions, one script entry per Predict call (last entry repeats).
type stubModel struct {
	Fits int `json:"fits"`

	fitKeys  []map[string]bool
	seenKeys []map[string]bool
	script   []func(n int) []string
	calls    int
}

func (s *stubModel) Name() string { return "stub" }

func (s *stubModel) Fit(X []classify.FeatureVector, y []string) error {
	s.Fits++
	s.fitKeys = append(s.fitKeys, keysOf(X))
	return nil
}

func (s *stubModel) Predict(X []classify.FeatureVector) []string {
	s.seenKeys = append(s.seenKeys, keysOf(X))
	idx := s.calls
	s.calls++
	if len(s.script) == 0 {
		out := make([]string, len(X))
		for i := range out {
			out[i] = metrics.NoneLabel
		}
		return out
	}
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	return s.script[idx](len(X))
}

func keysOf(X []classify.FeatureVector) map[string]bool {
	keys := make(map[string]bool)
	for _, fv := range X {
		for k := range fv {
			keys[k] = true
		}
	}
	return keys
}

func constLabels(label string) func(n int) []string {
	return func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = label
		}
		return out
	}
}

// writeCorpus lays out nDocs documents with itemsPerDoc elementary trees
// each. Tokens embed the document index so feature keys identify their
// source document.
func writeCorpus(t *testing.T, nDocs, itemsPerDoc int) (string, string) {
	t.Helper()
	treeDir, segDir := t.TempDir(), t.TempDir()
	for d := 0; d < nDocs; d++ {
		var tb, sb strings.Builder
		off := 0
		for i := 0; i < itemsPerDoc; i++ {
			fmt.Fprintf(&tb, "(EDU w%da w%db)\n", d, d)
			fmt.Fprintf(&sb, "%d edu\n", off)
			off += 2
		}
		name := fmt.Sprintf("doc%02d", d)
		if err := os.WriteFile(filepath.Join(treeDir, name+".tree"), []byte(tb.String()), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(segDir, name+".seg"), []byte(sb.String()), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return treeDir, segDir
}

func testConfig(t *testing.T, treeDir, segDir string, model classify.Classifier) RunConfig {
	t.Helper()
	seg, err := segmenter.New(segmenter.Constituency, segmenter.Options{})
	if err != nil {
		t.Fatal(err)
	}
	// Feature keys carry the first token, so they name the source document.
	seg.Features = func(n *tree.Node) classify.FeatureVector {
		leaves := n.Leaves()
		return classify.FeatureVector{"tok=" + leaves[0]: 1}
	}
	cfg := DefaultRunConfig(treeDir, segDir, filepath.Join(t.TempDir(), "model.json"), seg, model)
	return cfg
}

func TestRun_FoldCountClampsToDocuments(t *testing.T) {
	treeDir, segDir := writeCorpus(t, 2, 2)
	cfg := testConfig(t, treeDir, segDir, &stubModel{})
	cfg.Folds = 3

	report, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Folds) != 2 {
		t.Errorf("folds = %d, want clamp to 2", len(report.Folds))
	}
}

func TestRun_SingleDocumentFails(t *testing.T) {
	treeDir, segDir := writeCorpus(t, 1, 2)
	cfg := testConfig(t, treeDir, segDir, &stubModel{})

	_, err := Run(context.Background(), cfg)
	if !errors.Is(err, ErrTooFewDocuments) {
		t.Errorf("err = %v, want ErrTooFewDocuments", err)
	}
}

func TestRun_DocumentCountMismatchFatal(t *testing.T) {
	treeDir, segDir := writeCorpus(t, 3, 1)
	if err := os.Remove(filepath.Join(segDir, "doc00.seg")); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(t, treeDir, segDir, &stubModel{})
	if _, err := Run(context.Background(), cfg); err == nil {
		t.Error("expected fatal error on count mismatch")
	}
}

func TestRun_NoItemLeakage(t *testing.T) {
	treeDir, segDir := writeCorpus(t, 4, 3)
	stub := &stubModel{}
	cfg := testConfig(t, treeDir, segDir, stub)
	cfg.Folds = 4

	report, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Test-document sets form a true partition over the corpus.
	seen := make(map[string]int)
	for _, fr := range report.Folds {
		for _, id := range fr.TestDocs {
			seen[id]++
		}
	}
	if len(seen) != 4 {
		t.Errorf("test docs cover %d documents, want 4", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("document %s tested in %d folds", id, n)
		}
	}

	// Item-level: feature keys seen at fit and at predict are disjoint,
	// since keys name the originating document.
	if len(stub.fitKeys) != len(stub.seenKeys) {
		t.Fatalf("fit calls %d vs predict calls %d", len(stub.fitKeys), len(stub.seenKeys))
	}
	for i := range stub.fitKeys {
		for k := range stub.seenKeys[i] {
			if stub.fitKeys[i][k] {
				t.Errorf("fold %d: key %s in both train and test pools", i, k)
			}
		}
	}
}

func TestRun_BestModelMonotonic(t *testing.T) {
	treeDir, segDir := writeCorpus(t, 4, 2)
	// Fold 0 predicts everything right, later folds everything wrong:
	// the persisted model must stay the fold-0 state.
	stub := &stubModel{script: []func(int) []string{
		constLabels("edu"),
		constLabels(metrics.NoneLabel),
	}}
	cfg := testConfig(t, treeDir, segDir, stub)
	cfg.Folds = 4

	report, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.BestFold != 0 {
		t.Fatalf("best fold = %d, want 0", report.BestFold)
	}

	data, err := os.ReadFile(cfg.ModelPath)
	if err != nil {
		t.Fatalf("read persisted model: %v", err)
	}
	var env struct {
		Type  string          `json:"type"`
		State json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("parse model file: %v", err)
	}
	var state struct {
		Fits int `json:"fits"`
	}
	if err := json.Unmarshal(env.State, &state); err != nil {
		t.Fatalf("parse model state: %v", err)
	}
	if state.Fits != 1 {
		t.Errorf("persisted model from fit #%d, want fold-0 state (#1)", state.Fits)
	}
}

func TestRun_MeanMatchesPerFoldScores(t *testing.T) {
	treeDir, segDir := writeCorpus(t, 5, 2)
	stub := &stubModel{script: []func(int) []string{
		constLabels("edu"),
		constLabels(metrics.NoneLabel),
		constLabels("edu"),
		constLabels(metrics.NoneLabel),
		constLabels("edu"),
	}}
	cfg := testConfig(t, treeDir, segDir, stub)
	cfg.Folds = 5

	report, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	sum := 0.0
	for _, fr := range report.Folds {
		sum += fr.MacroF1
	}
	if got := sum / float64(len(report.Folds)); math.Abs(got-report.MacroMean) > 1e-9 {
		t.Errorf("MacroMean = %f, per-fold mean = %f", report.MacroMean, got)
	}
}

func TestRun_PooledDetectionF1(t *testing.T) {
	treeDir, segDir := writeCorpus(t, 2, 2)
	// Both folds: everything predicted "none" against gold "edu" -> fn only.
	cfg := testConfig(t, treeDir, segDir, &stubModel{})
	cfg.Folds = 2

	report, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Detection.FN != 4 || report.Detection.TP != 0 || report.Detection.FP != 0 {
		t.Errorf("pooled counts = %+v", report.Detection)
	}
	if report.DetectionF1 != 0 {
		t.Errorf("DetectionF1 = %f, want 0", report.DetectionF1)
	}
}

func TestRun_WritesOutputs(t *testing.T) {
	treeDir, segDir := writeCorpus(t, 2, 2)
	stub := &stubModel{script: []func(int) []string{constLabels("edu")}}
	cfg := testConfig(t, treeDir, segDir, stub)
	cfg.Folds = 2
	cfg.OutDir = filepath.Join(t.TempDir(), "out")

	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, name := range []string{"doc00.seg", "doc01.seg"} {
		data, err := os.ReadFile(filepath.Join(cfg.OutDir, name))
		if err != nil {
			t.Fatalf("missing output %s: %v", name, err)
		}
		if !strings.HasPrefix(string(data), "(TEXT") {
			t.Errorf("%s: missing TEXT wrapper: %q", name, data)
		}
	}
}

func TestRun_ParallelFeaturesMatchSerial(t *testing.T) {
	treeDir, segDir := writeCorpus(t, 6, 3)
	serial := testConfig(t, treeDir, segDir, &stubModel{})
	serial.Folds = 3
	parallel := testConfig(t, treeDir, segDir, &stubModel{})
	parallel.Folds = 3
	parallel.Parallel = 4

	rs, err := Run(context.Background(), serial)
	if err != nil {
		t.Fatalf("serial Run: %v", err)
	}
	rp, err := Run(context.Background(), parallel)
	if err != nil {
		t.Fatalf("parallel Run: %v", err)
	}
	if rs.MacroMean != rp.MacroMean || rs.DetectionF1 != rp.DetectionF1 {
		t.Errorf("parallel run diverged: %+v vs %+v", rs, rp)
	}
}

func TestTrainAndEvaluate(t *testing.T) {
	// Two label classes separable by unit length: 3-token units are "edu",
	// 1-token units are "none".
	treeDir, segDir := t.TempDir(), t.TempDir()
	for d := 0; d < 2; d++ {
		treeContent := "(EDU w a b)\n(X c)\n(EDU x y z)\n(X q)\n"
		segContent := "0 edu\n3 none\n4 edu\n7 none\n"
		name := fmt.Sprintf("doc%d", d)
		if err := os.WriteFile(filepath.Join(treeDir, name+".tree"), []byte(treeContent), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(segDir, name+".seg"), []byte(segContent), 0644); err != nil {
			t.Fatal(err)
		}
	}

	seg, err := segmenter.New(segmenter.Constituency, segmenter.Options{})
	if err != nil {
		t.Fatal(err)
	}
	model := classify.NewDecisionTree(4, 1)
	cfg := DefaultRunConfig(treeDir, segDir, filepath.Join(t.TempDir(), "m.json"), seg, model)

	n, err := Train(cfg)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if n != 8 {
		t.Errorf("trained on %d items, want 8", n)
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		t.Errorf("model not persisted: %v", err)
	}

	res, err := Evaluate(cfg)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.MacroF1 < 0.99 {
		t.Errorf("MacroF1 = %f, want ~1.0 on training corpus", res.MacroF1)
	}
	if res.Counts.TP != 4 {
		t.Errorf("TP = %d, want 4", res.Counts.TP)
	}
}
