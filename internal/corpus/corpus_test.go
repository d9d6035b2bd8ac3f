package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"discoseg/internal/tree"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestAlignDirs_PairsAndOrphans(t *testing.T) {
	treeDir, segDir := t.TempDir(), t.TempDir()
	writeFiles(t, treeDir, "doc1.tree", "doc2.tree", "orphan.tree", "notes.txt")
	writeFiles(t, segDir, "doc1.seg", "doc2.seg", "extra.seg")

	pairs, err := AlignDirs(treeDir, segDir, ".tree", ".seg")
	if err != nil {
		t.Fatalf("AlignDirs: %v", err)
	}

	var bases []string
	for _, p := range pairs {
		bases = append(bases, p.Base)
	}
	if diff := cmp.Diff([]string{"doc1", "doc2"}, bases); diff != "" {
		t.Errorf("pair bases mismatch (-want +got):\n%s", diff)
	}
	for _, p := range pairs {
		if filepath.Base(p.TreePath) != p.Base+".tree" {
			t.Errorf("tree path %s does not match base %s", p.TreePath, p.Base)
		}
		if filepath.Base(p.SegPath) != p.Base+".seg" {
			t.Errorf("seg path %s does not match base %s", p.SegPath, p.Base)
		}
	}
}

func TestAlignDirs_SuffixAnchoredAtEnd(t *testing.T) {
	treeDir, segDir := t.TempDir(), t.TempDir()
	// ".tree" occurs mid-name; must not be stripped.
	writeFiles(t, treeDir, "mydoc1.tree.bak", "doc1.tree")
	writeFiles(t, segDir, "doc1.seg", "mydoc1.seg", "mydoc1.tree.bak.seg")

	pairs, err := AlignDirs(treeDir, segDir, ".tree", ".seg")
	if err != nil {
		t.Fatalf("AlignDirs: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Base != "doc1" {
		t.Errorf("pairs = %+v, want exactly doc1", pairs)
	}
}

func TestAlignDirs_MissingDir(t *testing.T) {
	if _, err := AlignDirs("/nonexistent-dir", t.TempDir(), ".tree", ".seg"); err == nil {
		t.Error("expected error for missing tree dir")
	}
	if _, err := AlignDirs(t.TempDir(), "/nonexistent-dir", ".tree", ".seg"); err == nil {
		t.Error("expected error for missing segment dir")
	}
}

func TestCountSuffix(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.tree", "b.tree", "c.seg")
	n, err := CountSuffix(dir, ".tree")
	if err != nil {
		t.Fatalf("CountSuffix: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

// fakeReaders returns loader callbacks backed by in-memory fixtures keyed by
// file path.
func fakeReaders(trees map[string]map[int]*tree.Node, segs map[string]map[int]string) (TreeReader, SegmentReader) {
	read := func(path string) (map[int]*tree.Node, error) {
		m, ok := trees[path]
		if !ok {
			return nil, errors.New("no fixture for " + path)
		}
		return m, nil
	}
	readSeg := func(path string) (map[int]string, error) {
		m, ok := segs[path]
		if !ok {
			return nil, errors.New("no fixture for " + path)
		}
		return m, nil
	}
	return read, readSeg
}

func leafTree(toks ...string) *tree.Node {
	n := &tree.Node{Label: "EDU"}
	for _, t := range toks {
		n.Children = append(n.Children, &tree.Node{Token: t})
	}
	return n
}

func alignByIndex(trees map[int]*tree.Node, labels map[int]string) ([]Item, error) {
	var items []Item
	for i := 0; i < len(trees); i++ {
		lbl, ok := labels[i]
		if !ok {
			lbl = "none"
		}
		items = append(items, Item{Tree: trees[i], Label: lbl})
	}
	return items, nil
}

func TestLoadGrouped(t *testing.T) {
	pairs := []Pair{
		{Base: "d1", TreePath: "t/d1", SegPath: "s/d1"},
		{Base: "d2", TreePath: "t/d2", SegPath: "s/d2"},
	}
	read, readSeg := fakeReaders(
		map[string]map[int]*tree.Node{
			"t/d1": {0: leafTree("a"), 1: leafTree("b", "c")},
			"t/d2": {0: leafTree("d"), 1: {Label: "EMPTY"}}, // second has no leaves
		},
		map[string]map[int]string{
			"s/d1": {0: "seg"},
			"s/d2": {},
		},
	)

	docs, err := LoadGrouped(pairs, read, readSeg, alignByIndex, ".seg")
	if err != nil {
		t.Fatalf("LoadGrouped: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("docs = %d, want 2", len(docs))
	}
	if docs[0].ID != "d1.seg" || docs[1].ID != "d2.seg" {
		t.Errorf("IDs = %s, %s", docs[0].ID, docs[1].ID)
	}
	if diff := cmp.Diff([]string{"seg", "none"}, docs[0].Labels()); diff != "" {
		t.Errorf("d1 labels mismatch:\n%s", diff)
	}
	// Leafless tree discarded.
	if len(docs[1].Items) != 1 {
		t.Errorf("d2 items = %d, want 1 (leafless discarded)", len(docs[1].Items))
	}
}

func TestLoadGrouped_SkipsUnalignable(t *testing.T) {
	pairs := []Pair{
		{Base: "bad", TreePath: "t/bad", SegPath: "s/bad"},
		{Base: "good", TreePath: "t/good", SegPath: "s/good"},
	}
	read, readSeg := fakeReaders(
		map[string]map[int]*tree.Node{
			"t/bad":  {0: leafTree("a")},
			"t/good": {0: leafTree("b")},
		},
		map[string]map[int]string{"s/bad": {}, "s/good": {0: "seg"}},
	)
	failing := func(trees map[int]*tree.Node, labels map[int]string) ([]Item, error) {
		if len(labels) == 0 {
			return nil, errors.New("token streams diverge")
		}
		return alignByIndex(trees, labels)
	}

	docs, err := LoadGrouped(pairs, read, readSeg, failing, ".seg")
	if err != nil {
		t.Fatalf("LoadGrouped: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "good.seg" {
		t.Errorf("docs = %+v, want only good.seg", docs)
	}
}

func TestLoadGrouped_ReadErrorFatal(t *testing.T) {
	pairs := []Pair{{Base: "x", TreePath: "t/missing", SegPath: "s/missing"}}
	read, readSeg := fakeReaders(nil, nil)
	if _, err := LoadGrouped(pairs, read, readSeg, alignByIndex, ".seg"); err == nil {
		t.Error("expected fatal error on unreadable tree file")
	}
}

func TestLoadFlat(t *testing.T) {
	pairs := []Pair{
		{Base: "d1", TreePath: "t/d1", SegPath: "s/d1"},
		{Base: "d2", TreePath: "t/d2", SegPath: "s/d2"},
	}
	read, readSeg := fakeReaders(
		map[string]map[int]*tree.Node{
			"t/d1": {0: leafTree("a")},
			"t/d2": {0: leafTree("b")},
		},
		map[string]map[int]string{"s/d1": {0: "seg"}, "s/d2": {0: "none"}},
	)
	items, labels, err := LoadFlat(pairs, read, readSeg, alignByIndex)
	if err != nil {
		t.Fatalf("LoadFlat: %v", err)
	}
	if len(items) != 2 || len(labels) != 2 {
		t.Fatalf("items=%d labels=%d, want 2/2", len(items), len(labels))
	}
	if diff := cmp.Diff([]string{"seg", "none"}, labels); diff != "" {
		t.Errorf("labels mismatch:\n%s", diff)
	}
}
