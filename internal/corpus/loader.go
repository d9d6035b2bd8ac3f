package corpus

import (
	"discoseg/internal/logging"
	"discoseg/internal/tree"
)

// TreeReader parses one tree file into a token-index → elementary-tree map.
type TreeReader func(path string) (map[int]*tree.Node, error)

// SegmentReader parses one segment file into a token-index → gold-label map.
type SegmentReader func(path string) (map[int]string, error)

// AlignFunc reconciles the two token streams of one document into scoreable
// items. It returns an error when the streams diverge irreconcilably; the
// loader then skips the document.
type AlignFunc func(trees map[int]*tree.Node, labels map[int]string) ([]Item, error)

// Item is one scoreable (elementary tree, gold label) pair. Immutable after
// creation.
type Item struct {
	Tree  *tree.Node
	Label string
}

// Document owns the ordered items of one input file. ID is the normalized
// output identifier (input suffix stripped, output suffix appended).
type Document struct {
	ID       string
	TreePath string
	Items    []Item
}

// Labels returns the gold labels of the document's items in order.
func (d *Document) Labels() []string {
	out := make([]string, len(d.Items))
	for i, it := range d.Items {
		out[i] = it.Label
	}
	return out
}

// LoadGrouped reads every pair and returns one Document per surviving pair,
// in pair order. Pairs whose token streams cannot be aligned are skipped
// with a diagnostic; items whose tree has no leaves are discarded. Read
// errors are fatal.
func LoadGrouped(pairs []Pair, read TreeReader, readSeg SegmentReader, align AlignFunc, outSuffix string) ([]Document, error) {
	logger := logging.New("corpus")
	var docs []Document
	for _, p := range pairs {
		trees, err := read(p.TreePath)
		if err != nil {
			return nil, err
		}
		labels, err := readSeg(p.SegPath)
		if err != nil {
			return nil, err
		}
		items, err := align(trees, labels)
		if err != nil {
			logger.Warn("cannot align token streams, skipping document",
				"tree_file", p.TreePath, "seg_file", p.SegPath, "error", err)
			continue
		}
		kept := items[:0]
		for _, it := range items {
			if it.Tree != nil && len(it.Tree.Leaves()) > 0 {
				kept = append(kept, it)
			}
		}
		docs = append(docs, Document{
			ID:       p.Base + outSuffix,
			TreePath: p.TreePath,
			Items:    kept,
		})
	}
	return docs, nil
}

// LoadFlat is LoadGrouped with document boundaries discarded: all items and
// all gold labels in corpus order.
func LoadFlat(pairs []Pair, read TreeReader, readSeg SegmentReader, align AlignFunc) ([]Item, []string, error) {
	docs, err := LoadGrouped(pairs, read, readSeg, align, "")
	if err != nil {
		return nil, nil, err
	}
	var items []Item
	var labels []string
	for _, d := range docs {
		items = append(items, d.Items...)
		labels = append(labels, d.Labels()...)
	}
	return items, labels, nil
}
