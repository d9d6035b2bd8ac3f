// Package corpus pairs document files across directories and loads them into
// scoreable (tree, label) items, optionally grouped by source document.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"discoseg/internal/logging"
)

// Pair is a matched (tree file, segment file) pair for one document.
type Pair struct {
	Base     string // basename with both suffixes stripped
	TreePath string
	SegPath  string
}

// AlignDirs pairs files across treeDir and segDir by basename. A file in
// treeDir ending with treeSuffix pairs with base+segSuffix in segDir;
// orphans are logged and skipped. Suffix stripping anchors at the end of
// the name only. Pairs come out in directory-listing order.
func AlignDirs(treeDir, segDir, treeSuffix, segSuffix string) ([]Pair, error) {
	treeEntries, err := os.ReadDir(treeDir)
	if err != nil {
		return nil, fmt.Errorf("read tree dir: %w", err)
	}
	segEntries, err := os.ReadDir(segDir)
	if err != nil {
		return nil, fmt.Errorf("read segment dir: %w", err)
	}

	segFiles := make(map[string]bool, len(segEntries))
	for _, e := range segEntries {
		if !e.IsDir() {
			segFiles[e.Name()] = true
		}
	}

	logger := logging.New("corpus")
	var pairs []Pair
	for _, e := range treeEntries {
		if e.IsDir() {
			continue
		}
		base, ok := strings.CutSuffix(e.Name(), treeSuffix)
		if !ok {
			continue
		}
		want := base + segSuffix
		if !segFiles[want] {
			logger.Warn("no segment counterpart, skipping",
				"tree_file", e.Name(), "expected", want)
			continue
		}
		pairs = append(pairs, Pair{
			Base:     base,
			TreePath: filepath.Join(treeDir, e.Name()),
			SegPath:  filepath.Join(segDir, want),
		})
	}
	return pairs, nil
}

// CountSuffix returns how many regular files in dir end with suffix.
func CountSuffix(dir, suffix string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read dir %s: %w", dir, err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			n++
		}
	}
	return n, nil
}
