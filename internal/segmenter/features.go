package segmenter

import (
	"strings"
	"unicode"

	"discoseg/internal/classify"
	"discoseg/internal/tree"
)

// sharedFeatures covers the cues all variants use: unit length, boundary
// tokens, and punctuation counts.
func sharedFeatures(n *tree.Node, fv classify.FeatureVector) {
	leaves := n.Leaves()
	fv["len"] = float64(len(leaves))
	if len(leaves) == 0 {
		return
	}
	fv["first="+strings.ToLower(leaves[0])] = 1
	fv["last="+strings.ToLower(leaves[len(leaves)-1])] = 1
	if r := []rune(leaves[0]); len(r) > 0 && unicode.IsUpper(r[0]) {
		fv["first_upper"] = 1
	}
	for _, tok := range leaves {
		switch tok {
		case ",", ";", ":", "-":
			fv["inner_punct"]++
		case ".", "!", "?":
			fv["final_punct"]++
		}
	}
}

func ruleFeatures(n *tree.Node) classify.FeatureVector {
	fv := classify.FeatureVector{}
	sharedFeatures(n, fv)
	return fv
}

func constituencyFeatures(n *tree.Node) classify.FeatureVector {
	fv := classify.FeatureVector{}
	sharedFeatures(n, fv)
	fv["depth"] = float64(n.Depth())
	fv["children"] = float64(len(n.Children))
	if n.Label != "" {
		fv["cat="+n.Label] = 1
	}
	for _, c := range n.Children {
		if c.Label != "" {
			fv["child="+c.Label]++
		}
	}
	return fv
}

func dependencyFeatures(n *tree.Node) classify.FeatureVector {
	fv := classify.FeatureVector{}
	sharedFeatures(n, fv)
	fv["children"] = float64(len(n.Children))
	for _, c := range n.Children {
		if c.Label != "" {
			fv["rel="+c.Label]++
		}
	}
	return fv
}
