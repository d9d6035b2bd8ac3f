package agree

import (
	"discoseg/internal/metrics"
	"discoseg/internal/tree"
)

// DocPair is one document's two segmentations brought into a shared token
// coordinate system (the gold side's offsets).
type DocPair struct {
	Doc       string
	Tokens    int
	GoldSpans []tree.Span
	PredSpans []tree.Span
}

// ScoreFunc computes one agreement metric over a document pair. Pooled
// corpus scores reuse the same function over a concatenated pair.
type ScoreFunc func(p DocPair) float64

// NamedMetric pairs a report column name with its scorer.
type NamedMetric struct {
	Name  string
	Score ScoreFunc
}

// Metrics is the evaluation battery, in report column order.
func Metrics() []NamedMetric {
	return []NamedMetric{
		{"pk", Pk},
		{"windowdiff", WindowDiff},
		{"boundary_sim", BoundarySimilarity},
		{"alpha_u", AlphaUntyped},
		{"alpha_t", AlphaTyped},
		{"tree_f1", TreeF1Labelled},
		{"tree_f1_u", TreeF1Unlabelled},
	}
}

// concat merges document pairs into one corpus-level pair by offsetting
// span coordinates, so pooled scores weight documents by token count.
func concat(pairs []DocPair) DocPair {
	var out DocPair
	out.Doc = "corpus"
	for _, p := range pairs {
		for _, s := range p.GoldSpans {
			out.GoldSpans = append(out.GoldSpans, tree.Span{Label: s.Label, Start: s.Start + out.Tokens, End: s.End + out.Tokens})
		}
		for _, s := range p.PredSpans {
			out.PredSpans = append(out.PredSpans, tree.Span{Label: s.Label, Start: s.Start + out.Tokens, End: s.End + out.Tokens})
		}
		out.Tokens += p.Tokens
	}
	return out
}

// boundaries returns the boundary indicator vector: true at position i when
// a span starts there, for 0 < i < tokens.
func boundaries(spans []tree.Span, tokens int) []bool {
	b := make([]bool, tokens)
	for _, s := range spans {
		if s.Start > 0 && s.Start < tokens {
			b[s.Start] = true
		}
		if s.End > 0 && s.End < tokens {
			b[s.End] = true
		}
	}
	return b
}

// segmentIDs assigns each token the index of the segment it falls in,
// segments being the stretches between consecutive boundaries.
func segmentIDs(b []bool) []int {
	ids := make([]int, len(b))
	seg := 0
	for i := range b {
		if i > 0 && b[i] {
			seg++
		}
		ids[i] = seg
	}
	return ids
}

func boundaryCount(b []bool) int {
	n := 0
	for _, v := range b {
		if v {
			n++
		}
	}
	return n
}

// pkWindow is the conventional window size: half the mean gold segment
// length, at least 2.
func pkWindow(goldBounds []bool) int {
	segs := boundaryCount(goldBounds) + 1
	k := len(goldBounds) / (2 * segs)
	if k < 2 {
		k = 2
	}
	return k
}

// Pk is the probability that two tokens a window apart are classified
// into the same segment by one side and different segments by the other.
// Lower is better; reported as an error rate in [0,1].
func Pk(p DocPair) float64 {
	gb := boundaries(p.GoldSpans, p.Tokens)
	pb := boundaries(p.PredSpans, p.Tokens)
	k := pkWindow(gb)
	if p.Tokens <= k {
		return 0
	}
	gid, pid := segmentIDs(gb), segmentIDs(pb)
	errs, total := 0, 0
	for i := 0; i+k < p.Tokens; i++ {
		if (gid[i] == gid[i+k]) != (pid[i] == pid[i+k]) {
			errs++
		}
		total++
	}
	return float64(errs) / float64(total)
}

// WindowDiff slides the same window and counts positions where the two
// sides disagree on the number of boundaries inside the window.
func WindowDiff(p DocPair) float64 {
	gb := boundaries(p.GoldSpans, p.Tokens)
	pb := boundaries(p.PredSpans, p.Tokens)
	k := pkWindow(gb)
	if p.Tokens <= k {
		return 0
	}
	errs, total := 0, 0
	for i := 0; i+k < p.Tokens; i++ {
		gc, pc := 0, 0
		for j := i + 1; j <= i+k; j++ {
			if gb[j] {
				gc++
			}
			if pb[j] {
				pc++
			}
		}
		if gc != pc {
			errs++
		}
		total++
	}
	return float64(errs) / float64(total)
}

// boundaryEditWindow is the near-miss tolerance for boundary matching.
const boundaryEditWindow = 2

// BoundarySimilarity scores boundary placement on a [0,1] scale: exact
// matches are free, near misses within the tolerance window cost half an
// edit, unmatched boundaries cost a full edit.
func BoundarySimilarity(p DocPair) float64 {
	gpos := boundaryPositions(p.GoldSpans, p.Tokens)
	ppos := boundaryPositions(p.PredSpans, p.Tokens)
	if len(gpos) == 0 && len(ppos) == 0 {
		return 1
	}

	matched := make([]bool, len(ppos))
	cost := 0.0
	units := 0.0
	for _, g := range gpos {
		best, bestDist := -1, boundaryEditWindow+1
		for j, q := range ppos {
			if matched[j] {
				continue
			}
			d := abs(g - q)
			if d < bestDist {
				best, bestDist = j, d
			}
		}
		units++
		switch {
		case best < 0:
			cost++
		case bestDist == 0:
			matched[best] = true
		default:
			matched[best] = true
			cost += 0.5
		}
	}
	for j := range ppos {
		if !matched[j] {
			cost++
			units++
		}
	}
	return 1 - cost/units
}

func boundaryPositions(spans []tree.Span, tokens int) []int {
	b := boundaries(spans, tokens)
	var pos []int
	for i, v := range b {
		if v {
			pos = append(pos, i)
		}
	}
	return pos
}

// AlphaUntyped is a chance-corrected agreement coefficient over per-token
// unit membership: inside any labeled span versus outside all of them.
func AlphaUntyped(p DocPair) float64 {
	g := tokenLabels(p.GoldSpans, p.Tokens)
	q := tokenLabels(p.PredSpans, p.Tokens)
	for i := range g {
		if g[i] != metrics.NoneLabel {
			g[i] = "unit"
		}
		if q[i] != metrics.NoneLabel {
			q[i] = "unit"
		}
	}
	return chanceCorrected(g, q)
}

// AlphaTyped is the same coefficient with the span label as the per-token
// category.
func AlphaTyped(p DocPair) float64 {
	return chanceCorrected(tokenLabels(p.GoldSpans, p.Tokens), tokenLabels(p.PredSpans, p.Tokens))
}

// tokenLabels assigns each token the label of the first span covering it.
func tokenLabels(spans []tree.Span, tokens int) []string {
	out := make([]string, tokens)
	for i := range out {
		out[i] = metrics.NoneLabel
	}
	for _, s := range spans {
		for i := s.Start; i < s.End && i < tokens; i++ {
			if out[i] == metrics.NoneLabel {
				out[i] = s.Label
			}
		}
	}
	return out
}

// chanceCorrected computes 1 - Do/De over two categorical sequences, with
// De the expected disagreement from the two sides' marginal distributions.
func chanceCorrected(a, b []string) float64 {
	if len(a) == 0 {
		return 1
	}
	disagree := 0
	pa := make(map[string]float64)
	pb := make(map[string]float64)
	for i := range a {
		if a[i] != b[i] {
			disagree++
		}
		pa[a[i]]++
		pb[b[i]]++
	}
	n := float64(len(a))
	do := float64(disagree) / n

	agreeExp := 0.0
	for l, ca := range pa {
		agreeExp += (ca / n) * (pb[l] / n)
	}
	de := 1 - agreeExp
	if de == 0 {
		if do == 0 {
			return 1
		}
		return 0
	}
	return 1 - do/de
}

// TreeF1Labelled is span F1 requiring label, start, and end to match.
func TreeF1Labelled(p DocPair) float64 {
	return spanF1(p, true)
}

// TreeF1Unlabelled requires only the span extent to match.
func TreeF1Unlabelled(p DocPair) float64 {
	return spanF1(p, false)
}

type spanKey struct {
	label      string
	start, end int
}

func spanF1(p DocPair, labelled bool) float64 {
	key := func(s tree.Span) spanKey {
		k := spanKey{start: s.Start, end: s.End}
		if labelled {
			k.label = s.Label
		}
		return k
	}
	gold := make(map[spanKey]int)
	for _, s := range p.GoldSpans {
		gold[key(s)]++
	}
	tp := 0
	for _, s := range p.PredSpans {
		if gold[key(s)] > 0 {
			gold[key(s)]--
			tp++
		}
	}
	denom := len(p.GoldSpans) + len(p.PredSpans)
	if denom == 0 {
		return 1
	}
	return 2 * float64(tp) / float64(denom)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
