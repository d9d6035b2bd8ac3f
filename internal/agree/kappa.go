package agree

import (
	"discoseg/internal/metrics"
)

// LabelPair is one confusion tuple: the label each side assigned to the
// same span extent. An empty side means that side has no span there.
type LabelPair struct {
	Gold string
	Pred string
}

// Matching reports whether both sides labeled the span.
func (lp LabelPair) Matching() bool { return lp.Gold != "" && lp.Pred != "" }

// confusionPairs collects, per span extent occurring on either side, the
// two labels. Extents only one side produced get an empty label for the
// other side.
func confusionPairs(p DocPair) []LabelPair {
	type extent struct{ start, end int }
	gold := make(map[extent]string)
	for _, s := range p.GoldSpans {
		gold[extent{s.Start, s.End}] = s.Label
	}
	pred := make(map[extent]string)
	for _, s := range p.PredSpans {
		pred[extent{s.Start, s.End}] = s.Label
	}

	var pairs []LabelPair
	for _, s := range p.GoldSpans {
		pairs = append(pairs, LabelPair{Gold: s.Label, Pred: pred[extent{s.Start, s.End}]})
	}
	for _, s := range p.PredSpans {
		if _, ok := gold[extent{s.Start, s.End}]; !ok {
			pairs = append(pairs, LabelPair{Pred: s.Label})
		}
	}
	return pairs
}

// KappaSet is the three categorical-agreement coefficients: over all span
// pairs, over pairs where the gold side labeled the span, and over pairs
// where both sides did.
type KappaSet struct {
	All      float64
	Gold     float64
	Matching float64
}

// Kappas computes the coefficient set over a corpus-wide confusion list.
// Unlabeled sides count as the sentinel class.
func Kappas(pairs []LabelPair) KappaSet {
	return KappaSet{
		All:  cohenKappa(pairs),
		Gold: cohenKappa(filterPairs(pairs, func(lp LabelPair) bool { return lp.Gold != "" })),
		Matching: cohenKappa(filterPairs(pairs, func(lp LabelPair) bool {
			return lp.Matching()
		})),
	}
}

func filterPairs(pairs []LabelPair, keep func(LabelPair) bool) []LabelPair {
	var out []LabelPair
	for _, lp := range pairs {
		if keep(lp) {
			out = append(out, lp)
		}
	}
	return out
}

// cohenKappa is (po - pe) / (1 - pe) over the pair list, pe from the two
// sides' marginal label distributions.
func cohenKappa(pairs []LabelPair) float64 {
	if len(pairs) == 0 {
		return 1
	}
	a := make([]string, len(pairs))
	b := make([]string, len(pairs))
	for i, lp := range pairs {
		a[i] = orNone(lp.Gold)
		b[i] = orNone(lp.Pred)
	}
	return chanceCorrected(a, b)
}

func orNone(label string) string {
	if label == "" {
		return metrics.NoneLabel
	}
	return label
}

// corpusPairs pools confusion tuples over every document pair.
func corpusPairs(docs []DocPair) []LabelPair {
	var all []LabelPair
	for _, p := range docs {
		all = append(all, confusionPairs(p)...)
	}
	return all
}
