// Package metrics computes classification-quality scores for segment labels:
// macro/micro F1 over the multi-class label set and the pooled detection
// statistic against the "none" sentinel.
package metrics

import (
	"math"
	"strings"
)

// NoneLabel is the sentinel class meaning "no discourse boundary here".
// Comparisons against it are case-insensitive.
const NoneLabel = "none"

// IsNone reports whether label is the sentinel class.
func IsNone(label string) bool { return strings.EqualFold(label, NoneLabel) }

// DetectionCounts accumulates (tp, fp, fn) against the sentinel class.
// True negatives (gold none, predicted none) are not counted. Counts are
// pooled additively across folds and documents, never averaged.
type DetectionCounts struct {
	TP int
	FP int
	FN int
}

// Add accumulates counts for one (gold, predicted) label sequence.
// The slices must have equal length; extra predictions are ignored.
func (d *DetectionCounts) Add(gold, pred []string) {
	n := len(gold)
	if len(pred) < n {
		n = len(pred)
	}
	for i := 0; i < n; i++ {
		switch {
		case IsNone(gold[i]) && IsNone(pred[i]):
			// true negative, not counted
		case IsNone(gold[i]):
			d.FP++
		case strings.EqualFold(gold[i], pred[i]):
			d.TP++
		default:
			d.FN++
		}
	}
}

// Merge adds another set of counts into d.
func (d *DetectionCounts) Merge(o DetectionCounts) {
	d.TP += o.TP
	d.FP += o.FP
	d.FN += o.FN
}

// F1 returns 2tp / (2tp + fp + fn). With no events at all there is nothing
// to measure and the score is 1.
func (d DetectionCounts) F1() float64 {
	denom := 2*d.TP + d.FP + d.FN
	if denom == 0 {
		return 1.0
	}
	return float64(2*d.TP) / float64(denom)
}

// classCounts holds per-class tp/fp/fn over a (gold, predicted) sequence.
type classCounts struct{ tp, fp, fn int }

func countPerClass(gold, pred []string) map[string]*classCounts {
	counts := make(map[string]*classCounts)
	get := func(label string) *classCounts {
		key := strings.ToLower(label)
		c, ok := counts[key]
		if !ok {
			c = &classCounts{}
			counts[key] = c
		}
		return c
	}
	n := len(gold)
	if len(pred) < n {
		n = len(pred)
	}
	for i := 0; i < n; i++ {
		if strings.EqualFold(gold[i], pred[i]) {
			get(gold[i]).tp++
			continue
		}
		get(gold[i]).fn++
		get(pred[i]).fp++
	}
	return counts
}

// MacroF1 averages per-class F1 over the classes present in gold or
// predicted. Classes whose F1 is undefined (no true, no predicted instances)
// do not enter the class count.
func MacroF1(gold, pred []string) float64 {
	counts := countPerClass(gold, pred)
	sum, classes := 0.0, 0
	for _, c := range counts {
		denom := 2*c.tp + c.fp + c.fn
		if denom == 0 {
			continue
		}
		sum += float64(2*c.tp) / float64(denom)
		classes++
	}
	if classes == 0 {
		return 0
	}
	return sum / float64(classes)
}

// MicroF1 pools tp/fp/fn over all classes before computing F1. For
// single-label classification this equals instance accuracy.
func MicroF1(gold, pred []string) float64 {
	counts := countPerClass(gold, pred)
	var tp, fp, fn int
	for _, c := range counts {
		tp += c.tp
		fp += c.fp
		fn += c.fn
	}
	denom := 2*tp + fp + fn
	if denom == 0 {
		return 0
	}
	return float64(2*tp) / float64(denom)
}

// Mean returns the arithmetic mean of vals (0 for an empty slice).
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// Stddev returns the sample standard deviation of vals (0 for fewer than
// two values).
func Stddev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := Mean(vals)
	sum := 0.0
	for _, v := range vals {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(vals)-1))
}
