package crossval

import (
	"fmt"
	"strings"
)

// FormatReport produces the human-readable cross-validation report.
func FormatReport(r *Report) string {
	var b strings.Builder

	b.WriteString("=== Cross-Validation Report ===\n")
	fmt.Fprintf(&b, "Documents: %d\n", r.Documents)
	fmt.Fprintf(&b, "Folds:     %d\n\n", len(r.Folds))

	for _, fr := range r.Folds {
		mark := " "
		if fr.Fold == r.BestFold {
			mark = "*"
		}
		fmt.Fprintf(&b, "fold %2d%s macro-F1=%.4f micro-F1=%.4f tp=%d fp=%d fn=%d (%d docs)\n",
			fr.Fold, mark, fr.MacroF1, fr.MicroF1,
			fr.Counts.TP, fr.Counts.FP, fr.Counts.FN, len(fr.TestDocs))
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "macro-F1: mean=%.4f stddev=%.4f\n", r.MacroMean, r.MacroStddev)
	fmt.Fprintf(&b, "micro-F1: mean=%.4f stddev=%.4f\n", r.MicroMean, r.MicroStddev)
	fmt.Fprintf(&b, "detection F1 (pooled): %.4f (tp=%d fp=%d fn=%d)\n",
		r.DetectionF1, r.Detection.TP, r.Detection.FP, r.Detection.FN)
	fmt.Fprintf(&b, "best fold: %d (macro-F1=%.4f)\n", r.BestFold, r.BestMacroF1)

	return b.String()
}
