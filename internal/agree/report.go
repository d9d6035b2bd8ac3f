package agree

import (
	"fmt"
	"strings"

	"discoseg/internal/format"
)

// FormatReport renders the per-document score table with mean, stddev, and
// pooled aggregate rows, followed by the kappa coefficients and the list of
// excluded documents.
func FormatReport(res *Result, mode format.Mode) string {
	t := format.NewTable(mode)

	header := make([]string, 0, len(res.Metrics)+1)
	header = append(header, "document")
	for _, m := range res.Metrics {
		header = append(header, m.Name)
	}
	t.Header(header...)

	for _, ds := range res.PerDoc {
		t.Row(scoreRow(ds.Doc, ds.Values)...)
	}
	t.Row(scoreRow("mean", res.Mean)...)
	t.Row(scoreRow("stddev", res.Stddev)...)
	t.Footer(scoreRow("pooled", res.Pooled)...)

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteByte('\n')
	fmt.Fprintf(&b, "kappa_all\t%.4f\n", res.Kappa.All)
	fmt.Fprintf(&b, "kappa_gold\t%.4f\n", res.Kappa.Gold)
	fmt.Fprintf(&b, "kappa_matching\t%.4f\n", res.Kappa.Matching)
	if len(res.Skipped) > 0 {
		fmt.Fprintf(&b, "skipped\t%s\n", strings.Join(res.Skipped, " "))
	}
	return b.String()
}

func scoreRow(name string, vals []float64) []any {
	row := make([]any, 0, len(vals)+1)
	row = append(row, name)
	for _, v := range vals {
		row = append(row, fmt.Sprintf("%.4f", v))
	}
	return row
}
