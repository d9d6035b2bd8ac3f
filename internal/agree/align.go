// Package agree evaluates inter-annotator agreement between two
// independently produced segmentations of the same documents: token
// alignment, span confusion, kappa coefficients, and a battery of
// segmentation metrics.
package agree

import (
	"fmt"
	"strings"
	"unicode"
)

// normalizeBadChars maps a reserved class of problem characters to plain
// spaces before tokenization: non-breaking space, BOM, zero-width space,
// and control characters. Annotation tools leak these into exported text
// and they break token identity between the two sides.
func normalizeBadChars(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\u00a0', '\ufeff', '\u200b':
			return ' '
		}
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return ' '
		}
		return r
	}, s)
}

func tokenize(s string) []string {
	return strings.Fields(normalizeBadChars(s))
}

// alignTokens maps each token index of pred onto a token index of gold via
// a minimum-edit-distance alignment (unit costs, exact-match zero). Gap
// positions inherit the nearest preceding mapped index. It fails when the
// edit distance exceeds half the longer sequence: the two token streams do
// not describe the same text.
func alignTokens(gold, pred []string) ([]int, error) {
	n, m := len(gold), len(pred)
	if n == 0 || m == 0 {
		return nil, fmt.Errorf("empty token stream (gold=%d, pred=%d tokens)", n, m)
	}

	d := make([][]int, m+1)
	for i := range d {
		d[i] = make([]int, n+1)
	}
	for i := 0; i <= m; i++ {
		d[i][0] = i
	}
	for j := 0; j <= n; j++ {
		d[0][j] = j
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			sub := d[i-1][j-1]
			if pred[i-1] != gold[j-1] {
				sub++
			}
			d[i][j] = min3(sub, d[i-1][j]+1, d[i][j-1]+1)
		}
	}

	limit := max(n, m) / 2
	if d[m][n] > limit {
		return nil, fmt.Errorf("token streams diverge: edit distance %d over %d/%d tokens", d[m][n], n, m)
	}

	// Backtrace, preferring diagonal moves so matched tokens map directly.
	mapping := make([]int, m)
	i, j := m, n
	for i > 0 {
		switch {
		case j > 0 && d[i][j] == d[i-1][j-1]+costSub(pred[i-1], gold[j-1]):
			mapping[i-1] = j - 1
			i--
			j--
		case d[i][j] == d[i-1][j]+1:
			mapping[i-1] = max(j-1, 0)
			i--
		default:
			j--
		}
	}
	return mapping, nil
}

func costSub(a, b string) int {
	if a == b {
		return 0
	}
	return 1
}

func min3(a, b, c int) int {
	return min(min(a, b), c)
}
