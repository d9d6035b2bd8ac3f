package classify

import "fmt"

// Majority is the baseline backend: it always predicts the most frequent
// training label.
type Majority struct {
	Class string `json:"class"`
}

func (m *Majority) Name() string { return "majority" }

func (m *Majority) Fit(features []FeatureVector, labels []string) error {
	if len(labels) == 0 {
		return fmt.Errorf("majority: empty training set")
	}
	idx := make([]int, len(labels))
	for i := range idx {
		idx[i] = i
	}
	m.Class = majorityLabel(labels, idx)
	return nil
}

func (m *Majority) Predict(features []FeatureVector) []string {
	out := make([]string, len(features))
	for i := range out {
		out[i] = m.Class
	}
	return out
}
