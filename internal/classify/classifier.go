// Package classify defines the trainable classifier contract used by the
// cross-validation orchestrator, with pluggable backends.
package classify

// FeatureVector is a sparse numeric feature map. Absent keys read as zero.
type FeatureVector map[string]float64

// Classifier is the opaque fit/predict contract. Fit fully replaces any
// previously trained state; backends must not depend on incremental updates.
type Classifier interface {
	// Name identifies the backend for model persistence ("dtree", "majority").
	Name() string
	// Fit trains on parallel feature/label slices.
	Fit(features []FeatureVector, labels []string) error
	// Predict returns one label per feature vector.
	Predict(features []FeatureVector) []string
}
