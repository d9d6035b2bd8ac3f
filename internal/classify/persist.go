package classify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// envelope tags serialized model state with its backend type.
type envelope struct {
	Type  string          `json:"type"`
	State json.RawMessage `json:"state"`
}

// Save writes the classifier state to path as JSON. The write is atomic:
// a temp file in the same directory is renamed over the target, so a
// half-written model never replaces a good one.
func Save(path string, c Classifier) error {
	state, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	data, err := json.Marshal(envelope{Type: c.Name(), State: state})
	if err != nil {
		return fmt.Errorf("marshal model envelope: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".model-*")
	if err != nil {
		return fmt.Errorf("create temp model: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close model: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace model: %w", err)
	}
	return nil
}

// Load reads a model file written by Save and reconstructs the backend.
func Load(path string) (Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse model envelope: %w", err)
	}

	var c Classifier
	switch env.Type {
	case "dtree":
		c = &DecisionTree{}
	case "majority":
		c = &Majority{}
	default:
		return nil, fmt.Errorf("unknown model type %q", env.Type)
	}
	if err := json.Unmarshal(env.State, c); err != nil {
		return nil, fmt.Errorf("parse %s model state: %w", env.Type, err)
	}
	return c, nil
}
