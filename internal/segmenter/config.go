package segmenter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML configuration accepted by the CLI. Flags
// override file values.
type FileConfig struct {
	Variant    string `yaml:"variant"`
	TreeSuffix string `yaml:"tree_suffix"`
	SegSuffix  string `yaml:"seg_suffix"`
	OutSuffix  string `yaml:"out_suffix"`
	Encoding   string `yaml:"encoding"`
	MaxDepth   int    `yaml:"max_depth"`
	MinLeaf    int    `yaml:"min_leaf"`
}

// LoadFileConfig reads and parses a YAML config file.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &fc, nil
}
