// processmate/prompts/prompts.go
package prompts

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"processmate/processmate/types"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Set holds the fixed system instruction for each relay mode.
type Set struct {
	Strict  string `yaml:"strict"`
	Lenient string `yaml:"lenient"`
}

// Load reads prompts from path, or the embedded defaults when path is empty.
// Prompts missing from the file keep their embedded value.
func Load(path string) (*Set, error) {
	set, err := parse(defaultPrompts)
	if err != nil {
		return nil, fmt.Errorf("embedded prompts: %w", err)
	}
	if path == "" {
		return set, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	override, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("prompts file %s: %w", path, err)
	}
	if override.Strict != "" {
		set.Strict = override.Strict
	}
	if override.Lenient != "" {
		set.Lenient = override.Lenient
	}
	return set, nil
}

func parse(data []byte) (*Set, error) {
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, err
	}
	set.Strict = strings.TrimSpace(set.Strict)
	set.Lenient = strings.TrimSpace(set.Lenient)
	return &set, nil
}

func (s *Set) ForMode(mode types.Mode) string {
	if mode == types.ModeLenient {
		return s.Lenient
	}
	return s.Strict
}
