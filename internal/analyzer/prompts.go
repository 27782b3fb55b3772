package analyzer

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPromptsYAML []byte

// Prompts holds the instructions sent to the model with every image.
type Prompts struct {
	Model  string `yaml:"model"`
	System string `yaml:"system"`
	Prompt string `yaml:"prompt"`
}

// DefaultPrompts returns the built-in prompts.
func DefaultPrompts() Prompts {
	var p Prompts
	if err := yaml.Unmarshal(defaultPromptsYAML, &p); err != nil {
		panic(fmt.Sprintf("analyzer: embedded prompts: %v", err))
	}
	return p
}

// LoadPrompts reads prompts from a YAML file. Fields the file leaves empty
// keep their built-in values. An empty path returns the defaults.
func LoadPrompts(path string) (Prompts, error) {
	p := DefaultPrompts()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Prompts{}, fmt.Errorf("reading prompts file: %w", err)
	}

	var override Prompts
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Prompts{}, fmt.Errorf("parsing prompts file: %w", err)
	}

	if strings.TrimSpace(override.Model) != "" {
		p.Model = strings.TrimSpace(override.Model)
	}
	if strings.TrimSpace(override.System) != "" {
		p.System = override.System
	}
	if strings.TrimSpace(override.Prompt) != "" {
		p.Prompt = override.Prompt
	}
	return p, nil
}
