package parse

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// PromptProfile is one named parser configuration from the embedded
// registry: which model to call and with what prompt.
type PromptProfile struct {
	Model        string  `yaml:"model" json:"model"`
	Temperature  float32 `yaml:"temperature" json:"temperature"`
	MaxTokens    int     `yaml:"max_tokens" json:"max_tokens"`
	SystemPrompt string  `yaml:"system_prompt" json:"system_prompt"`
}

// Registry holds the parser prompt profiles loaded from embedded YAML
type Registry struct {
	profiles map[string]PromptProfile
}

// NewRegistry loads the embedded profile registry
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/profiles.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read parser profiles: %w", err)
	}

	var file struct {
		Profiles map[string]PromptProfile `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal parser profiles: %w", err)
	}
	if len(file.Profiles) == 0 {
		return nil, fmt.Errorf("parser profile registry is empty")
	}

	return &Registry{profiles: file.Profiles}, nil
}

// Profile returns the named profile
func (r *Registry) Profile(name string) (PromptProfile, error) {
	profile, ok := r.profiles[name]
	if !ok {
		return PromptProfile{}, fmt.Errorf("unknown parser profile: %s", name)
	}
	return profile, nil
}
