package domain

// Config mirrors ~/.docify/config.yaml.
type Config struct {
	ConfigFormatVersion string               `yaml:"config_format_version"`
	Generation          GenerationSettings   `yaml:"generation"`
	Providers           []ProviderDefinition `yaml:"providers"`
	Filters             FilterSettings       `yaml:"filters"`
}

// GenerationSettings captures run-level defaults.
type GenerationSettings struct {
	Provider         string `yaml:"provider"`
	FallbackProvider string `yaml:"fallback_provider"`
	Parallelism      int    `yaml:"parallelism"`
	MaxExamples      int    `yaml:"max_examples"`
	ContextLines     int    `yaml:"context_lines"`
	TimeoutSeconds   int    `yaml:"timeout"`
}

// FilterSettings selects which source files contribute candidate symbols.
// Patterns use doublestar glob syntax.
type FilterSettings struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// ProviderDefinition describes an LLM backend declared in the config file.
type ProviderDefinition struct {
	Name            string  `yaml:"name"`
	Endpoint        string  `yaml:"endpoint"`
	AuthEnvVar      string  `yaml:"auth_env_var"`
	OrgEnvVar       string  `yaml:"org_env_var"`
	ModelID         string  `yaml:"model_id"`
	MaxTokens       int     `yaml:"max_tokens"`
	InputCostPer1K  float64 `yaml:"input_cost_per_1k"`
	OutputCostPer1K float64 `yaml:"output_cost_per_1k"`
}

// ProviderByName looks up a provider definition.
func (c Config) ProviderByName(name string) (ProviderDefinition, bool) {
	for _, def := range c.Providers {
		if def.Name == name {
			return def, true
		}
	}
	return ProviderDefinition{}, false
}
