package ai

import (
	"strings"

	"github.com/Bardin08/docify/internal/domain"
)

// defaultPricing maps model-id prefixes to input cost per 1K tokens (USD),
// used when the config does not declare a price.
var defaultPricing = []struct {
	prefix string
	per1K  float64
}{
	{"claude-3-5-sonnet", 0.003},
	{"claude-3-haiku", 0.00025},
	{"claude", 0.003},
	{"gpt-4o-mini", 0.00015},
	{"gpt-4o", 0.0025},
	{"gpt-4", 0.03},
	{"gemini-2.0-flash", 0.0001},
	{"gemini", 0.000125},
}

// estimateCost converts a token estimate into a dollar figure. Local models
// without a configured price cost nothing.
func estimateCost(def domain.ProviderDefinition, tokens int) float64 {
	if tokens <= 0 {
		return 0
	}
	per1K := def.InputCostPer1K
	if per1K == 0 {
		per1K = lookupDefaultPrice(def.ModelID)
	}
	return float64(tokens) / 1000 * per1K
}

func lookupDefaultPrice(modelID string) float64 {
	for _, p := range defaultPricing {
		if strings.HasPrefix(modelID, p.prefix) {
			return p.per1K
		}
	}
	return 0
}
