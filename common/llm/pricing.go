package llm

import "strings"

// ModelPricing holds per-million-token pricing for a model.
type ModelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// DefaultPricing returns built-in pricing for well-known models.
func DefaultPricing() map[string]ModelPricing {
	return map[string]ModelPricing{
		// OpenAI
		"gpt-4o":       {2.50, 10.0},
		"gpt-4o-mini":  {0.15, 0.60},
		"gpt-4.1":      {2.0, 8.0},
		"gpt-4.1-mini": {0.40, 1.60},
		"gpt-4.1-nano": {0.10, 0.40},
		"o3":           {2.0, 8.0},
		"o3-mini":      {1.10, 4.40},
		"o4-mini":      {1.10, 4.40},
		// Anthropic
		"claude-sonnet-4-20250514":  {3.0, 15.0},
		"claude-opus-4-20250514":    {15.0, 75.0},
		"claude-haiku-4-5-20251001": {0.80, 4.0},
	}
}

var pricing = DefaultPricing()

// PricingFor returns the pricing for a model, trying prefix matching for
// versioned model names (e.g. "gpt-4o-2024-08-06"). The second return is
// false when the model is unknown.
func PricingFor(model string) (ModelPricing, bool) {
	if p, ok := pricing[model]; ok {
		return p, true
	}
	for name, p := range pricing {
		if strings.HasPrefix(model, name) {
			return p, true
		}
	}
	return ModelPricing{}, false
}

// CostFor computes the dollar cost of a call. Unknown models cost zero.
func CostFor(model string, inputTokens, outputTokens int) float64 {
	p, ok := PricingFor(model)
	if !ok {
		return 0
	}
	return (float64(inputTokens) * p.InputPerMillion / 1_000_000) +
		(float64(outputTokens) * p.OutputPerMillion / 1_000_000)
}
