package classify

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/switchyardhq/switchyard/common/llm"
	"github.com/switchyardhq/switchyard/internal/event"
)

// CostEstimate bounds the dollar cost of classifying one event before any
// model is invoked. MinCost assumes the cheap tier answers confidently;
// MaxCost assumes full escalation through all three tiers.
type CostEstimate struct {
	PromptTokens int `json:"prompt_tokens"`

	CheapTierCost    float64 `json:"cheap_tier_cost"`
	StandardTierCost float64 `json:"standard_tier_cost"`
	PremiumTierCost  float64 `json:"premium_tier_cost"`

	MinCost      float64 `json:"min_cost"`
	MaxCost      float64 `json:"max_cost"`
	ExpectedCost float64 `json:"expected_cost"`
}

// Assumed completion length for a tier response. The output contract is a
// small JSON object, so this is generous.
const estimatedCompletionTokens = 160

// Observed escalation rates used for the expected-cost heuristic: roughly a
// third of events get past the cheap tier, and under half of those reach
// premium.
const (
	standardEscalationRate = 0.30
	premiumEscalationRate  = 0.12
)

var (
	fallbackCodecOnce sync.Once
	fallbackCodec     tokenizer.Codec
)

// EstimateCost computes the per-tier and aggregate cost bounds for an event
// without invoking any model. A cached result would make the real cost zero;
// the estimate ignores the cache and prices the worst case.
func (c *Classifier) EstimateCost(ev event.WebhookEvent) CostEstimate {
	prompt := buildPrompt(ev)
	promptTokens := countTokens(c.models[0].model, prompt)

	est := CostEstimate{
		PromptTokens:     promptTokens,
		CheapTierCost:    llm.CostFor(c.models[0].model, promptTokens, estimatedCompletionTokens),
		StandardTierCost: llm.CostFor(c.models[1].model, promptTokens, estimatedCompletionTokens),
		PremiumTierCost:  llm.CostFor(c.models[2].model, promptTokens, estimatedCompletionTokens),
	}
	est.MinCost = est.CheapTierCost
	est.MaxCost = est.CheapTierCost + est.StandardTierCost + est.PremiumTierCost
	est.ExpectedCost = est.CheapTierCost +
		standardEscalationRate*est.StandardTierCost +
		premiumEscalationRate*est.PremiumTierCost
	return est
}

// countTokens counts prompt tokens with the model's own tokenizer when it
// has one, falling back to o200k_base and finally to a bytes/4 heuristic.
func countTokens(model, text string) int {
	codec, err := tokenizer.ForModel(tokenizer.Model(model))
	if err != nil {
		fallbackCodecOnce.Do(func() {
			fallbackCodec, _ = tokenizer.Get(tokenizer.O200kBase)
		})
		codec = fallbackCodec
	}
	if codec != nil {
		if n, err := codec.Count(text); err == nil {
			return n
		}
	}
	return len(text) / 4
}
