// Package classify implements the tiered classifier: up to three escalating
// model invocations per event, gated by confidence thresholds, with a
// content-addressed result cache in front to avoid repeat spend.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/switchyardhq/switchyard/common/llm"
	"github.com/switchyardhq/switchyard/internal/event"
)

// Default confidence thresholds. Overridable per deployment via Config and
// at runtime via SetThresholds.
const (
	DefaultStandardThreshold = 0.8
	DefaultPremiumThreshold  = 0.6
)

// Config holds classifier configuration.
type Config struct {
	CheapModel    string
	StandardModel string
	PremiumModel  string

	// StandardThreshold is the cheap-tier confidence needed to avoid
	// escalating to standard; PremiumThreshold is the standard-tier
	// confidence needed to avoid escalating to premium. Zero means default.
	StandardThreshold float64
	PremiumThreshold  float64

	CacheEnabled bool
}

// Classifier escalates an event through cheap → standard → premium model
// tiers until a tier answers confidently enough, or the premium tier answers
// at all. It never fails for a well-formed event; every degradation path
// ends in a usable ClassificationResult.
type Classifier struct {
	invoker llm.Invoker
	models  [3]tierModel
	cache   *resultCache // nil when caching is disabled

	mu                sync.RWMutex
	standardThreshold float64
	premiumThreshold  float64
}

type tierModel struct {
	tier  event.Tier
	model string
}

// New creates a Classifier over the given model invocation capability.
func New(invoker llm.Invoker, cfg Config) *Classifier {
	standardThreshold := cfg.StandardThreshold
	if standardThreshold == 0 {
		standardThreshold = DefaultStandardThreshold
	}
	premiumThreshold := cfg.PremiumThreshold
	if premiumThreshold == 0 {
		premiumThreshold = DefaultPremiumThreshold
	}

	c := &Classifier{
		invoker: invoker,
		models: [3]tierModel{
			{tier: event.TierCheap, model: cfg.CheapModel},
			{tier: event.TierStandard, model: cfg.StandardModel},
			{tier: event.TierPremium, model: cfg.PremiumModel},
		},
		standardThreshold: standardThreshold,
		premiumThreshold:  premiumThreshold,
	}
	if cfg.CacheEnabled {
		c.cache = newResultCache()
	}
	return c
}

// SetThresholds replaces both escalation thresholds at runtime.
func (c *Classifier) SetThresholds(standard, premium float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.standardThreshold = standard
	c.premiumThreshold = premium
}

func (c *Classifier) thresholds() (standard, premium float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.standardThreshold, c.premiumThreshold
}

// ClearCache drops every cached result. This is the only eviction path;
// callers wanting TTL-based eviction wrap the classifier.
func (c *Classifier) ClearCache() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// CacheStats reports cache size and hit/miss counters. Zero-valued when
// caching is disabled.
func (c *Classifier) CacheStats() CacheStats {
	if c.cache == nil {
		return CacheStats{}
	}
	return c.cache.Stats()
}

// Classify runs the tiered classification for one event. A cached result is
// returned verbatim, with cost reported as originally incurred rather than
// re-charged. Tier failures (invocation error or unparseable output) count
// as zero confidence and escalate; a premium-tier failure degrades to an
// UNKNOWN fallback result carrying the cost actually incurred.
func (c *Classifier) Classify(ctx context.Context, ev event.WebhookEvent) event.ClassificationResult {
	key := event.Fingerprint(ev.Source, ev.Payload)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			slog.DebugContext(ctx, "classification cache hit",
				"webhook_id", ev.WebhookID,
				"category", cached.Category,
				"tier", cached.Tier)
			return cached
		}
	}

	result := c.classifyTiered(ctx, ev)

	if c.cache != nil {
		c.cache.Put(key, result)
	}
	return result
}

func (c *Classifier) classifyTiered(ctx context.Context, ev event.WebhookEvent) event.ClassificationResult {
	prompt := buildPrompt(ev)
	standardThreshold, premiumThreshold := c.thresholds()

	var (
		runningCost float64
		path        []string
		lastErr     error
	)

	for i, tm := range c.models {
		path = append(path, tm.model)

		inv, err := c.invoker.Invoke(ctx, tm.model, prompt)
		if err != nil {
			// Failed tier counts as zero confidence: escalate instead of
			// aborting. The premium tier has nowhere left to escalate to.
			lastErr = err
			slog.WarnContext(ctx, "tier invocation failed",
				"webhook_id", ev.WebhookID,
				"tier", tm.tier,
				"model", tm.model,
				"error", err)
			continue
		}
		runningCost += inv.Cost

		parsed, err := parseResponse(inv.Text)
		if err != nil {
			lastErr = err
			slog.WarnContext(ctx, "tier output unparseable",
				"webhook_id", ev.WebhookID,
				"tier", tm.tier,
				"model", tm.model,
				"error", err)
			continue
		}

		// Premium is terminal: its output is authoritative regardless of its
		// own confidence. Lower tiers must clear their threshold to stop.
		terminal := i == len(c.models)-1
		threshold := standardThreshold
		if tm.tier == event.TierStandard {
			threshold = premiumThreshold
		}
		if !terminal && parsed.Confidence < threshold {
			slog.DebugContext(ctx, "escalating to next tier",
				"webhook_id", ev.WebhookID,
				"tier", tm.tier,
				"confidence", parsed.Confidence,
				"threshold", threshold)
			continue
		}

		result := event.ClassificationResult{
			Category:       parsed.Category,
			Confidence:     parsed.Confidence,
			Actions:        parsed.actions(),
			Reasoning:      parsed.Reasoning,
			Tier:           tm.tier,
			Model:          tm.model,
			Escalated:      len(path) > 1,
			EscalationPath: path,
			Cost:           runningCost,
		}
		slog.InfoContext(ctx, "event classified",
			"webhook_id", ev.WebhookID,
			"category", result.Category,
			"confidence", result.Confidence,
			"tier", result.Tier,
			"escalated", result.Escalated,
			"cost", result.Cost)
		return result
	}

	// Premium tier itself failed: return a safe fallback rather than erroring.
	reasoning := "classification unavailable: all tiers failed"
	if lastErr != nil {
		reasoning = fmt.Sprintf("classification unavailable: %v", lastErr)
	}
	result := event.ClassificationResult{
		Category:       event.CategoryUnknown,
		Confidence:     0,
		Actions:        []event.Action{event.ActionIgnore},
		Reasoning:      reasoning,
		Tier:           event.TierPremium,
		Model:          c.models[2].model,
		Escalated:      len(path) > 1,
		EscalationPath: path,
		Cost:           runningCost,
	}
	slog.ErrorContext(ctx, "classification degraded to fallback",
		"webhook_id", ev.WebhookID,
		"escalation_path", path,
		"cost", runningCost,
		"error", lastErr)
	return result
}
