package classify_test

import (
	"context"
	"encoding/json"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/switchyardhq/switchyard/common/llm"
	"github.com/switchyardhq/switchyard/internal/classify"
	"github.com/switchyardhq/switchyard/internal/event"
)

// Mock Invoker scripted per model name.
type mockInvoker struct {
	invokeFn func(ctx context.Context, model, prompt string) (*llm.Invocation, error)
	calls    []string
}

func (m *mockInvoker) Invoke(ctx context.Context, model, prompt string) (*llm.Invocation, error) {
	m.calls = append(m.calls, model)
	if m.invokeFn != nil {
		return m.invokeFn(ctx, model, prompt)
	}
	return nil, fmt.Errorf("no invokeFn configured")
}

func tierJSON(category string, confidence float64) string {
	return fmt.Sprintf(`{"category":%q,"confidence":%g,"actions":["notify"],"reasoning":"looks like %s"}`,
		category, confidence, category)
}

var _ = Describe("Classifier", func() {
	var (
		invoker *mockInvoker
		cfg     classify.Config
		ctx     context.Context
		ev      event.WebhookEvent
	)

	BeforeEach(func() {
		ctx = context.Background()
		invoker = &mockInvoker{}
		cfg = classify.Config{
			CheapModel:    "cheap-1",
			StandardModel: "standard-1",
			PremiumModel:  "premium-1",
		}
		ev = event.WebhookEvent{
			Source:    "github",
			WebhookID: "wh-1",
			Timestamp: "2026-08-28T10:00:00Z",
			Payload:   json.RawMessage(`{"action":"opened","issue":{"title":"fix login"}}`),
		}
	})

	Describe("Classify", func() {
		Context("when the cheap tier is confident", func() {
			BeforeEach(func() {
				invoker.invokeFn = func(ctx context.Context, model, prompt string) (*llm.Invocation, error) {
					return &llm.Invocation{Text: tierJSON("TASK", 0.95), Cost: 0.001}, nil
				}
			})

			It("stops at the cheap tier", func() {
				res := classify.New(invoker, cfg).Classify(ctx, ev)

				Expect(res.Category).To(Equal("TASK"))
				Expect(res.Tier).To(Equal(event.TierCheap))
				Expect(res.Model).To(Equal("cheap-1"))
				Expect(res.Escalated).To(BeFalse())
				Expect(res.EscalationPath).To(Equal([]string{"cheap-1"}))
				Expect(res.Cost).To(BeNumerically("~", 0.001, 1e-9))
				Expect(invoker.calls).To(Equal([]string{"cheap-1"}))
			})

			It("includes the event payload in the prompt", func() {
				var seenPrompt string
				invoker.invokeFn = func(ctx context.Context, model, prompt string) (*llm.Invocation, error) {
					seenPrompt = prompt
					return &llm.Invocation{Text: tierJSON("TASK", 0.95), Cost: 0.001}, nil
				}

				classify.New(invoker, cfg).Classify(ctx, ev)

				Expect(seenPrompt).To(ContainSubstring("fix login"))
				Expect(seenPrompt).To(ContainSubstring("source: github"))
				Expect(seenPrompt).To(ContainSubstring("CALENDAR"))
			})
		})

		Context("when the cheap tier is unsure", func() {
			BeforeEach(func() {
				invoker.invokeFn = func(ctx context.Context, model, prompt string) (*llm.Invocation, error) {
					switch model {
					case "cheap-1":
						return &llm.Invocation{Text: tierJSON("TASK", 0.5), Cost: 0.001}, nil
					case "standard-1":
						return &llm.Invocation{Text: tierJSON("CALENDAR", 0.9), Cost: 0.01}, nil
					}
					return nil, fmt.Errorf("unexpected model %s", model)
				}
			})

			It("escalates to the standard tier and sums costs", func() {
				res := classify.New(invoker, cfg).Classify(ctx, ev)

				Expect(res.Category).To(Equal("CALENDAR"))
				Expect(res.Tier).To(Equal(event.TierStandard))
				Expect(res.Escalated).To(BeTrue())
				Expect(res.EscalationPath).To(Equal([]string{"cheap-1", "standard-1"}))
				Expect(res.Cost).To(BeNumerically("~", 0.011, 1e-9))
			})
		})

		Context("when standard is also unsure", func() {
			BeforeEach(func() {
				invoker.invokeFn = func(ctx context.Context, model, prompt string) (*llm.Invocation, error) {
					switch model {
					case "cheap-1":
						return &llm.Invocation{Text: tierJSON("TASK", 0.3), Cost: 0.001}, nil
					case "standard-1":
						return &llm.Invocation{Text: tierJSON("TASK", 0.4), Cost: 0.01}, nil
					case "premium-1":
						return &llm.Invocation{Text: tierJSON("COMMUNICATION", 0.2), Cost: 0.1}, nil
					}
					return nil, fmt.Errorf("unexpected model %s", model)
				}
			})

			It("accepts the premium answer regardless of its confidence", func() {
				res := classify.New(invoker, cfg).Classify(ctx, ev)

				Expect(res.Category).To(Equal("COMMUNICATION"))
				Expect(res.Confidence).To(BeNumerically("~", 0.2, 1e-9))
				Expect(res.Tier).To(Equal(event.TierPremium))
				Expect(res.EscalationPath).To(HaveLen(3))
				Expect(res.Cost).To(BeNumerically("~", 0.111, 1e-9))
			})
		})

		Context("when a tier invocation fails", func() {
			BeforeEach(func() {
				invoker.invokeFn = func(ctx context.Context, model, prompt string) (*llm.Invocation, error) {
					switch model {
					case "cheap-1":
						return nil, fmt.Errorf("rate limited")
					case "standard-1":
						return &llm.Invocation{Text: tierJSON("TASK", 0.85), Cost: 0.01}, nil
					}
					return nil, fmt.Errorf("unexpected model %s", model)
				}
			})

			It("treats the failure as zero confidence and escalates", func() {
				res := classify.New(invoker, cfg).Classify(ctx, ev)

				Expect(res.Category).To(Equal("TASK"))
				Expect(res.Tier).To(Equal(event.TierStandard))
				Expect(res.EscalationPath).To(Equal([]string{"cheap-1", "standard-1"}))
				// The failed cheap call incurred no cost.
				Expect(res.Cost).To(BeNumerically("~", 0.01, 1e-9))
			})
		})

		Context("when a tier returns unparseable output", func() {
			BeforeEach(func() {
				invoker.invokeFn = func(ctx context.Context, model, prompt string) (*llm.Invocation, error) {
					switch model {
					case "cheap-1":
						return &llm.Invocation{Text: "I cannot classify this event.", Cost: 0.001}, nil
					case "standard-1":
						return &llm.Invocation{Text: tierJSON("TASK", 0.9), Cost: 0.01}, nil
					}
					return nil, fmt.Errorf("unexpected model %s", model)
				}
			})

			It("escalates but still charges for the wasted call", func() {
				res := classify.New(invoker, cfg).Classify(ctx, ev)

				Expect(res.Tier).To(Equal(event.TierStandard))
				Expect(res.Cost).To(BeNumerically("~", 0.011, 1e-9))
			})
		})

		Context("when every tier fails", func() {
			BeforeEach(func() {
				invoker.invokeFn = func(ctx context.Context, model, prompt string) (*llm.Invocation, error) {
					if model == "premium-1" {
						return &llm.Invocation{Text: "garbage", Cost: 0.1}, nil
					}
					return nil, fmt.Errorf("provider down")
				}
			})

			It("degrades to an UNKNOWN fallback instead of erroring", func() {
				res := classify.New(invoker, cfg).Classify(ctx, ev)

				Expect(res.Category).To(Equal(event.CategoryUnknown))
				Expect(res.Confidence).To(BeZero())
				Expect(res.Actions).To(Equal([]event.Action{event.ActionIgnore}))
				Expect(res.Tier).To(Equal(event.TierPremium))
				Expect(res.EscalationPath).To(HaveLen(3))
				Expect(res.Cost).To(BeNumerically("~", 0.1, 1e-9))
			})
		})

		Context("with fenced JSON output", func() {
			It("parses through markdown fences", func() {
				invoker.invokeFn = func(ctx context.Context, model, prompt string) (*llm.Invocation, error) {
					return &llm.Invocation{
						Text: "```json\n" + tierJSON("CALENDAR", 0.9) + "\n```",
						Cost: 0.001,
					}, nil
				}

				res := classify.New(invoker, cfg).Classify(ctx, ev)

				Expect(res.Category).To(Equal("CALENDAR"))
				Expect(res.Tier).To(Equal(event.TierCheap))
			})
		})

		Context("with out-of-range confidence", func() {
			It("clamps confidence into [0,1]", func() {
				invoker.invokeFn = func(ctx context.Context, model, prompt string) (*llm.Invocation, error) {
					return &llm.Invocation{Text: tierJSON("TASK", 1.7), Cost: 0.001}, nil
				}

				res := classify.New(invoker, cfg).Classify(ctx, ev)

				Expect(res.Confidence).To(Equal(1.0))
			})
		})
	})

	Describe("SetThresholds", func() {
		It("changes escalation behavior at runtime", func() {
			invoker.invokeFn = func(ctx context.Context, model, prompt string) (*llm.Invocation, error) {
				return &llm.Invocation{Text: tierJSON("TASK", 0.7), Cost: 0.001}, nil
			}
			c := classify.New(invoker, cfg)

			// 0.7 is below the default 0.8 cheap threshold: escalates.
			res := c.Classify(ctx, ev)
			Expect(res.Escalated).To(BeTrue())

			c.SetThresholds(0.6, 0.5)
			invoker.calls = nil

			res = c.Classify(ctx, ev)
			Expect(res.Escalated).To(BeFalse())
			Expect(invoker.calls).To(Equal([]string{"cheap-1"}))
		})
	})

	Describe("caching", func() {
		BeforeEach(func() {
			cfg.CacheEnabled = true
			invoker.invokeFn = func(ctx context.Context, model, prompt string) (*llm.Invocation, error) {
				return &llm.Invocation{Text: tierJSON("TASK", 0.9), Cost: 0.001}, nil
			}
		})

		It("returns the cached result without re-invoking", func() {
			c := classify.New(invoker, cfg)

			first := c.Classify(ctx, ev)
			second := c.Classify(ctx, ev)

			Expect(second).To(Equal(first))
			Expect(invoker.calls).To(HaveLen(1))

			stats := c.CacheStats()
			Expect(stats.Size).To(Equal(1))
			Expect(stats.Hits).To(Equal(1))
			Expect(stats.Misses).To(Equal(1))
			Expect(stats.HitRate).To(BeNumerically("~", 0.5, 1e-9))
		})

		It("keys on content, not webhook id", func() {
			c := classify.New(invoker, cfg)

			c.Classify(ctx, ev)
			dup := ev
			dup.WebhookID = "wh-2"
			c.Classify(ctx, dup)

			Expect(invoker.calls).To(HaveLen(1))
			Expect(c.CacheStats().Hits).To(Equal(1))
		})

		It("misses when payload differs", func() {
			c := classify.New(invoker, cfg)

			c.Classify(ctx, ev)
			other := ev
			other.Payload = json.RawMessage(`{"action":"closed"}`)
			c.Classify(ctx, other)

			Expect(invoker.calls).To(HaveLen(2))
			Expect(c.CacheStats().Size).To(Equal(2))
		})

		It("ClearCache forces re-classification", func() {
			c := classify.New(invoker, cfg)

			c.Classify(ctx, ev)
			c.ClearCache()
			Expect(c.CacheStats().Size).To(BeZero())

			c.Classify(ctx, ev)
			Expect(invoker.calls).To(HaveLen(2))
		})

		It("reports zero stats when caching is disabled", func() {
			cfg.CacheEnabled = false
			c := classify.New(invoker, cfg)

			c.Classify(ctx, ev)
			c.Classify(ctx, ev)

			Expect(invoker.calls).To(HaveLen(2))
			Expect(c.CacheStats()).To(Equal(classify.CacheStats{}))
		})
	})

	Describe("EstimateCost", func() {
		BeforeEach(func() {
			cfg = classify.Config{
				CheapModel:    "gpt-4o-mini",
				StandardModel: "gpt-4o",
				PremiumModel:  "claude-opus-4",
			}
		})

		It("bounds cost between cheap-only and full escalation", func() {
			est := classify.New(invoker, cfg).EstimateCost(ev)

			Expect(est.PromptTokens).To(BeNumerically(">", 0))
			Expect(est.CheapTierCost).To(BeNumerically(">", 0))
			Expect(est.MinCost).To(Equal(est.CheapTierCost))
			Expect(est.MaxCost).To(BeNumerically("~",
				est.CheapTierCost+est.StandardTierCost+est.PremiumTierCost, 1e-12))
			Expect(est.ExpectedCost).To(BeNumerically(">=", est.MinCost))
			Expect(est.ExpectedCost).To(BeNumerically("<=", est.MaxCost))
		})

		It("grows with payload size", func() {
			small := classify.New(invoker, cfg).EstimateCost(ev)

			big := ev
			big.Payload = json.RawMessage(`{"action":"opened","body":"lots and lots of repeated webhook text, lots and lots of repeated webhook text, lots and lots of repeated webhook text"}`)
			larger := classify.New(invoker, cfg).EstimateCost(big)

			Expect(larger.PromptTokens).To(BeNumerically(">", small.PromptTokens))
			Expect(larger.MaxCost).To(BeNumerically(">", small.MaxCost))
		})

		It("does not invoke any model", func() {
			classify.New(invoker, cfg).EstimateCost(ev)
			Expect(invoker.calls).To(BeEmpty())
		})
	})
})
