package llm

import "context"

// MultiInvoker fans model invocations out to per-model invokers. Tiers can
// live on different providers (a cheap OpenAI model escalating to Anthropic)
// while the caller keeps a single Invoker.
type MultiInvoker struct {
	byModel  map[string]Invoker
	fallback Invoker
}

func NewMultiInvoker(fallback Invoker) *MultiInvoker {
	return &MultiInvoker{
		byModel:  make(map[string]Invoker),
		fallback: fallback,
	}
}

// Register binds a model name to an invoker. Later registrations win.
func (m *MultiInvoker) Register(model string, inv Invoker) {
	m.byModel[model] = inv
}

func (m *MultiInvoker) Invoke(ctx context.Context, model, prompt string) (*Invocation, error) {
	if inv, ok := m.byModel[model]; ok {
		return inv.Invoke(ctx, model, prompt)
	}
	return m.fallback.Invoke(ctx, model, prompt)
}
