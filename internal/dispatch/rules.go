package dispatch

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/switchyardhq/switchyard/internal/event"
)

// RuleStore holds routing overrides in registration order. Reads take a
// snapshot so rule mutation never races an in-flight routing decision.
type RuleStore struct {
	mu    sync.RWMutex
	rules []event.RouteConfig
}

func NewRuleStore() *RuleStore {
	return &RuleStore{}
}

func (s *RuleStore) Add(rule event.RouteConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule)
}

// Remove drops every rule the predicate selects and reports how many were
// removed. Registration order of the survivors is preserved.
func (s *RuleStore) Remove(pred func(event.RouteConfig) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rules[:0]
	removed := 0
	for _, r := range s.rules {
		if pred(r) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.rules = kept
	return removed
}

func (s *RuleStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = nil
}

// Snapshot returns a copy of the rules in registration order.
func (s *RuleStore) Snapshot() []event.RouteConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]event.RouteConfig, len(s.rules))
	copy(out, s.rules)
	return out
}

// matchRule reports whether the rule applies to the event: the categories
// must agree and every condition must hold.
func matchRule(rule event.RouteConfig, ev event.ClassifiedEvent) bool {
	if rule.Category != ev.Classification.Category {
		return false
	}
	for _, cond := range rule.Conditions {
		if !matchCondition(cond, ev) {
			return false
		}
	}
	return true
}

// matchCondition evaluates one condition. Unresolvable fields and unknown
// operators evaluate false; a malformed rule silently never matches.
func matchCondition(cond event.RouteCondition, ev event.ClassifiedEvent) bool {
	actual, ok := resolveField(cond.Field, ev)
	if !ok {
		return false
	}
	switch cond.Operator {
	case event.OperatorEquals:
		return actual == cond.Value
	case event.OperatorNotEquals:
		return actual != cond.Value
	case event.OperatorContains:
		return strings.Contains(actual, cond.Value)
	default:
		return false
	}
}

// resolveField looks a condition field up on the event. "source", "category",
// "webhook_id", and "confidence" resolve directly; anything else is a
// dot-separated path into the payload JSON.
func resolveField(field string, ev event.ClassifiedEvent) (string, bool) {
	switch field {
	case "source":
		return ev.Event.Source, true
	case "category":
		return ev.Classification.Category, true
	case "webhook_id":
		return ev.Event.WebhookID, true
	case "confidence":
		return fmt.Sprintf("%g", ev.Classification.Confidence), true
	}

	var payload map[string]any
	if err := json.Unmarshal(ev.Event.Payload, &payload); err != nil {
		return "", false
	}

	var cur any = payload
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		cur, ok = m[part]
		if !ok {
			return "", false
		}
	}

	switch v := cur.(type) {
	case string:
		return v, true
	case float64:
		return fmt.Sprintf("%g", v), true
	case bool:
		return fmt.Sprintf("%t", v), true
	case nil:
		return "", false
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return "", false
		}
		return string(raw), true
	}
}
