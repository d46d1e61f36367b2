// Package event defines the data contracts shared by the classification and
// dispatch pipeline: the inbound webhook event, its classification, and the
// routing/dispatch outcomes. All types are in-process contracts only; nothing
// here owns a wire format.
package event

import "encoding/json"

// Tier identifies one of the three escalating classification levels.
type Tier string

const (
	TierCheap    Tier = "cheap"
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

// Action is a follow-up the classifier recommends for an event.
type Action string

const (
	ActionSchedule Action = "schedule"
	ActionNotify   Action = "notify"
	ActionIgnore   Action = "ignore"
)

// Categories conventionally produced by the classifier. The vocabulary is
// open: rules and the dispatcher treat category as an opaque string, and
// anything outside this set routes like CategoryUnknown.
const (
	CategoryCalendar      = "CALENDAR"
	CategoryTask          = "TASK"
	CategoryCommunication = "COMMUNICATION"
	CategoryUnknown       = "UNKNOWN"
)

// WebhookEvent is the opaque inbound unit of work. The payload is never
// interpreted by the pipeline; it is forwarded verbatim to the classifier
// prompt builder. Immutable once created.
type WebhookEvent struct {
	Source    string          `json:"source"`
	WebhookID string          `json:"webhook_id"`
	Timestamp string          `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// ClassificationResult is the classifier's verdict for one event, including
// full cost and escalation provenance. Cost always equals the sum of the
// per-call costs of every model invocation in EscalationPath.
type ClassificationResult struct {
	Category       string   `json:"category"`
	Confidence     float64  `json:"confidence"`
	Actions        []Action `json:"actions"`
	Reasoning      string   `json:"reasoning"`
	Tier           Tier     `json:"tier"`
	Model          string   `json:"model"`
	Escalated      bool     `json:"escalated"`
	EscalationPath []string `json:"escalation_path"`
	Cost           float64  `json:"cost"`
}

// ClassifiedEvent pairs a WebhookEvent with its classification. It is the
// unit of work handed to the dispatcher; read-only after construction.
type ClassifiedEvent struct {
	Event          WebhookEvent         `json:"event"`
	Classification ClassificationResult `json:"classification"`
}

// RouteCondition gates a routing rule on an event field. All conditions on a
// rule must hold for the rule to match. An unknown field or operator makes
// the condition evaluate false rather than failing routing.
type RouteCondition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// Supported condition operators.
const (
	OperatorEquals    = "equals"
	OperatorNotEquals = "not_equals"
	OperatorContains  = "contains"
)

// RouteConfig is a user-supplied routing override: events of Category whose
// fields satisfy every condition are sent to Handler. Higher priority wins;
// ties resolve to the earliest-registered rule.
type RouteConfig struct {
	Category   string           `json:"category"`
	Handler    string           `json:"handler"`
	Priority   int              `json:"priority"`
	Conditions []RouteCondition `json:"conditions,omitempty"`
}

// RoutingDecision records how a handler was selected for an event.
// Confidence is copied from the classification, never recomputed.
type RoutingDecision struct {
	Category    string         `json:"category"`
	Handler     string         `json:"handler"`
	Confidence  float64        `json:"confidence"`
	Reasoning   string         `json:"reasoning"`
	MatchedRule *RouteConfig   `json:"matched_rule,omitempty"`
	Metadata    map[string]any `json:"metadata"`
}

// DispatchResult is the terminal outcome for one event. Error is non-empty
// iff Success is false.
type DispatchResult struct {
	Success          bool            `json:"success"`
	Handler          string          `json:"handler"`
	Category         string          `json:"category"`
	Error            string          `json:"error,omitempty"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
	WebhookID        string          `json:"webhook_id"`
	RoutingDecision  RoutingDecision `json:"routing_decision"`
}
