package classify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/switchyardhq/switchyard/common/llm"
	"github.com/switchyardhq/switchyard/internal/event"
)

// tierResponse is the output contract every tier is asked to honor. The
// generated schema is embedded in the prompt so cheap models without native
// structured-output support still see the shape they must produce.
type tierResponse struct {
	Category   string   `json:"category" jsonschema:"enum=CALENDAR,enum=TASK,enum=COMMUNICATION,enum=UNKNOWN" jsonschema_description:"The single best-fitting category for the event"`
	Confidence float64  `json:"confidence" jsonschema_description:"Self-assessed confidence 0.0-1.0"`
	Actions    []string `json:"actions" jsonschema:"enum=schedule,enum=notify,enum=ignore" jsonschema_description:"Recommended follow-up actions"`
	Reasoning  string   `json:"reasoning" jsonschema_description:"One or two sentences explaining the choice"`
}

func (r *tierResponse) actions() []event.Action {
	actions := make([]event.Action, 0, len(r.Actions))
	for _, a := range r.Actions {
		switch event.Action(a) {
		case event.ActionSchedule, event.ActionNotify, event.ActionIgnore:
			actions = append(actions, event.Action(a))
		}
	}
	if len(actions) == 0 {
		actions = append(actions, event.ActionIgnore)
	}
	return actions
}

var responseSchema = llm.GenerateSchema[tierResponse]()

const classifySystemPrompt = `You are an event triage classifier for a webhook processing pipeline.
Given a raw webhook event, decide which category it belongs to and which
follow-up actions it warrants.

Categories:
- CALENDAR: meetings, scheduling, availability, calendar invites
- TASK: work items, issues, tickets, assignments, status changes
- COMMUNICATION: messages, comments, mentions, discussion threads
- UNKNOWN: anything that fits none of the above

Actions:
- schedule: the event should create or update a scheduled item
- notify: a person should be alerted about this event
- ignore: no follow-up is warranted

Respond with a single JSON object matching this schema, and nothing else:`

func buildPrompt(ev event.WebhookEvent) string {
	schemaJSON, err := json.MarshalIndent(responseSchema, "", "  ")
	if err != nil {
		schemaJSON = []byte("{}")
	}

	var b strings.Builder
	b.WriteString(classifySystemPrompt)
	b.WriteString("\n\n")
	b.Write(schemaJSON)
	b.WriteString("\n\nEvent:\n")
	fmt.Fprintf(&b, "source: %s\n", ev.Source)
	if ev.Timestamp != "" {
		fmt.Fprintf(&b, "timestamp: %s\n", ev.Timestamp)
	}
	b.WriteString("payload:\n")
	b.Write(ev.Payload)
	b.WriteString("\n")
	return b.String()
}
