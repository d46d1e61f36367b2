package mapper

import (
	"context"
	"fmt"
)

type LinearEventMapper struct{}

func NewLinearEventMapper() *LinearEventMapper {
	return &LinearEventMapper{}
}

// Linear puts everything in the body: "type" names the entity and "action"
// is one of create, update, remove.
func (m *LinearEventMapper) Map(ctx context.Context, body map[string]any, headers map[string]string) (EventType, error) {
	entity := ""
	if t, exists := body["type"]; exists {
		entity, _ = t.(string)
	}
	action := ""
	if a, exists := body["action"]; exists {
		action, _ = a.(string)
	}

	switch entity {
	case "Issue":
		if action == "create" {
			return EventIssueCreated, nil
		}
		return EventIssueUpdated, nil
	case "Comment":
		return EventCommentCreated, nil
	}
	return "", fmt.Errorf("unknown linear event type: type=%q action=%q", entity, action)
}
