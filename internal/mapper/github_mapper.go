package mapper

import (
	"context"
	"fmt"
)

type GitHubEventMapper struct{}

func NewGitHubEventMapper() *GitHubEventMapper {
	return &GitHubEventMapper{}
}

func (m *GitHubEventMapper) Map(ctx context.Context, body map[string]any, headers map[string]string) (EventType, error) {
	headerEvent := headerValue(headers, "X-GitHub-Event")

	action := ""
	if a, exists := body["action"]; exists {
		action, _ = a.(string)
	}

	eventType := m.mapGitHubEvent(headerEvent, action)
	if eventType == "" {
		return "", fmt.Errorf("unknown github event type: header=%q action=%q", headerEvent, action)
	}
	return eventType, nil
}

func (m *GitHubEventMapper) mapGitHubEvent(headerEvent, action string) EventType {
	switch headerEvent {
	case "issues":
		if action == "opened" {
			return EventIssueCreated
		}
		return EventIssueUpdated
	case "issue_comment":
		return EventCommentCreated
	case "pull_request":
		return EventPRCreated
	case "push":
		return EventPush
	}
	return ""
}
