// Package mapper normalizes provider-specific webhook shapes into canonical
// event types. The classifier works from the raw payload; the mapped type is
// used for logging, queue metadata, and the event log.
package mapper

import (
	"context"
	"net/http"
)

// EventType is a provider-independent name for what a webhook represents.
type EventType string

const (
	EventIssueCreated   EventType = "issue_created"
	EventIssueUpdated   EventType = "issue_updated"
	EventCommentCreated EventType = "comment_created"
	EventPRCreated      EventType = "pull_request_created"
	EventPush           EventType = "push"

	EventCalendarSync           EventType = "calendar_sync"
	EventCalendarEventUpdated   EventType = "calendar_event_updated"
	EventCalendarEventCancelled EventType = "calendar_event_cancelled"
)

// EventMapper maps a raw webhook body plus transport headers to a canonical
// event type. Returns an error for shapes the provider mapper does not know.
type EventMapper interface {
	Map(ctx context.Context, body map[string]any, headers map[string]string) (EventType, error)
}

// headerValue reads a header from a flattened header map. Maps built from
// http.Header carry keys in canonical MIME form ("X-Github-Event"), which
// differs from the provider's documented spelling ("X-GitHub-Event"); accept
// both.
func headerValue(headers map[string]string, key string) string {
	if v, ok := headers[key]; ok {
		return v
	}
	return headers[http.CanonicalHeaderKey(key)]
}

// ForSource returns the mapper for a webhook source. Unknown sources get no
// mapper; ingest records their event type as unknown rather than rejecting.
func ForSource(source string) (EventMapper, bool) {
	switch source {
	case "github":
		return NewGitHubEventMapper(), true
	case "linear":
		return NewLinearEventMapper(), true
	case "google":
		return NewGoogleEventMapper(), true
	default:
		return nil, false
	}
}
