package mapper

import (
	"context"
	"fmt"
)

type GoogleEventMapper struct{}

func NewGoogleEventMapper() *GoogleEventMapper {
	return &GoogleEventMapper{}
}

// Google Calendar push notifications carry no body to speak of; the
// X-Goog-Resource-State header is the whole signal.
func (m *GoogleEventMapper) Map(ctx context.Context, body map[string]any, headers map[string]string) (EventType, error) {
	state := headerValue(headers, "X-Goog-Resource-State")
	switch state {
	case "sync":
		return EventCalendarSync, nil
	case "exists", "update":
		return EventCalendarEventUpdated, nil
	case "not_exists":
		return EventCalendarEventCancelled, nil
	}
	return "", fmt.Errorf("unknown google resource state: %q", state)
}
