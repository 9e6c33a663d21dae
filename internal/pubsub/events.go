// Package pubsub provides a generic publish/subscribe event system used to
// fan preview session activity out to the terminal UI.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// LogEntryEvent carries one formatted log line.
	LogEntryEvent EventType = "log.entry"
	// StateChangedEvent carries a preview frame state transition.
	StateChangedEvent EventType = "preview.state"
	// NoticeEvent carries a user-facing notice (login prompt, copied URL).
	NoticeEvent EventType = "preview.notice"
	// SettingsChangedEvent signals that persisted settings were reloaded.
	SettingsChangedEvent EventType = "settings.changed"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
