package events

import (
	"context"
	"time"
)

const (
	TypeCaseCheckpointed = "case.checkpointed"
	TypeCaseCompleted    = "case.completed"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "case.completed").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Sink receives events. Publishing is best effort for the caller: a
// failed publish must not fail the work that produced the event.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// BaseEvent is the concrete event carried across the in-process bus and NATS.
type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// CaseId returns the case_id payload field, or "" when absent.
func (e BaseEvent) CaseId() string {
	id, _ := e.Data["case_id"].(string)
	return id
}

// NewCaseCheckpointed is emitted after a stage's output was durably saved.
func NewCaseCheckpointed(caseId, stage string, at time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeCaseCheckpointed,
		Data: map[string]interface{}{
			"case_id": caseId,
			"stage":   stage,
		},
		OccurredAt: at.UTC(),
	}
}

// NewCaseCompleted is emitted once per finished run.
func NewCaseCompleted(caseId, severityLevel, recommendedAction string, at time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeCaseCompleted,
		Data: map[string]interface{}{
			"case_id":            caseId,
			"stage":              "end",
			"severity_level":     severityLevel,
			"recommended_action": recommendedAction,
		},
		OccurredAt: at.UTC(),
	}
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}
