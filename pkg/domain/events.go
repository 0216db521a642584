package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransition EventType = "transition"
	EventGenerate   EventType = "generate"
	EventDiscard    EventType = "discard"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RequestID string    `json:"request_id,omitempty"`
	Ticket    uint64    `json:"ticket"`
}

// TransitionEvent is emitted whenever the orchestrator replaces its current state.
type TransitionEvent struct {
	EventBase
	From Phase        `json:"from"`
	To   RequestState `json:"to"`
}

// GenerateEvent is emitted when a generator call returns, whether or not its result is applied.
type GenerateEvent struct {
	EventBase
	Subject  Subject       `json:"subject"`
	Duration time.Duration `json:"duration"`
	Kind     ErrorKind     `json:"error_kind,omitempty"`
}

// DiscardEvent is emitted when the result of a superseded request arrives and is dropped.
type DiscardEvent struct {
	EventBase
	Subject       Subject `json:"subject"`
	CurrentTicket uint64  `json:"current_ticket"`
}

// LifecycleHooks defines callbacks for orchestrator observability.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnGenerate   func(context.Context, *GenerateEvent)
	OnDiscard    func(context.Context, *DiscardEvent)
}

// ChainHooks composes several hook sets; each callback runs in argument order.
func ChainHooks(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition: func(ctx context.Context, e *TransitionEvent) {
			for _, h := range hooks {
				if h.OnTransition != nil {
					h.OnTransition(ctx, e)
				}
			}
		},
		OnGenerate: func(ctx context.Context, e *GenerateEvent) {
			for _, h := range hooks {
				if h.OnGenerate != nil {
					h.OnGenerate(ctx, e)
				}
			}
		},
		OnDiscard: func(ctx context.Context, e *DiscardEvent) {
			for _, h := range hooks {
				if h.OnDiscard != nil {
					h.OnDiscard(ctx, e)
				}
			}
		},
	}
}
