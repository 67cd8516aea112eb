package events

import (
	"context"
	"time"

	"hana-assistant-be/pkg/lifecycle"
)

// Event codes. Each is published on subject "events.<code>".
const (
	TypeSessionGated   = "SESSION_GATED"
	TypeSessionPaid    = "SESSION_PAID"
	TypeSessionExpired = "SESSION_EXPIRED"
	TypeSessionReset   = "SESSION_RESET"
	TypePaymentSettled = "PAYMENT_SETTLED"
)

// Event defines the contract for all system events.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
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

// String reads a string field of the payload.
func (e BaseEvent) String(key string) string {
	s, _ := e.Data[key].(string)
	return s
}

var phaseEvents = map[lifecycle.Phase]string{
	lifecycle.PhaseTrial:   TypeSessionReset,
	lifecycle.PhaseGated:   TypeSessionGated,
	lifecycle.PhasePaid:    TypeSessionPaid,
	lifecycle.PhaseExpired: TypeSessionExpired,
}

// PhaseChanged describes a surface entering a new lifecycle phase.
func PhaseChanged(surfaceID, userID string, state lifecycle.State, at time.Time) BaseEvent {
	return BaseEvent{
		Type: phaseEvents[state.Phase],
		Data: map[string]interface{}{
			"surface_id":  surfaceID,
			"user_id":     userID,
			"phase":       string(state.Phase),
			"remaining":   state.Remaining,
			"occurred_at": at,
		},
		OccurredAt: at,
	}
}

// PaymentSettled tells every instance that the gate of a surface was paid.
func PaymentSettled(surfaceID, orderID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type: TypePaymentSettled,
		Data: map[string]interface{}{
			"surface_id":  surfaceID,
			"order_id":    orderID,
			"occurred_at": at,
		},
		OccurredAt: at,
	}
}

// Publisher sends events to the bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
