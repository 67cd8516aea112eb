package events

import (
	"testing"
	"time"

	"hana-assistant-be/pkg/lifecycle"

	"github.com/stretchr/testify/assert"
)

func TestPhaseChanged(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		phase lifecycle.Phase
		want  string
	}{
		{lifecycle.PhaseTrial, TypeSessionReset},
		{lifecycle.PhaseGated, TypeSessionGated},
		{lifecycle.PhasePaid, TypeSessionPaid},
		{lifecycle.PhaseExpired, TypeSessionExpired},
	}

	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			e := PhaseChanged("surface-1", "user-1", lifecycle.State{Phase: tt.phase, Remaining: 7}, at)

			assert.Equal(t, tt.want, e.EventType())
			assert.Equal(t, "surface-1", e.String("surface_id"))
			assert.Equal(t, "user-1", e.String("user_id"))
			assert.Equal(t, 7, e.Payload()["remaining"])
			assert.Equal(t, at, e.Timestamp())
		})
	}
}

func TestPaymentSettled(t *testing.T) {
	e := PaymentSettled("surface-1", "order-9", time.Now())

	assert.Equal(t, TypePaymentSettled, e.EventType())
	assert.Equal(t, "order-9", e.String("order_id"))
	assert.Empty(t, e.String("missing"))
}
