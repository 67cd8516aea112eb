package lifecycle

import (
	"sync"
	"time"
)

type Phase string

const (
	PhaseTrial   Phase = "trial"
	PhaseGated   Phase = "gated"
	PhasePaid    Phase = "paid"
	PhaseExpired Phase = "expired"
)

const (
	DefaultTrialDuration = 300 * time.Second
	DefaultPaidDuration  = 3600 * time.Second
)

// State is a snapshot of the gate.
type State struct {
	Phase     Phase `json:"phase"`
	Remaining int   `json:"remaining_seconds"`
}

func (s State) IsFreeTrial() bool {
	return s.Phase == PhaseTrial
}

// IsGateActive reports whether new user messages must be refused.
func (s State) IsGateActive() bool {
	return s.Phase == PhaseGated || s.Phase == PhaseExpired
}

// Lifecycle is the timed trial/payment gate. It is safe for concurrent use.
type Lifecycle struct {
	mu       sync.Mutex
	state    State
	trial    int
	paid     int
	gate     uint64
	onChange func(prev, next State)
}

type Option func(*Lifecycle)

func WithDurations(trial, paid time.Duration) Option {
	return func(l *Lifecycle) {
		if trial > 0 {
			l.trial = int(trial / time.Second)
		}
		if paid > 0 {
			l.paid = int(paid / time.Second)
		}
	}
}

// WithOnChange registers a callback fired after every phase change. It runs
// outside the lifecycle lock.
func WithOnChange(fn func(prev, next State)) Option {
	return func(l *Lifecycle) {
		l.onChange = fn
	}
}

// New starts in Trial with the full trial duration.
func New(opts ...Option) *Lifecycle {
	l := &Lifecycle{
		trial: int(DefaultTrialDuration / time.Second),
		paid:  int(DefaultPaidDuration / time.Second),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.state = State{Phase: PhaseTrial, Remaining: l.trial}
	return l
}

func (l *Lifecycle) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Lifecycle) IsGateActive() bool {
	return l.Snapshot().IsGateActive()
}

func (l *Lifecycle) IsFreeTrial() bool {
	return l.Snapshot().IsFreeTrial()
}

// Tick consumes one second. Trial reaching zero becomes Gated and Paid
// reaching zero becomes Expired. Ticks while gated or expired are ignored.
func (l *Lifecycle) Tick() State {
	l.mu.Lock()
	prev := l.state
	if prev.IsGateActive() || prev.Remaining <= 0 {
		l.mu.Unlock()
		return prev
	}

	next := prev
	next.Remaining--
	if next.Remaining == 0 {
		switch prev.Phase {
		case PhaseTrial:
			next.Phase = PhaseGated
		case PhasePaid:
			next.Phase = PhaseExpired
		}
		if next.IsGateActive() {
			l.gate++
		}
	}
	l.state = next
	l.mu.Unlock()

	if next.Phase != prev.Phase {
		l.notify(prev, next)
	}
	return next
}

// Gate numbers every gate this lifecycle has raised, starting at 1. It is
// zero before the first gate and never goes back, Reset included.
func (l *Lifecycle) Gate() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gate
}

// ClearGate records a payment or continuation and starts the paid period.
func (l *Lifecycle) ClearGate() State {
	return l.set(State{Phase: PhasePaid, Remaining: l.paid})
}

// Reset starts a new trial.
func (l *Lifecycle) Reset() State {
	return l.set(State{Phase: PhaseTrial, Remaining: l.trial})
}

func (l *Lifecycle) set(next State) State {
	l.mu.Lock()
	prev := l.state
	l.state = next
	l.mu.Unlock()

	l.notify(prev, next)
	return next
}

func (l *Lifecycle) notify(prev, next State) {
	if l.onChange != nil {
		l.onChange(prev, next)
	}
}
