package lifecycle

import (
	"sync"
	"time"
)

// Ticker drives a Lifecycle with a recurring callback. It only ticks while
// resumed; Pause is used when the surface is hidden.
type Ticker struct {
	mu       sync.Mutex
	target   *Lifecycle
	interval time.Duration
	onTick   func(State)
	stop     chan struct{}
	done     chan struct{}
	closed   bool
}

func NewTicker(target *Lifecycle, interval time.Duration, onTick func(State)) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{
		target:   target,
		interval: interval,
		onTick:   onTick,
	}
}

// Resume starts ticking. Calling it while running is a no-op.
func (t *Ticker) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.stop != nil {
		return
	}

	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.run(t.stop, t.done)
}

// Pause stops ticking and waits for the loop to exit. It must not be called
// from the onTick callback.
func (t *Ticker) Pause() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Stop pauses permanently.
func (t *Ticker) Stop() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	t.Pause()
}

func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

func (t *Ticker) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			state := t.target.Tick()
			if t.onTick != nil {
				t.onTick(state)
			}
		}
	}
}
