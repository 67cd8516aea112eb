package service

import (
	"encoding/json"
	"sync"

	"hana-assistant-be/internal/dto"
	"hana-assistant-be/internal/pkg/logger"
	"hana-assistant-be/internal/websocket"
	"hana-assistant-be/pkg/assistant"
	"hana-assistant-be/pkg/lifecycle"
	"hana-assistant-be/pkg/store"

	"github.com/google/uuid"
)

type stateFrame struct {
	State    assistant.State       `json:"state"`
	Disabled assistant.Disablement `json:"disabled"`
}

type lifecycleFrame struct {
	lifecycle.State
	IsFreeTrial  bool                  `json:"is_free_trial"`
	IsGateActive bool                  `json:"is_gate_active"`
	Disabled     assistant.Disablement `json:"disabled"`
}

type inputFrame struct {
	Text string `json:"text"`
}

// surfaceObserver turns controller changes into socket frames. It is called
// under the controller lock, so it only enqueues. When the queue is full the
// frame is dropped and a full surface frame is requested on resync instead.
type surfaceObserver struct {
	mu        sync.Mutex
	surfaceID uuid.UUID
	queue     chan<- dto.SurfaceEventMessage
	resync    chan<- uuid.UUID
	logger    logger.ILogger

	state assistant.State
	life  lifecycle.State
	stale bool
}

var _ assistant.Observer = (*surfaceObserver)(nil)

func newSurfaceObserver(surfaceID uuid.UUID, queue chan<- dto.SurfaceEventMessage, resync chan<- uuid.UUID, log logger.ILogger) *surfaceObserver {
	return &surfaceObserver{
		surfaceID: surfaceID,
		queue:     queue,
		resync:    resync,
		logger:    log,
		state:     assistant.StateIdle,
		life:      lifecycle.New().Snapshot(),
	}
}

func (o *surfaceObserver) OnState(state assistant.State) {
	o.mu.Lock()
	o.state = state
	frame := stateFrame{State: state, Disabled: assistant.ComputeDisablement(state, o.life)}
	o.mu.Unlock()

	o.emit(websocket.FrameState, frame)
}

func (o *surfaceObserver) OnMessage(msg store.Message) {
	o.emit(websocket.FrameMessage, msg)
}

func (o *surfaceObserver) OnTranscript(messages []store.Message) {
	o.emit(websocket.FrameTranscript, messages)
}

func (o *surfaceObserver) OnInput(text string) {
	o.emit(websocket.FrameInput, inputFrame{Text: text})
}

func (o *surfaceObserver) OnLifecycle(state lifecycle.State) {
	o.mu.Lock()
	o.life = state
	frame := lifecycleFrame{
		State:        state,
		IsFreeTrial:  state.IsFreeTrial(),
		IsGateActive: state.IsGateActive(),
		Disabled:     assistant.ComputeDisablement(o.state, state),
	}
	o.mu.Unlock()

	o.emit(websocket.FrameLifecycle, frame)
}

func (o *surfaceObserver) emit(frameType string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		o.logger.Error("SURFACE", "Failed to encode surface event", map[string]interface{}{"type": frameType, "error": err})
		return
	}

	select {
	case o.queue <- dto.SurfaceEventMessage{SurfaceId: o.surfaceID, Type: frameType, Data: raw}:
	default:
		o.logger.Warn("SURFACE", "Event queue full, dropping surface event", map[string]interface{}{"surface_id": o.surfaceID, "type": frameType})
		o.requestResync()
	}
}

// requestResync asks for one full surface frame; further drops before it is
// sent are covered by the same frame.
func (o *surfaceObserver) requestResync() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stale || o.resync == nil {
		return
	}
	select {
	case o.resync <- o.surfaceID:
		o.stale = true
	default:
	}
}

func (o *surfaceObserver) resynced() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stale = false
}
