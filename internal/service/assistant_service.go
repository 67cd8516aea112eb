// FILE: internal/service/assistant_service.go
// PURPOSE: Registry of open chat surfaces and the commands they accept

package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"hana-assistant-be/internal/config"
	"hana-assistant-be/internal/dto"
	"hana-assistant-be/internal/pkg/logger"
	"hana-assistant-be/internal/websocket"
	"hana-assistant-be/pkg/assistant"
	"hana-assistant-be/pkg/events"
	"hana-assistant-be/pkg/history"
	"hana-assistant-be/pkg/i18n"
	"hana-assistant-be/pkg/lifecycle"
	pktNats "hana-assistant-be/pkg/nats"
	"hana-assistant-be/pkg/rag"
	"hana-assistant-be/pkg/rag/prompt"
	"hana-assistant-be/pkg/store"
	"hana-assistant-be/pkg/voice"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

var (
	ErrSurfaceNotFound = errors.New("surface not found")
	ErrContinueBlocked = errors.New("payment is required to continue")
)

const assistantModule = "ASSISTANT_SERVICE"

// EventSubscriber is the subset of the NATS subscriber the service uses.
type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType, durableName string, handler pktNats.EventHandler) error
}

type IAssistantService interface {
	websocket.FrameHandler

	Open(ctx context.Context, userID string, req *dto.OpenSurfaceRequest) (*dto.SurfaceResponse, error)
	Close(ctx context.Context, userID string, surfaceID uuid.UUID) error
	Snapshot(ctx context.Context, userID string, surfaceID uuid.UUID) (*dto.SurfaceResponse, error)
	Attach(ctx context.Context, userID string, surfaceID uuid.UUID) ([]byte, error)

	SendMessage(ctx context.Context, userID string, surfaceID uuid.UUID, text string) error
	SetInput(ctx context.Context, userID string, surfaceID uuid.UUID, text string) error
	ToggleListening(ctx context.Context, userID string, surfaceID uuid.UUID) error
	SetVoiceMode(ctx context.Context, userID string, surfaceID uuid.UUID, enabled bool) error
	CancelSpeech(ctx context.Context, userID string, surfaceID uuid.UUID) error
	SetLanguage(ctx context.Context, userID string, surfaceID uuid.UUID, tag string) error
	SetVisible(ctx context.Context, userID string, surfaceID uuid.UUID, visible bool) error
	NewSession(ctx context.Context, userID string, surfaceID uuid.UUID) error
	Continue(ctx context.Context, userID string, surfaceID uuid.UUID) error
	ExportTranscript(ctx context.Context, userID string, surfaceID uuid.UUID) (fileName string, body string, err error)

	// ClearGate is the payment path; it skips the ownership check and only
	// clears the numbered gate the order was created for.
	ClearGate(ctx context.Context, surfaceID uuid.UUID, gate uint64) error

	// Run forwards surface events to the bus and listens for payments from
	// other instances until ctx is done.
	Run(ctx context.Context) error
}

type AssistantDependencies struct {
	Sessions   assistant.SessionFactory
	Scorer     *rag.Scorer
	Augmenter  *prompt.Augmenter
	Corpus     store.Corpus
	Translator i18n.Translator
	History    *history.Store

	Sockets    websocket.FrameSender
	Bus        IPublisherService
	Events     events.Publisher
	Subscriber EventSubscriber

	Logger logger.ILogger
}

type surface struct {
	id         uuid.UUID
	userID     string
	controller *assistant.Controller
	observer   *surfaceObserver
	speech     *websocket.RemoteSpeech
}

type assistantService struct {
	deps            AssistantDependencies
	cfg             config.AssistantConfig
	paymentRequired bool
	instanceID      string

	surfaces *cache.Cache
	queue    chan dto.SurfaceEventMessage
	resync   chan uuid.UUID
	logger   logger.ILogger
}

func NewAssistantService(deps AssistantDependencies, cfg config.AssistantConfig, paymentRequired bool) IAssistantService {
	log := deps.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	s := &assistantService{
		deps:            deps,
		cfg:             cfg,
		paymentRequired: paymentRequired,
		instanceID:      uuid.NewString(),
		surfaces:        cache.New(cfg.SurfaceTTL, time.Minute),
		queue:           make(chan dto.SurfaceEventMessage, 1024),
		resync:          make(chan uuid.UUID, 64),
		logger:          log,
	}
	s.surfaces.OnEvicted(func(_ string, v interface{}) {
		s.teardown(v.(*surface))
	})
	return s
}

func (s *assistantService) Open(ctx context.Context, userID string, req *dto.OpenSurfaceRequest) (*dto.SurfaceResponse, error) {
	id := uuid.New()
	speech := websocket.NewRemoteSpeech(id, s.deps.Sockets)
	observer := newSurfaceObserver(id, s.queue, s.resync, s.logger)

	voiceMode := s.cfg.VoiceMode
	if req.VoiceMode != nil {
		voiceMode = *req.VoiceMode
	}
	autoSubmit := s.cfg.AutoSubmit
	if req.AutoSubmit != nil {
		autoSubmit = *req.AutoSubmit
	}

	ctrl := assistant.New(assistant.Deps{
		Sessions:    s.deps.Sessions,
		Scorer:      s.deps.Scorer,
		Augmenter:   s.deps.Augmenter,
		Corpus:      s.deps.Corpus,
		Translator:  s.deps.Translator,
		History:     s.deps.History,
		Recognizer:  speech.Recognizer(),
		Synthesizer: speech.Synthesizer(),
		Observer:    observer,
		Logger:      s.logger,
	},
		assistant.WithLanguage(i18n.Parse(req.Language)),
		assistant.WithVoiceMode(voiceMode),
		assistant.WithAutoSubmit(autoSubmit),
		assistant.WithStorageKey(userID),
		assistant.WithTickInterval(s.cfg.TickInterval),
		assistant.WithSubmitTimeout(s.cfg.SubmitTimeout),
		assistant.WithLifecycle(
			lifecycle.WithDurations(s.cfg.TrialDuration, s.cfg.PaidDuration),
			lifecycle.WithOnChange(s.phaseNotifier(id, userID)),
		),
	)

	if req.Visible != nil && !*req.Visible {
		ctrl.SetVisible(false)
	}
	if err := ctrl.Start(ctx); err != nil {
		ctrl.Close()
		return nil, err
	}

	sf := &surface{id: id, userID: userID, controller: ctrl, observer: observer, speech: speech}
	s.surfaces.Set(id.String(), sf, cache.DefaultExpiration)

	s.logger.Info(assistantModule, "Surface opened", map[string]interface{}{"surface_id": id, "user_id": userID})
	return s.response(sf), nil
}

func (s *assistantService) Close(ctx context.Context, userID string, surfaceID uuid.UUID) error {
	if _, err := s.get(userID, surfaceID); err != nil {
		return err
	}
	// Eviction tears the surface down.
	s.surfaces.Delete(surfaceID.String())
	return nil
}

func (s *assistantService) Snapshot(ctx context.Context, userID string, surfaceID uuid.UUID) (*dto.SurfaceResponse, error) {
	sf, err := s.get(userID, surfaceID)
	if err != nil {
		return nil, err
	}
	return s.response(sf), nil
}

// Attach marks the surface visible for a new socket and returns the frame
// that brings the socket up to date.
func (s *assistantService) Attach(ctx context.Context, userID string, surfaceID uuid.UUID) ([]byte, error) {
	sf, err := s.get(userID, surfaceID)
	if err != nil {
		return nil, err
	}
	sf.controller.SetVisible(true)
	return websocket.Encode(websocket.FrameSurface, s.response(sf))
}

func (s *assistantService) SendMessage(ctx context.Context, userID string, surfaceID uuid.UUID, text string) error {
	sf, err := s.get(userID, surfaceID)
	if err != nil {
		return err
	}
	return sf.controller.SendMessage(ctx, text)
}

func (s *assistantService) SetInput(ctx context.Context, userID string, surfaceID uuid.UUID, text string) error {
	sf, err := s.get(userID, surfaceID)
	if err != nil {
		return err
	}
	return sf.controller.SetInput(text)
}

func (s *assistantService) ToggleListening(ctx context.Context, userID string, surfaceID uuid.UUID) error {
	sf, err := s.get(userID, surfaceID)
	if err != nil {
		return err
	}
	return sf.controller.ToggleListening()
}

func (s *assistantService) SetVoiceMode(ctx context.Context, userID string, surfaceID uuid.UUID, enabled bool) error {
	sf, err := s.get(userID, surfaceID)
	if err != nil {
		return err
	}
	sf.controller.SetVoiceMode(enabled)
	return nil
}

func (s *assistantService) CancelSpeech(ctx context.Context, userID string, surfaceID uuid.UUID) error {
	sf, err := s.get(userID, surfaceID)
	if err != nil {
		return err
	}
	sf.controller.CancelSpeech()
	return nil
}

func (s *assistantService) SetLanguage(ctx context.Context, userID string, surfaceID uuid.UUID, tag string) error {
	sf, err := s.get(userID, surfaceID)
	if err != nil {
		return err
	}
	return sf.controller.SetLanguage(i18n.Parse(tag))
}

func (s *assistantService) SetVisible(ctx context.Context, userID string, surfaceID uuid.UUID, visible bool) error {
	sf, err := s.get(userID, surfaceID)
	if err != nil {
		return err
	}
	sf.controller.SetVisible(visible)
	return nil
}

func (s *assistantService) NewSession(ctx context.Context, userID string, surfaceID uuid.UUID) error {
	sf, err := s.get(userID, surfaceID)
	if err != nil {
		return err
	}
	return sf.controller.NewSession(ctx)
}

// Continue clears the gate without a payment. Only allowed when the
// deployment does not charge for sessions.
func (s *assistantService) Continue(ctx context.Context, userID string, surfaceID uuid.UUID) error {
	sf, err := s.get(userID, surfaceID)
	if err != nil {
		return err
	}
	if s.paymentRequired {
		return ErrContinueBlocked
	}
	return sf.controller.ClearGate()
}

func (s *assistantService) ExportTranscript(ctx context.Context, userID string, surfaceID uuid.UUID) (string, string, error) {
	sf, err := s.get(userID, surfaceID)
	if err != nil {
		return "", "", err
	}
	fileName, body := sf.controller.ExportTranscript(time.Now())
	return fileName, body, nil
}

func (s *assistantService) ClearGate(ctx context.Context, surfaceID uuid.UUID, gate uint64) error {
	v, ok := s.surfaces.Get(surfaceID.String())
	if !ok {
		return ErrSurfaceNotFound
	}
	return v.(*surface).controller.ClearGateFor(gate)
}

func (s *assistantService) HandleFrame(surfaceID uuid.UUID, userID string, frame websocket.Frame) {
	sf, err := s.get(userID, surfaceID)
	if err != nil {
		s.sendError(surfaceID, err)
		return
	}

	if websocket.IsSpeechFrame(frame.Type) {
		if err := sf.speech.HandleFrame(frame); err != nil {
			s.logger.Warn(assistantModule, "Bad speech frame", map[string]interface{}{"surface_id": surfaceID, "type": frame.Type, "error": err.Error()})
			return
		}
		if frame.Type == websocket.FrameCapabilities {
			s.pushSurface(sf)
		}
		return
	}

	var body struct {
		Text     string `json:"text"`
		Enabled  bool   `json:"enabled"`
		Language string `json:"language"`
		Visible  bool   `json:"visible"`
	}
	if len(frame.Data) > 0 {
		if err := json.Unmarshal(frame.Data, &body); err != nil {
			s.sendError(surfaceID, err)
			return
		}
	}

	ctrl := sf.controller
	switch frame.Type {
	case websocket.FrameSend:
		// The reply can take a while; the read loop must keep serving
		// speech frames meanwhile.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SubmitTimeout)
			defer cancel()
			if err := ctrl.SendMessage(ctx, body.Text); err != nil {
				s.sendError(surfaceID, err)
			}
		}()
		return
	case websocket.FrameSetInput:
		err = ctrl.SetInput(body.Text)
	case websocket.FrameToggleMic:
		err = ctrl.ToggleListening()
	case websocket.FrameVoiceMode:
		ctrl.SetVoiceMode(body.Enabled)
	case websocket.FrameCancelSpeech:
		ctrl.CancelSpeech()
	case websocket.FrameLanguage:
		err = ctrl.SetLanguage(i18n.Parse(body.Language))
	case websocket.FrameVisibility:
		ctrl.SetVisible(body.Visible)
	default:
		s.logger.Debug(assistantModule, "Unknown frame type", map[string]interface{}{"type": frame.Type})
		return
	}

	if err != nil {
		s.sendError(surfaceID, err)
	}
}

// Detached pauses the clock and ends speech I/O of a surface whose last
// socket closed.
func (s *assistantService) Detached(surfaceID uuid.UUID) {
	v, ok := s.surfaces.Get(surfaceID.String())
	if !ok {
		return
	}
	sf := v.(*surface)
	sf.speech.Detach()
	sf.controller.SetVisible(false)
}

func (s *assistantService) Run(ctx context.Context) error {
	if s.deps.Subscriber != nil {
		err := s.deps.Subscriber.Subscribe(ctx, events.TypePaymentSettled, "assistant-"+s.instanceID, s.onPaymentSettled)
		if err != nil {
			s.logger.Warn(assistantModule, "Payment events unavailable, only local payments clear gates", map[string]interface{}{"error": err.Error()})
		}
	}

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil
		case msg := <-s.queue:
			s.publish(ctx, msg)
		case id := <-s.resync:
			s.resyncSurface(ctx, id)
		}
	}
}

func (s *assistantService) publish(ctx context.Context, msg dto.SurfaceEventMessage) {
	if s.deps.Bus == nil {
		return
	}
	if err := s.deps.Bus.SendMessage(ctx, msg); err != nil {
		s.logger.Warn(assistantModule, "Failed to publish surface event", map[string]interface{}{"surface_id": msg.SurfaceId, "error": err.Error()})
	}
}

// resyncSurface publishes what is already queued, then a full surface frame,
// so the socket ends on the current state after frames were dropped.
func (s *assistantService) resyncSurface(ctx context.Context, id uuid.UUID) {
	for n := len(s.queue); n > 0; n-- {
		s.publish(ctx, <-s.queue)
	}

	v, ok := s.surfaces.Get(id.String())
	if !ok {
		return
	}
	sf := v.(*surface)
	sf.observer.resynced()

	raw, err := json.Marshal(s.response(sf))
	if err != nil {
		s.logger.Error(assistantModule, "Failed to encode surface resync", map[string]interface{}{"surface_id": id, "error": err})
		return
	}
	s.publish(ctx, dto.SurfaceEventMessage{SurfaceId: id, Type: websocket.FrameSurface, Data: raw})
	s.logger.Info(assistantModule, "Surface resynced after dropped events", map[string]interface{}{"surface_id": id})
}

func (s *assistantService) onPaymentSettled(ctx context.Context, event events.BaseEvent) error {
	orderID := event.String("order_id")
	surfaceID, gate, err := ParseOrderID(orderID)
	if err != nil {
		s.logger.Warn(assistantModule, "Payment event with invalid order", map[string]interface{}{"order_id": orderID})
		return nil
	}

	err = s.ClearGate(ctx, surfaceID, gate)
	switch {
	case err == nil:
		s.logger.Info(assistantModule, "Gate cleared by remote payment", map[string]interface{}{"surface_id": surfaceID, "order_id": orderID})
	case errors.Is(err, ErrSurfaceNotFound), errors.Is(err, assistant.ErrGateNotActive), errors.Is(err, assistant.ErrClosed), errors.Is(err, assistant.ErrStaleGate):
		// owned by another instance, already cleared, or paid for an earlier gate
	default:
		return err
	}
	return nil
}

func (s *assistantService) phaseNotifier(surfaceID uuid.UUID, userID string) func(prev, next lifecycle.State) {
	return func(prev, next lifecycle.State) {
		if s.deps.Events == nil {
			return
		}
		event := events.PhaseChanged(surfaceID.String(), userID, next, time.Now())
		// Called under the controller lock.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.deps.Events.Publish(ctx, event); err != nil {
				s.logger.Warn(assistantModule, "Failed to publish lifecycle event", map[string]interface{}{"event": event.Type, "error": err.Error()})
			}
		}()
	}
}

func (s *assistantService) get(userID string, surfaceID uuid.UUID) (*surface, error) {
	key := surfaceID.String()
	v, ok := s.surfaces.Get(key)
	if !ok {
		return nil, ErrSurfaceNotFound
	}
	sf := v.(*surface)
	if sf.userID != userID {
		return nil, ErrSurfaceNotFound
	}
	// Refresh the idle timer.
	s.surfaces.Set(key, sf, cache.DefaultExpiration)
	return sf, nil
}

func (s *assistantService) response(sf *surface) *dto.SurfaceResponse {
	return &dto.SurfaceResponse{SurfaceId: sf.id, Surface: sf.controller.Snapshot()}
}

func (s *assistantService) pushSurface(sf *surface) {
	if s.deps.Sockets == nil {
		return
	}
	frame, err := websocket.Encode(websocket.FrameSurface, s.response(sf))
	if err != nil {
		return
	}
	s.deps.Sockets.SendToSurface(sf.id, frame)
}

func (s *assistantService) sendError(surfaceID uuid.UUID, err error) {
	if errors.Is(err, voice.ErrUnsupported) || s.deps.Sockets == nil {
		return
	}
	frame, encErr := websocket.Encode(websocket.FrameError, map[string]string{
		"code":    ErrorCode(err),
		"message": err.Error(),
	})
	if encErr != nil {
		return
	}
	s.deps.Sockets.SendToSurface(surfaceID, frame)
}

func (s *assistantService) teardown(sf *surface) {
	sf.controller.Close()
	sf.speech.Detach()
	s.logger.Info(assistantModule, "Surface closed", map[string]interface{}{"surface_id": sf.id, "user_id": sf.userID})
}

func (s *assistantService) shutdown() {
	for key := range s.surfaces.Items() {
		s.surfaces.Delete(key)
	}
}

// ErrorCode is the stable machine-readable name of a service error.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrSurfaceNotFound):
		return "surface_not_found"
	case errors.Is(err, ErrContinueBlocked):
		return "payment_required"
	case errors.Is(err, assistant.ErrBlankMessage):
		return "blank_message"
	case errors.Is(err, assistant.ErrNoSession):
		return "no_session"
	case errors.Is(err, assistant.ErrSessionGated):
		return "session_gated"
	case errors.Is(err, assistant.ErrBusy):
		return "busy"
	case errors.Is(err, assistant.ErrClosed):
		return "closed"
	case errors.Is(err, assistant.ErrGateNotActive):
		return "gate_not_active"
	case errors.Is(err, assistant.ErrDiscarded):
		return "discarded"
	case errors.Is(err, voice.ErrUnsupported):
		return "unsupported"
	default:
		return "internal"
	}
}
