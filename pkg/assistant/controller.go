// FILE: pkg/assistant/controller.go
// PURPOSE: Conversation hub of one chat surface (text, voice, thinking, trial gate)

package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"hana-assistant-be/internal/pkg/logger"
	"hana-assistant-be/pkg/chatbot"
	"hana-assistant-be/pkg/history"
	"hana-assistant-be/pkg/i18n"
	"hana-assistant-be/pkg/lifecycle"
	"hana-assistant-be/pkg/rag"
	"hana-assistant-be/pkg/rag/prompt"
	"hana-assistant-be/pkg/store"
	"hana-assistant-be/pkg/transcript"
	"hana-assistant-be/pkg/voice"
)

type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateThinking  State = "thinking"
	StateAnswering State = "answering"
)

var (
	ErrBlankMessage  = errors.New("assistant: message is blank")
	ErrNoSession     = errors.New("assistant: no active session")
	ErrSessionGated  = errors.New("assistant: session is gated")
	ErrBusy          = errors.New("assistant: a reply is still pending")
	ErrClosed        = errors.New("assistant: surface is closed")
	ErrGateNotActive = errors.New("assistant: gate is not active")
	ErrDiscarded     = errors.New("assistant: reply discarded after session reset")
	ErrStaleGate     = errors.New("assistant: payment belongs to an earlier gate")
)

// Catalog keys used by the controller.
const (
	KeyGreeting            = "assistant.greeting"
	KeyFallback            = "assistant.unavailable"
	KeyTranscriptTitle     = "transcript.title"
	KeyTranscriptGenerated = "transcript.generated"
	KeyTranscriptUser      = "transcript.user"
	KeyTranscriptAssistant = "transcript.assistant"
)

const module = "ASSISTANT"

// ChatSession is one conversation with the language model.
type ChatSession interface {
	Send(ctx context.Context, prompt string) (string, error)
}

// SessionFactory opens a fresh ChatSession for a language.
type SessionFactory func(lang i18n.Language) ChatSession

// FromBackend adapts a chatbot backend.
func FromBackend(b *chatbot.Backend) SessionFactory {
	return func(lang i18n.Language) ChatSession {
		return b.Create(lang)
	}
}

// Deps are the collaborators of a Controller. History, Recognizer,
// Synthesizer and Observer are optional.
type Deps struct {
	Sessions    SessionFactory
	Scorer      *rag.Scorer
	Augmenter   *prompt.Augmenter
	Corpus      store.Corpus
	Translator  i18n.Translator
	History     *history.Store
	Recognizer  voice.Recognizer
	Synthesizer voice.Synthesizer
	Observer    Observer
	Logger      logger.ILogger
}

type Option func(*Controller)

// WithAutoSubmit sends the final transcript of a capture as a message
// instead of leaving it in the input field.
func WithAutoSubmit(enabled bool) Option {
	return func(c *Controller) {
		c.autoSubmit = enabled
	}
}

// WithStorageKey enables transcript persistence under key.
func WithStorageKey(key string) Option {
	return func(c *Controller) {
		c.storageKey = key
	}
}

func WithLanguage(lang i18n.Language) Option {
	return func(c *Controller) {
		if i18n.IsSupported(lang) {
			c.lang = lang
		}
	}
}

func WithVoiceMode(enabled bool) Option {
	return func(c *Controller) {
		c.voiceMode = enabled
	}
}

func WithLifecycle(opts ...lifecycle.Option) Option {
	return func(c *Controller) {
		c.lifeOpts = append(c.lifeOpts, opts...)
	}
}

func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.tickInterval = d
	}
}

// WithSubmitTimeout bounds auto-submitted sends, which have no caller context.
func WithSubmitTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.submitTimeout = d
		}
	}
}

// Controller owns the conversation state of one chat surface. All methods
// are safe for concurrent use; voice and ticker callbacks arrive on their
// own goroutines.
type Controller struct {
	mu        sync.Mutex
	persistMu sync.Mutex

	sessions   SessionFactory
	scorer     *rag.Scorer
	augmenter  *prompt.Augmenter
	corpus     store.Corpus
	translator i18n.Translator
	history    *history.Store
	observer   Observer
	logger     logger.ILogger

	input  *voice.Input
	output *voice.Output

	life         *lifecycle.Lifecycle
	lifeOpts     []lifecycle.Option
	ticker       *lifecycle.Ticker
	tickInterval time.Duration

	autoSubmit    bool
	storageKey    string
	submitTimeout time.Duration

	lang      i18n.Language
	state     State
	session   ChatSession
	messages  []store.Message
	nextID    int64
	greeting  bool
	text      string
	prefix    string
	voiceMode bool
	visible   bool
	started   bool
	closed    bool
	pending   bool
	epoch     uint64
}

func New(deps Deps, opts ...Option) *Controller {
	c := &Controller{
		sessions:      deps.Sessions,
		scorer:        deps.Scorer,
		augmenter:     deps.Augmenter,
		corpus:        deps.Corpus,
		translator:    deps.Translator,
		history:       deps.History,
		observer:      deps.Observer,
		logger:        deps.Logger,
		lang:          i18n.Default,
		state:         StateIdle,
		nextID:        1,
		visible:       true,
		submitTimeout: 2 * time.Minute,
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	if c.logger == nil {
		c.logger = logger.NewNopLogger()
	}
	if c.scorer == nil {
		c.scorer = rag.NewScorer(rag.DefaultTriggers)
	}
	if c.augmenter == nil {
		c.augmenter = prompt.NewAugmenter(nil)
	}

	for _, opt := range opts {
		opt(c)
	}

	c.life = lifecycle.New(c.lifeOpts...)
	c.ticker = lifecycle.NewTicker(c.life, c.tickInterval, c.onTick)

	c.input = voice.NewInput(deps.Recognizer, voice.InputHandlers{
		OnPartial: c.onPartial,
		OnFinal:   c.onFinal,
		OnEnd:     c.onCaptureEnd,
	}, c.logger)
	c.output = voice.NewOutput(deps.Synthesizer, voice.OutputHandlers{
		OnEnd: c.onSpeechEnd,
	}, c.logger)

	return c
}

// Start activates the surface: a fresh chat session in the current
// language, the persisted transcript (or the greeting) and a new trial.
func (c *Controller) Start(ctx context.Context) error {
	return c.begin(ctx, false)
}

// NewSession discards the transcript, persisted copy included, and starts
// over with a new trial.
func (c *Controller) NewSession(ctx context.Context) error {
	return c.begin(ctx, true)
}

func (c *Controller) begin(ctx context.Context, fresh bool) error {
	if c.isClosed() {
		return ErrClosed
	}

	var restored []store.Message
	if c.history != nil && c.storageKey != "" {
		if fresh {
			if err := c.history.Clear(ctx, c.storageKey); err != nil {
				c.logger.Warn(module, "Failed to clear persisted transcript", map[string]interface{}{"error": err.Error()})
			}
		} else {
			msgs, err := c.history.Load(ctx, c.storageKey)
			if err != nil {
				c.logger.Warn(module, "Failed to restore transcript", map[string]interface{}{"error": err.Error()})
			}
			restored = msgs
		}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	c.epoch++
	c.pending = false
	c.started = true
	c.session = c.sessions(c.lang)
	c.text, c.prefix = "", ""

	if len(restored) > 0 {
		c.messages = restored
		c.greeting = false
		c.nextID = 1
		for _, m := range restored {
			if m.ID >= c.nextID {
				c.nextID = m.ID + 1
			}
		}
	} else {
		c.messages = nil
		c.nextID = 1
		c.appendLocked(c.translator.T(c.lang, KeyGreeting, nil), store.SenderAssistant, false)
		c.greeting = true
	}

	c.observer.OnTranscript(c.copyMessagesLocked())
	c.observer.OnInput(c.text)
	c.observer.OnLifecycle(c.life.Reset())
	c.setStateLocked(StateIdle)
	tick := c.visible
	c.mu.Unlock()

	c.input.Abort()
	c.output.Cancel()
	if tick {
		c.ticker.Resume()
	}

	c.logger.Info(module, "Session started", map[string]interface{}{"lang": string(c.Language()), "restored": len(restored), "fresh": fresh})
	return nil
}

// Close tears the surface down. A reply arriving afterwards is dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.epoch++
	c.pending = false
	c.session = nil
	c.setStateLocked(StateIdle)
	c.mu.Unlock()

	c.ticker.Stop()
	c.input.Abort()
	c.output.Cancel()
}

// SetVisible pauses the trial clock while the surface is hidden.
func (c *Controller) SetVisible(visible bool) {
	c.mu.Lock()
	c.visible = visible
	tick := visible && c.started && !c.closed
	c.mu.Unlock()

	if tick {
		c.ticker.Resume()
	} else {
		c.ticker.Pause()
	}
}

// SetLanguage switches language. Voice I/O is cancelled, the chat session is
// re-created and the transcript is kept; an untouched greeting is
// re-localized. A pending reply is still appended.
func (c *Controller) SetLanguage(lang i18n.Language) error {
	if !i18n.IsSupported(lang) {
		lang = i18n.Default
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if lang == c.lang {
		c.mu.Unlock()
		return nil
	}

	c.lang = lang
	if c.started {
		c.session = c.sessions(lang)
	}
	if c.greeting && len(c.messages) == 1 {
		c.messages[0].Text = c.translator.T(lang, KeyGreeting, nil)
		c.observer.OnTranscript(c.copyMessagesLocked())
	}
	stopVoice := c.state == StateListening || c.state == StateAnswering
	if stopVoice {
		c.setStateLocked(StateIdle)
	}
	c.mu.Unlock()

	c.input.Abort()
	c.output.Cancel()
	return nil
}

// ClearGate records a payment or continuation and starts the paid period.
func (c *Controller) ClearGate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if !c.life.IsGateActive() {
		return ErrGateNotActive
	}

	c.observer.OnLifecycle(c.life.ClearGate())
	c.logger.Info(module, "Gate cleared", nil)
	return nil
}

// ClearGateFor clears the gate only when it is the one numbered gate (see
// Snapshot.Gate). A payment made for an earlier gate gets ErrStaleGate.
func (c *Controller) ClearGateFor(gate uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if !c.life.IsGateActive() {
		return ErrGateNotActive
	}
	if current := c.life.Gate(); current != gate {
		c.logger.Warn(module, "Payment for an earlier gate ignored", map[string]interface{}{"gate": gate, "current": current})
		return ErrStaleGate
	}

	c.observer.OnLifecycle(c.life.ClearGate())
	c.logger.Info(module, "Gate cleared", map[string]interface{}{"gate": gate})
	return nil
}

// SetInput replaces the text field. While listening it also replaces the
// prefix partial transcripts are appended to.
func (c *Controller) SetInput(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	c.text = text
	if c.state == StateListening {
		c.prefix = text
	}
	c.observer.OnInput(text)
	return nil
}

func (c *Controller) Language() i18n.Language {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lang
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Lifecycle() *lifecycle.Lifecycle {
	return c.life
}

// Capabilities reports which platform speech features are present.
type Capabilities struct {
	SpeechInput  bool `json:"speech_input"`
	SpeechOutput bool `json:"speech_output"`
}

type Snapshot struct {
	State        State           `json:"state"`
	Lifecycle    lifecycle.State `json:"lifecycle"`
	Gate         uint64          `json:"gate"`
	Language     i18n.Language   `json:"language"`
	Messages     []store.Message `json:"messages"`
	Input        string          `json:"input"`
	VoiceMode    bool            `json:"voice_mode"`
	Visible      bool            `json:"visible"`
	Started      bool            `json:"started"`
	Capabilities Capabilities    `json:"capabilities"`
	Disabled     Disablement     `json:"disabled"`
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	life := c.life.Snapshot()
	return Snapshot{
		State:     c.state,
		Lifecycle: life,
		Language:  c.lang,
		Messages:  c.copyMessagesLocked(),
		Input:     c.text,
		VoiceMode: c.voiceMode,
		Visible:   c.visible,
		Started:   c.started,
		Capabilities: Capabilities{
			SpeechInput:  c.input.IsSupported(),
			SpeechOutput: c.output.IsSupported(),
		},
		Disabled: ComputeDisablement(c.state, life),
		Gate:     c.life.Gate(),
	}
}

// ExportTranscript renders the transcript for download.
func (c *Controller) ExportTranscript(now time.Time) (fileName, body string) {
	c.mu.Lock()
	messages := c.copyMessagesLocked()
	lang := c.lang
	c.mu.Unlock()

	labels := transcript.Labels{
		Title:     c.translator.T(lang, KeyTranscriptTitle, nil),
		Generated: c.translator.T(lang, KeyTranscriptGenerated, nil),
		User:      c.translator.T(lang, KeyTranscriptUser, nil),
		Assistant: c.translator.T(lang, KeyTranscriptAssistant, nil),
	}
	return transcript.FileName(now), transcript.Render(messages, labels, now)
}

func (c *Controller) onTick(s lifecycle.State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.observer.OnLifecycle(s)
	if s.Remaining == 0 {
		c.logger.Info(module, "Session gate reached", map[string]interface{}{"phase": string(s.Phase)})
	}
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	c.observer.OnState(s)
}

func (c *Controller) appendLocked(text string, sender store.Sender, notify bool) store.Message {
	msg := store.Message{ID: c.nextID, Text: text, Sender: sender}
	c.nextID++
	c.messages = append(c.messages, msg)
	c.greeting = false
	if notify {
		c.observer.OnMessage(msg)
	}
	return msg
}

func (c *Controller) copyMessagesLocked() []store.Message {
	return append([]store.Message(nil), c.messages...)
}

// persist writes the latest transcript. Saves are serialized so an older
// copy never overwrites a newer one.
func (c *Controller) persist(ctx context.Context) {
	if c.history == nil || c.storageKey == "" {
		return
	}

	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	messages := c.copyMessagesLocked()
	c.mu.Unlock()

	if err := c.history.Save(context.WithoutCancel(ctx), c.storageKey, messages); err != nil {
		c.logger.Warn(module, "Failed to persist transcript", map[string]interface{}{"error": err.Error()})
	}
}

func joinInput(prefix, text string) string {
	return strings.TrimSpace(prefix + " " + text)
}
