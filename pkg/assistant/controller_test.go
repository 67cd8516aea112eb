package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hana-assistant-be/pkg/history"
	"hana-assistant-be/pkg/i18n"
	"hana-assistant-be/pkg/lifecycle"
	"hana-assistant-be/pkg/store"
	"hana-assistant-be/pkg/transcript"
	"hana-assistant-be/pkg/voice"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// FAKES
// ============================================================

type fakeSession struct {
	mu      sync.Mutex
	lang    i18n.Language
	prompts []string
	reply   string
	err     error
	gate    chan struct{}
}

func (f *fakeSession) Send(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeSession) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type sessionFactory struct {
	mu     sync.Mutex
	opened []*fakeSession
	reply  string
	err    error
	gate   chan struct{}
}

func (s *sessionFactory) open(lang i18n.Language) ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	fs := &fakeSession{lang: lang, reply: s.reply, err: s.err, gate: s.gate}
	s.opened = append(s.opened, fs)
	return fs
}

func (s *sessionFactory) last() *fakeSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened[len(s.opened)-1]
}

type fakeRecognizer struct {
	mu    sync.Mutex
	cb    voice.RecognitionCallbacks
	stops int
}

func (f *fakeRecognizer) Supported() bool { return true }

func (f *fakeRecognizer) Start(_ voice.RecognitionOptions, cb voice.RecognitionCallbacks) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cb = cb
	return nil
}

func (f *fakeRecognizer) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeRecognizer) callbacks() voice.RecognitionCallbacks {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

type fakeSynthesizer struct {
	mu         sync.Mutex
	utterances []voice.Utterance
	cancels    int

	// when set, Voices signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func (f *fakeSynthesizer) Supported() bool { return true }

func (f *fakeSynthesizer) Voices() []voice.Voice {
	f.mu.Lock()
	entered, release := f.entered, f.release
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
		<-release
	}
	return []voice.Voice{{Name: "Samantha", Lang: "en-US"}}
}

func (f *fakeSynthesizer) hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entered = make(chan struct{}, 1)
	f.release = make(chan struct{})
}

func (f *fakeSynthesizer) spoken() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.utterances)
}

func (f *fakeSynthesizer) Speak(u voice.Utterance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.utterances = append(f.utterances, u)
	return nil
}

func (f *fakeSynthesizer) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
}

func (f *fakeSynthesizer) last() voice.Utterance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.utterances[len(f.utterances)-1]
}

type recordingObserver struct {
	mu     sync.Mutex
	states []State
}

func (r *recordingObserver) OnState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}
func (r *recordingObserver) OnMessage(store.Message) {}
func (r *recordingObserver) OnTranscript([]store.Message) {}
func (r *recordingObserver) OnInput(string) {}
func (r *recordingObserver) OnLifecycle(lifecycle.State) {}

type kv struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (k *kv) Get(_ context.Context, key string) ([]byte, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.data[key]
	return v, ok, nil
}

func (k *kv) Set(_ context.Context, key string, value []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.data[key] = value
	return nil
}

func (k *kv) Delete(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.data, key)
	return nil
}

var catalog = i18n.Catalog{
	i18n.English: {
		KeyGreeting:            "Hello, I am HANA.",
		KeyFallback:            "Sorry, I cannot answer right now.",
		KeyTranscriptTitle:     "HANA Chat Transcript",
		KeyTranscriptGenerated: "Generated",
		KeyTranscriptUser:      "USER",
		KeyTranscriptAssistant: "HANA",
	},
	i18n.Indonesian: {
		KeyGreeting: "Halo, saya HANA.",
		KeyFallback: "Maaf, saya belum bisa menjawab.",
	},
}

var testCorpus = store.Corpus{
	"en": {
		{ID: "bpjph", Title: "About BPJPH", Content: "BPJPH is the agency.", Keywords: []string{"bpjph"}},
		{ID: "label", Title: "Halal Label", Content: "Print the label.", Keywords: []string{"label"}},
	},
}

type harness struct {
	c        *Controller
	sessions *sessionFactory
	rec      *fakeRecognizer
	synth    *fakeSynthesizer
	observer *recordingObserver
	kv       *kv
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	h := &harness{
		sessions: &sessionFactory{reply: "BPJPH issues halal certificates."},
		rec:      &fakeRecognizer{},
		synth:    &fakeSynthesizer{},
		observer: &recordingObserver{},
		kv:       &kv{data: map[string][]byte{}},
	}

	opts = append([]Option{WithTickInterval(time.Hour), WithStorageKey("user-1")}, opts...)
	h.c = New(Deps{
		Sessions:    h.sessions.open,
		Corpus:      testCorpus,
		Translator:  i18n.NewStaticTranslator(catalog),
		History:     history.NewStore(h.kv),
		Recognizer:  h.rec,
		Synthesizer: h.synth,
		Observer:    h.observer,
	}, opts...)
	t.Cleanup(h.c.Close)

	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	require.NoError(t, h.c.Start(context.Background()))
}

// ============================================================
// SEND
// ============================================================

func TestSendMessage_Exchange(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	require.NoError(t, h.c.SendMessage(context.Background(), "What is BPJPH?"))

	snap := h.c.Snapshot()
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, "Hello, I am HANA.", snap.Messages[0].Text)
	assert.Equal(t, store.SenderUser, snap.Messages[1].Sender)
	assert.Equal(t, "What is BPJPH?", snap.Messages[1].Text)
	assert.Equal(t, store.SenderAssistant, snap.Messages[2].Sender)
	assert.Equal(t, "BPJPH issues halal certificates.", snap.Messages[2].Text)
	assert.Equal(t, StateIdle, snap.State)

	prompt := h.sessions.last().prompts[0]
	assert.Contains(t, prompt, "Title: About BPJPH")
	assert.Contains(t, prompt, "What is BPJPH?")

	assert.Equal(t, []State{StateThinking, StateIdle}, h.observer.states)
}

func TestSendMessage_UnrelatedUtteranceIsNotAugmented(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	require.NoError(t, h.c.SendMessage(context.Background(), "good morning"))

	assert.Equal(t, "good morning", h.sessions.last().prompts[0])
}

func TestSendMessage_Rejections(t *testing.T) {
	h := newHarness(t)

	assert.ErrorIs(t, h.c.SendMessage(context.Background(), "hi"), ErrNoSession)

	h.start(t)
	assert.ErrorIs(t, h.c.SendMessage(context.Background(), "   "), ErrBlankMessage)
	assert.Len(t, h.c.Snapshot().Messages, 1)
	assert.Equal(t, 0, h.sessions.last().calls())
}

func TestSendMessage_SecondSendWhileThinkingIsRejected(t *testing.T) {
	h := newHarness(t)
	h.sessions.gate = make(chan struct{})
	h.start(t)

	done := make(chan error, 1)
	go func() {
		done <- h.c.SendMessage(context.Background(), "first")
	}()

	require.Eventually(t, func() bool { return h.sessions.last().calls() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, StateThinking, h.c.State())

	assert.ErrorIs(t, h.c.SendMessage(context.Background(), "second"), ErrBusy)
	assert.Equal(t, 1, h.sessions.last().calls())

	close(h.sessions.gate)
	require.NoError(t, <-done)

	snap := h.c.Snapshot()
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, "first", snap.Messages[1].Text)
	assert.Equal(t, 1, h.sessions.last().calls())
}

func TestSendMessage_FailureAppendsFallback(t *testing.T) {
	h := newHarness(t)
	h.sessions.err = errors.New("backend down")
	h.start(t)

	require.NoError(t, h.c.SendMessage(context.Background(), "hello"))

	snap := h.c.Snapshot()
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, "Sorry, I cannot answer right now.", snap.Messages[2].Text)
	assert.Equal(t, store.SenderAssistant, snap.Messages[2].Sender)
	assert.Equal(t, StateIdle, snap.State)
}

func TestSendMessage_MessageIDsAreMonotonic(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	for _, q := range []string{"a", "b", "c"} {
		require.NoError(t, h.c.SendMessage(context.Background(), q))
	}

	snap := h.c.Snapshot()
	for i := 1; i < len(snap.Messages); i++ {
		assert.Greater(t, snap.Messages[i].ID, snap.Messages[i-1].ID)
	}
}

func TestSendMessage_ReplyAfterCloseIsDropped(t *testing.T) {
	h := newHarness(t)
	h.sessions.gate = make(chan struct{})
	h.start(t)

	done := make(chan error, 1)
	go func() {
		done <- h.c.SendMessage(context.Background(), "question")
	}()
	require.Eventually(t, func() bool { return h.c.State() == StateThinking }, time.Second, time.Millisecond)

	h.c.Close()
	close(h.sessions.gate)

	assert.ErrorIs(t, <-done, ErrDiscarded)
	assert.Len(t, h.c.Snapshot().Messages, 2)
	assert.ErrorIs(t, h.c.SendMessage(context.Background(), "again"), ErrClosed)
}

// ============================================================
// GATE
// ============================================================

func TestGate_BlocksSendUntilCleared(t *testing.T) {
	h := newHarness(t, WithLifecycle(lifecycle.WithDurations(time.Second, time.Hour)))
	h.start(t)

	s := h.c.Lifecycle().Tick()
	require.Equal(t, lifecycle.PhaseGated, s.Phase)
	require.Equal(t, 0, s.Remaining)

	before := h.c.Snapshot().Messages
	assert.ErrorIs(t, h.c.SendMessage(context.Background(), "hello"), ErrSessionGated)
	assert.Equal(t, before, h.c.Snapshot().Messages)
	assert.True(t, h.c.Snapshot().Disabled.Send)

	require.NoError(t, h.c.ClearGate())
	life := h.c.Snapshot().Lifecycle
	assert.Equal(t, lifecycle.PhasePaid, life.Phase)
	assert.Equal(t, 3600, life.Remaining)

	require.NoError(t, h.c.SendMessage(context.Background(), "hello"))
	assert.ErrorIs(t, h.c.ClearGate(), ErrGateNotActive)
}

func TestGate_ExpiredBlocksSendUntilNewSession(t *testing.T) {
	h := newHarness(t)
	h.start(t)
	life := h.c.Lifecycle()

	for i := 0; i < 300; i++ {
		life.Tick()
	}
	require.Equal(t, lifecycle.PhaseGated, life.Snapshot().Phase)
	require.NoError(t, h.c.ClearGate())
	require.NoError(t, h.c.SendMessage(context.Background(), "What is BPJPH?"))

	for i := 0; i < 3600; i++ {
		life.Tick()
	}
	require.Equal(t, lifecycle.State{Phase: lifecycle.PhaseExpired, Remaining: 0}, life.Snapshot())

	before := h.c.Snapshot().Messages
	assert.ErrorIs(t, h.c.SendMessage(context.Background(), "again"), ErrSessionGated)
	assert.Equal(t, before, h.c.Snapshot().Messages)
	assert.True(t, h.c.Snapshot().Disabled.Send)

	require.NoError(t, h.c.NewSession(context.Background()))

	snap := h.c.Snapshot()
	assert.Equal(t, lifecycle.State{Phase: lifecycle.PhaseTrial, Remaining: 300}, snap.Lifecycle)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "Hello, I am HANA.", snap.Messages[0].Text)
	require.NoError(t, h.c.SendMessage(context.Background(), "again"))
}

func TestGate_ClearForEarlierGateIsStale(t *testing.T) {
	h := newHarness(t, WithLifecycle(lifecycle.WithDurations(time.Second, time.Second)))
	h.start(t)
	life := h.c.Lifecycle()

	life.Tick()
	require.Equal(t, uint64(1), h.c.Snapshot().Gate)
	require.NoError(t, h.c.ClearGateFor(1))
	assert.ErrorIs(t, h.c.ClearGateFor(1), ErrGateNotActive)

	life.Tick()
	require.Equal(t, lifecycle.PhaseExpired, life.Snapshot().Phase)
	assert.ErrorIs(t, h.c.ClearGateFor(1), ErrStaleGate)
	assert.Equal(t, lifecycle.PhaseExpired, h.c.Snapshot().Lifecycle.Phase)

	require.NoError(t, h.c.ClearGateFor(2))
	assert.Equal(t, lifecycle.PhasePaid, h.c.Snapshot().Lifecycle.Phase)
}

// ============================================================
// VOICE
// ============================================================

func TestVoice_AnsweringEndsWithPlayback(t *testing.T) {
	h := newHarness(t, WithVoiceMode(true))
	h.start(t)

	require.NoError(t, h.c.SendMessage(context.Background(), "What is BPJPH?"))
	assert.Equal(t, StateAnswering, h.c.State())

	u := h.synth.last()
	assert.Equal(t, "BPJPH issues halal certificates.", u.Text)

	u.OnStart()
	u.OnEnd()
	assert.Equal(t, StateIdle, h.c.State())
}

func TestVoice_DisablingWhileAnsweringCancelsPlayback(t *testing.T) {
	h := newHarness(t, WithVoiceMode(true))
	h.start(t)
	require.NoError(t, h.c.SendMessage(context.Background(), "hello"))
	require.Equal(t, StateAnswering, h.c.State())

	h.c.SetVoiceMode(false)

	assert.Equal(t, StateIdle, h.c.State())
	assert.Equal(t, 1, h.synth.cancels)
}

func TestVoice_DisablingBeforePlaybackStartsSkipsIt(t *testing.T) {
	cases := map[string]func(t *testing.T, c *Controller){
		"voice mode off": func(_ *testing.T, c *Controller) { c.SetVoiceMode(false) },
		"cancel speech":  func(_ *testing.T, c *Controller) { c.CancelSpeech() },
		"language":       func(t *testing.T, c *Controller) { require.NoError(t, c.SetLanguage(i18n.Indonesian)) },
	}

	for name, interrupt := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, WithVoiceMode(true))
			h.start(t)
			h.synth.hold()

			done := make(chan error, 1)
			go func() {
				done <- h.c.SendMessage(context.Background(), "hello")
			}()

			select {
			case <-h.synth.entered:
			case <-time.After(time.Second):
				t.Fatal("speech output was never prepared")
			}
			require.Equal(t, StateAnswering, h.c.State())

			interrupt(t, h.c)
			close(h.synth.release)

			require.NoError(t, <-done)
			assert.Equal(t, StateIdle, h.c.State())
			assert.Equal(t, 0, h.synth.spoken())
		})
	}
}

func TestVoice_DisablingWhileListeningStopsCapture(t *testing.T) {
	h := newHarness(t)
	h.start(t)
	require.NoError(t, h.c.ToggleListening())
	require.Equal(t, StateListening, h.c.State())

	h.c.SetVoiceMode(false)

	assert.Equal(t, StateIdle, h.c.State())
	assert.Equal(t, 1, h.rec.stops)
}

func TestVoice_CancelSpeech(t *testing.T) {
	h := newHarness(t, WithVoiceMode(true))
	h.start(t)
	require.NoError(t, h.c.SendMessage(context.Background(), "hello"))

	h.c.CancelSpeech()
	assert.Equal(t, StateIdle, h.c.State())

	// late platform callback of the cancelled utterance changes nothing
	h.synth.last().OnEnd()
	assert.Equal(t, StateIdle, h.c.State())

	h.c.CancelSpeech()
	assert.Equal(t, 1, h.synth.cancels)
}

func TestListening_PartialsKeepTypedPrefix(t *testing.T) {
	h := newHarness(t)
	h.start(t)
	require.NoError(t, h.c.SetInput("halal"))

	require.NoError(t, h.c.ToggleListening())
	cb := h.rec.callbacks()
	cb.OnPartial("label")
	assert.Equal(t, "halal label", h.c.Snapshot().Input)
	cb.OnPartial("label rules")
	assert.Equal(t, "halal label rules", h.c.Snapshot().Input)
	assert.True(t, h.c.Snapshot().Disabled.Input)

	require.NoError(t, h.c.ToggleListening())
	assert.Equal(t, StateIdle, h.c.State())
	cb.OnEnd()

	snap := h.c.Snapshot()
	assert.Equal(t, "halal label rules", snap.Input)
	assert.Len(t, snap.Messages, 1)
}

func TestListening_AutoSubmitSendsFinalTranscript(t *testing.T) {
	h := newHarness(t, WithAutoSubmit(true))
	h.start(t)

	require.NoError(t, h.c.ToggleListening())
	cb := h.rec.callbacks()
	cb.OnPartial("what is bpjph")
	require.NoError(t, h.c.ToggleListening())
	cb.OnEnd()

	require.Eventually(t, func() bool { return len(h.c.Snapshot().Messages) == 3 }, time.Second, time.Millisecond)
	assert.Equal(t, "what is bpjph", h.c.Snapshot().Messages[1].Text)
}

func TestListening_SendStopsCapture(t *testing.T) {
	h := newHarness(t)
	h.start(t)
	require.NoError(t, h.c.ToggleListening())
	cb := h.rec.callbacks()
	cb.OnPartial("halal")

	require.NoError(t, h.c.SendMessage(context.Background(), "halal"))

	assert.Equal(t, 1, h.rec.stops)
	cb.OnEnd()
	assert.Equal(t, StateIdle, h.c.State())
	assert.Empty(t, h.c.Snapshot().Input)
}

func TestListening_Unsupported(t *testing.T) {
	c := New(Deps{
		Sessions:   (&sessionFactory{reply: "ok"}).open,
		Translator: i18n.NewStaticTranslator(catalog),
	}, WithTickInterval(time.Hour))
	t.Cleanup(c.Close)
	require.NoError(t, c.Start(context.Background()))

	assert.ErrorIs(t, c.ToggleListening(), voice.ErrUnsupported)
	assert.Equal(t, StateIdle, c.State())
	assert.False(t, c.Snapshot().Capabilities.SpeechInput)

	// voice mode without a synthesizer never enters answering
	c.SetVoiceMode(true)
	require.NoError(t, c.SendMessage(context.Background(), "hello"))
	assert.Equal(t, StateIdle, c.State())
}

// ============================================================
// SESSION
// ============================================================

func TestStart_RestoresPersistedTranscript(t *testing.T) {
	h := newHarness(t)
	h.start(t)
	require.NoError(t, h.c.SendMessage(context.Background(), "What is BPJPH?"))
	saved := h.c.Snapshot().Messages

	other := New(Deps{
		Sessions:   h.sessions.open,
		Translator: i18n.NewStaticTranslator(catalog),
		History:    history.NewStore(h.kv),
	}, WithTickInterval(time.Hour), WithStorageKey("user-1"))
	t.Cleanup(other.Close)
	require.NoError(t, other.Start(context.Background()))

	assert.Equal(t, saved, other.Snapshot().Messages)

	require.NoError(t, other.SendMessage(context.Background(), "next"))
	msgs := other.Snapshot().Messages
	assert.Greater(t, msgs[len(msgs)-2].ID, saved[len(saved)-1].ID)
}

func TestNewSession_ClearsTranscriptAndResetsTrial(t *testing.T) {
	h := newHarness(t, WithLifecycle(lifecycle.WithDurations(time.Second, time.Second)))
	h.start(t)
	require.NoError(t, h.c.SendMessage(context.Background(), "hello"))
	h.c.Lifecycle().Tick()
	require.True(t, h.c.Lifecycle().IsGateActive())

	opened := len(h.sessions.opened)
	require.NoError(t, h.c.NewSession(context.Background()))

	snap := h.c.Snapshot()
	assert.Len(t, snap.Messages, 1)
	assert.Equal(t, lifecycle.PhaseTrial, snap.Lifecycle.Phase)
	assert.Empty(t, h.kv.data)
	assert.Len(t, h.sessions.opened, opened+1)
}

func TestSetLanguage_RelocalizesUntouchedGreeting(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	require.NoError(t, h.c.SetLanguage(i18n.Indonesian))

	snap := h.c.Snapshot()
	assert.Equal(t, i18n.Indonesian, snap.Language)
	assert.Equal(t, "Halo, saya HANA.", snap.Messages[0].Text)
	assert.Equal(t, i18n.Indonesian, h.sessions.last().lang)

	require.NoError(t, h.c.SendMessage(context.Background(), "halo"))
	require.NoError(t, h.c.SetLanguage(i18n.English))
	assert.Equal(t, "Halo, saya HANA.", h.c.Snapshot().Messages[0].Text)
}

func TestSetLanguage_WhileThinkingKeepsReply(t *testing.T) {
	h := newHarness(t)
	h.sessions.gate = make(chan struct{})
	h.start(t)
	inflight := h.sessions.last()

	done := make(chan error, 1)
	go func() {
		done <- h.c.SendMessage(context.Background(), "What is BPJPH?")
	}()
	require.Eventually(t, func() bool { return inflight.calls() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, h.c.SetLanguage(i18n.Indonesian))
	assert.Equal(t, StateThinking, h.c.State())
	assert.NotSame(t, inflight, h.sessions.last())

	close(h.sessions.gate)
	require.NoError(t, <-done)

	snap := h.c.Snapshot()
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, "BPJPH issues halal certificates.", snap.Messages[2].Text)
	assert.Equal(t, store.SenderAssistant, snap.Messages[2].Sender)
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, i18n.Indonesian, snap.Language)
	assert.Equal(t, 0, h.sessions.last().calls())
}

func TestSetVisible_PausesTrialClock(t *testing.T) {
	h := newHarness(t, WithTickInterval(2*time.Millisecond))
	h.start(t)

	require.Eventually(t, func() bool { return h.c.Snapshot().Lifecycle.Remaining < 300 }, time.Second, time.Millisecond)

	h.c.SetVisible(false)
	paused := h.c.Snapshot().Lifecycle.Remaining
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, paused, h.c.Snapshot().Lifecycle.Remaining)
}

func TestExportTranscript_RoundTrip(t *testing.T) {
	h := newHarness(t)
	h.start(t)
	require.NoError(t, h.c.SendMessage(context.Background(), "What is BPJPH?"))

	name, body := h.c.ExportTranscript(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	assert.Equal(t, "hana-transcript-20260102-030405.txt", name)

	parsed, err := transcript.Parse(body, transcript.DefaultLabels)
	require.NoError(t, err)

	original := h.c.Snapshot().Messages
	require.Len(t, parsed, len(original))
	for i := range original {
		assert.Equal(t, original[i].Sender, parsed[i].Sender)
		assert.Equal(t, original[i].Text, parsed[i].Text)
	}
}
