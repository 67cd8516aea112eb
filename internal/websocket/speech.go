package websocket

import (
	"encoding/json"
	"errors"
	"sync"

	"hana-assistant-be/pkg/voice"

	"github.com/google/uuid"
)

// ErrDetached ends a capture or utterance whose connection went away.
var ErrDetached = errors.New("websocket: surface connection closed")

// FrameSender delivers an encoded frame to the connections of a surface.
type FrameSender interface {
	SendToSurface(surfaceID uuid.UUID, data []byte) bool
}

// Capabilities is the payload of a client "capabilities" frame.
type Capabilities struct {
	SpeechInput  bool          `json:"speech_input"`
	SpeechOutput bool          `json:"speech_output"`
	Voices       []voice.Voice `json:"voices"`
}

type sttStart struct {
	ID         uint64 `json:"id"`
	Locale     string `json:"locale"`
	Interim    bool   `json:"interim"`
	Continuous bool   `json:"continuous"`
}

type ttsSpeak struct {
	ID     uint64       `json:"id"`
	Text   string       `json:"text"`
	Locale string       `json:"locale"`
	Voice  *voice.Voice `json:"voice,omitempty"`
}

type speechEvent struct {
	ID    uint64 `json:"id"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// RemoteSpeech bridges the browser's speech APIs over the surface socket.
// Captures and utterances are numbered; events carrying an old number are
// ignored.
type RemoteSpeech struct {
	mu        sync.Mutex
	surfaceID uuid.UUID
	sender    FrameSender

	caps Capabilities

	captureID uint64
	capture   *voice.RecognitionCallbacks

	utteranceID uint64
	utterance   *voice.Utterance
}

func NewRemoteSpeech(surfaceID uuid.UUID, sender FrameSender) *RemoteSpeech {
	return &RemoteSpeech{surfaceID: surfaceID, sender: sender}
}

func (s *RemoteSpeech) Recognizer() voice.Recognizer {
	return remoteRecognizer{s}
}

func (s *RemoteSpeech) Synthesizer() voice.Synthesizer {
	return remoteSynthesizer{s}
}

// HandleFrame applies one inbound speech frame.
func (s *RemoteSpeech) HandleFrame(frame Frame) error {
	if frame.Type == FrameCapabilities {
		var caps Capabilities
		if err := json.Unmarshal(frame.Data, &caps); err != nil {
			return err
		}
		s.mu.Lock()
		s.caps = caps
		s.mu.Unlock()
		return nil
	}

	var ev speechEvent
	if len(frame.Data) > 0 {
		if err := json.Unmarshal(frame.Data, &ev); err != nil {
			return err
		}
	}

	switch frame.Type {
	case FrameSTTPartial:
		if cb := s.currentCapture(ev.ID, false); cb != nil && cb.OnPartial != nil {
			cb.OnPartial(ev.Text)
		}
	case FrameSTTFinal:
		if cb := s.currentCapture(ev.ID, false); cb != nil && cb.OnFinal != nil {
			cb.OnFinal(ev.Text)
		}
	case FrameSTTError:
		if cb := s.currentCapture(ev.ID, false); cb != nil && cb.OnError != nil {
			cb.OnError(speechError(ev.Error))
		}
	case FrameSTTEnd:
		if cb := s.currentCapture(ev.ID, true); cb != nil && cb.OnEnd != nil {
			cb.OnEnd()
		}
	case FrameTTSStart:
		if u := s.currentUtterance(ev.ID, false); u != nil && u.OnStart != nil {
			u.OnStart()
		}
	case FrameTTSEnd:
		if u := s.currentUtterance(ev.ID, true); u != nil && u.OnEnd != nil {
			u.OnEnd()
		}
	case FrameTTSError:
		if u := s.currentUtterance(ev.ID, true); u != nil && u.OnError != nil {
			u.OnError(speechError(ev.Error))
		}
	}
	return nil
}

// Detach drops the capabilities and ends whatever was in flight.
func (s *RemoteSpeech) Detach() {
	s.mu.Lock()
	s.caps = Capabilities{}
	capture := s.capture
	utterance := s.utterance
	s.capture = nil
	s.utterance = nil
	s.mu.Unlock()

	if capture != nil {
		if capture.OnError != nil {
			capture.OnError(ErrDetached)
		}
		if capture.OnEnd != nil {
			capture.OnEnd()
		}
	}
	if utterance != nil && utterance.OnError != nil {
		utterance.OnError(ErrDetached)
	}
}

func (s *RemoteSpeech) currentCapture(id uint64, finish bool) *voice.RecognitionCallbacks {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capture == nil || id != s.captureID {
		return nil
	}
	cb := s.capture
	if finish {
		s.capture = nil
	}
	return cb
}

func (s *RemoteSpeech) currentUtterance(id uint64, finish bool) *voice.Utterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.utterance == nil || id != s.utteranceID {
		return nil
	}
	u := s.utterance
	if finish {
		s.utterance = nil
	}
	return u
}

func (s *RemoteSpeech) send(frameType string, data interface{}) bool {
	frame, err := Encode(frameType, data)
	if err != nil {
		return false
	}
	return s.sender.SendToSurface(s.surfaceID, frame)
}

// speechError maps the Web Speech error codes the client forwards.
func speechError(code string) error {
	switch code {
	case "not-allowed", "service-not-allowed":
		return voice.ErrNotAllowed
	case "":
		return errors.New("speech error")
	default:
		return errors.New(code)
	}
}

type remoteRecognizer struct{ s *RemoteSpeech }

func (r remoteRecognizer) Supported() bool {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.caps.SpeechInput
}

func (r remoteRecognizer) Start(opts voice.RecognitionOptions, cb voice.RecognitionCallbacks) error {
	r.s.mu.Lock()
	if !r.s.caps.SpeechInput {
		r.s.mu.Unlock()
		return voice.ErrUnsupported
	}
	r.s.captureID++
	id := r.s.captureID
	r.s.capture = &cb
	r.s.mu.Unlock()

	ok := r.s.send(FrameSTTStart, sttStart{
		ID:         id,
		Locale:     opts.Locale,
		Interim:    opts.Interim,
		Continuous: opts.Continuous,
	})
	if !ok {
		r.s.mu.Lock()
		if r.s.captureID == id {
			r.s.capture = nil
		}
		r.s.mu.Unlock()
		return voice.ErrUnsupported
	}
	return nil
}

func (r remoteRecognizer) Stop() {
	r.s.mu.Lock()
	id := r.s.captureID
	active := r.s.capture != nil
	r.s.mu.Unlock()

	if active {
		r.s.send(FrameSTTStop, speechEvent{ID: id})
	}
}

type remoteSynthesizer struct{ s *RemoteSpeech }

func (t remoteSynthesizer) Supported() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.s.caps.SpeechOutput
}

func (t remoteSynthesizer) Voices() []voice.Voice {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return append([]voice.Voice(nil), t.s.caps.Voices...)
}

func (t remoteSynthesizer) Speak(u voice.Utterance) error {
	t.s.mu.Lock()
	if !t.s.caps.SpeechOutput {
		t.s.mu.Unlock()
		return voice.ErrUnsupported
	}
	t.s.utteranceID++
	id := t.s.utteranceID
	t.s.utterance = &u
	t.s.mu.Unlock()

	ok := t.s.send(FrameTTSSpeak, ttsSpeak{ID: id, Text: u.Text, Locale: u.Locale, Voice: u.Voice})
	if !ok {
		t.s.mu.Lock()
		if t.s.utteranceID == id {
			t.s.utterance = nil
		}
		t.s.mu.Unlock()
		return voice.ErrUnsupported
	}
	return nil
}

func (t remoteSynthesizer) Cancel() {
	t.s.mu.Lock()
	id := t.s.utteranceID
	active := t.s.utterance != nil
	t.s.utterance = nil
	t.s.mu.Unlock()

	if active {
		t.s.send(FrameTTSCancel, speechEvent{ID: id})
	}
}
