package voice

import (
	"errors"
	"sync"

	"hana-assistant-be/internal/pkg/logger"
	"hana-assistant-be/pkg/i18n"
)

type OutputHandlers struct {
	OnStart func()
	// OnEnd fires when the current utterance finishes or fails. It does not
	// fire for Cancel or for an utterance replaced by a newer Speak.
	OnEnd func()
}

// Output wraps a Synthesizer.
type Output struct {
	mu          sync.Mutex
	synthesizer Synthesizer
	handlers    OutputHandlers
	logger      logger.ILogger

	// dispatch orders calls into the synthesizer so a Cancel never reaches
	// the platform ahead of the Speak it is meant to stop.
	dispatch sync.Mutex

	speaking bool
	seq      uint64
}

// Ticket is a reserved utterance slot. See Reserve.
type Ticket struct {
	seq     uint64
	preempt bool
}

func NewOutput(synthesizer Synthesizer, handlers OutputHandlers, log logger.ILogger) *Output {
	return &Output{
		synthesizer: synthesizer,
		handlers:    handlers,
		logger:      log,
	}
}

func (o *Output) IsSupported() bool {
	return o.synthesizer != nil && o.synthesizer.Supported()
}

func (o *Output) IsSpeaking() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.speaking
}

// Speak cancels any unfinished utterance and reads text aloud in lang.
func (o *Output) Speak(text string, lang i18n.Language) error {
	return o.Play(o.Reserve(), text, lang)
}

// Reserve marks output as speaking before the text is handed over. A Cancel
// between Reserve and Play makes Play return ErrCancelled without reaching
// the synthesizer.
func (o *Output) Reserve() Ticket {
	if !o.IsSupported() {
		return Ticket{}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	t := Ticket{preempt: o.speaking}
	o.seq++
	t.seq = o.seq
	o.speaking = true
	return t
}

// Play speaks text on a reserved ticket.
func (o *Output) Play(t Ticket, text string, lang i18n.Language) error {
	if t.seq == 0 || !o.IsSupported() {
		return ErrUnsupported
	}

	seq := t.seq
	u := Utterance{
		Text:    text,
		Locale:  Locale(lang),
		OnStart: func() { o.started(seq) },
		OnEnd:   func() { o.finished(seq, nil) },
		OnError: func(err error) { o.finished(seq, err) },
	}

	if v, ok := SelectVoice(o.synthesizer.Voices(), lang); ok {
		u.Voice = &v
	} else {
		o.logger.Warn("VOICE", "No voice for language, using platform default", map[string]interface{}{"lang": string(lang)})
	}

	o.dispatch.Lock()
	defer o.dispatch.Unlock()

	if !o.current(seq) {
		return ErrCancelled
	}
	if t.preempt {
		o.synthesizer.Cancel()
	}

	if err := o.synthesizer.Speak(u); err != nil {
		o.mu.Lock()
		if o.seq == seq {
			o.speaking = false
		}
		o.mu.Unlock()
		return err
	}

	return nil
}

// Cancel is a no-op when nothing is speaking.
func (o *Output) Cancel() {
	o.mu.Lock()
	speaking := o.speaking
	o.seq++
	o.speaking = false
	o.mu.Unlock()

	if speaking {
		o.dispatch.Lock()
		o.synthesizer.Cancel()
		o.dispatch.Unlock()
	}
}

func (o *Output) current(seq uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.seq == seq && o.speaking
}

func (o *Output) started(seq uint64) {
	if o.current(seq) && o.handlers.OnStart != nil {
		o.handlers.OnStart()
	}
}

func (o *Output) finished(seq uint64, err error) {
	o.mu.Lock()
	if o.seq != seq || !o.speaking {
		o.mu.Unlock()
		return
	}
	o.speaking = false
	o.mu.Unlock()

	if err != nil {
		if errors.Is(err, ErrNotAllowed) {
			o.logger.Info("VOICE", "Playback blocked until user gesture", nil)
		} else {
			o.logger.Warn("VOICE", "Speech synthesis error", map[string]interface{}{"error": err.Error()})
		}
	}

	if o.handlers.OnEnd != nil {
		o.handlers.OnEnd()
	}
}
