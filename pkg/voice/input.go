package voice

import (
	"errors"
	"strings"
	"sync"

	"hana-assistant-be/internal/pkg/logger"
	"hana-assistant-be/pkg/i18n"
)

type InputHandlers struct {
	OnPartial func(text string)
	// OnFinal receives the last stable text when a capture ends normally.
	OnFinal func(text string)
	// OnEnd fires once per capture however it ended, after OnFinal.
	OnEnd func()
}

// Input wraps a Recognizer. Callbacks from a capture that was aborted or
// superseded by a newer Start are dropped.
type Input struct {
	mu         sync.Mutex
	recognizer Recognizer
	handlers   InputHandlers
	logger     logger.ILogger

	listening bool
	seq       uint64
	stable    string
	failed    bool
}

func NewInput(recognizer Recognizer, handlers InputHandlers, log logger.ILogger) *Input {
	return &Input{
		recognizer: recognizer,
		handlers:   handlers,
		logger:     log,
	}
}

func (i *Input) IsSupported() bool {
	return i.recognizer != nil && i.recognizer.Supported()
}

func (i *Input) IsListening() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.listening
}

// Start begins a capture in lang, aborting any capture still in flight.
func (i *Input) Start(lang i18n.Language) error {
	if !i.IsSupported() {
		return ErrUnsupported
	}

	i.mu.Lock()
	wasListening := i.listening
	i.seq++
	seq := i.seq
	i.listening = true
	i.stable = ""
	i.failed = false
	i.mu.Unlock()

	if wasListening {
		i.recognizer.Stop()
	}

	err := i.recognizer.Start(RecognitionOptions{
		Locale:     Locale(lang),
		Interim:    true,
		Continuous: true,
	}, RecognitionCallbacks{
		OnPartial: func(text string) { i.partial(seq, text) },
		OnFinal:   func(text string) { i.final(seq, text) },
		OnError:   func(err error) { i.fail(seq, err) },
		OnEnd:     func() { i.end(seq) },
	})
	if err != nil {
		i.mu.Lock()
		if i.seq == seq {
			i.listening = false
		}
		i.mu.Unlock()
		return err
	}

	return nil
}

// Stop ends the capture. OnFinal and OnEnd follow once the recognizer
// reports the end.
func (i *Input) Stop() {
	i.mu.Lock()
	listening := i.listening
	i.mu.Unlock()

	if listening {
		i.recognizer.Stop()
	}
}

// Abort ends the capture and drops every pending callback of it.
func (i *Input) Abort() {
	i.mu.Lock()
	listening := i.listening
	i.seq++
	i.listening = false
	i.stable = ""
	i.mu.Unlock()

	if listening {
		i.recognizer.Stop()
	}
}

func (i *Input) partial(seq uint64, text string) {
	i.mu.Lock()
	if i.seq != seq || !i.listening {
		i.mu.Unlock()
		return
	}
	i.stable = text
	i.mu.Unlock()

	if i.handlers.OnPartial != nil {
		i.handlers.OnPartial(text)
	}
}

func (i *Input) final(seq uint64, text string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.seq == seq {
		i.stable = text
	}
}

func (i *Input) fail(seq uint64, err error) {
	i.mu.Lock()
	if i.seq != seq {
		i.mu.Unlock()
		return
	}
	i.failed = true
	i.mu.Unlock()

	if errors.Is(err, ErrNotAllowed) {
		i.logger.Info("VOICE", "Speech capture needs a user gesture", map[string]interface{}{"error": err.Error()})
		return
	}
	i.logger.Warn("VOICE", "Speech recognition error", map[string]interface{}{"error": err.Error()})
}

func (i *Input) end(seq uint64) {
	i.mu.Lock()
	if i.seq != seq || !i.listening {
		i.mu.Unlock()
		return
	}
	i.listening = false
	text := strings.TrimSpace(i.stable)
	failed := i.failed
	i.stable = ""
	i.mu.Unlock()

	if !failed && text != "" && i.handlers.OnFinal != nil {
		i.handlers.OnFinal(text)
	}
	if i.handlers.OnEnd != nil {
		i.handlers.OnEnd()
	}
}
