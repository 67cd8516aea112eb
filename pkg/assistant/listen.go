package assistant

import (
	"context"
	"errors"

	"hana-assistant-be/pkg/voice"
)

// ToggleListening starts or stops speech capture. Starting snapshots the
// current input so partial transcripts are appended to what was typed.
// A missing recognizer yields voice.ErrUnsupported, which surfaces ignore.
func (c *Controller) ToggleListening() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	if c.state == StateListening {
		c.setStateLocked(StateIdle)
		c.mu.Unlock()
		c.input.Stop()
		return nil
	}

	switch {
	case !c.input.IsSupported():
		c.mu.Unlock()
		return voice.ErrUnsupported
	case c.state == StateThinking:
		c.mu.Unlock()
		return ErrBusy
	case c.life.IsGateActive():
		c.mu.Unlock()
		return ErrSessionGated
	}

	wasAnswering := c.state == StateAnswering
	c.prefix = c.text
	c.setStateLocked(StateListening)
	lang := c.lang
	c.mu.Unlock()

	if wasAnswering {
		c.output.Cancel()
	}

	if err := c.input.Start(lang); err != nil {
		c.mu.Lock()
		if c.state == StateListening {
			c.setStateLocked(StateIdle)
		}
		c.mu.Unlock()

		if errors.Is(err, voice.ErrNotAllowed) {
			c.logger.Info(module, "Microphone needs a user gesture", nil)
		} else {
			c.logger.Warn(module, "Failed to start speech capture", map[string]interface{}{"error": err.Error()})
		}
		return err
	}

	return nil
}

// SetVoiceMode toggles spoken replies. Turning it off stops any capture or
// playback in progress.
func (c *Controller) SetVoiceMode(enabled bool) {
	c.mu.Lock()
	c.voiceMode = enabled
	was := c.state
	if !enabled && (was == StateListening || was == StateAnswering) {
		c.setStateLocked(StateIdle)
	}
	c.mu.Unlock()

	if enabled {
		return
	}
	switch was {
	case StateListening:
		c.input.Abort()
	case StateAnswering:
		c.output.Cancel()
	}
}

func (c *Controller) onPartial(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.state != StateListening {
		return
	}
	c.text = joinInput(c.prefix, text)
	c.observer.OnInput(c.text)
}

func (c *Controller) onFinal(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	composed := joinInput(c.prefix, text)
	c.prefix = ""

	if !c.autoSubmit {
		c.text = composed
		c.observer.OnInput(composed)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.submitTimeout)
		defer cancel()

		if err := c.SendMessage(ctx, composed); err != nil {
			c.logger.Info(module, "Voice transcript not submitted", map[string]interface{}{"error": err.Error()})
		}
	}()
}

func (c *Controller) onCaptureEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateListening {
		c.setStateLocked(StateIdle)
	}
}
