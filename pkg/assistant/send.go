package assistant

import (
	"context"
	"errors"
	"strings"

	"hana-assistant-be/pkg/i18n"
	"hana-assistant-be/pkg/store"
	"hana-assistant-be/pkg/voice"
)

// SendMessage runs one exchange: the user message is appended, relevant
// documents are merged into the prompt and the reply (or the localized
// fallback) is appended. It blocks until the exchange completes; the
// controller stays responsive meanwhile. A backend failure is not returned:
// it becomes the fallback message.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case text == "":
		c.mu.Unlock()
		return ErrBlankMessage
	case c.session == nil:
		c.mu.Unlock()
		return ErrNoSession
	case c.life.IsGateActive():
		c.mu.Unlock()
		return ErrSessionGated
	case c.pending:
		c.mu.Unlock()
		return ErrBusy
	}

	wasListening := c.state == StateListening
	wasAnswering := c.state == StateAnswering

	c.appendLocked(text, store.SenderUser, true)
	c.text, c.prefix = "", ""
	c.observer.OnInput("")
	c.pending = true
	c.setStateLocked(StateThinking)

	epoch := c.epoch
	session := c.session
	lang := c.lang
	c.mu.Unlock()

	if wasListening {
		c.input.Abort()
	}
	if wasAnswering {
		c.output.Cancel()
	}
	c.persist(ctx)

	docs := c.scorer.Score(text, c.corpus.For(string(lang), string(i18n.Default)))
	augmented := c.augmenter.Augment(text, docs, lang)

	c.logger.Debug(module, "Sending prompt", map[string]interface{}{"lang": string(lang), "documents": len(docs)})

	reply, err := session.Send(ctx, augmented)

	c.mu.Lock()
	if c.closed || c.epoch != epoch {
		c.mu.Unlock()
		c.logger.Info(module, "Reply dropped after teardown", nil)
		return ErrDiscarded
	}
	c.pending = false

	if err != nil {
		c.logger.Error(module, "Assistant unavailable", map[string]interface{}{"error": err})
		c.appendLocked(c.translator.T(c.lang, KeyFallback, nil), store.SenderAssistant, true)
		c.setStateLocked(StateIdle)
		c.mu.Unlock()
		c.persist(ctx)
		return nil
	}

	c.appendLocked(reply, store.SenderAssistant, true)
	speak := c.voiceMode && c.output.IsSupported()
	var ticket voice.Ticket
	if speak {
		// reserve under the lock: any later cancel must see the utterance
		ticket = c.output.Reserve()
		c.setStateLocked(StateAnswering)
	} else {
		c.setStateLocked(StateIdle)
	}
	speakLang := c.lang
	c.mu.Unlock()

	if speak {
		if err := c.output.Play(ticket, reply, speakLang); err != nil {
			if !errors.Is(err, voice.ErrUnsupported) && !errors.Is(err, voice.ErrCancelled) {
				c.logger.Warn(module, "Speech output failed", map[string]interface{}{"error": err.Error()})
			}
			c.endAnswering(epoch)
		}
	}

	c.persist(ctx)
	return nil
}

// CancelSpeech stops playback and returns to idle.
func (c *Controller) CancelSpeech() {
	c.mu.Lock()
	if c.state == StateAnswering {
		c.setStateLocked(StateIdle)
	}
	c.mu.Unlock()

	c.output.Cancel()
}

func (c *Controller) onSpeechEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateAnswering {
		c.setStateLocked(StateIdle)
	}
}

func (c *Controller) endAnswering(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch == epoch && c.state == StateAnswering {
		c.setStateLocked(StateIdle)
	}
}
