package transcript

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hana-assistant-be/pkg/store"
)

const TimeLayout = "2006-01-02 15:04:05"

var (
	headerRule = strings.Repeat("=", 50)
	blockRule  = strings.Repeat("-", 50)
	separator  = "\n\n" + blockRule + "\n\n"
)

var ErrMalformed = errors.New("transcript: malformed export")

// Labels are the localized strings of an export.
type Labels struct {
	Title     string
	Generated string
	User      string
	Assistant string
}

var DefaultLabels = Labels{
	Title:     "HANA Chat Transcript",
	Generated: "Generated",
	User:      "USER",
	Assistant: "HANA",
}

// Render produces the plain-text download of a transcript.
func Render(messages []store.Message, labels Labels, generatedAt time.Time) string {
	var b strings.Builder

	b.WriteString(labels.Title)
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s: %s\n", labels.Generated, generatedAt.Format(TimeLayout))
	b.WriteString(headerRule)
	b.WriteString("\n\n")

	for i, m := range messages {
		if i > 0 {
			b.WriteString(separator)
		}
		b.WriteString(labels.sender(m.Sender))
		b.WriteString(":\n")
		b.WriteString(m.Text)
	}

	return b.String()
}

// Parse reads back what Render wrote. IDs are not part of the export and are
// numbered from 1.
func Parse(export string, labels Labels) ([]store.Message, error) {
	_, body, ok := strings.Cut(export, headerRule+"\n\n")
	if !ok {
		return nil, ErrMalformed
	}
	if body == "" {
		return nil, nil
	}

	blocks := strings.Split(body, separator)
	messages := make([]store.Message, 0, len(blocks))

	for i, block := range blocks {
		label, text, ok := strings.Cut(block, ":\n")
		if !ok {
			return nil, fmt.Errorf("%w: block %d has no sender", ErrMalformed, i+1)
		}

		var sender store.Sender
		switch label {
		case labels.User:
			sender = store.SenderUser
		case labels.Assistant:
			sender = store.SenderAssistant
		default:
			return nil, fmt.Errorf("%w: unknown sender %q", ErrMalformed, label)
		}

		messages = append(messages, store.Message{
			ID:     int64(i + 1),
			Text:   text,
			Sender: sender,
		})
	}

	return messages, nil
}

func (l Labels) sender(s store.Sender) string {
	if s == store.SenderUser {
		return l.User
	}
	return l.Assistant
}

// FileName is the suggested download name.
func FileName(generatedAt time.Time) string {
	return "hana-transcript-" + generatedAt.Format("20060102-150405") + ".txt"
}
