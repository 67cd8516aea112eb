// FILE: pkg/chatbot/session.go
// PURPOSE: Stateful conversation handle over a stateless LLM provider

package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"hana-assistant-be/pkg/i18n"
	"hana-assistant-be/pkg/llm"
)

// ErrAssistantUnavailable wraps every failure of a round trip: transport,
// backend status, malformed or empty responses.
var ErrAssistantUnavailable = errors.New("assistant unavailable")

// DefaultHistoryLimit caps the replayed turns (user + assistant messages).
const DefaultHistoryLimit = 20

var DefaultInstructions = map[i18n.Language]string{
	i18n.English: "You are HANA, the friendly assistant of the Indonesian halal product assurance agency. " +
		"Help business owners and consumers understand halal certification, its requirements and procedures. " +
		"Be supportive and polite, keep answers concise (at most a few short paragraphs) and avoid speculation about religious rulings. " +
		"Always answer in English.",
	i18n.Indonesian: "Anda adalah HANA, asisten ramah dari badan penyelenggara jaminan produk halal Indonesia. " +
		"Bantu pelaku usaha dan konsumen memahami sertifikasi halal, persyaratan, dan prosedurnya. " +
		"Bersikaplah suportif dan sopan, jawab dengan ringkas (paling banyak beberapa paragraf pendek) dan hindari spekulasi tentang hukum agama. " +
		"Selalu jawab dalam Bahasa Indonesia.",
}

// Backend opens sessions against one provider.
type Backend struct {
	provider     llm.LLMProvider
	instructions map[i18n.Language]string
	historyLimit int
	options      []llm.Option
}

type BackendOption func(*Backend)

func WithInstructions(instructions map[i18n.Language]string) BackendOption {
	return func(b *Backend) {
		if len(instructions) > 0 {
			b.instructions = instructions
		}
	}
}

func WithHistoryLimit(n int) BackendOption {
	return func(b *Backend) {
		if n > 0 {
			b.historyLimit = n
		}
	}
}

func WithProviderOptions(opts ...llm.Option) BackendOption {
	return func(b *Backend) {
		b.options = append(b.options, opts...)
	}
}

func NewBackend(provider llm.LLMProvider, opts ...BackendOption) *Backend {
	b := &Backend{
		provider:     provider,
		instructions: DefaultInstructions,
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Create opens a fresh session whose system instruction is fixed to lang.
func (b *Backend) Create(lang i18n.Language) *Session {
	instruction, ok := b.instructions[lang]
	if !ok {
		lang = i18n.Default
		instruction = b.instructions[i18n.Default]
	}

	return &Session{
		provider:     b.provider,
		lang:         lang,
		instruction:  instruction,
		historyLimit: b.historyLimit,
		options:      b.options,
	}
}

// Session keeps the conversation memory the provider itself does not have.
// Sends are serialized.
type Session struct {
	mu           sync.Mutex
	provider     llm.LLMProvider
	lang         i18n.Language
	instruction  string
	history      []llm.Message
	historyLimit int
	options      []llm.Option
}

func (s *Session) Language() i18n.Language {
	return s.lang
}

// Send performs one round trip. On failure the memory is left untouched.
func (s *Session) Send(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn := llm.Message{Role: llm.RoleUser, Content: prompt}

	messages := make([]llm.Message, 0, len(s.history)+2)
	if s.instruction != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: s.instruction})
	}
	messages = append(messages, s.history...)
	messages = append(messages, turn)

	reply, err := s.provider.Chat(ctx, messages, s.options...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAssistantUnavailable, err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("%w: %w", ErrAssistantUnavailable, llm.ErrEmptyResponse)
	}

	s.history = append(s.history, turn, llm.Message{Role: llm.RoleAssistant, Content: reply})
	if over := len(s.history) - s.historyLimit; over > 0 {
		// drop whole exchanges so the replay always starts with a user turn
		if over%2 != 0 {
			over++
		}
		s.history = append([]llm.Message(nil), s.history[over:]...)
	}

	return reply, nil
}

// Turns returns the number of remembered messages.
func (s *Session) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}
