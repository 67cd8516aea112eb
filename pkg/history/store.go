package history

import (
	"context"
	"encoding/json"
	"fmt"

	"hana-assistant-be/pkg/store"
)

const keyPrefix = "hana:transcript:"

// KeyValueStore is the persistence the transcript is written to. Get reports
// found=false for a missing key without an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Store persists a surface transcript under a caller-supplied key.
type Store struct {
	kv KeyValueStore
}

func NewStore(kv KeyValueStore) *Store {
	return &Store{kv: kv}
}

// Load returns nil when nothing was saved under key.
func (s *Store) Load(ctx context.Context, key string) ([]store.Message, error) {
	data, found, err := s.kv.Get(ctx, keyPrefix+key)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}
	if !found {
		return nil, nil
	}

	var messages []store.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
	}
	return messages, nil
}

// Save writes the transcript once it holds more than the greeting.
func (s *Store) Save(ctx context.Context, key string, messages []store.Message) error {
	if len(messages) <= 1 {
		return nil
	}

	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	if err := s.kv.Set(ctx, keyPrefix+key, data); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, keyPrefix+key); err != nil {
		return fmt.Errorf("failed to clear transcript: %w", err)
	}
	return nil
}
