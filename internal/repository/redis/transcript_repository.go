package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hana-assistant-be/pkg/history"

	goredis "github.com/redis/go-redis/v9"
)

type TranscriptRepository struct {
	rdb *goredis.Client
	ttl time.Duration
}

var _ history.KeyValueStore = (*TranscriptRepository)(nil)

// NewTranscriptRepository stores transcripts with a sliding ttl; zero keeps
// them forever.
func NewTranscriptRepository(rdb *goredis.Client, ttl time.Duration) *TranscriptRepository {
	return &TranscriptRepository{rdb: rdb, ttl: ttl}
}

func (r *TranscriptRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

func (r *TranscriptRepository) Set(ctx context.Context, key string, value []byte) error {
	if err := r.rdb.Set(ctx, key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *TranscriptRepository) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
