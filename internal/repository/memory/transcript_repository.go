package memory

import (
	"context"
	"time"

	"hana-assistant-be/pkg/history"

	"github.com/patrickmn/go-cache"
)

// TranscriptRepository keeps transcripts in process memory. Entries expire
// after ttl of inactivity.
type TranscriptRepository struct {
	cache *cache.Cache
}

var _ history.KeyValueStore = (*TranscriptRepository)(nil)

func NewTranscriptRepository(ttl time.Duration) *TranscriptRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TranscriptRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *TranscriptRepository) Get(_ context.Context, key string) ([]byte, bool, error) {
	if x, found := r.cache.Get(key); found {
		data := x.([]byte)
		return append([]byte(nil), data...), true, nil
	}
	return nil, false, nil
}

func (r *TranscriptRepository) Set(_ context.Context, key string, value []byte) error {
	r.cache.Set(key, append([]byte(nil), value...), cache.DefaultExpiration)
	return nil
}

func (r *TranscriptRepository) Delete(_ context.Context, key string) error {
	r.cache.Delete(key)
	return nil
}
