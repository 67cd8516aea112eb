package contract

import (
	"context"
	"time"

	"hana-assistant-be/pkg/history"
)

type TranscriptRepository interface {
	history.KeyValueStore
	// PurgeBefore deletes transcripts untouched since cutoff.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
