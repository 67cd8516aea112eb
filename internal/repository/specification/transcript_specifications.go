package specification

import (
	"time"

	"gorm.io/gorm"
)

type ByStorageKey struct {
	Key string
}

func (s ByStorageKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("storage_key = ?", s.Key)
}

// UpdatedBefore matches transcripts not written since Cutoff.
type UpdatedBefore struct {
	Cutoff time.Time
}

func (s UpdatedBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("updated_at < ?", s.Cutoff)
}
