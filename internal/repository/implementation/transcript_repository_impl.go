package implementation

import (
	"context"
	"errors"
	"time"

	"hana-assistant-be/internal/model"
	"hana-assistant-be/internal/repository/contract"
	"hana-assistant-be/internal/repository/specification"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TranscriptRepositoryImpl struct {
	db *gorm.DB
}

func NewTranscriptRepository(db *gorm.DB) contract.TranscriptRepository {
	return &TranscriptRepositoryImpl{db: db}
}

func (r *TranscriptRepositoryImpl) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var m model.Transcript
	err := specification.Apply(r.db.WithContext(ctx), specification.ByStorageKey{Key: key}).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(m.Messages), true, nil
}

func (r *TranscriptRepositoryImpl) Set(ctx context.Context, key string, value []byte) error {
	m := model.Transcript{
		Key:      key,
		Messages: datatypes.JSON(value),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"messages", "updated_at"}),
	}).Create(&m).Error
}

func (r *TranscriptRepositoryImpl) Delete(ctx context.Context, key string) error {
	return specification.Apply(r.db.WithContext(ctx), specification.ByStorageKey{Key: key}).Delete(&model.Transcript{}).Error
}

func (r *TranscriptRepositoryImpl) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := specification.Apply(r.db.WithContext(ctx), specification.UpdatedBefore{Cutoff: cutoff}).Delete(&model.Transcript{})
	return res.RowsAffected, res.Error
}
