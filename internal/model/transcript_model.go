package model

import (
	"time"

	"gorm.io/datatypes"
)

type Transcript struct {
	Key       string         `gorm:"column:storage_key;type:text;primaryKey"`
	Messages  datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime;index"`
}

func (Transcript) TableName() string {
	return "assistant_transcripts"
}
