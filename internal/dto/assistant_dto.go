package dto

import (
	"encoding/json"

	"hana-assistant-be/pkg/assistant"

	"github.com/google/uuid"
)

type OpenSurfaceRequest struct {
	Language   string `json:"language" validate:"omitempty,bcp47_language_tag"`
	VoiceMode  *bool  `json:"voice_mode"`
	AutoSubmit *bool  `json:"auto_submit"`
	Visible    *bool  `json:"visible"`
}

type SurfaceResponse struct {
	SurfaceId uuid.UUID          `json:"surface_id"`
	Surface   assistant.Snapshot `json:"surface"`
}

type SendMessageRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

type SetInputRequest struct {
	Text string `json:"text" validate:"max=4000"`
}

type VoiceModeRequest struct {
	Enabled bool `json:"enabled"`
}

type LanguageRequest struct {
	Language string `json:"language" validate:"required,bcp47_language_tag"`
}

type VisibilityRequest struct {
	Visible bool `json:"visible"`
}

// SurfaceEventMessage travels over the in-process bus from a surface's
// controller to its socket connections.
type SurfaceEventMessage struct {
	SurfaceId uuid.UUID       `json:"surface_id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
}
