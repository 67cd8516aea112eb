package websocket

import (
	"encoding/json"
)

// Frame is the envelope of every socket message in both directions.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Server -> client frame types.
const (
	FrameSurface    = "surface"
	FrameState      = "state"
	FrameMessage    = "message"
	FrameTranscript = "transcript"
	FrameInput      = "input"
	FrameLifecycle  = "lifecycle"
	FrameError      = "error"

	FrameSTTStart  = "stt.start"
	FrameSTTStop   = "stt.stop"
	FrameTTSSpeak  = "tts.speak"
	FrameTTSCancel = "tts.cancel"
)

// Client -> server frame types.
const (
	FrameCapabilities = "capabilities"
	FrameSTTPartial   = "stt.partial"
	FrameSTTFinal     = "stt.final"
	FrameSTTError     = "stt.error"
	FrameSTTEnd       = "stt.end"
	FrameTTSStart     = "tts.start"
	FrameTTSEnd       = "tts.end"
	FrameTTSError     = "tts.error"

	FrameSend         = "send"
	FrameSetInput     = "input.set"
	FrameToggleMic    = "mic.toggle"
	FrameVoiceMode    = "voice.mode"
	FrameCancelSpeech = "speech.cancel"
	FrameLanguage     = "language"
	FrameVisibility   = "visibility"
)

// Encode builds an outbound frame.
func Encode(frameType string, data interface{}) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Frame{Type: frameType, Data: raw})
}

// IsSpeechFrame reports whether frameType belongs to the speech bridge.
func IsSpeechFrame(frameType string) bool {
	switch frameType {
	case FrameCapabilities,
		FrameSTTPartial, FrameSTTFinal, FrameSTTError, FrameSTTEnd,
		FrameTTSStart, FrameTTSEnd, FrameTTSError:
		return true
	}
	return false
}
