package assistant

import "hana-assistant-be/pkg/lifecycle"

// Disablement tells a surface which controls accept input.
type Disablement struct {
	Input        bool `json:"input"`
	Send         bool `json:"send"`
	Microphone   bool `json:"microphone"`
	CancelSpeech bool `json:"cancel_speech"`
	Continue     bool `json:"continue"`
}

// ComputeDisablement derives every control flag from the conversation state
// and the gate state.
func ComputeDisablement(state State, life lifecycle.State) Disablement {
	gated := life.IsGateActive()

	return Disablement{
		Input:        gated || state == StateThinking || state == StateListening,
		Send:         gated || state == StateThinking,
		Microphone:   gated || state == StateThinking,
		CancelSpeech: state != StateAnswering,
		Continue:     !gated,
	}
}
