package assistant

import (
	"hana-assistant-be/pkg/lifecycle"
	"hana-assistant-be/pkg/store"
)

// Observer receives every visible change of a controller. Methods are called
// with the controller lock held, in order; they must return quickly and must
// not call back into the controller.
type Observer interface {
	OnState(state State)
	OnMessage(msg store.Message)
	OnTranscript(messages []store.Message)
	OnInput(text string)
	OnLifecycle(state lifecycle.State)
}

type nopObserver struct{}

func (nopObserver) OnState(State) {}
func (nopObserver) OnMessage(store.Message) {}
func (nopObserver) OnTranscript([]store.Message) {}
func (nopObserver) OnInput(string) {}
func (nopObserver) OnLifecycle(lifecycle.State) {}
