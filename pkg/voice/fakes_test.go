package voice

import (
	"sync"
)

type fakeRecognizer struct {
	mu        sync.Mutex
	supported bool
	starts    []RecognitionOptions
	callbacks []RecognitionCallbacks
	stops     int
	startErr  error
}

func (f *fakeRecognizer) Supported() bool { return f.supported }

func (f *fakeRecognizer) Start(opts RecognitionOptions, cb RecognitionCallbacks) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.starts = append(f.starts, opts)
	f.callbacks = append(f.callbacks, cb)
	return nil
}

func (f *fakeRecognizer) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeRecognizer) last() RecognitionCallbacks {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callbacks[len(f.callbacks)-1]
}

type fakeSynthesizer struct {
	mu         sync.Mutex
	supported  bool
	voices     []Voice
	utterances []Utterance
	cancels    int
}

func (f *fakeSynthesizer) Supported() bool { return f.supported }

func (f *fakeSynthesizer) Voices() []Voice { return f.voices }

func (f *fakeSynthesizer) Speak(u Utterance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.utterances = append(f.utterances, u)
	return nil
}

func (f *fakeSynthesizer) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
}

func (f *fakeSynthesizer) last() Utterance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.utterances[len(f.utterances)-1]
}
