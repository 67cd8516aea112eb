// Package voice adapts platform speech capabilities (speech-to-text and
// text-to-speech) to the assistant. Platform implementations only need to
// satisfy Recognizer and Synthesizer.
package voice

import (
	"errors"
	"strings"

	"hana-assistant-be/pkg/i18n"
)

var (
	// ErrUnsupported marks a missing capability. Callers treat it as a
	// feature being absent, never as a failure.
	ErrUnsupported = errors.New("voice: capability not supported")

	// ErrNotAllowed is the platform refusing playback or capture until the
	// user interacts with the page.
	ErrNotAllowed = errors.New("voice: not allowed")

	// ErrCancelled is returned by Play when the reserved utterance was
	// cancelled before it reached the platform.
	ErrCancelled = errors.New("voice: utterance cancelled")
)

type RecognitionOptions struct {
	Locale     string
	Interim    bool
	Continuous bool
}

// RecognitionCallbacks may be invoked from any goroutine. OnEnd is called
// exactly once per capture, after any error.
type RecognitionCallbacks struct {
	OnPartial func(text string)
	OnFinal   func(text string)
	OnError   func(err error)
	OnEnd     func()
}

type Recognizer interface {
	Supported() bool
	Start(opts RecognitionOptions, cb RecognitionCallbacks) error
	Stop()
}

type Voice struct {
	Name    string `json:"name"`
	Lang    string `json:"lang"`
	Default bool   `json:"default"`
}

// Utterance callbacks may be invoked from any goroutine. Exactly one of
// OnEnd or OnError ends an utterance.
type Utterance struct {
	Text    string
	Locale  string
	Voice   *Voice
	OnStart func()
	OnEnd   func()
	OnError func(err error)
}

type Synthesizer interface {
	Supported() bool
	Voices() []Voice
	Speak(u Utterance) error
	Cancel()
}

var locales = map[i18n.Language]string{
	i18n.English:    "en-US",
	i18n.Indonesian: "id-ID",
}

// Locale returns the BCP-47 tag used for capture and playback.
func Locale(lang i18n.Language) string {
	if l, ok := locales[lang]; ok {
		return l
	}
	return locales[i18n.Default]
}

type voicePreference struct {
	prefixes []string
	names    []string
}

var voiceTable = map[i18n.Language]voicePreference{
	i18n.English: {
		prefixes: []string{"en-us", "en-gb", "en"},
		names:    []string{"google us english", "samantha", "english"},
	},
	i18n.Indonesian: {
		prefixes: []string{"id-id", "id"},
		names:    []string{"indonesia", "damayanti"},
	},
}

// SelectVoice picks the first voice whose language tag starts with one of
// the language's prefixes, then the first whose name contains one of its
// names. Preferences are tried in table order.
func SelectVoice(voices []Voice, lang i18n.Language) (Voice, bool) {
	pref, ok := voiceTable[lang]
	if !ok {
		pref = voiceTable[i18n.Default]
	}

	for _, prefix := range pref.prefixes {
		for _, v := range voices {
			tag := strings.ToLower(strings.ReplaceAll(v.Lang, "_", "-"))
			if tag == prefix || strings.HasPrefix(tag, prefix+"-") {
				return v, true
			}
		}
	}

	for _, name := range pref.names {
		for _, v := range voices {
			if strings.Contains(strings.ToLower(v.Name), name) {
				return v, true
			}
		}
	}

	return Voice{}, false
}
