package voice

import (
	"testing"

	"hana-assistant-be/internal/pkg/logger"
	"hana-assistant-be/pkg/i18n"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outputRecorder struct {
	starts int
	ends   int
}

func (r *outputRecorder) handlers() OutputHandlers {
	return OutputHandlers{
		OnStart: func() { r.starts++ },
		OnEnd:   func() { r.ends++ },
	}
}

func TestOutput_Unsupported(t *testing.T) {
	out := NewOutput(&fakeSynthesizer{}, OutputHandlers{}, logger.NewNopLogger())

	assert.ErrorIs(t, out.Speak("hi", i18n.English), ErrUnsupported)
	assert.False(t, out.IsSpeaking())
}

func TestOutput_SpeakLifecycle(t *testing.T) {
	fake := &fakeSynthesizer{
		supported: true,
		voices:    []Voice{{Name: "Damayanti", Lang: "id_ID"}, {Name: "Samantha", Lang: "en-US"}},
	}
	rec := &outputRecorder{}
	out := NewOutput(fake, rec.handlers(), logger.NewNopLogger())

	require.NoError(t, out.Speak("Halo", i18n.Indonesian))
	assert.True(t, out.IsSpeaking())

	u := fake.last()
	assert.Equal(t, "id-ID", u.Locale)
	require.NotNil(t, u.Voice)
	assert.Equal(t, "Damayanti", u.Voice.Name)

	u.OnStart()
	u.OnEnd()

	assert.Equal(t, 1, rec.starts)
	assert.Equal(t, 1, rec.ends)
	assert.False(t, out.IsSpeaking())
}

func TestOutput_NewSpeakSupersedesPrevious(t *testing.T) {
	fake := &fakeSynthesizer{supported: true}
	rec := &outputRecorder{}
	out := NewOutput(fake, rec.handlers(), logger.NewNopLogger())

	require.NoError(t, out.Speak("first", i18n.English))
	first := fake.last()
	require.NoError(t, out.Speak("second", i18n.English))

	assert.Equal(t, 1, fake.cancels)

	first.OnEnd()
	assert.Equal(t, 0, rec.ends)
	assert.True(t, out.IsSpeaking())

	fake.last().OnEnd()
	assert.Equal(t, 1, rec.ends)
}

func TestOutput_CancelIdleIsNoop(t *testing.T) {
	fake := &fakeSynthesizer{supported: true}
	out := NewOutput(fake, OutputHandlers{}, logger.NewNopLogger())

	out.Cancel()
	assert.Equal(t, 0, fake.cancels)
}

func TestOutput_CancelDropsCallbacks(t *testing.T) {
	fake := &fakeSynthesizer{supported: true}
	rec := &outputRecorder{}
	out := NewOutput(fake, rec.handlers(), logger.NewNopLogger())

	require.NoError(t, out.Speak("hello", i18n.English))
	u := fake.last()

	out.Cancel()
	u.OnError(ErrNotAllowed)

	assert.Equal(t, 1, fake.cancels)
	assert.Equal(t, 0, rec.ends)
	assert.False(t, out.IsSpeaking())
}

func TestOutput_NotAllowedEndsUtterance(t *testing.T) {
	fake := &fakeSynthesizer{supported: true}
	rec := &outputRecorder{}
	out := NewOutput(fake, rec.handlers(), logger.NewNopLogger())

	require.NoError(t, out.Speak("hello", i18n.English))
	fake.last().OnError(ErrNotAllowed)

	assert.Equal(t, 1, rec.ends)
	assert.False(t, out.IsSpeaking())
}

func TestSelectVoice(t *testing.T) {
	voices := []Voice{
		{Name: "Microsoft Andika", Lang: "id-ID"},
		{Name: "Daniel", Lang: "en-GB"},
		{Name: "Alex", Lang: "en-US"},
		{Name: "Thomas", Lang: "fr-FR"},
	}

	tests := []struct {
		name   string
		voices []Voice
		lang   i18n.Language
		want   string
		found  bool
	}{
		{"prefix order wins over list order", voices, i18n.English, "Alex", true},
		{"indonesian prefix", voices, i18n.Indonesian, "Microsoft Andika", true},
		{"name fallback", []Voice{{Name: "Google Bahasa Indonesia", Lang: "x-unknown"}}, i18n.Indonesian, "Google Bahasa Indonesia", true},
		{"no match", []Voice{{Name: "Thomas", Lang: "fr-FR"}}, i18n.Indonesian, "", false},
		{"unknown language uses default table", voices, i18n.Language("fr"), "Alex", true},
		{"prefix needs a tag boundary", []Voice{{Name: "X", Lang: "ind"}}, i18n.Indonesian, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectVoice(tt.voices, tt.lang)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestOutput_CancelBetweenReserveAndPlay(t *testing.T) {
	fake := &fakeSynthesizer{supported: true}
	rec := &outputRecorder{}
	out := NewOutput(fake, rec.handlers(), logger.NewNopLogger())

	ticket := out.Reserve()
	assert.True(t, out.IsSpeaking())

	out.Cancel()
	assert.ErrorIs(t, out.Play(ticket, "hello", i18n.English), ErrCancelled)

	assert.Empty(t, fake.utterances)
	assert.False(t, out.IsSpeaking())
	assert.Equal(t, 0, rec.ends)

	require.NoError(t, out.Play(out.Reserve(), "again", i18n.English))
	assert.Equal(t, "again", fake.last().Text)
}

func TestOutput_PlayWithoutReservation(t *testing.T) {
	out := NewOutput(&fakeSynthesizer{}, OutputHandlers{}, logger.NewNopLogger())

	assert.ErrorIs(t, out.Play(out.Reserve(), "hello", i18n.English), ErrUnsupported)
	assert.False(t, out.IsSpeaking())
}
