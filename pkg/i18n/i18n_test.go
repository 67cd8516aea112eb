package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		tag  string
		want Language
	}{
		{"", English},
		{"en", English},
		{"en-GB", English},
		{"id", Indonesian},
		{"id-ID", Indonesian},
		{"not a tag!", English},
		{"ja", English},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.tag))
		})
	}
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported(Indonesian))
	assert.False(t, IsSupported(Language("fr")))
}

func TestStaticTranslator(t *testing.T) {
	tr := NewStaticTranslator(Catalog{
		English:    {"timer": "{minutes} minutes left", "only.en": "fallback"},
		Indonesian: {"timer": "sisa {minutes} menit"},
	})

	assert.Equal(t, "sisa 5 menit", tr.T(Indonesian, "timer", map[string]any{"minutes": 5}))
	assert.Equal(t, "5 minutes left", tr.T(English, "timer", map[string]any{"minutes": 5}))
	assert.Equal(t, "fallback", tr.T(Indonesian, "only.en", nil))
	assert.Equal(t, "missing.key", tr.T(Indonesian, "missing.key", nil))
}
