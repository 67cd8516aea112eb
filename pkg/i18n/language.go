package i18n

import (
	"golang.org/x/text/language"
)

// Language is a supported assistant language, as a base language subtag.
type Language string

const (
	English    Language = "en"
	Indonesian Language = "id"

	Default = English
)

// Supported lists every language the assistant has templates and voices for.
// The first entry is the default.
var Supported = []Language{English, Indonesian}

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Indonesian,
})

// Parse maps any BCP-47 tag ("id-ID", "en-GB") onto a supported Language.
// Unknown or empty tags resolve to Default.
func Parse(tag string) Language {
	if tag == "" {
		return Default
	}

	t, err := language.Parse(tag)
	if err != nil {
		return Default
	}

	_, idx, conf := matcher.Match(t)
	if conf == language.No {
		return Default
	}

	return Supported[idx]
}

// IsSupported reports whether lang is one of Supported.
func IsSupported(lang Language) bool {
	for _, l := range Supported {
		if l == lang {
			return true
		}
	}
	return false
}
