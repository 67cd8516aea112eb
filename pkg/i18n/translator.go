package i18n

import (
	"fmt"
	"strings"
)

// Translator localizes user-facing strings. Placeholders in a catalog entry are
// written as {name} and filled from params.
type Translator interface {
	T(lang Language, key string, params map[string]any) string
}

// Catalog maps language -> key -> template.
type Catalog map[Language]map[string]string

// StaticTranslator serves translations from an in-memory Catalog.
type StaticTranslator struct {
	catalog Catalog
}

var _ Translator = (*StaticTranslator)(nil)

func NewStaticTranslator(catalog Catalog) *StaticTranslator {
	return &StaticTranslator{catalog: catalog}
}

// T falls back to the Default language and then to the key itself.
func (t *StaticTranslator) T(lang Language, key string, params map[string]any) string {
	template, ok := t.catalog[lang][key]
	if !ok {
		template, ok = t.catalog[Default][key]
	}
	if !ok {
		return key
	}

	for name, value := range params {
		template = strings.ReplaceAll(template, "{"+name+"}", fmt.Sprint(value))
	}

	return template
}
