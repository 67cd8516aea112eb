package prompt

import (
	"strings"
	"testing"

	"hana-assistant-be/pkg/i18n"
	"hana-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

func bpjphDoc() store.ScoredDocument {
	return store.ScoredDocument{
		KnowledgeDocument: store.KnowledgeDocument{
			ID:      "bpjph",
			Title:   "About BPJPH",
			Content: "BPJPH is the Halal Product Assurance Organizing Agency.",
		},
		Score: 10,
	}
}

func TestAugment_NoDocumentsReturnsUtterance(t *testing.T) {
	a := NewAugmenter(nil)

	assert.Equal(t, "What is BPJPH?", a.Augment("What is BPJPH?", nil, i18n.English))
	assert.Equal(t, "hello", a.Augment("hello", []store.ScoredDocument{}, i18n.Indonesian))
}

func TestAugment_English(t *testing.T) {
	a := NewAugmenter(nil)

	got := a.Augment("What is BPJPH?", []store.ScoredDocument{bpjphDoc()}, i18n.English)

	assert.Contains(t, got, "Title: About BPJPH\nContent: BPJPH is the Halal Product Assurance Organizing Agency.")
	assert.Contains(t, got, "What is BPJPH?")
	assert.Contains(t, got, "general knowledge")
}

func TestAugment_IndonesianLabels(t *testing.T) {
	a := NewAugmenter(nil)

	got := a.Augment("Apa itu BPJPH?", []store.ScoredDocument{bpjphDoc()}, i18n.Indonesian)

	assert.Contains(t, got, "Judul: About BPJPH\nIsi: ")
	assert.Contains(t, got, "Pertanyaan: Apa itu BPJPH?")
	assert.NotContains(t, got, "Title:")
}

func TestAugment_UnsupportedLanguageUsesDefault(t *testing.T) {
	a := NewAugmenter(nil)

	got := a.Augment("q", []store.ScoredDocument{bpjphDoc()}, i18n.Language("fr"))

	assert.Contains(t, got, "Title: About BPJPH")
}

func TestAugment_JoinsBlocksWithSeparator(t *testing.T) {
	a := NewAugmenter(map[i18n.Language]Template{
		i18n.English: {
			Instruction:  "{context}|{question}",
			TitleLabel:   "T",
			ContentLabel: "C",
			Separator:    "##",
		},
	})

	second := bpjphDoc()
	second.Title = "Second"
	second.Content = "Body {question}"

	got := a.Augment("Q", []store.ScoredDocument{bpjphDoc(), second}, i18n.English)

	parts := strings.Split(got, "|")
	assert.Len(t, parts, 2)
	assert.Equal(t, "Q", parts[1])
	assert.Equal(t, "T: About BPJPH\nC: BPJPH is the Halal Product Assurance Organizing Agency.##T: Second\nC: Body {question}", parts[0])
}
