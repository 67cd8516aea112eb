package rag

import (
	"testing"

	"hana-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func englishCorpus() []store.KnowledgeDocument {
	return []store.KnowledgeDocument{
		{
			ID:       "halal-logo",
			Title:    "The Halal Logo",
			Content:  "The national halal logo must be printed on certified packaging.",
			Keywords: []string{"logo", "label", "packaging"},
		},
		{
			ID:       "bpjph",
			Title:    "About BPJPH",
			Content:  "BPJPH is the Halal Product Assurance Organizing Agency under the Ministry of Religious Affairs.",
			Keywords: []string{"bpjph", "agency", "authority"},
		},
		{
			ID:       "law-33",
			Title:    "Law Number 33 of 2014",
			Content:  "Halal certification is mandatory for products circulating in Indonesia.",
			Keywords: []string{"law", "regulation", "mandatory"},
		},
		{
			ID:       "self-declare",
			Title:    "Self Declare Scheme",
			Content:  "Micro businesses may self declare halal status with a companion.",
			Keywords: []string{"self", "declare", "umk"},
		},
	}
}

func TestScore(t *testing.T) {
	scorer := NewScorer(DefaultTriggers)
	corpus := englishCorpus()

	tests := []struct {
		name      string
		utterance string
		wantIDs   []string
	}{
		{
			name:      "empty utterance",
			utterance: "",
			wantIDs:   nil,
		},
		{
			name:      "whitespace only",
			utterance: "   \t ",
			wantIDs:   nil,
		},
		{
			name:      "no overlap",
			utterance: "weather tomorrow please",
			wantIDs:   nil,
		},
		{
			name:      "keyword match ranks first",
			utterance: "What is BPJPH?",
			wantIDs:   []string{"bpjph"},
		},
		{
			name:      "regulatory boost",
			utterance: "which regulation applies",
			wantIDs:   []string{"law-33"},
		},
		{
			name:      "top two cap",
			utterance: "halal logo bpjph law",
			wantIDs:   []string{"law-33", "halal-logo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(tt.utterance, corpus)

			ids := make([]string, 0, len(got))
			for _, d := range got {
				ids = append(ids, d.ID)
			}

			if tt.wantIDs == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestScore_Weights(t *testing.T) {
	scorer := NewScorer(DefaultTriggers)

	got := scorer.Score("What is BPJPH?", englishCorpus())
	require.Len(t, got, 1)

	// keyword (+5) + title (+3) + content (+1) for "bpjph", content (+1) for "is"
	assert.Equal(t, 10, got[0].Score)
	assert.Equal(t, "About BPJPH", got[0].Title)
}

func TestScore_KeywordMatchIsAtLeastFive(t *testing.T) {
	scorer := NewScorer(NewTriggerSet())
	corpus := []store.KnowledgeDocument{
		{ID: "a", Title: "Unrelated", Content: "Nothing here.", Keywords: []string{"sertifikat"}},
	}

	got := scorer.Score("sertifikat", corpus)
	require.Len(t, got, 1)
	assert.GreaterOrEqual(t, got[0].Score, KeywordWeight)
}

func TestScore_FloorDropsWeakMatches(t *testing.T) {
	scorer := NewScorer(NewTriggerSet())
	corpus := []store.KnowledgeDocument{
		// one content hit (+1) and nothing else
		{ID: "weak", Title: "Other", Content: "Products need review.", Keywords: []string{"x"}},
		// one title hit (+3)
		{ID: "title", Title: "Products", Content: "", Keywords: nil},
	}

	got := scorer.Score("products", corpus)
	require.Len(t, got, 1)
	assert.Equal(t, "title", got[0].ID)
	assert.Equal(t, TitleWeight, got[0].Score)
}

func TestScore_StableOnTies(t *testing.T) {
	scorer := NewScorer(NewTriggerSet(), WithTopK(5))
	corpus := []store.KnowledgeDocument{
		{ID: "first", Title: "One", Keywords: []string{"halal"}},
		{ID: "second", Title: "Two", Keywords: []string{"halal"}},
		{ID: "third", Title: "Three", Keywords: []string{"halal"}},
	}

	got := scorer.Score("halal", corpus)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].ID)
	assert.Equal(t, "second", got[1].ID)
	assert.Equal(t, "third", got[2].ID)
}

func TestScore_DuplicateTokensCount(t *testing.T) {
	scorer := NewScorer(NewTriggerSet())
	corpus := []store.KnowledgeDocument{
		{ID: "a", Title: "A", Keywords: []string{"halal"}},
	}

	got := scorer.Score("halal halal", corpus)
	require.Len(t, got, 1)
	assert.Equal(t, 2*KeywordWeight, got[0].Score)
}

func TestScore_BoostNeedsTriggerOnBothSides(t *testing.T) {
	scorer := NewScorer(NewTriggerSet("law"))
	corpus := []store.KnowledgeDocument{
		{ID: "plain", Title: "Law overview", Keywords: []string{"overview"}},
		{ID: "legal", Title: "Other", Keywords: []string{"law"}},
	}

	got := scorer.Score("law", corpus)
	require.Len(t, got, 2)
	// legal: keyword +5, boost +10; plain: title +3 only
	assert.Equal(t, "legal", got[0].ID)
	assert.Equal(t, KeywordWeight+RegulatoryBoost, got[0].Score)
	assert.Equal(t, TitleWeight, got[1].Score)
}

func TestContainsWord(t *testing.T) {
	tests := []struct {
		text string
		word string
		want bool
	}{
		{"halal product assurance", "product", true},
		{"halal products", "product", false},
		{"(bpjph)", "bpjph", true},
		{"sertifikasi halal", "halal", true},
		{"nonhalal", "halal", false},
		{"half-halal", "halal", true},
		{"", "halal", false},
		{"halal", "halal", true},
	}

	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, containsWord(tt.text, tt.word))
		})
	}
}
