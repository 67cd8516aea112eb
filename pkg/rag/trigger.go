package rag

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// TriggerSet is the regulatory-intent vocabulary. An utterance using one of
// these words boosts documents whose keywords also use one.
type TriggerSet map[string]struct{}

// DefaultTriggers covers English and Indonesian phrasing of legal questions.
var DefaultTriggers = NewTriggerSet(
	"law", "laws", "regulation", "regulations", "rule", "rules", "legal", "mandatory", "decree",
	"uu", "undang-undang", "hukum", "regulasi", "peraturan", "aturan", "wajib", "pp",
)

func NewTriggerSet(words ...string) TriggerSet {
	set := make(TriggerSet, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// LoadTriggerSet reads a JSON object of language -> word list and merges every
// list into one set.
func LoadTriggerSet(path string) (TriggerSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trigger file: %w", err)
	}

	var byLanguage map[string][]string
	if err := json.Unmarshal(data, &byLanguage); err != nil {
		return nil, fmt.Errorf("parse trigger file: %w", err)
	}

	var words []string
	for _, list := range byLanguage {
		words = append(words, list...)
	}

	return NewTriggerSet(words...), nil
}

// ContainsAny expects already lower-cased words.
func (t TriggerSet) ContainsAny(words []string) bool {
	for _, w := range words {
		if _, ok := t[w]; ok {
			return true
		}
	}
	return false
}
