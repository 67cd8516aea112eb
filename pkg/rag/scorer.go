// FILE: pkg/rag/scorer.go
// PURPOSE: Keyword relevance scoring of the knowledge corpus against an utterance

package rag

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"hana-assistant-be/pkg/store"
)

const (
	KeywordWeight   = 5
	TitleWeight     = 3
	ContentWeight   = 1
	RegulatoryBoost = 10

	// MinScore is the relevance floor; documents at or below it are dropped.
	MinScore    = 2
	DefaultTopK = 2
)

// Scorer ranks corpus documents for an utterance. It is pure and safe for
// concurrent use once constructed.
type Scorer struct {
	triggers TriggerSet
	topK     int
}

type ScorerOption func(*Scorer)

func WithTopK(k int) ScorerOption {
	return func(s *Scorer) {
		if k > 0 {
			s.topK = k
		}
	}
}

func NewScorer(triggers TriggerSet, opts ...ScorerOption) *Scorer {
	s := &Scorer{
		triggers: triggers,
		topK:     DefaultTopK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns at most topK documents scoring above MinScore, best first.
// Equal scores keep corpus order.
func (s *Scorer) Score(utterance string, corpus []store.KnowledgeDocument) []store.ScoredDocument {
	tokens := tokenize(utterance)
	if len(tokens) == 0 {
		return nil
	}

	regulatoryIntent := s.triggers.ContainsAny(tokens)

	scored := make([]store.ScoredDocument, 0, len(corpus))
	for _, doc := range corpus {
		score := scoreDocument(tokens, doc)

		if regulatoryIntent && s.triggers.ContainsAny(lowerAll(doc.Keywords)) {
			score += RegulatoryBoost
		}

		if score <= MinScore {
			continue
		}

		scored = append(scored, store.ScoredDocument{
			KnowledgeDocument: doc,
			Score:             score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > s.topK {
		scored = scored[:s.topK]
	}

	return scored
}

func scoreDocument(tokens []string, doc store.KnowledgeDocument) int {
	keywords := make(map[string]bool, len(doc.Keywords))
	for _, k := range doc.Keywords {
		keywords[strings.ToLower(k)] = true
	}

	title := strings.ToLower(doc.Title)
	content := strings.ToLower(doc.Content)

	score := 0
	for _, token := range tokens {
		if keywords[token] {
			score += KeywordWeight
		}
		if containsWord(title, token) {
			score += TitleWeight
		}
		if containsWord(content, token) {
			score += ContentWeight
		}
	}

	return score
}

// tokenize lower-cases and splits on whitespace, keeping duplicates.
// Surrounding punctuation is trimmed so "bpjph?" matches the keyword "bpjph".
func tokenize(utterance string) []string {
	words := strings.Fields(strings.ToLower(utterance))
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.TrimFunc(word, isBoundary)
		if word == "" {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// containsWord reports whether word occurs in text delimited by boundaries
// (start/end of text or any rune that is neither a letter nor a digit).
func containsWord(text, word string) bool {
	for offset := 0; offset <= len(text)-len(word); {
		idx := strings.Index(text[offset:], word)
		if idx < 0 {
			return false
		}

		start := offset + idx
		end := start + len(word)

		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])

		if (start == 0 || isBoundary(before)) && (end == len(text) || isBoundary(after)) {
			return true
		}

		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}

	return false
}

func isBoundary(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
