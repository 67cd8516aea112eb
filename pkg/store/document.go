package store

// KnowledgeDocument is a single entry of the assistant's background corpus.
type KnowledgeDocument struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Keywords []string `json:"keywords"`
}

// ScoredDocument is a KnowledgeDocument ranked against one utterance.
type ScoredDocument struct {
	KnowledgeDocument
	Score int `json:"score"`
}

// Corpus holds the documents of every supported language.
// It is never mutated after loading.
type Corpus map[string][]KnowledgeDocument

// For returns the documents for lang, falling back to fallback when lang has none.
func (c Corpus) For(lang, fallback string) []KnowledgeDocument {
	if docs, ok := c[lang]; ok {
		return docs
	}
	return c[fallback]
}
