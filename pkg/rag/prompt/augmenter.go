package prompt

import (
	"strings"

	"hana-assistant-be/pkg/i18n"
	"hana-assistant-be/pkg/store"
)

// Template is the per-language wrapping of retrieved context. Instruction must
// contain the {context} and {question} placeholders.
type Template struct {
	Instruction  string
	TitleLabel   string
	ContentLabel string
	Separator    string
}

var DefaultTemplates = map[i18n.Language]Template{
	i18n.English: {
		Instruction: "Use the following reference material from the halal certification knowledge base when it is relevant to the question. " +
			"If the material does not answer the question, answer from your general knowledge instead.\n\n" +
			"<reference_material>\n{context}\n</reference_material>\n\n" +
			"Question: {question}",
		TitleLabel:   "Title",
		ContentLabel: "Content",
		Separator:    "\n\n---\n\n",
	},
	i18n.Indonesian: {
		Instruction: "Gunakan materi referensi berikut dari basis pengetahuan sertifikasi halal jika relevan dengan pertanyaan. " +
			"Jika materi tidak menjawab pertanyaan, jawablah dengan pengetahuan umum Anda.\n\n" +
			"<materi_referensi>\n{context}\n</materi_referensi>\n\n" +
			"Pertanyaan: {question}",
		TitleLabel:   "Judul",
		ContentLabel: "Isi",
		Separator:    "\n\n---\n\n",
	},
}

// Augmenter merges retrieved documents into the user's prompt.
type Augmenter struct {
	templates map[i18n.Language]Template
}

func NewAugmenter(templates map[i18n.Language]Template) *Augmenter {
	if len(templates) == 0 {
		templates = DefaultTemplates
	}
	return &Augmenter{templates: templates}
}

// Augment returns utterance unchanged when docs is empty.
func (a *Augmenter) Augment(utterance string, docs []store.ScoredDocument, lang i18n.Language) string {
	if len(docs) == 0 {
		return utterance
	}

	tmpl := a.template(lang)

	blocks := make([]string, 0, len(docs))
	for _, doc := range docs {
		var block strings.Builder
		block.WriteString(tmpl.TitleLabel)
		block.WriteString(": ")
		block.WriteString(doc.Title)
		block.WriteString("\n")
		block.WriteString(tmpl.ContentLabel)
		block.WriteString(": ")
		block.WriteString(doc.Content)
		blocks = append(blocks, block.String())
	}

	// Single pass: placeholders inside documents or the question are not expanded.
	return strings.NewReplacer(
		"{context}", strings.Join(blocks, tmpl.Separator),
		"{question}", utterance,
	).Replace(tmpl.Instruction)
}

func (a *Augmenter) template(lang i18n.Language) Template {
	if t, ok := a.templates[lang]; ok {
		return t
	}
	if t, ok := a.templates[i18n.Default]; ok {
		return t
	}
	return DefaultTemplates[i18n.Default]
}
