package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hana-assistant-be/pkg/store"
)

// LoadDir reads every <lang>.json file in dir. Each file holds a JSON array
// of documents.
func LoadDir(dir string) (store.Corpus, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list corpus files: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no corpus files in %s", dir)
	}

	corpus := make(store.Corpus, len(paths))
	for _, path := range paths {
		lang := strings.ToLower(strings.TrimSuffix(filepath.Base(path), ".json"))

		docs, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		corpus[lang] = docs
	}

	return corpus, nil
}

func loadFile(path string) ([]store.KnowledgeDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var docs []store.KnowledgeDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	seen := make(map[string]bool, len(docs))
	for i, d := range docs {
		if d.ID == "" || d.Title == "" {
			return nil, fmt.Errorf("%s: document %d needs an id and a title", path, i)
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("%s: duplicate document id %q", path, d.ID)
		}
		seen[d.ID] = true
	}

	return docs, nil
}
