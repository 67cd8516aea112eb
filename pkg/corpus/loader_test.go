package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "en.json", `[{"id":"bpjph","title":"About BPJPH","content":"The agency.","keywords":["bpjph"]}]`)
	writeFile(t, dir, "ID.json", `[{"id":"bpjph","title":"Tentang BPJPH","content":"Badan.","keywords":["bpjph"]}]`)
	writeFile(t, dir, "notes.txt", `ignored`)

	c, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Len(t, c, 2)
	assert.Equal(t, "About BPJPH", c["en"][0].Title)
	assert.Equal(t, "Tentang BPJPH", c.For("id", "en")[0].Title)
	assert.Equal(t, "About BPJPH", c.For("fr", "en")[0].Title)
}

func TestLoadDir_Errors(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	assert.Error(t, err)

	dir := t.TempDir()
	writeFile(t, dir, "en.json", `{"not":"an array"}`)
	_, err = LoadDir(dir)
	assert.Error(t, err)

	dir = t.TempDir()
	writeFile(t, dir, "en.json", `[{"id":"a","title":"A"},{"id":"a","title":"B"}]`)
	_, err = LoadDir(dir)
	assert.ErrorContains(t, err, "duplicate")
}

func TestLoadDir_SampleData(t *testing.T) {
	c, err := LoadDir("../../data/corpus")
	require.NoError(t, err)

	assert.NotEmpty(t, c["en"])
	assert.NotEmpty(t, c["id"])
}
