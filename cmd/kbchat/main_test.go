package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/kbchat/internal/adapters/knowledge"
)

const testKB = `[
	{"source": "faq.md", "text": "Reset your password from the login page.", "embedding": [1, 0]},
	{"source": "guide.md", "text": "Export data from Settings.", "embedding": [0, 1]}
]`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "kbchat dev\n", out)
}

func TestKBImportCmd(t *testing.T) {
	dir := t.TempDir()
	jsonPath := writeFile(t, dir, "kb.json", testKB)
	dbPath := filepath.Join(dir, "kb.db")

	out, err := execute(t, "kb", "import", jsonPath, dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 chunks")

	out, err = execute(t, "kb", "import", "--replace", jsonPath, dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "(2 total)")

	db, err := knowledge.OpenSQLite(dbPath)
	require.NoError(t, err)
	defer db.Close()

	chunks, err := db.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "guide.md", chunks[1].Source)
}

func TestKBImportCmd_RequiresArgs(t *testing.T) {
	_, err := execute(t, "kb", "import", "only-one.json")
	assert.Error(t, err)
}

func TestRetrieveCmd(t *testing.T) {
	dir := t.TempDir()
	kbPath := writeFile(t, dir, "kb.json", testKB)
	cfgPath := writeFile(t, dir, "kbchat.yaml", `
knowledge:
  type: json
  path: `+kbPath+`
embedding:
  provider: sine
  dimensions: 2
llm:
  provider: ollama
log:
  level: error
`)

	out, err := execute(t, "--config", cfgPath, "retrieve", "-n", "1", "hello")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "SCORE")
}

func TestRetrieveCmd_UsesConfiguredTopN(t *testing.T) {
	dir := t.TempDir()
	kbPath := writeFile(t, dir, "kb.json", testKB)
	cfgPath := writeFile(t, dir, "kbchat.yaml", `
knowledge:
  type: json
  path: `+kbPath+`
embedding:
  provider: sine
  dimensions: 2
llm:
  provider: ollama
retrieval:
  top_n: 1
log:
  level: error
`)

	out, err := execute(t, "--config", cfgPath, "retrieve", "hello")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short text", preview("short\n  text", 20))
	assert.Equal(t, "abcd…", preview("abcdefgh", 5))
}
