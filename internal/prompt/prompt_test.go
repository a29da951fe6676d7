package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMode_MaxDocuments(t *testing.T) {
	assert.Equal(t, 1, ModeAnalyze.MaxDocuments())
	assert.Equal(t, 2, ModeCompare.MaxDocuments())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Compare ")
	require.NoError(t, err)
	assert.Equal(t, ModeCompare, m)

	_, err = ParseMode("summarize")
	assert.Error(t, err)
}

func TestBuild_InterpolatesText(t *testing.T) {
	out, err := Build(ModeAnalyze, "Room Rent Limit: No Limit\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Brochure text:\nRoom Rent Limit: No Limit\n")
	assert.NotContains(t, out, Placeholder)
	for _, field := range []string{"Plan Name", "Room Rent Limit", "Co-payment", "Waiting Periods", "No Claim Bonus", "Key Exclusions"} {
		assert.Contains(t, out, field)
	}

	out, err = Build(ModeCompare, "--- START OF DOCUMENT 1: a ---\nA\n--- END OF DOCUMENT 1 ---\n\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Document 2")
	assert.True(t, strings.HasSuffix(out, "--- END OF DOCUMENT 1 ---\n\n\n"))
}

func TestBuild_TextIsNotReinterpreted(t *testing.T) {
	text := "Clause " + Placeholder + " stays as written"
	out, err := Build(ModeAnalyze, text)
	require.NoError(t, err)
	assert.Contains(t, out, text)
}

func TestBuild_UnknownMode(t *testing.T) {
	_, err := Build(Mode("summary"), "x")
	assert.Error(t, err)
}

func TestBuild_TemplateWithoutPlaceholder(t *testing.T) {
	tmpl := Templates{Analyze: "Summarize this.\n"}
	out, err := tmpl.Build(ModeAnalyze, "TEXT")
	require.NoError(t, err)
	assert.Equal(t, "Summarize this.\n\nTEXT", out)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analyze: |\n  Custom analysis:\n  {{BROCHURE_TEXT}}\n"), 0o600))

	tmpl, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Custom analysis:\n{{BROCHURE_TEXT}}\n", tmpl.Analyze)
	assert.Equal(t, compareTemplate, tmpl.Compare, "missing keys keep the default")

	out, err := tmpl.Build(ModeAnalyze, "Co-payment: 10%")
	require.NoError(t, err)
	assert.Equal(t, "Custom analysis:\nCo-payment: 10%\n", out)
}

func TestLoadFile_Errors(t *testing.T) {
	tmpl, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), tmpl)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("analyze: [oops"), 0o600))
	_, err = LoadFile(bad)
	assert.Error(t, err)
}
