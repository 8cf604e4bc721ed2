package audit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultVocabulary(t *testing.T) {
	v := DefaultVocabulary()
	assert.Equal(t, "fr", v.Locale)
	assert.Contains(t, v.Phases.Finding, "vulnérabilité")
	assert.Equal(t, "Constat", v.Markers.Finding)
}

func TestLoadVocabulary_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "en.yaml")
	raw := []byte(`locale: en
clarify_markers: [clarify]
phases:
  checklist: [Checklist]
  finding: [vulnerability]
  synthesis: [summary]
  report: [report]
infrastructure: [server]
`)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	v, err := LoadVocabulary(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"checklist"}, v.Phases.Checklist, "keywords are lowercased")
	assert.Equal(t, "Cadrage", v.Markers.Cadrage, "missing markers fall back")

	c := NewClassifier(v)
	assert.Equal(t, PhaseFinding, c.Classify("Found a Vulnerability", hist(AssistantTurn("hi", t0))))
}

func TestLoadVocabulary_Errors(t *testing.T) {
	_, err := LoadVocabulary(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseVocabulary([]byte("phases: [not, a, map]"))
	assert.Error(t, err)

	v, err := LoadVocabulary("  ")
	require.NoError(t, err)
	assert.Equal(t, DefaultVocabulary(), v)
}
