package audit

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary_fr.yaml
var defaultVocabularyYAML []byte

// Vocabulary is the locale-specific keyword table driving phase detection and
// assistant-turn tagging. It is data, not logic: tests and deployments swap it
// without touching the classifier.
type Vocabulary struct {
	Locale         string        `yaml:"locale"`
	ClarifyMarkers []string      `yaml:"clarify_markers"`
	Phases         PhaseKeywords `yaml:"phases"`
	Infrastructure []string      `yaml:"infrastructure"`
	Markers        Markers       `yaml:"markers"`
}

type PhaseKeywords struct {
	Checklist []string `yaml:"checklist"`
	Finding   []string `yaml:"finding"`
	Synthesis []string `yaml:"synthesis"`
	Report    []string `yaml:"report"`
}

type Markers struct {
	Finding   string `yaml:"finding"`
	Checklist string `yaml:"checklist"`
	Cadrage   string `yaml:"cadrage"`
}

// DefaultVocabulary returns the embedded French vocabulary.
func DefaultVocabulary() Vocabulary {
	v, err := ParseVocabulary(defaultVocabularyYAML)
	if err != nil {
		panic(fmt.Sprintf("audit: embedded vocabulary: %v", err))
	}
	return v
}

// LoadVocabulary reads a vocabulary file. An empty path yields the default.
func LoadVocabulary(path string) (Vocabulary, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultVocabulary(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary %s: %w", path, err)
	}
	return ParseVocabulary(raw)
}

// ParseVocabulary decodes a YAML vocabulary. Missing marker headings fall back
// to the defaults so replies can still be tagged.
func ParseVocabulary(raw []byte) (Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("parse vocabulary: %w", err)
	}
	v.ClarifyMarkers = normalizeKeywords(v.ClarifyMarkers)
	v.Phases.Checklist = normalizeKeywords(v.Phases.Checklist)
	v.Phases.Finding = normalizeKeywords(v.Phases.Finding)
	v.Phases.Synthesis = normalizeKeywords(v.Phases.Synthesis)
	v.Phases.Report = normalizeKeywords(v.Phases.Report)
	v.Infrastructure = normalizeKeywords(v.Infrastructure)
	if strings.TrimSpace(v.Markers.Finding) == "" {
		v.Markers.Finding = "Constat"
	}
	if strings.TrimSpace(v.Markers.Checklist) == "" {
		v.Markers.Checklist = "Checklist"
	}
	if strings.TrimSpace(v.Markers.Cadrage) == "" {
		v.Markers.Cadrage = "Cadrage"
	}
	return v, nil
}

// normalizeKeywords lowercases and drops blanks; matching is case-insensitive.
func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, k := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

func containsAny(lower string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
