package audit

import (
	"strings"
	"unicode"
)

// QAPair is a clarification question and the user's answer to it.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// CadrageRecord is the mission scoping sheet.
type CadrageRecord struct {
	Domains    string   `json:"domaines"`
	Processes  string   `json:"processus"`
	Exclusions string   `json:"exclusions"`
	Standards  string   `json:"referentiels"`
	Objectives []string `json:"objectifs"`
}

func NewCadrageRecord() CadrageRecord {
	return CadrageRecord{Objectives: []string{}}
}

func (c CadrageRecord) IsZero() bool {
	return c.Domains == "" && c.Processes == "" && c.Exclusions == "" && c.Standards == "" && len(c.Objectives) == 0
}

// ChecklistItem is one control of the audit checklist.
type ChecklistItem struct {
	Section     string `json:"section"`
	Requirement string `json:"exigence"`
	Assignee    string `json:"assigne_a"`
	Compliant   string `json:"conforme"`
	LastUpdated string `json:"date_maj"`
}

// Severity grades a finding. The zero value means the generated text did not
// name a recognizable grade.
type Severity string

const (
	SeverityUnknown     Severity = ""
	SeverityCritical    Severity = "Critical"
	SeverityMajor       Severity = "Major"
	SeverityMinor       Severity = "Minor"
	SeverityObservation Severity = "Observation"
)

var severityLabels = map[Severity]string{
	SeverityCritical:    "Critique",
	SeverityMajor:       "Majeure",
	SeverityMinor:       "Mineure",
	SeverityObservation: "Observation",
}

// Label is the French display label used in replies and documents.
func (s Severity) Label() string {
	return severityLabels[s]
}

var severityWords = map[string]Severity{
	"critique":     SeverityCritical,
	"critical":     SeverityCritical,
	"majeur":       SeverityMajor,
	"majeure":      SeverityMajor,
	"major":        SeverityMajor,
	"mineur":       SeverityMinor,
	"mineure":      SeverityMinor,
	"minor":        SeverityMinor,
	"observation":  SeverityObservation,
	"observations": SeverityObservation,
}

var negations = map[string]bool{"non": true, "pas": true, "peu": true, "not": true, "no": true}

// ParseSeverity returns the first French or English grade name found as a
// whole word in text. A grade directly preceded by a negation ("non
// critique", "pas majeur") is ignored.
func ParseSeverity(text string) Severity {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool { return !unicode.IsLetter(r) })
	for i, w := range words {
		sev, ok := severityWords[w]
		if !ok {
			continue
		}
		if i > 0 && negations[words[i-1]] {
			continue
		}
		return sev
	}
	return SeverityUnknown
}

// FindingRecord is a single audit finding ("constat").
type FindingRecord struct {
	Reference       string   `json:"reference"`
	Title           string   `json:"intitule"`
	Entity          string   `json:"entite"`
	Description     string   `json:"description"`
	Severity        Severity `json:"criticite"`
	StandardsRefs   string   `json:"normes"`
	Evidence        string   `json:"preuves"`
	Recommendations string   `json:"recommandations"`
}

func (f FindingRecord) IsZero() bool {
	return f == FindingRecord{}
}

// MissionContext is the small context record handed to finding generation.
type MissionContext struct {
	MissionType string   `json:"mission_type"`
	Scope       string   `json:"scope"`
	Standards   []string `json:"standards"`
}

// CadrageSummary is the placeholder a previous scoping turn yields. Prior
// scoping fields are not reconstructed from the reply.
type CadrageSummary struct {
	Mission string `json:"mission"`
	Scope   string `json:"scope"`
}

// MissionAggregate is the roll-up used by synthesis and the final report. It is
// rebuilt from the conversation on every request and never stored.
type MissionAggregate struct {
	MissionDescription string   `json:"mission_description"`
	Scope              string   `json:"scope"`
	Findings           []string `json:"findings"`
	ChecklistCompleted bool     `json:"checklist_completed"`
	ScopingDone        bool     `json:"cadrage_done"`
}
