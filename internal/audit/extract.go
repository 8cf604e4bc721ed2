package audit

import "strings"

const (
	DefaultMissionDescription = "Mission d'audit de sécurité informatique"
	defaultMissionType        = "Audit de sécurité informatique"
	defaultScope              = "Infrastructure IT"
	scopeExcerptRunes         = 100
)

var defaultStandards = []string{"ISO 27001", "ANCS"}

// ExtractQAPairs pairs every assistant turn containing a question mark with
// the user turn that immediately follows it. A trailing question with no
// answer is dropped.
func ExtractQAPairs(h History) []QAPair {
	pairs := make([]QAPair, 0, 4)
	for i := 0; i+1 < len(h); i++ {
		q, a := h[i], h[i+1]
		if !q.IsAssistant() || !strings.Contains(q.Text, "?") {
			continue
		}
		if !a.IsUser() {
			continue
		}
		pairs = append(pairs, QAPair{Question: q.Text, Answer: a.Text})
	}
	return pairs
}

// FormatQAPairs renders pairs the way the scoping prompt expects them.
func FormatQAPairs(pairs []QAPair) string {
	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		lines = append(lines, "Q: "+p.Question+"\nR: "+p.Answer)
	}
	return strings.Join(lines, "\n")
}

// InitialMissionDescription returns the first substantive user message.
func InitialMissionDescription(h History) string {
	for _, t := range h {
		if t.IsUser() && tokenCount(t.Text) > 5 {
			return t.Text
		}
	}
	return DefaultMissionDescription
}

// MissionContextFrom scans user turns for infrastructure vocabulary; the first
// matching turn becomes the scope.
func MissionContextFrom(h History, v Vocabulary) MissionContext {
	ctx := MissionContext{
		MissionType: defaultMissionType,
		Scope:       defaultScope,
		Standards:   append([]string(nil), defaultStandards...),
	}
	for _, t := range h {
		if t.IsUser() && containsAny(strings.ToLower(t.Text), v.Infrastructure) {
			ctx.Scope = truncateRunes(t.Text, scopeExcerptRunes)
			break
		}
	}
	return ctx
}

// PriorCadrage reports whether a scoping reply exists and returns the
// placeholder summary used to seed checklist generation.
func PriorCadrage(h History, v Vocabulary) CadrageSummary {
	for _, t := range h {
		if t.IsAssistant() && strings.Contains(t.Text, v.Markers.Cadrage) {
			return CadrageSummary{Mission: "Audit de sécurité", Scope: "Systèmes informatiques"}
		}
	}
	return CadrageSummary{Mission: defaultMissionType, Scope: defaultScope}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
