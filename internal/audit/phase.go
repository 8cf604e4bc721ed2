package audit

import "strings"

// Phase is the audit workflow stage inferred for a single turn.
type Phase string

const (
	PhaseQuestions Phase = "questions"
	PhaseScoping   Phase = "scoping"
	PhaseChecklist Phase = "checklist"
	PhaseFinding   Phase = "finding"
	PhaseSynthesis Phase = "synthesis"
	PhaseReport    Phase = "report"
	PhaseDefault   Phase = "default"
)

// Structured reports whether the phase produces a parsed record (as opposed
// to prose or a compiled report).
func (p Phase) Structured() bool {
	switch p {
	case PhaseScoping, PhaseChecklist, PhaseFinding:
		return true
	}
	return false
}

// Input is what every rule sees: the raw user input and the turns that came
// before it.
type Input struct {
	Text    string
	Lower   string
	Tokens  int
	History History
}

func newInput(text string, h History) Input {
	return Input{
		Text:    text,
		Lower:   strings.ToLower(text),
		Tokens:  tokenCount(text),
		History: h,
	}
}

// Rule maps a predicate to a phase. Rules are evaluated in order and the first
// match wins.
type Rule struct {
	Name  string
	Phase Phase
	Match func(Input) bool
}

// Classifier infers the phase of a turn. It holds no per-conversation state:
// the phase is recomputed from the full history on every call.
type Classifier struct {
	vocab Vocabulary
	rules []Rule
}

func NewClassifier(v Vocabulary) *Classifier {
	c := &Classifier{vocab: v}
	c.rules = []Rule{
		{Name: "answering-clarification", Phase: PhaseScoping, Match: c.answersClarification},
		{Name: "checklist-keyword", Phase: PhaseChecklist, Match: keywordRule(v.Phases.Checklist)},
		{Name: "finding-keyword", Phase: PhaseFinding, Match: keywordRule(v.Phases.Finding)},
		{Name: "synthesis-keyword", Phase: PhaseSynthesis, Match: keywordRule(v.Phases.Synthesis)},
		{Name: "report-keyword", Phase: PhaseReport, Match: keywordRule(v.Phases.Report)},
		{Name: "first-description", Phase: PhaseQuestions, Match: firstDescription},
	}
	return c
}

// Vocabulary returns the keyword table the classifier was built with.
func (c *Classifier) Vocabulary() Vocabulary { return c.vocab }

// Rules returns a copy of the ordered rule table.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Classify returns the phase for input given the prior turns of the
// conversation. history must not include input itself.
func (c *Classifier) Classify(input string, history History) Phase {
	in := newInput(input, history)
	for _, r := range c.rules {
		if r.Match(in) {
			return r.Phase
		}
	}
	return PhaseDefault
}

func (c *Classifier) answersClarification(in Input) bool {
	if strings.Contains(in.Text, "?") || in.Tokens <= 10 {
		return false
	}
	for _, text := range in.History.AssistantTexts() {
		if containsAny(strings.ToLower(text), c.vocab.ClarifyMarkers) {
			return true
		}
	}
	return false
}

func keywordRule(keywords []string) func(Input) bool {
	return func(in Input) bool {
		return containsAny(in.Lower, keywords)
	}
}

func firstDescription(in Input) bool {
	return !in.History.HasAssistantTurn() && in.Tokens > 5
}

// PhasedTurn pairs an assistant turn with the phase of the user turn that
// triggered it.
type PhasedTurn struct {
	Phase Phase
	Turn  Turn
}

// Replay re-runs classification over a stored conversation and returns every
// assistant reply tagged with the phase it answered. Classification is pure,
// so replaying the same history always yields the same tags.
func (c *Classifier) Replay(h History) []PhasedTurn {
	out := make([]PhasedTurn, 0, len(h)/2+1)
	phase := PhaseDefault
	for i, t := range h {
		if t.IsUser() {
			phase = c.Classify(t.Text, h[:i])
			continue
		}
		out = append(out, PhasedTurn{Phase: phase, Turn: t})
	}
	return out
}
