package audit

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func hist(turns ...Turn) History { return History(turns) }

func TestClassify(t *testing.T) {
	c := NewClassifier(DefaultVocabulary())
	asked := hist(
		UserTurn("Audit de sécurité de notre système d'information complet", t0),
		AssistantTurn("Afin de préciser le périmètre, merci de répondre aux questions suivantes : 1. Quels systèmes ?", t0),
	)
	greeted := hist(UserTurn("bonjour", t0), AssistantTurn("Bonjour, comment puis-je aider ?", t0))

	cases := []struct {
		name    string
		input   string
		history History
		want    Phase
	}{
		{"first long description", "Nous voulons auditer la sécurité de notre SI", nil, PhaseQuestions},
		{"first short message", "bonjour à vous", nil, PhaseDefault},
		{"answer to clarification", "Les serveurs de production et le réseau interne sont concernés selon ISO 27001", asked, PhaseScoping},
		{"answer outranks keywords", "Il faut une checklist complète pour les serveurs et le réseau du siège", asked, PhaseScoping},
		{"question mark blocks scoping", "Est-ce que les serveurs et le réseau interne doivent être inclus dans ce périmètre ?", asked, PhaseDefault},
		{"short answer is not scoping", "Les serveurs uniquement", asked, PhaseDefault},
		{"long reply without clarification", "Je voudrais simplement discuter de la sécurité en général avec vous aujourd'hui", greeted, PhaseDefault},
		{"checklist keyword", "Génère la Checklist", greeted, PhaseChecklist},
		{"checklist before finding", "checklist des vulnérabilités", greeted, PhaseChecklist},
		{"finding keyword", "J'ai trouvé une faille", greeted, PhaseFinding},
		{"synthesis keyword", "Fais un résumé", greeted, PhaseSynthesis},
		{"report keyword", "Rapport ANCS", greeted, PhaseReport},
		{"default", "merci", greeted, PhaseDefault},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Classify(tc.input, tc.history); got != tc.want {
				t.Fatalf("Classify(%q) = %s, want %s", tc.input, got, tc.want)
			}
		})
	}
}

func TestClassifier_RuleOrder(t *testing.T) {
	rules := NewClassifier(DefaultVocabulary()).Rules()
	want := []Phase{PhaseScoping, PhaseChecklist, PhaseFinding, PhaseSynthesis, PhaseReport, PhaseQuestions}
	if len(rules) != len(want) {
		t.Fatalf("expected %d rules, got %d", len(want), len(rules))
	}
	for i, r := range rules {
		if r.Phase != want[i] {
			t.Fatalf("rule %d (%s) = %s, want %s", i, r.Name, r.Phase, want[i])
		}
	}
}

func TestClassifier_NonMonotonic(t *testing.T) {
	c := NewClassifier(DefaultVocabulary())
	h := hist(
		UserTurn("Génère le rapport final", t0),
		AssistantTurn("RAPPORT", t0),
	)
	// A later turn may go back to an earlier step.
	if got := c.Classify("Génère la checklist", h); got != PhaseChecklist {
		t.Fatalf("got %s", got)
	}
}

func TestClassifier_Replay(t *testing.T) {
	c := NewClassifier(DefaultVocabulary())
	h := hist(
		UserTurn("Nous voulons auditer la sécurité de notre SI", t0),
		AssistantTurn("Merci de préciser : quels systèmes ?", t0),
		UserTurn("J'ai trouvé une faille", t0),
		AssistantTurn("Constat d'Audit", t0),
	)
	got := c.Replay(h)
	if len(got) != 2 || got[0].Phase != PhaseQuestions || got[1].Phase != PhaseFinding {
		t.Fatalf("unexpected replay: %+v", got)
	}
	again := c.Replay(h)
	for i := range got {
		if got[i] != again[i] {
			t.Fatalf("replay is not deterministic at %d", i)
		}
	}
}

func TestPhase_Structured(t *testing.T) {
	for _, p := range []Phase{PhaseScoping, PhaseChecklist, PhaseFinding} {
		if !p.Structured() {
			t.Fatalf("%s should be structured", p)
		}
	}
	for _, p := range []Phase{PhaseQuestions, PhaseSynthesis, PhaseReport, PhaseDefault} {
		if p.Structured() {
			t.Fatalf("%s should not be structured", p)
		}
	}
}
