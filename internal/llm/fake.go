package llm

import (
	"context"
	"sync"
)

// Canned replies keyed by the phase carried in the context. They follow the
// line formats the audit parsers expect.
var fakeReplies = map[string]string{
	"questions": "1. Quels sont les systèmes ou actifs concernés et quels processus souhaitez-vous inclure ou exclure ?\n" +
		"2. Quels référentiels souhaitez-vous appliquer (ISO 27001, normes ANCS, NIST CSF, autres) ?",
	"scoping": "- Domaine(s) concerné(s): Sécurité des systèmes d'information\n" +
		"- Processus inclus: Gestion des accès, sauvegardes\n" +
		"- Exclusions éventuelles: Postes de travail\n" +
		"- Référentiels pris en compte: ISO 27001, ANCS\n" +
		"- Objectif 1: Vérifier la gestion des accès\n" +
		"- Objectif 2: Identifier les vulnérabilités\n" +
		"- Objectif 3: Évaluer la conformité\n" +
		"- Objectif 4: Recommander des mesures correctives",
	"checklist": "Section/Catégorie | Exigence/Tâche\n" +
		"9. Contrôle d'accès | Vérifier la politique de mots de passe\n" +
		"12. Sécurité liée à l'exploitation | Contrôler les sauvegardes\n" +
		"16. Gestion des incidents | Revoir la procédure de gestion des incidents",
	"finding": "Référence du constat: C-001\n" +
		"Intitulé du constat: Mots de passe faibles\n" +
		"Entité auditée: Direction informatique\n" +
		"Description du constat: Les comptes administrateurs utilisent des mots de passe triviaux.\n" +
		"Criticité: Majeure\n" +
		"Norme(s) de référence: ISO 27001 A.9.4.3\n" +
		"Preuves: Extraction de l'annuaire\n" +
		"Recommandations: Imposer une politique de mots de passe robuste",
	"synthesis": "La mission a couvert l'infrastructure informatique. Les principaux constats portent sur la gestion des accès.",
}

const fakeChatReply = "Je suis votre assistant d'audit. Comment puis-je vous aider ?"

// FakeClient returns deterministic text per phase for offline use and tests.
// Set Err to make every call fail.
type FakeClient struct {
	Err     error
	Replies map[string]string

	mu    sync.Mutex
	calls []FakeCall
}

// FakeCall records one request seen by FakeClient.
type FakeCall struct {
	Phase       string
	Prompt      string
	System      string
	Temperature float32
	History     int
}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Generate(ctx context.Context, prompt, system string, temperature float32) (string, error) {
	phase := PhaseFrom(ctx)
	f.record(FakeCall{Phase: phase, Prompt: prompt, System: system, Temperature: temperature})
	if f.Err != nil {
		return "", unavailable(f.Name(), f.Err)
	}
	if r, ok := f.Replies[phase]; ok {
		return r, nil
	}
	if r, ok := fakeReplies[phase]; ok {
		return r, nil
	}
	return fakeChatReply, nil
}

func (f *FakeClient) Chat(ctx context.Context, message string, history []Message) (string, error) {
	f.record(FakeCall{Phase: PhaseFrom(ctx), Prompt: message, History: len(history)})
	if f.Err != nil {
		return "", unavailable(f.Name(), f.Err)
	}
	if r, ok := f.Replies["default"]; ok {
		return r, nil
	}
	return fakeChatReply, nil
}

// Calls returns a snapshot of the recorded requests.
func (f *FakeClient) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}

func (f *FakeClient) record(c FakeCall) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}
