package audit

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"auditflow/internal/util/jsonutil"
)

// Sampling temperatures per kind of generation.
const (
	TemperatureStructured float32 = 0.3
	TemperatureSynthesis  float32 = 0.5
	TemperatureChat       float32 = 0.7
)

// ChatHistoryTurns is how many prior turns accompany a free chat message.
const ChatHistoryTurns = 10

const (
	SystemQuestions = "Tu es un expert en audit qui aide à définir le périmètre exact des missions d'audit. Sois concis et précis."
	SystemCadrage   = "Tu es un expert en audit. Génère un cadrage de mission structuré."
	SystemChecklist = "Tu es un expert en audit ISO 27001. Génère une checklist détaillée."
	SystemFinding   = "Tu es un expert en audit de sécurité. Génère un constat détaillé."
	SystemSynthesis = "Tu es un expert en audit. Génère une synthèse executive."
	SystemChat      = "Tu es un assistant IA expert en audit et sécurité informatique. Tu aides les utilisateurs avec leurs questions. Réponds de manière professionnelle et utile."
)

var promptTemplates = template.Must(template.New("prompts").Parse(`
{{define "questions"}}En tant qu'expert en audit, tu dois générer UNIQUEMENT 2-3 questions essentielles et précises pour clarifier le périmètre de la mission suivante :

Description de la mission : {{.MissionDescription}}

Génère EXACTEMENT 2 questions combinées qui couvrent :
1. Les systèmes/actifs concernés ET les processus à inclure/exclure
2. Les référentiels souhaités (ISO 27001, ANCS, NIST, etc.)

Format : Une question directe par ligne. Sois concis et précis.

Exemple de questions attendues :
1. Quels sont les systèmes ou actifs concernés et quels processus souhaitez-vous inclure ou exclure ?
2. Quels référentiels souhaitez-vous appliquer (ISO 27001, normes ANCS, NIST CSF, autres) ?
{{end}}
{{define "cadrage"}}Sur la base des informations suivantes, génère un cadrage de mission d'audit structuré :

Description initiale : {{.MissionDescription}}

Questions et réponses :
{{.QAText}}

Le cadrage doit suivre exactement cette structure :
- Domaine(s) concerné(s): [à compléter]
- Processus inclus: [à compléter]
- Exclusions éventuelles: [à compléter]
- Référentiels pris en compte: [à compléter]
- Objectif 1: Vérifier [à compléter]
- Objectif 2: Identifier [à compléter]
- Objectif 3: Évaluer [à compléter]
- Objectif 4: Recommander [à compléter]

Sois précis et professionnel.
{{end}}
{{define "checklist"}}En te basant sur le cadrage de mission suivant, génère une checklist d'audit détaillée selon la norme ISO 27001 :

{{.Data}}

La checklist doit couvrir les sections pertinentes parmi :
- 5. Politiques de sécurité de l'information
- 6. Organisation de la sécurité de l'information
- 7. Sécurité des ressources humaines
- 8. Gestion des actifs
- 9. Contrôle d'accès
- 10. Cryptographie
- 11. Sécurité physique et environnementale
- 12. Sécurité liée à l'exploitation
- 13. Sécurité des communications
- 14. Acquisition, développement et maintenance des systèmes
- 15. Relations avec les fournisseurs
- 16. Gestion des incidents
- 17. Continuité de l'activité
- 18. Conformité

Format : Section/Catégorie | Exigence/Tâche
Génère au moins 20 points de contrôle pertinents.
{{end}}
{{define "finding"}}Génère un constat d'audit détaillé pour la vulnérabilité suivante :

Vulnérabilité : {{.Input}}
Contexte de la mission : {{.Data}}

Le constat doit inclure :
- Référence du constat: [Code unique]
- Intitulé du constat: [Titre concis]
- Entité auditée: [Nom de l'entité]
- Description du constat: [Description détaillée]
- Criticité: [Critique/Majeure/Mineure/Observation]
- Norme(s) de référence: [ISO 27001 clauses applicables]
- Preuves: [Éléments de preuve collectés]
- Recommandations: [Actions correctives suggérées]

Sois précis et utilise un langage professionnel d'audit.
{{end}}
{{define "synthesis"}}Sur la base de l'ensemble de la mission d'audit suivante, rédige une synthèse executive :

{{.Data}}

La synthèse doit inclure :
1. Contexte et périmètre de la mission
2. Méthodologie appliquée
3. Principaux constats (points forts et faiblesses)
4. Niveau de conformité global
5. Recommandations prioritaires
6. Conclusion

Longueur : 300-500 mots
Ton : Professionnel et objectif
{{end}}`))

// PromptData fills the placeholders of a phase template. Data carries a prior
// structured record serialized as JSON.
type PromptData struct {
	MissionDescription string
	QAText             string
	Input              string
	Data               string
}

// Prompt is a ready-to-send generation request.
type Prompt struct {
	Phase       Phase
	Text        string
	System      string
	Temperature float32
}

var promptDefs = map[Phase]struct {
	name        string
	system      string
	temperature float32
}{
	PhaseQuestions: {"questions", SystemQuestions, TemperatureStructured},
	PhaseScoping:   {"cadrage", SystemCadrage, TemperatureStructured},
	PhaseChecklist: {"checklist", SystemChecklist, TemperatureStructured},
	PhaseFinding:   {"finding", SystemFinding, TemperatureStructured},
	PhaseSynthesis: {"synthesis", SystemSynthesis, TemperatureSynthesis},
}

// BuildPrompt renders the template of a generating phase.
func BuildPrompt(phase Phase, data PromptData) (Prompt, error) {
	def, ok := promptDefs[phase]
	if !ok {
		return Prompt{}, fmt.Errorf("audit: no prompt for phase %q", phase)
	}
	var buf bytes.Buffer
	if err := promptTemplates.ExecuteTemplate(&buf, def.name, data); err != nil {
		return Prompt{}, fmt.Errorf("audit: render %s prompt: %w", def.name, err)
	}
	return Prompt{
		Phase:       phase,
		Text:        strings.TrimSpace(buf.String()),
		System:      def.system,
		Temperature: def.temperature,
	}, nil
}

// JSONData serializes v for a prompt placeholder without escaping accents or
// HTML characters.
func JSONData(v any) string {
	b, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
