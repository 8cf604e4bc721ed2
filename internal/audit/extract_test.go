package audit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractQAPairs(t *testing.T) {
	h := hist(
		UserTurn("description", t0),
		AssistantTurn("Quels systèmes ?", t0),
		UserTurn("Les serveurs", t0),
		AssistantTurn("Noté.", t0),
		UserTurn("ok", t0),
		AssistantTurn("Quels référentiels ?", t0),
	)
	pairs := ExtractQAPairs(h)
	require.Len(t, pairs, 1)
	assert.Equal(t, QAPair{Question: "Quels systèmes ?", Answer: "Les serveurs"}, pairs[0])
	assert.Equal(t, "Q: Quels systèmes ?\nR: Les serveurs", FormatQAPairs(pairs))
}

func TestInitialMissionDescription(t *testing.T) {
	assert.Equal(t, DefaultMissionDescription, InitialMissionDescription(nil))
	h := hist(
		UserTurn("bonjour", t0),
		AssistantTurn("Bonjour, décrivez votre mission de votre côté", t0),
		UserTurn("Audit complet de la sécurité du siège social", t0),
	)
	assert.Equal(t, "Audit complet de la sécurité du siège social", InitialMissionDescription(h))
}

func TestMissionContextFrom(t *testing.T) {
	v := DefaultVocabulary()
	def := MissionContextFrom(nil, v)
	assert.Equal(t, MissionContext{
		MissionType: "Audit de sécurité informatique",
		Scope:       "Infrastructure IT",
		Standards:   []string{"ISO 27001", "ANCS"},
	}, def)

	long := "Le Réseau " + strings.Repeat("é", 200)
	ctx := MissionContextFrom(hist(UserTurn("rien", t0), UserTurn(long, t0), UserTurn("serveur", t0)), v)
	assert.Equal(t, 100, len([]rune(ctx.Scope)))
	assert.True(t, strings.HasPrefix(ctx.Scope, "Le Réseau"))

	// Defaults are not shared between calls.
	def.Standards[0] = "changed"
	assert.Equal(t, "ISO 27001", MissionContextFrom(nil, v).Standards[0])
}

func TestPriorCadrage(t *testing.T) {
	v := DefaultVocabulary()
	assert.Equal(t, CadrageSummary{Mission: "Audit de sécurité informatique", Scope: "Infrastructure IT"}, PriorCadrage(nil, v))
	h := hist(UserTurn("x", t0), AssistantTurn("📋 Cadrage de Mission d'Audit", t0))
	assert.Equal(t, CadrageSummary{Mission: "Audit de sécurité", Scope: "Systèmes informatiques"}, PriorCadrage(h, v))
	// User turns never count.
	assert.Equal(t, "Infrastructure IT", PriorCadrage(hist(UserTurn("Cadrage", t0)), v).Scope)
}

func TestHistory(t *testing.T) {
	h := hist(UserTurn("a", t0))
	h2 := h.Append(AssistantTurn("b", t0))
	assert.Len(t, h, 1)
	assert.Len(t, h2, 2)
	assert.True(t, h2.HasAssistantTurn())
	assert.False(t, h.HasAssistantTurn())
	assert.Equal(t, []string{"b"}, h2.AssistantTexts())
	assert.Equal(t, History{AssistantTurn("b", t0)}, h2.Tail(1))
	assert.Empty(t, h2.Tail(0))
	assert.Len(t, h2.Tail(10), 2)
}
