package render

import (
	"fmt"
	"html"
	"strings"
	"time"

	"auditflow/internal/audit"
)

const (
	reportReference = "AUDIT-SEC-2025-001"
	reportStandards = "ISO 27001:2022, ANCS"
)

var (
	reportMethodology = []string{
		"Analyse documentaire",
		"Entretiens avec les équipes",
		"Tests techniques",
		"Vérification de conformité",
	}
	reportPriorities = []string{
		"Renforcer la gestion des accès privilégiés",
		"Améliorer la surveillance de la sécurité",
		"Mettre à jour les politiques de sécurité",
	}
)

// ReportModel is everything the final report needs. Aggregate comes from the
// mission compiler; the structured records are recovered from the
// conversation when they exist.
type ReportModel struct {
	Aggregate audit.MissionAggregate
	Scope     audit.CadrageRecord
	Findings  []audit.FindingRecord
	Synthesis string
	Entity    string
	Auditor   string
	Date      time.Time
}

func (m ReportModel) date() string {
	d := m.Date
	if d.IsZero() {
		d = time.Now().UTC()
	}
	return d.Format("02/01/2006")
}

// ReportHTML renders the chat-side report summary with its PDF button.
func ReportHTML(m ReportModel) string {
	today := m.date()
	mission := orDefault(m.Aggregate.MissionDescription, audit.DefaultMissionDescription)
	scope := orDefault(m.Aggregate.Scope, "Infrastructure informatique")

	var b strings.Builder
	b.WriteString("<div class=\"ancs-report\">\n")
	b.WriteString("<h1>📄 RAPPORT D'AUDIT DE SÉCURITÉ</h1>\n<h2>Conforme aux normes ANCS</h2>\n")
	b.WriteString("<h3>1. CONTEXTE ET PÉRIMÈTRE</h3>\n")
	fmt.Fprintf(&b, "<p><strong>Mission :</strong> %s</p>\n", html.EscapeString(mission))
	fmt.Fprintf(&b, "<p><strong>Périmètre :</strong> %s</p>\n", html.EscapeString(scope))
	fmt.Fprintf(&b, "<p><strong>Date d'audit :</strong> %s</p>\n", today)
	fmt.Fprintf(&b, "<p><strong>Référentiels :</strong> %s</p>\n", reportStandards)
	b.WriteString("<h3>2. MÉTHODOLOGIE</h3>\n")
	writeList(&b, reportMethodology)
	b.WriteString("<h3>3. SYNTHÈSE DES CONSTATS</h3>\n")
	fmt.Fprintf(&b, "<p><strong>Nombre de constats identifiés :</strong> %d</p>\n", len(m.Aggregate.Findings))
	b.WriteString("<h3>4. RECOMMANDATIONS PRIORITAIRES</h3>\n")
	writeList(&b, m.recommendations())
	b.WriteString("<h3>5. PLAN D'ACTION</h3>\n")
	b.WriteString("<p>Les actions correctives doivent être mises en œuvre selon les priorités définies.</p>\n")
	b.WriteString("<hr>\n")
	fmt.Fprintf(&b, "<p><strong>Date du rapport :</strong> %s</p>\n", today)
	fmt.Fprintf(&b, "<p><strong>Référence :</strong> %s</p>\n", reportReference)
	writeButton(&b, KindReport)
	b.WriteString("</div>")
	return b.String()
}

// recommendations lists the recommendations of recovered findings, or the
// generic priorities when none were recovered.
func (m ReportModel) recommendations() []string {
	var out []string
	for _, f := range m.Findings {
		if r := strings.TrimSpace(f.Recommendations); r != "" {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return reportPriorities
	}
	return out
}

func writeList(b *strings.Builder, items []string) {
	b.WriteString("<ul>\n")
	for _, it := range items {
		fmt.Fprintf(b, "<li>%s</li>\n", html.EscapeString(it))
	}
	b.WriteString("</ul>\n")
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
