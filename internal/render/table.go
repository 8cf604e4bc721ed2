package render

import (
	"strconv"

	"auditflow/internal/audit"
)

// Kind names an exportable artifact. The values are the ones the front end
// passes to downloadExcel/downloadPDF.
type Kind string

const (
	KindCadrage   Kind = "cadrage"
	KindChecklist Kind = "checklist"
	KindFinding   Kind = "constat"
	KindReport    Kind = "rapport"
)

// ParseKind validates an export kind coming from a request.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindCadrage, KindChecklist, KindFinding, KindReport:
		return k, true
	}
	return "", false
}

type Column struct {
	Header string
	Width  float64
}

// Table is the single row model every renderer consumes. Chat HTML, the
// hidden record block and the spreadsheet are all produced from the same
// rows, so their field values cannot drift apart.
type Table struct {
	Kind    Kind
	Heading string // chat heading, carries the phase marker
	Title   string // spreadsheet title row
	Sheet   string
	Columns []Column
	Rows    [][]string
	// KeyValue tables render the first column as a bold label.
	KeyValue bool
	// Total appends a "Total" row with the row count to the spreadsheet.
	Total bool
}

const defaultStandards = "ISO 27001, ANCS"

func CadrageTable(rec audit.CadrageRecord) Table {
	standards := rec.Standards
	if standards == "" {
		standards = defaultStandards
	}
	rows := [][]string{
		{"Domaine(s) concerné(s)", rec.Domains},
		{"Processus inclus", rec.Processes},
		{"Exclusions éventuelles", rec.Exclusions},
		{"Référentiels pris en compte", standards},
	}
	for i, obj := range rec.Objectives {
		rows = append(rows, []string{"Objectif " + strconv.Itoa(i+1), obj})
	}
	return Table{
		Kind:     KindCadrage,
		Heading:  "📋 Cadrage de Mission d'Audit",
		Title:    "Trame – Étape 1 : Cadrage de la mission d'audit",
		Sheet:    "Cadrage",
		Columns:  []Column{{"Champ", 30}, {"Détail à compléter", 50}},
		Rows:     rows,
		KeyValue: true,
	}
}

func ChecklistTable(items []audit.ChecklistItem) Table {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{it.Section, it.Requirement, it.Assignee, it.Compliant, it.LastUpdated})
	}
	return Table{
		Kind:    KindChecklist,
		Heading: "✅ Checklist d'Audit ISO 27001",
		Title:   "MODÈLE DE LISTE DE VÉRIFICATION POUR LES CONTRÔLES ISO 27001",
		Sheet:   "Checklist",
		Columns: []Column{
			{"SECTION/CATÉGORIE", 35},
			{"EXIGENCES/TÂCHES", 50},
			{"ATTRIBUÉ À", 20},
			{"EN CONFORMITÉ ?", 15},
			{"DATE DE LA DERNIÈRE MISE À JOUR", 25},
		},
		Rows: rows,
	}
}

var severityIcons = map[audit.Severity]string{
	audit.SeverityCritical:    "🔴",
	audit.SeverityMajor:       "🟠",
	audit.SeverityMinor:       "🟡",
	audit.SeverityObservation: "🔵",
}

// SeverityIcon returns the colored marker shown next to a severity; unknown
// grades get the minor color.
func SeverityIcon(s audit.Severity) string {
	if icon, ok := severityIcons[s]; ok {
		return icon
	}
	return "🟡"
}

func FindingTable(rec audit.FindingRecord) Table {
	return Table{
		Kind:    KindFinding,
		Heading: "🔍 Constat d'Audit " + SeverityIcon(rec.Severity),
		Title:   "FICHE DE CONSTAT D'AUDIT",
		Sheet:   "Constat",
		Columns: []Column{{"Champ", 30}, {"Détail", 60}},
		Rows: [][]string{
			{"Référence du constat", rec.Reference},
			{"Intitulé du constat", rec.Title},
			{"Entité auditée", rec.Entity},
			{"Description du constat", rec.Description},
			{"Criticité", rec.Severity.Label()},
			{"Norme(s) de référence", rec.StandardsRefs},
			{"Preuves", rec.Evidence},
			{"Recommandations", rec.Recommendations},
		},
		KeyValue: true,
		Total:    true,
	}
}
