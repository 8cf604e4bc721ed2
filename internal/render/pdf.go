package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pdfFont       = "Helvetica"
	pdfLineHeight = 6.0
	pdfMargin     = 20.0
)

type pdfSection struct {
	title string
	level int
	link  int
}

var pdfMethodology = []string{
	"Analyse documentaire",
	"Entretiens avec les parties prenantes",
	"Tests techniques et contrôles",
	"Analyse des écarts",
	"Formulation des recommandations",
}

// pdfWriter keeps the document and its cp1252 translator together; fpdf core
// fonts do not take UTF-8.
type pdfWriter struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// PDF renders the final audit report: cover sheet, linked table of contents,
// numbered sections, findings table and one detail block per finding.
func PDF(m ReportModel) (Document, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle("Rapport d'audit", true)
	pdf.SetCreator("auditflow", true)
	if !m.Date.IsZero() {
		pdf.SetCreationDate(m.Date)
	}
	w := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetFooterFunc(func() {
		if pdf.PageNo() == 1 {
			return
		}
		pdf.SetY(-15)
		pdf.SetFont(pdfFont, "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	sections := []*pdfSection{
		{title: "1. SYNTHÈSE EXECUTIVE"},
		{title: "2. CONTEXTE ET PÉRIMÈTRE"},
		{title: "3. MÉTHODOLOGIE"},
		{title: "4. CONSTATS D'AUDIT"},
		{title: "5. RECOMMANDATIONS"},
		{title: "6. PLAN D'ACTION"},
		{title: "7. CONCLUSION"},
	}
	for _, s := range sections {
		s.link = pdf.AddLink()
	}

	w.cover(m)
	w.toc(sections)

	pdf.AddPage()
	w.heading(sections[0])
	w.paragraph(orDefault(m.Synthesis, "Synthèse à générer"))

	w.heading(sections[1])
	w.subheading("2.1 Contexte de la mission")
	w.paragraph("Cette mission d'audit s'inscrit dans le cadre de l'évaluation de conformité aux normes de sécurité de l'information.")
	w.paragraph("Mission : " + orDefault(m.Aggregate.MissionDescription, "À définir"))
	w.subheading("2.2 Périmètre audité")
	w.field("Domaines concernés", orDefault(m.Scope.Domains, orDefault(m.Aggregate.Scope, "À définir")))
	w.field("Processus inclus", orDefault(m.Scope.Processes, "À définir"))
	w.field("Exclusions", orDefault(m.Scope.Exclusions, "Aucune"))
	w.field("Référentiels", orDefault(m.Scope.Standards, "ISO 27001"))

	w.heading(sections[2])
	w.paragraph("L'audit a été réalisé selon les phases suivantes :")
	for _, step := range pdfMethodology {
		w.paragraph("- " + step)
	}

	w.heading(sections[3])
	if len(m.Findings) == 0 {
		w.paragraph(fmt.Sprintf("Nombre de constats identifiés : %d", len(m.Aggregate.Findings)))
	} else {
		w.findingsTable(m)
		for i, f := range m.Findings {
			w.subheading(fmt.Sprintf("4.%d Constat %s", i+1, f.Reference))
			w.field("Intitulé", f.Title)
			w.field("Description", f.Description)
			w.field("Criticité", f.Severity.Label())
			w.field("Preuves", f.Evidence)
			w.field("Recommandations", f.Recommendations)
		}
	}

	w.heading(sections[4])
	for i, r := range m.recommendations() {
		w.paragraph(fmt.Sprintf("%d. %s", i+1, r))
	}

	w.heading(sections[5])
	w.paragraph("Un plan d'action détaillé devra être établi pour traiter les non-conformités identifiées.")

	w.heading(sections[6])
	w.paragraph("L'audit a permis d'identifier les points d'amélioration nécessaires pour renforcer la conformité.")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Document{}, fmt.Errorf("render: write pdf: %w", err)
	}
	return Document{
		Name:        string(KindReport) + ".pdf",
		ContentType: ContentTypePDF,
		Data:        buf.Bytes(),
	}, nil
}

func (w *pdfWriter) cover(m ReportModel) {
	pdf := w.pdf
	pdf.AddPage()
	pdf.Ln(50)
	pdf.SetFont(pdfFont, "B", 24)
	pdf.SetTextColor(26, 26, 26)
	pdf.CellFormat(0, 12, w.tr("RAPPORT D'AUDIT"), "", 1, "C", false, 0, "")
	pdf.Ln(8)
	pdf.SetFont(pdfFont, "B", 14)
	pdf.SetTextColor(52, 73, 94)
	pdf.CellFormat(0, 8, w.tr("Conformité aux normes de sécurité"), "", 1, "C", false, 0, "")
	pdf.Ln(25)

	pdf.SetTextColor(0, 0, 0)
	info := [][2]string{
		{"Entité auditée:", orDefault(m.Entity, "À définir")},
		{"Date de l'audit:", m.date()},
		{"Référentiel:", orDefault(m.Scope.Standards, "ISO 27001")},
		{"Auditeur:", orDefault(m.Auditor, "À définir")},
	}
	for _, row := range info {
		pdf.SetX(pdfMargin + 20)
		pdf.SetFont(pdfFont, "B", 11)
		pdf.CellFormat(40, 10, w.tr(row[0]), "", 0, "L", false, 0, "")
		pdf.SetFont(pdfFont, "", 11)
		pdf.CellFormat(80, 10, w.tr(row[1]), "", 1, "L", false, 0, "")
	}
}

func (w *pdfWriter) toc(sections []*pdfSection) {
	pdf := w.pdf
	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", 16)
	pdf.SetTextColor(44, 62, 80)
	pdf.CellFormat(0, 10, w.tr("TABLE DES MATIÈRES"), "", 1, "L", false, 0, "")
	pdf.Ln(8)
	pdf.SetFont(pdfFont, "", 11)
	pdf.SetTextColor(0, 0, 0)
	for _, s := range sections {
		pdf.CellFormat(0, 8, w.tr(s.title), "", 1, "L", false, s.link, "")
	}
}

func (w *pdfWriter) heading(s *pdfSection) {
	pdf := w.pdf
	pdf.Ln(6)
	pdf.SetLink(s.link, -1, -1)
	pdf.SetFont(pdfFont, "B", 16)
	pdf.SetTextColor(44, 62, 80)
	pdf.CellFormat(0, 10, w.tr(s.title), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(2)
}

func (w *pdfWriter) subheading(text string) {
	pdf := w.pdf
	pdf.Ln(3)
	pdf.SetFont(pdfFont, "B", 13)
	pdf.SetTextColor(52, 73, 94)
	pdf.CellFormat(0, 8, w.tr(text), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func (w *pdfWriter) paragraph(text string) {
	w.pdf.SetFont(pdfFont, "", 11)
	w.pdf.MultiCell(0, pdfLineHeight, w.tr(strings.TrimSpace(text)), "", "J", false)
}

func (w *pdfWriter) field(label, value string) {
	pdf := w.pdf
	pdf.SetFont(pdfFont, "B", 11)
	pdf.MultiCell(0, pdfLineHeight, w.tr(label+" :"), "", "L", false)
	pdf.SetFont(pdfFont, "", 11)
	pdf.MultiCell(0, pdfLineHeight, w.tr(orDefault(value, "-")), "", "J", false)
}

var findingColumns = []Column{{"Réf.", 20}, {"Intitulé", 80}, {"Criticité", 30}, {"Clause ISO", 40}}

func (w *pdfWriter) findingsTable(m ReportModel) {
	pdf := w.pdf
	pdf.SetFont(pdfFont, "B", 10)
	pdf.SetFillColor(128, 128, 128)
	pdf.SetTextColor(245, 245, 245)
	for _, c := range findingColumns {
		pdf.CellFormat(c.Width, 8, w.tr(c.Header), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont(pdfFont, "", 10)
	pdf.SetTextColor(0, 0, 0)
	for _, f := range m.Findings {
		cells := []string{f.Reference, f.Title, f.Severity.Label(), f.StandardsRefs}
		for i, c := range findingColumns {
			pdf.CellFormat(c.Width, 8, w.tr(fitText(pdf, cells[i], c.Width-2)), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

// fitText shortens s with an ellipsis until it fits in width mm at the
// current font.
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
