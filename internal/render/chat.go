package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

var buttons = map[Kind]struct{ label, color, action string }{
	KindCadrage:   {"📊 Télécharger Cadrage Excel", "#28a745", "downloadExcel"},
	KindChecklist: {"📋 Télécharger Checklist Excel", "#17a2b8", "downloadExcel"},
	KindFinding:   {"🔍 Télécharger Constat Excel", "#dc3545", "downloadExcel"},
	KindReport:    {"📄 Télécharger Rapport PDF", "#6f42c1", "downloadPDF"},
}

const cellStyle = `style="padding: 12px; border: 1px solid #dee2e6;"`

// HTML renders a table as the chat reply fragment, with its download button.
func HTML(t Table) string {
	var b strings.Builder
	b.WriteString("<div class=\"audit-table-container\">\n")
	fmt.Fprintf(&b, "<h3>%s</h3>\n", html.EscapeString(t.Heading))
	b.WriteString(`<table border="1" style="border-collapse: collapse; width: 100%; margin: 10px 0;">` + "\n")
	b.WriteString("<thead><tr style=\"background-color: #f8f9fa;\">")
	for _, c := range t.Columns {
		fmt.Fprintf(&b, "<th %s>%s</th>", cellStyle, html.EscapeString(c.Header))
	}
	b.WriteString("</tr></thead>\n<tbody>\n")
	for _, row := range t.Rows {
		b.WriteString("<tr>")
		for i, cell := range row {
			v := html.EscapeString(cell)
			if t.KeyValue && i == 0 {
				v = "<strong>" + v + "</strong>"
			}
			fmt.Fprintf(&b, "<td %s>%s</td>", cellStyle, v)
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n</table>\n")
	writeButton(&b, t.Kind)
	b.WriteString("</div>")
	return b.String()
}

func writeButton(b *strings.Builder, k Kind) {
	btn, ok := buttons[k]
	if !ok {
		return
	}
	fmt.Fprintf(b, `<button onclick="%s('%s')" style="margin-top: 10px; padding: 8px 16px; background-color: %s; color: white; border: none; border-radius: 4px; cursor: pointer;">%s</button>`+"\n",
		btn.action, k, btn.color, btn.label)
}

// PlainText renders a table as "Label: value" lines for key/value tables and
// pipe-delimited rows otherwise, the formats the audit parsers read back.
func PlainText(t Table) string {
	var b strings.Builder
	if !t.KeyValue {
		headers := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			headers[i] = c.Header
		}
		b.WriteString(strings.Join(headers, " | "))
		b.WriteByte('\n')
	}
	for _, row := range t.Rows {
		if t.KeyValue && len(row) >= 2 {
			fmt.Fprintf(&b, "%s: %s\n", row[0], row[1])
			continue
		}
		b.WriteString(strings.Join(row, " | "))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// Reply is the assistant message for a structured phase: the visible HTML
// followed by a hidden record block holding PlainText(t).
func Reply(t Table) string {
	return HTML(t) + "\n" + recordBlock(t.Kind, PlainText(t))
}

func recordBlock(k Kind, text string) string {
	return fmt.Sprintf(`<pre class="audit-record" data-kind="%s" hidden>%s</pre>`, k, html.EscapeString(text))
}

var recordRE = regexp.MustCompile(`(?s)<pre class="audit-record" data-kind="([a-z]+)" hidden>(.*?)</pre>`)

// ExtractRecord returns the plain-text record embedded in an assistant
// message, if the message carries one of kind k.
func ExtractRecord(message string, k Kind) (string, bool) {
	for _, m := range recordRE.FindAllStringSubmatch(message, -1) {
		if Kind(m[1]) == k {
			return html.UnescapeString(m[2]), true
		}
	}
	return "", false
}

// QuestionsIntro opens the clarification reply. It carries the clarification
// markers the phase classifier looks for on the next turn.
const QuestionsIntro = "Afin de préciser le périmètre de la mission, merci de répondre aux questions suivantes :"

// QuestionsText renders the clarification questions as a numbered list.
func QuestionsText(questions []string) string {
	var b strings.Builder
	b.WriteString(QuestionsIntro)
	for i, q := range questions {
		fmt.Fprintf(&b, "\n%d. %s", i+1, q)
	}
	return b.String()
}
