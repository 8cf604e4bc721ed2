package audit

import (
	"strings"
)

const maxQuestions = 2

// fieldKeyword maps a substring of a line label to a record field. Tables are
// ordered: the first entry whose keyword appears in the label wins, so more
// specific labels must come first ("Norme(s) de référence" before
// "Référence du constat").
type fieldKeyword struct {
	keyword string
	field   string
}

var cadrageFields = []fieldKeyword{
	{"objectif", "objectifs"},
	{"domaine", "domaines"},
	{"processus", "processus"},
	{"exclusion", "exclusions"},
	{"référentiel", "referentiels"},
	{"referentiel", "referentiels"},
}

var findingFields = []fieldKeyword{
	{"norme", "normes"},
	{"intitulé", "intitule"},
	{"intitule", "intitule"},
	{"entité", "entite"},
	{"entite", "entite"},
	{"description", "description"},
	{"criticité", "criticite"},
	{"criticite", "criticite"},
	{"preuve", "preuves"},
	{"recommandation", "recommandations"},
	{"référence", "reference"},
	{"reference", "reference"},
}

// headingTokens bounds how long a colon-less line may be and still count as a
// field heading rather than continuation text.
const headingTokens = 4

// headingField recognizes a colon-less field heading such as "Recommandations"
// or "## **Criticité**". Once markdown decoration is stripped the line must
// start with a field keyword, so prose like "Voir les preuves jointes" stays
// continuation text.
func headingField(line string) string {
	h := strings.ToLower(strings.Trim(line, " \t#*_`-"))
	if h == "" || tokenCount(h) > headingTokens {
		return ""
	}
	for _, fk := range findingFields {
		if strings.HasPrefix(h, fk.keyword) {
			return fk.field
		}
	}
	return ""
}

func matchField(label string, table []fieldKeyword) string {
	lower := strings.ToLower(label)
	for _, fk := range table {
		if strings.Contains(lower, fk.keyword) {
			return fk.field
		}
	}
	return ""
}

// splitLabel splits a line on its first colon.
func splitLabel(line string) (label, value string, ok bool) {
	i := strings.Index(line, ":")
	if i < 0 {
		return line, "", false
	}
	return line[:i], cleanValue(line[i+1:]), true
}

// cleanValue strips whitespace and markdown emphasis left around values by
// lines such as "**Criticité:** Majeure".
func cleanValue(v string) string {
	return strings.Trim(v, " \t*_`")
}

func cleanLine(line string) string {
	return strings.TrimSpace(strings.TrimRight(line, "\r"))
}

// ParseQuestions extracts at most two clarification questions, dropping list
// numbering and bullets.
func ParseQuestions(raw string) []string {
	out := make([]string, 0, maxQuestions)
	for _, line := range strings.Split(raw, "\n") {
		q := cleanLine(line)
		if q == "" {
			continue
		}
		if q[0] >= '0' && q[0] <= '9' || q[0] == '-' || q[0] == '*' {
			q = strings.TrimSpace(strings.TrimLeft(q, "0123456789.-*) "))
		}
		if q == "" {
			continue
		}
		out = append(out, q)
		if len(out) == maxQuestions {
			break
		}
	}
	return out
}

// ParseCadrage reads "Label: value" lines into a CadrageRecord. ok is false
// when no field was recognized; the record is then all defaults.
func ParseCadrage(raw string) (rec CadrageRecord, ok bool) {
	rec = NewCadrageRecord()
	// underObjectives is set by a bare "Objectifs :" heading; the bullet
	// lines that follow it are the objectives.
	underObjectives := false
	for _, line := range strings.Split(raw, "\n") {
		line = cleanLine(line)
		if line == "" {
			continue
		}
		label, value, hasColon := splitLabel(line)
		if !hasColon {
			if underObjectives && isBullet(line) {
				if obj := cleanValue(strings.TrimLeft(line, "0123456789.-*) ")); obj != "" {
					rec.Objectives = append(rec.Objectives, obj)
					ok = true
				}
				continue
			}
			underObjectives = false
			continue
		}
		field := matchField(label, cadrageFields)
		underObjectives = field == "objectifs" && value == ""
		switch field {
		case "objectifs":
			if value == "" {
				continue
			}
			rec.Objectives = append(rec.Objectives, value)
		case "domaines":
			rec.Domains = value
		case "processus":
			rec.Processes = value
		case "exclusions":
			rec.Exclusions = value
		case "referentiels":
			rec.Standards = value
		default:
			continue
		}
		ok = true
	}
	return rec, ok
}

func isBullet(line string) bool {
	if line == "" {
		return false
	}
	c := line[0]
	return c == '-' || c == '*' || c >= '0' && c <= '9'
}

// ParseChecklist reads pipe-delimited rows ("Section | Exigence") into
// checklist items. Extra columns fill assignee, compliance and update date in
// that order. Headings, markdown separators and table header rows are skipped.
func ParseChecklist(raw string) (items []ChecklistItem, ok bool) {
	items = []ChecklistItem{}
	for _, line := range strings.Split(raw, "\n") {
		line = cleanLine(line)
		if line == "" || strings.HasPrefix(line, "#") || isSeparatorRow(line) {
			continue
		}
		parts := strings.Split(strings.Trim(line, "|"), "|")
		if len(parts) < 2 {
			continue
		}
		for i := range parts {
			parts[i] = cleanValue(parts[i])
		}
		if isChecklistHeader(parts[0], parts[1]) {
			continue
		}
		item := ChecklistItem{Section: strings.TrimLeft(parts[0], "- "), Requirement: parts[1]}
		if len(parts) > 2 {
			item.Assignee = parts[2]
		}
		if len(parts) > 3 {
			item.Compliant = parts[3]
		}
		if len(parts) > 4 {
			item.LastUpdated = parts[4]
		}
		items = append(items, item)
	}
	return items, len(items) > 0
}

func isSeparatorRow(line string) bool {
	return strings.Trim(line, "|-: ") == "" && strings.Contains(line, "-")
}

func isChecklistHeader(section, requirement string) bool {
	s, r := strings.ToLower(section), strings.ToLower(requirement)
	return strings.HasPrefix(s, "section") && strings.HasPrefix(r, "exigence")
}

// ParseFinding reads a finding with a single current-field pointer. A line
// whose label names a field moves the pointer and sets the value after the
// colon; any other line is continuation text for the current field.
func ParseFinding(raw string) (rec FindingRecord, ok bool) {
	values := map[string]string{}
	current := ""
	for _, line := range strings.Split(raw, "\n") {
		line = cleanLine(line)
		if line == "" {
			continue
		}
		label, value, hasColon := splitLabel(line)
		field := ""
		if hasColon {
			field = matchField(label, findingFields)
		} else {
			field = headingField(line)
		}
		if field != "" {
			current = field
			values[current] = value
			ok = true
			continue
		}
		if current == "" {
			continue
		}
		text := cleanValue(line)
		if hasColon {
			text = value
		}
		if text == "" {
			continue
		}
		if values[current] == "" {
			values[current] = text
		} else {
			values[current] += " " + text
		}
	}
	rec = FindingRecord{
		Reference:       values["reference"],
		Title:           values["intitule"],
		Entity:          values["entite"],
		Description:     values["description"],
		Severity:        ParseSeverity(values["criticite"]),
		StandardsRefs:   values["normes"],
		Evidence:        values["preuves"],
		Recommendations: values["recommandations"],
	}
	return rec, ok
}
