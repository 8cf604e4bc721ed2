package workflow

import (
	"auditflow/internal/audit"
	"auditflow/internal/render"
)

// LatestCadrage re-parses the scoping record of the most recent scoping reply.
func LatestCadrage(h audit.History) (audit.CadrageRecord, bool) {
	if text, ok := latestRecord(h, render.KindCadrage); ok {
		return audit.ParseCadrage(text)
	}
	return audit.NewCadrageRecord(), false
}

// LatestChecklist re-parses the checklist of the most recent checklist reply.
func LatestChecklist(h audit.History) ([]audit.ChecklistItem, bool) {
	if text, ok := latestRecord(h, render.KindChecklist); ok {
		return audit.ParseChecklist(text)
	}
	return []audit.ChecklistItem{}, false
}

// LatestFinding re-parses the most recent finding reply.
func LatestFinding(h audit.History) (audit.FindingRecord, bool) {
	if text, ok := latestRecord(h, render.KindFinding); ok {
		return audit.ParseFinding(text)
	}
	return audit.FindingRecord{}, false
}

// Findings returns every finding recorded in the conversation, oldest first.
func Findings(h audit.History) []audit.FindingRecord {
	var out []audit.FindingRecord
	for _, t := range h {
		if !t.IsAssistant() {
			continue
		}
		text, ok := render.ExtractRecord(t.Text, render.KindFinding)
		if !ok {
			continue
		}
		if rec, ok := audit.ParseFinding(text); ok {
			out = append(out, rec)
		}
	}
	return out
}

func latestRecord(h audit.History, k render.Kind) (string, bool) {
	for i := len(h) - 1; i >= 0; i-- {
		if !h[i].IsAssistant() {
			continue
		}
		if text, ok := render.ExtractRecord(h[i].Text, k); ok {
			return text, true
		}
	}
	return "", false
}

// LatestSynthesis returns the most recent synthesis reply, found by replaying
// phase classification over the conversation.
func (p *Pipeline) LatestSynthesis(h audit.History) string {
	replies := p.classifier.Replay(h)
	for i := len(replies) - 1; i >= 0; i-- {
		r := replies[i]
		if r.Phase == audit.PhaseSynthesis && r.Turn.Text != Apology {
			return r.Turn.Text
		}
	}
	return ""
}

// BuildReport gathers everything known about the mission into a report model.
func (p *Pipeline) BuildReport(h audit.History) render.ReportModel {
	scope, _ := LatestCadrage(h)
	findings := Findings(h)
	m := render.ReportModel{
		Aggregate: audit.CompileMission(h, p.classifier.Vocabulary()),
		Scope:     scope,
		Findings:  findings,
		Synthesis: p.LatestSynthesis(h),
		Date:      p.now(),
	}
	if len(findings) > 0 {
		m.Entity = findings[0].Entity
	}
	return m
}
