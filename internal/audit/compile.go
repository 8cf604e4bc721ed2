package audit

import "strings"

// CompileMission folds the conversation into a MissionAggregate. The mission
// description and scope come from the user turns; the assistant turns are
// tagged by marker. A turn counts for at most one bucket, checked in the order
// finding, checklist, cadrage. Compiling the same history twice yields equal
// aggregates.
func CompileMission(h History, v Vocabulary) MissionAggregate {
	agg := MissionAggregate{
		MissionDescription: InitialMissionDescription(h),
		Scope:              MissionContextFrom(h, v).Scope,
		Findings:           []string{},
	}
	for _, t := range h {
		if !t.IsAssistant() {
			continue
		}
		switch {
		case strings.Contains(t.Text, v.Markers.Finding):
			agg.Findings = append(agg.Findings, t.Text)
		case strings.Contains(t.Text, v.Markers.Checklist):
			agg.ChecklistCompleted = true
		case strings.Contains(t.Text, v.Markers.Cadrage):
			agg.ScopingDone = true
		}
	}
	return agg
}
