package workflow

import (
	"errors"
	"fmt"

	"auditflow/internal/audit"
	"auditflow/internal/render"
)

// ErrNoRecord is returned when the conversation holds nothing to export for
// the requested kind.
var ErrNoRecord = errors.New("workflow: no record to export")

// Export renders the document of kind k from the conversation. Records are
// re-derived from the stored reply text every time.
func (p *Pipeline) Export(h audit.History, k render.Kind) (render.Document, error) {
	switch k {
	case render.KindCadrage:
		rec, ok := LatestCadrage(h)
		if !ok {
			return render.Document{}, fmt.Errorf("%w: %s", ErrNoRecord, k)
		}
		return render.Sheet(render.CadrageTable(rec))
	case render.KindChecklist:
		items, ok := LatestChecklist(h)
		if !ok {
			return render.Document{}, fmt.Errorf("%w: %s", ErrNoRecord, k)
		}
		return render.Sheet(render.ChecklistTable(items))
	case render.KindFinding:
		rec, ok := LatestFinding(h)
		if !ok {
			return render.Document{}, fmt.Errorf("%w: %s", ErrNoRecord, k)
		}
		return render.Sheet(render.FindingTable(rec))
	case render.KindReport:
		return render.PDF(p.BuildReport(h))
	}
	return render.Document{}, fmt.Errorf("workflow: unknown export kind %q", k)
}
