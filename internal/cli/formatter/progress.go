package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/caseflow/internal/contract"
	"github.com/alexanderramin/caseflow/internal/domain"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a percentage bar like [████░░░░] 45%.
// The bar is green at or above cutoff, yellow within ten points below it and
// red otherwise.
func RenderProgress(pct, cutoff float64, width int) string {
	pct = max(0, min(pct, 100))
	if width < 2 {
		width = 2
	}
	filled := min(int(pct/100*float64(width)), width)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	switch {
	case pct < cutoff-10:
		style = StyleRed
	case pct < cutoff:
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %3.0f%%", style.Render(bar), pct)
}

// RenderStageTrack renders the seven stages in one line: completed stages
// are checked, the current stage is a filled dot and the rest are hollow.
func RenderStageTrack(st contract.CaseState) string {
	done := make(map[domain.Stage]bool, len(st.CompletedStages))
	for _, s := range st.CompletedStages {
		done[s] = true
	}
	parts := make([]string, 0, domain.LastStage)
	for s := domain.FirstStage; s <= domain.LastStage; s++ {
		switch {
		case done[s]:
			parts = append(parts, StyleGreen.Render(fmt.Sprintf("✔%d", s)))
		case s == st.CurrentStage && !st.CaseCompleted:
			parts = append(parts, StyleYellow.Render(fmt.Sprintf("●%d", s)))
		default:
			parts = append(parts, StyleDim.Render(fmt.Sprintf("○%d", s)))
		}
	}
	return strings.Join(parts, StyleDim.Render("─"))
}
