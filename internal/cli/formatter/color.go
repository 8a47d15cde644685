package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/caseflow/internal/domain"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// RiskIndicator renders a stage-4 risk level such as "● HIGH RISK".
func RiskIndicator(risk domain.RiskLevel) string {
	switch risk {
	case domain.RiskHigh:
		return StyleRed.Render("● HIGH RISK")
	case domain.RiskMedium:
		return StyleYellow.Render("● MEDIUM RISK")
	case domain.RiskLow:
		return StyleGreen.Render("● LOW RISK")
	default:
		return StyleDim.Render("● NOT ASSESSED")
	}
}

// StatusPill renders the caller's view status of a stage.
func StatusPill(status domain.ViewStatus) string {
	switch status {
	case domain.ViewEditable:
		return StyleGreen.Render("✎ Editable")
	case domain.ViewReadOnly:
		return StyleBlue.Render("◉ View only")
	case domain.ViewLocked:
		return StyleDim.Render("🔒 Locked")
	default:
		return StyleDim.Render(string(status))
	}
}

// DiagnosisBadge renders a final diagnosis in human form.
func DiagnosisBadge(d domain.Diagnosis) string {
	if d == "" {
		return StyleDim.Render("--")
	}
	label := strings.ReplaceAll(string(d), "_", " ")
	switch d {
	case domain.DiagnosisNone:
		return StyleGreen.Render(label)
	case domain.DiagnosisFurtherAssess:
		return StyleYellow.Render(label)
	default:
		return StylePurple.Render(label)
	}
}

// OutcomeBadge renders a report outcome.
func OutcomeBadge(o domain.SessionOutcome) string {
	switch o {
	case domain.OutcomeTerminated:
		return StyleDim.Render("✔ Completed")
	case domain.OutcomeContinued:
		return StyleBlue.Render("↻ Continued")
	case domain.OutcomeOngoing:
		return StyleGreen.Render("● Ongoing")
	default:
		return StyleDim.Render(string(o))
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
