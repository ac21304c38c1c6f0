package consoleui

import "github.com/charmbracelet/lipgloss"

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))   // green
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))   // red
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))  // blue
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))  // cyan
	debugStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250")) // light grey
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
)

var symbols = map[string]string{
	"pass":    "✓",
	"fail":    "✗",
	"pending": "◉",
	"bullet":  "•",
	"hline":   "━",
}

func statusIndicator(status string) string {
	switch status {
	case "complete":
		return successStyle.Render(symbols["pass"])
	case "error":
		return errorStyle.Render(symbols["fail"])
	case "downloading", "assembling":
		return infoStyle.Render(symbols["bullet"])
	default:
		return pendingStyle.Render(symbols["pending"])
	}
}
