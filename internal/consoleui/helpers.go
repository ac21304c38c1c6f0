package consoleui

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// formatBytes renders a byte count the way the teacher's output package
// does, KMGTPE suffixes on a 1024 base.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatSpeed(bytesPerSecond float64) string {
	if bytesPerSecond <= 0 {
		return "0 B/s"
	}
	formatted := formatBytes(int64(bytesPerSecond))
	return formatted[:len(formatted)-1] + "B/s"
}

func formatETA(seconds float64, ok bool) string {
	if !ok {
		return "--"
	}
	d := int(seconds)
	return fmt.Sprintf("%02dm%02ds", d/60, d%60)
}

func progressBar(percent float64, width int) string {
	if width <= 0 {
		width = 30
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	bar := symbols["bullet"] + strings.Repeat(symbols["hline"], filled)
	if filled < width {
		bar += strings.Repeat(" ", width-filled)
	}
	bar += symbols["bullet"]
	return debugStyle.Render(fmt.Sprintf("%s %.1f%% %s", bar, percent, symbols["bullet"]))
}

func terminalHeight() int {
	_, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || height <= 0 {
		return 24
	}
	return height
}
