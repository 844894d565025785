package util

import (
	"os/exec"
	"runtime"

	"github.com/mattn/go-tty"
)

const (
	TermMaxWidth        = 100
	TermSafeZonePadding = 10
)

func GetTermSafeMaxWidth() int {
	termWidth, err := getTermWidth()
	if err != nil {
		return TermMaxWidth
	}
	width := termWidth - TermSafeZonePadding
	if width <= 0 {
		return termWidth
	}
	return width
}

func getTermWidth() (width int, err error) {
	t, err := tty.Open()
	if err != nil {
		return 0, err
	}
	defer t.Close()
	width, _, err = t.Size()
	return width, err
}

// Truncate shortens s to at most maxLen runes, marking the cut.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default: // For Linux or anything else
		cmd = exec.Command("xdg-open", url)
	}

	return cmd.Start()
}
