package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the startup banner with the version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{" _                              ", "#34d399"},
		{"| |    ___ _   _ _ __   ___  ___ ", "#2dd4bf"},
		{"| |   / _ \\ | | | '_ \\ / _ \\/ __|", "#22d3ee"},
		{"| |__|  __/ |_| | | | | (_) \\__ \\", "#38bdf8"},
		{"|_____\\___|\\__, |_| |_|\\___/|___/", "#60a5fa"},
		{"           |___/                 ", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
