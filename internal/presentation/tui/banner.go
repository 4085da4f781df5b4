package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the pitstop ASCII art banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"         _ _       _              ", "#34d399"},
		{"   _ __ (_) |_ ___| |_ ___  _ __  ", "#2dd4bf"},
		{"  | '_ \\| | __/ __| __/ _ \\| '_ \\ ", "#22d3ee"},
		{"  | |_) | | |_\\__ \\ || (_) | |_) |", "#38bdf8"},
		{"  | .__/|_|\\__|___/\\__\\___/| .__/ ", "#60a5fa"},
		{"  |_|                      |_|    ", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
