package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`     _                     _             _    `, "#34d399"},
	{`  __| | ___  ___ _ __  ___| |_ ___   ___| | __`, "#2dd4bf"},
	{` / _' |/ _ \/ _ \ '_ \/ __| __/ _ \ / __| |/ /`, "#22d3ee"},
	{`| (_| |  __/  __/ |_) \__ \ || (_) | (__|   < `, "#38bdf8"},
	{` \__,_|\___|\___| .__/|___/\__\___/ \___|_|\_\`, "#60a5fa"},
	{`                |_|                           `, "#818cf8"},
}

// PrintBanner writes the deepstock banner using the terminal's color profile.
func PrintBanner(w io.Writer) {
	p := termenv.NewOutput(w).ColorProfile()
	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, p.String(line.text).Foreground(p.Color(line.color)))
	}
	fmt.Fprintln(w)
}
