package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/fatih/color"

	"github.com/moffa90/go-maestro-flash/bootloader"
)

const barWidth = 60

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
	barColor  = color.New(color.FgCyan)
)

// renderBar draws a fixed-width bar for count of total bytes with a one
// decimal percentage, e.g. "[=====     ] 50.0%".
func renderBar(count, total int) string {
	ratio := 1.0
	if total > 0 {
		ratio = float64(count) / float64(total)
	}

	filled := int(math.Round(barWidth * ratio))
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled)
	return fmt.Sprintf("[%s] %.1f%%", bar, math.Round(1000*ratio)/10)
}

// reporter prints the user facing status lines of an upload.
type reporter struct {
	out     io.Writer
	drawing bool
}

func newReporter(out io.Writer) *reporter {
	return &reporter{out: out}
}

func (r *reporter) phase(p bootloader.Phase) {
	switch p {
	case bootloader.PhaseErasing:
		fmt.Fprintln(r.out, "Connected to Maestro bootloader.")
		fmt.Fprintln(r.out, "Erasing existing Maestro firmware...")
	case bootloader.PhaseTransferring:
		fmt.Fprintln(r.out, "Uploading new firmware...")
	case bootloader.PhaseFinalizing, bootloader.PhaseAborted:
		r.endBar()
	}
}

func (r *reporter) progress(p bootloader.Progress) {
	barColor.Fprintf(r.out, "%s\r", renderBar(p.BytesSent, p.TotalBytes))
	r.drawing = true
}

func (r *reporter) endBar() {
	if r.drawing {
		fmt.Fprintln(r.out)
		r.drawing = false
	}
}

func (r *reporter) result(res *bootloader.Result) {
	for _, w := range res.Warnings {
		if bootloader.IsMarkerMissing(w) {
			warnColor.Fprintln(r.out, "Expected to receive the '|' character, but did not.")
			continue
		}
		warnColor.Fprintf(r.out, "Warning: %v\n", w)
	}
	okColor.Fprintln(r.out, "Upload completed successfully.")
}

func (r *reporter) failure(err error) {
	r.endBar()
	errColor.Fprintf(r.out, "Error: %v\n", err)
}
