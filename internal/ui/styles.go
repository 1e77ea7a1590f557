package ui

import (
	"fmt"

	"github.com/coopvote/plenum/internal/model"
)

// ANSI256 color codes.
const (
	colorGreen  = 114 // approved
	colorRed    = 167 // rejected
	colorYellow = 179 // tie
	colorMuted  = 245 // medium gray
)

var noColor bool

// RenderOutcome returns the outcome colored by its meaning: green for
// approved, red for rejected, yellow for a tie.
func RenderOutcome(o model.Outcome) string {
	if noColor {
		return o.String()
	}
	var code int
	switch o {
	case model.OutcomeApproved:
		code = colorGreen
	case model.OutcomeRejected:
		code = colorRed
	default:
		code = colorYellow
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, o)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorMuted, s)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
