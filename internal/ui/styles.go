package ui

import (
	"fmt"

	"github.com/sraslabs/sras/internal/model"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent  = 74  // blue
	colorMuted   = 245 // medium gray
	colorPending = 214 // amber
	colorOK      = 114 // green
	colorBad     = 167 // red
)

var noColor bool

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string {
	return paint(colorAccent, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	return paint(colorMuted, s)
}

// RenderStatus colors a verification status for table and watch output.
// Pending is amber, approved green, rejected and failed red, in_flight blue.
func RenderStatus(s model.VerificationStatus) string {
	switch s {
	case model.StatusPending:
		return paint(colorPending, s.String())
	case model.StatusInFlight:
		return paint(colorAccent, s.String())
	case model.StatusApproved:
		return paint(colorOK, s.String())
	case model.StatusRejected, model.StatusFailed:
		return paint(colorBad, s.String())
	}
	return s.String()
}

func paint(color int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, s)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
