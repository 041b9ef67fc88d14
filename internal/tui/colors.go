package tui

import "github.com/balkashynov/tempo/internal/schedule"

// Color constants for the tempo TUI theme
const (
	ColorCardBackground = "#13201D" // Dark teal
	ColorBorder         = "#35504A" // Grey-green

	// Text Colors
	ColorPrimaryText   = "#E6F2EE"
	ColorSecondaryText = "#A9C2BA"
	ColorDisabledText  = "#62756F"
	ColorHelpText      = "240" // Dark grey for help text

	// Accent Colors
	ColorAccentMain   = "#0F9D7A" // Logo, active borders
	ColorAccentBright = "#5EEAD4" // Highlights, clock digits

	// State Colors
	ColorError   = "#EF4444"
	ColorSuccess = "#22C55E"
	ColorWarning = "#F59E0B"
)

// kindColor maps an agenda entry kind to its accent
func kindColor(k schedule.Kind) string {
	switch k {
	case schedule.KindRecurring:
		return ColorAccentBright
	case schedule.KindInProgress:
		return ColorWarning
	}
	return ColorPrimaryText
}

// kindLabel is the short label shown in the agenda table
func kindLabel(k schedule.Kind) string {
	switch k {
	case schedule.KindRecurring:
		return "↻ series"
	case schedule.KindInProgress:
		return "● running"
	}
	return "· logged"
}
