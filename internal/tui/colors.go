package tui

// Color constants for the focus timer theme
const (
	ColorCardBackground = "#1B1530"
	ColorBorder         = "#3A3F55"

	ColorPrimaryText   = "#E6EAF2"
	ColorSecondaryText = "#B1B8C7"
	ColorDisabledText  = "#6D7383"
	ColorHelpText      = "240"

	ColorFocus     = "#7C3AED"
	ColorBreak     = "#22C55E"
	ColorStopwatch = "#38BDF8"

	ColorError   = "#EF4444"
	ColorSuccess = "#22C55E"
	ColorWarning = "#F59E0B"
)
