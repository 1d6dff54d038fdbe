package tui

// Color constants for the listeningroom TUI theme
const (
	ColorCardBackground = "#1B1530" // Dark purple
	ColorBorder         = "#3A3F55" // Grey-blue

	// Text
	ColorPrimaryText   = "#E6EAF2"
	ColorSecondaryText = "#B1B8C7"
	ColorDisabledText  = "#6D7383"
	ColorPlaceholder   = "#B1B8C7"
	ColorHelpText      = "240"

	// Accents
	ColorAccentMain   = "#7C3AED"
	ColorAccentBright = "#A78BFA"

	// Billing modes
	ColorStandard = "#38BDF8" // Sky
	ColorPremium  = "#FBBF24" // Gold

	// State
	ColorError   = "#EF4444"
	ColorSuccess = "#22C55E"
	ColorWarning = "#F59E0B"
)

// modeColor picks the badge color for a billing mode
func modeColor(mode string) string {
	if mode == "premium" {
		return ColorPremium
	}
	return ColorStandard
}
