package ui

// The accessors below read the active theme on every call so that InitTheme
// can run after the first output. They are named after the dark-theme hue;
// the comment says what fibdrv paints with each.

// ColorReset ends any color or style.
func ColorReset() string { return GetCurrentTheme().Reset }

// ColorRed marks failed calculators and fatal errors.
func ColorRed() string { return GetCurrentTheme().Error }

// ColorGreen marks successful calculators and the consistent global status.
func ColorGreen() string { return GetCurrentTheme().Success }

// ColorYellow marks durations and cancellation notices.
func ColorYellow() string { return GetCurrentTheme().Warning }

// ColorBlue marks calculator names in the comparison table.
func ColorBlue() string { return GetCurrentTheme().Primary }

// ColorMagenta marks the index N.
func ColorMagenta() string { return GetCurrentTheme().Info }

// ColorCyan marks configuration values and result metadata.
func ColorCyan() string { return GetCurrentTheme().Secondary }

func ColorBold() string      { return GetCurrentTheme().Bold }
func ColorUnderline() string { return GetCurrentTheme().Underline }

// Paint wraps s in code and a reset. With an empty code, as under the
// no-color theme, s is returned unchanged.
func Paint(code, s string) string {
	if code == "" {
		return s
	}
	return code + s + ColorReset()
}
