package ui

import "github.com/charmbracelet/lipgloss"

// ColorReset returns the escape code that clears formatting in the current theme.
func ColorReset() string { return GetCurrentTheme().Reset }

// ColorBold returns the bold escape code of the current theme.
func ColorBold() string { return GetCurrentTheme().Bold }

// ColorUnderline returns the underline escape code of the current theme.
func ColorUnderline() string { return GetCurrentTheme().Underline }

// ColorGreen marks successful outcomes.
func ColorGreen() string { return GetCurrentTheme().Success }

// ColorRed marks failures.
func ColorRed() string { return GetCurrentTheme().Error }

// ColorYellow marks warnings and durations.
func ColorYellow() string { return GetCurrentTheme().Warning }

// ColorBlue marks primary values such as the estimate.
func ColorBlue() string { return GetCurrentTheme().Primary }

// ColorCyan marks configuration values.
func ColorCyan() string { return GetCurrentTheme().Info }

// ColorMagenta marks secondary values.
func ColorMagenta() string { return GetCurrentTheme().Secondary }

// accent maps each theme to the lipgloss color used for headings.
var accent = map[string]lipgloss.TerminalColor{
	"dark":  lipgloss.Color("39"),
	"light": lipgloss.Color("27"),
}

// Heading renders a section title such as "--- Execution Configuration ---".
// With NoColorTheme active the title is returned undecorated.
func Heading(title string) string {
	text := "--- " + title + " ---"
	color, ok := accent[GetCurrentTheme().Name]
	if !ok {
		return text
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color).Render(text)
}
