package ui

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/mattn/go-isatty"
)

// Theme holds the ANSI sequences used for each category of output.
// An empty sequence disables that decoration.
type Theme struct {
	Name string

	Primary   string // estimate and other headline values
	Secondary string // mode and labels
	Success   string
	Warning   string // durations
	Error     string
	Info      string // configuration values

	Bold      string
	Underline string
	Reset     string
}

const (
	sgrBold      = "\033[1m"
	sgrUnderline = "\033[4m"
	sgrReset     = "\033[0m"
)

func color256(n string) string { return "\033[38;5;" + n + "m" }

var (
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   color256("39"),
		Secondary: color256("245"),
		Success:   color256("82"),
		Warning:   color256("220"),
		Error:     color256("196"),
		Info:      color256("141"),
		Bold:      sgrBold,
		Underline: sgrUnderline,
		Reset:     sgrReset,
	}

	LightTheme = Theme{
		Name:      "light",
		Primary:   color256("27"),
		Secondary: color256("240"),
		Success:   color256("28"),
		Warning:   color256("130"),
		Error:     color256("124"),
		Info:      color256("54"),
		Bold:      sgrBold,
		Underline: sgrUnderline,
		Reset:     sgrReset,
	}

	// NoColorTheme is selected by --no-color or a set NO_COLOR variable.
	NoColorTheme = Theme{Name: "none"}
)

var themesByName = map[string]Theme{
	DarkTheme.Name:    DarkTheme,
	LightTheme.Name:   LightTheme,
	NoColorTheme.Name: NoColorTheme,
}

var current atomic.Pointer[Theme]

func init() { SetCurrentTheme(DarkTheme) }

// GetCurrentTheme returns the active theme. Safe for concurrent use.
func GetCurrentTheme() Theme { return *current.Load() }

// SetCurrentTheme replaces the active theme.
func SetCurrentTheme(t Theme) { current.Store(&t) }

// SetTheme activates a theme by name; unknown names fall back to dark.
func SetTheme(name string) {
	t, ok := themesByName[name]
	if !ok {
		t = DarkTheme
	}
	SetCurrentTheme(t)
}

// InitTheme picks the theme for a process. Colors are off when noColor is
// set or NO_COLOR exists in the environment (https://no-color.org/).
// Otherwise PICALC_THEME may name "light" or "dark".
func InitTheme(noColor bool) {
	if _, set := os.LookupEnv("NO_COLOR"); noColor || set {
		SetCurrentTheme(NoColorTheme)
		return
	}
	SetTheme(os.Getenv("PICALC_THEME"))
}

// IsTerminal reports whether w is a terminal. Pipes, files and in-memory
// buffers are not, so output sent to them stays free of escape sequences.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
