// Package ui provides theme and color support for the command-line output.
// It defines color schemes, the Color* accessors used by the cli package and
// lipgloss-rendered headings, and honors --no-color and NO_COLOR.
package ui
