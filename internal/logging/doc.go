// Package logging provides a unified logging interface for picalc.
// It abstracts the underlying logging implementation so that executors,
// transports and the coordinator log consistently to stderr, keeping stdout
// reserved for the parseable report.
package logging
