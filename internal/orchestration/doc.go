// Package orchestration coordinates one run: it builds the segment plan,
// selects the executor, drives it to completion and aggregates the partial
// sums. Progress display and result presentation are reached through the
// ProgressReporter and ResultPresenter interfaces so that the run logic does
// not depend on the terminal.
package orchestration
