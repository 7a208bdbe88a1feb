// Package parallel provides the concurrency primitives the executors share:
// a fixed-size pool of reusable workers and a first-error collector.
package parallel
