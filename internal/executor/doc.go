// Package executor implements the interchangeable local strategies that turn
// a plan into partial results: sequential, statically partitioned goroutines,
// a producer/consumer queue served by goroutines or by child processes, and
// a fixed-size worker pool.
//
// Every strategy honours the same contract. Each planned segment is summed
// exactly once by exactly one worker, and a run either returns one
// PartialResult per segment or fails as a whole with a WorkerFailure (or the
// context error) and no results. Strategies differ only in how work is handed
// to workers, never in the numbers they produce.
package executor
