// Package remote implements the distributed strategy: each segment of the
// plan is handed to a peer instance of picalc running on a named host, and
// the peer's single numeric answer comes back as a PartialResult.
//
// How a peer is reached is a Transport. CommandTransport starts the peer
// over ssh (or directly, for the local host) and reads its stdout.
// NATSTransport sends a request message to a long-running peer started with
// `picalc serve`. Neither retries: a failed host aborts the run.
package remote
