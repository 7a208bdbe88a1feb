// Package server exposes the Prometheus metrics of a running picalc process
// over HTTP (--metrics-addr). It serves /metrics and /healthz and nothing
// else.
package server
