// Package transport defines the interface every network listener of the
// service implements.
//
// The HTTP API is the primary transport; the gRPC listener only serves the
// standard health service for orchestrators that poll over gRPC. main runs
// all enabled transports side by side and stops them together.
package transport

import "context"

// Transport is a network listener with an explicit lifecycle.
type Transport interface {
	// Name returns the transport identifier (e.g., "http", "grpc").
	Name() string

	// Listen serves until ctx is cancelled or the listener fails.
	// A clean shutdown returns nil.
	Listen(ctx context.Context) error

	// Close shuts the listener down, draining in-flight work.
	Close() error
}
