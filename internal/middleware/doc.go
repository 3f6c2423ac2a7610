// Package middleware provides the HTTP middleware chain: access
// logging, Prometheus metrics collection, and gzip compression.
package middleware
