// Package metrics defines the Prometheus collectors exposed by the
// gallery: HTTP traffic, upload pipeline outcomes, thumbnail
// derivations, and reconciliation pass statistics.
package metrics
