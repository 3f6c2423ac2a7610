// Package workers sizes bounded worker pools from the available CPU
// count, honoring container limits through GOMAXPROCS.
package workers
