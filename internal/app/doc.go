// Package app wires the application together: logger construction, the
// document loader, the entry-point registry, and the sequential resolution
// pipeline from configuration path to a running experiment.
package app
