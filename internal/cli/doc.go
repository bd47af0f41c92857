// Package cli parses command-line arguments into an app.Config, including
// the trailing `--dotted.key value` configuration overrides.
package cli
