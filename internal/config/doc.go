// Package config defines the format-agnostic configuration model for the
// application: the Document/Payload tree, the reserved control keys, the
// new-key policy, and the error taxonomy shared by the whole resolution
// pipeline.
//
// A Document is the single source of truth for the merge and resolve
// packages. Concrete loaders for a given file format, such as YAML,
// live in separate packages and translate into this model.
package config
