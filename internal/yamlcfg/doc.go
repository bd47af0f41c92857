// Package yamlcfg provides the concrete YAML implementation of the
// document loading interface defined in the `config` package. It is
// responsible for file parsing, reserved-key extraction, YAML-to-model
// translation, and snapshot serialization of resolved trees.
package yamlcfg
