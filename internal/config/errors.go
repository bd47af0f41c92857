package config

import "fmt"

// PathResolutionError reports a __default__ reference whose resolved file
// does not exist.
type PathResolutionError struct {
	Ref      string // the reference as written
	From     string // path of the referring document
	Resolved string // the concrete path that was tried
}

func (e *PathResolutionError) Error() string {
	return fmt.Sprintf("config: default %q referenced from %s does not exist (resolved to %s)", e.Ref, e.From, e.Resolved)
}

// ParseError reports a malformed document or a non-mapping top level.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("config: parsing %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError reports an invalid reserved-key value.
type SchemaError struct {
	Path   string // document path
	Key    string // offending key
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("config: %s: invalid %s: %s", e.Path, e.Key, e.Reason)
}

// ConflictError reports a type-incompatible merge: a mapping and a scalar
// claiming the same key. It is always fatal and never policy-controlled.
type ConflictError struct {
	Key    string // dotted key path
	Parent string // kind of the parent value
	Child  string // kind of the child value
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("config: key %q cannot merge %s over %s", e.Key, e.Child, e.Parent)
}

// NewKeyError reports a payload key absent from the folded parents while
// the document's policy is raise. It is also used for command-line
// overrides addressing keys the configuration does not define.
type NewKeyError struct {
	Key string // dotted key path
}

func (e *NewKeyError) Error() string {
	return fmt.Sprintf("config: unexpected new key %q", e.Key)
}

// UnresolvedVariableError reports an unset environment variable, a dangling
// self-reference, or a substitution that never reaches a fixed point.
type UnresolvedVariableError struct {
	Key    string // dotted key path of the leaf under substitution
	Token  string // the offending token, e.g. "$HOME" or "{model.name}"
	Reason string
}

func (e *UnresolvedVariableError) Error() string {
	return fmt.Sprintf("config: key %q: cannot resolve %s: %s", e.Key, e.Token, e.Reason)
}

// UnsupportedStructureError reports a sequence containing mappings or
// nested sequences, which the configuration language does not support.
type UnsupportedStructureError struct {
	Path string // document path
	Key  string // dotted key path of the sequence
}

func (e *UnsupportedStructureError) Error() string {
	return fmt.Sprintf("config: %s: key %q: sequences may only contain scalar values", e.Path, e.Key)
}

// IncompleteRunSpecError reports a missing mandatory __run__ field.
type IncompleteRunSpecError struct {
	Field string
}

func (e *IncompleteRunSpecError) Error() string {
	return fmt.Sprintf("config: __run__ section is missing mandatory field %s", e.Field)
}
