package config

import (
	"github.com/zclconf/go-cty/cty"
)

// Reserved control keys recognized at the top level of a document. Every
// other key, at any depth, is user payload.
const (
	KeyDefault      = "__default__"
	KeyNewKeyPolicy = "__new_key_policy__"
	KeyRun          = "__run__"
)

// Keys of the reserved __run__ section.
const (
	KeyMain      = "__main__"
	KeyName      = "__name__"
	KeyOutputDir = "__output_dir__"
	KeyCode      = "__code__"
)

// quotedMark marks a cty.Value leaf whose scalar was explicitly quoted in
// its source document. Quoting is the escape mechanism for template tokens:
// an unresolvable self-reference token in a quoted scalar is left verbatim
// instead of raising an error.
type quotedMark struct{}

// Quoted is the mark applied to quoted scalar leaves.
var Quoted = quotedMark{}

// Payload is the user-defined portion of a configuration tree. Each value
// is either a cty.Value leaf (a scalar or a sequence of scalars) or a
// nested Payload mapping.
type Payload map[string]any

// Copy returns a deep copy of the payload. Leaves are immutable cty values
// and are shared; only the mapping structure is duplicated, so a merged
// child never aliases its parents' maps.
func (p Payload) Copy() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		if sub, ok := v.(Payload); ok {
			out[k] = sub.Copy()
			continue
		}
		out[k] = v
	}
	return out
}

// RunSection is the reserved __run__ metadata describing how and where an
// experiment executes. Fields hold their raw (possibly templated) string
// form; an empty field is unset. Run metadata is operational, not payload:
// a child document's section overrides its parent's per field, wholesale.
type RunSection struct {
	Main      string
	Name      string
	OutputDir string
	Code      string
}

// Override returns the section with every field set in child replacing the
// corresponding field of s.
func (s RunSection) Override(child RunSection) RunSection {
	if child.Main != "" {
		s.Main = child.Main
	}
	if child.Name != "" {
		s.Name = child.Name
	}
	if child.OutputDir != "" {
		s.OutputDir = child.OutputDir
	}
	if child.Code != "" {
		s.Code = child.Code
	}
	return s
}

// Document is one parsed configuration file: its reserved control keys
// separated from the user payload. Documents are read-only once loaded;
// merging produces new trees and never mutates a parent.
type Document struct {
	// Path is the concrete file the document was loaded from.
	Path string

	// Defaults holds the __default__ references, in listed order. A
	// document with no defaults is a root with no lineage.
	Defaults []string

	// Policy is the document's own __new_key_policy__. It governs only
	// this document's payload against its folded parents; it is not
	// inherited.
	Policy NewKeyPolicy

	// Run is the document's own __run__ section.
	Run RunSection

	// Payload holds every non-reserved key.
	Payload Payload
}

// Kind names a payload value for error messages: "mapping" for nested
// payloads, otherwise the leaf's scalar kind.
func Kind(v any) string {
	if _, ok := v.(Payload); ok {
		return "mapping"
	}
	leaf, _ := v.(cty.Value).UnmarkDeep()
	switch {
	case leaf == cty.NilVal || leaf.IsNull():
		return "null"
	case leaf.Type().IsTupleType():
		return "sequence"
	default:
		return leaf.Type().FriendlyName()
	}
}
