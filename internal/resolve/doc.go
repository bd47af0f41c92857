// Package resolve expands environment-variable references and
// self-referencing template placeholders across a merged payload tree.
//
// Substitution is textual: it runs over the string form of every scalar
// leaf, addressed by dotted key path, and repeats full-tree passes until a
// pass changes nothing. A fixed iteration ceiling is the sole safeguard
// against non-terminating substitution, since the "edges" between keys are
// runtime string patterns, not structural pointers.
package resolve
