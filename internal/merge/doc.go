// Package merge folds a document and its __default__ lineage into a single
// payload and run section. Lineage loading is depth-first and strictly
// sequential: a parent is fully merged before it is folded into its child,
// because merge order is semantically significant. Merging always builds
// new trees; loaded documents are never mutated, so a parent file shared by
// several children in one run stays intact.
package merge
