// Package registry maps the string entry-point references used in __run__
// sections (e.g. "hello:run") to compiled Go functions.
//
// The configuration core only produces and validates the reference string;
// resolving it to a callable and invoking it happens here, behind a single
// resolve-and-call contract. Built-in modules register themselves at
// application startup, and registration is validated eagerly so a mismatch
// between configuration and code surfaces before anything runs.
package registry
