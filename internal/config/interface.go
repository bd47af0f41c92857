package config

import "context"

// Loader is the interface for a format-specific document loader. Load
// parses the file at path into the format-agnostic Document model without
// recursing into its __default__ references; lineage is the merger's job.
type Loader interface {
	Load(ctx context.Context, path string) (*Document, error)
}
