package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Flatten converts a payload tree into its dotted-path side table, e.g.
// {"model": {"name": v}} becomes {"model.name": v}. Key collisions cannot
// occur because loaders reject dots inside key names.
func Flatten(p Payload) map[string]cty.Value {
	flat := make(map[string]cty.Value)
	flattenInto(p, "", flat)
	return flat
}

func flattenInto(p Payload, prefix string, flat map[string]cty.Value) {
	for key, value := range p {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if sub, ok := value.(Payload); ok {
			flattenInto(sub, path, flat)
			continue
		}
		flat[path] = value.(cty.Value)
	}
}

// Unflatten rebuilds a payload tree from a dotted-path table. It fails if
// a path is both a leaf and a prefix of another path.
func Unflatten(flat map[string]cty.Value) (Payload, error) {
	out := Payload{}
	for _, path := range SortedKeys(flat) {
		keys := strings.Split(path, ".")
		cur := out
		for _, k := range keys[:len(keys)-1] {
			next, ok := cur[k]
			if !ok {
				sub := Payload{}
				cur[k] = sub
				cur = sub
				continue
			}
			sub, ok := next.(Payload)
			if !ok {
				return nil, fmt.Errorf("config: key %q is already a value, cannot nest under it", path)
			}
			cur = sub
		}
		last := keys[len(keys)-1]
		if _, exists := cur[last]; exists {
			return nil, fmt.Errorf("config: key %q is already set", path)
		}
		cur[last] = flat[path]
	}
	return out, nil
}

// SortedKeys returns the table's keys in lexical order, for deterministic
// traversal.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
