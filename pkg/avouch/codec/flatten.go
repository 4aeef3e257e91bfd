package codec

import (
	"sort"
	"strings"
)

// Pair is one flattened leaf: a dotted path and its value.
type Pair struct {
	Path  string
	Value any
}

// Flatten walks a nested mapping depth-first and returns its leaves as
// dotted-path pairs. Arrays are leaves, not nesting boundaries. Keys at
// each level are visited in sorted order so output is deterministic.
func Flatten(data map[string]any) []Pair {
	var pairs []Pair
	flattenInto("", data, &pairs)
	return pairs
}

func flattenInto(prefix string, data map[string]any, pairs *[]Pair) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if child, ok := data[k].(map[string]any); ok {
			flattenInto(path, child, pairs)
			continue
		}
		*pairs = append(*pairs, Pair{Path: path, Value: data[k]})
	}
}

// Unflatten rebuilds the nested mapping from dotted-path pairs. On a path
// collision (a scalar where a deeper path needs a mapping, or vice versa)
// the later pair silently overwrites the earlier structure.
func Unflatten(pairs []Pair) map[string]any {
	root := make(map[string]any)

	for _, p := range pairs {
		segments := strings.Split(p.Path, ".")
		current := root
		for i, seg := range segments {
			if i == len(segments)-1 {
				current[seg] = p.Value
				break
			}
			next, ok := current[seg].(map[string]any)
			if !ok {
				next = make(map[string]any)
				current[seg] = next
			}
			current = next
		}
	}

	return root
}
