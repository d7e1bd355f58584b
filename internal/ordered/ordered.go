// Package ordered provides deterministic traversal of maps. Output of
// the translator and serializer must not depend on Go's randomized map
// iteration order, so every map walk on an output path goes through
// this package.
package ordered

import (
	"cmp"
	"encoding/xml"
	"sort"
)

// Keys returns the keys of m in ascending order.
func Keys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Range calls fn for each entry of m, in ascending key order.
func Range[K cmp.Ordered, V any](m map[K]V, fn func(K, V)) {
	for _, k := range Keys(m) {
		fn(k, m[k])
	}
}

// XMLNames returns the xml.Name keys of m ordered by namespace, then
// local name.
func XMLNames[V any](m map[xml.Name]V) []xml.Name {
	keys := make([]xml.Name, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Space != keys[j].Space {
			return keys[i].Space < keys[j].Space
		}
		return keys[i].Local < keys[j].Local
	})
	return keys
}
