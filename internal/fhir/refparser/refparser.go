// Package refparser walks a decoded FHIR resource JSON tree and yields the
// relative references it contains, without ever constructing a graph edge
// itself — that is RefMaterializer's job.
package refparser

import (
	"fmt"
	"strings"
)

// Reference is one relative reference found in a resource tree.
type Reference struct {
	Path       string // dotted/bracketed JSON path, ending in ".reference"
	TargetType string
	TargetID   string
}

// Parse walks doc and returns every (path, targetType, targetId) triple for
// an immediate child field named "reference" whose value matches the
// relative reference grammar Type/Id: exactly two non-empty
// slash-separated segments, no scheme, no leading fragment marker.
//
// Parse is a pure function of doc: equal inputs always produce an equal,
// equally-ordered slice of References.
func Parse(doc map[string]interface{}) []Reference {
	var out []Reference
	walk("", doc, &out)
	return out
}

func walk(prefix string, node interface{}, out *[]Reference) {
	switch v := node.(type) {
	case map[string]interface{}:
		if raw, ok := v["reference"]; ok {
			if s, ok := raw.(string); ok {
				if tType, tID, ok := parseRelativeReference(s); ok {
					*out = append(*out, Reference{
						Path:       joinPath(prefix, "reference"),
						TargetType: tType,
						TargetID:   tID,
					})
				}
			}
		}
		for _, key := range sortedKeys(v) {
			if key == "reference" {
				continue
			}
			walk(joinPath(prefix, key), v[key], out)
		}
	case []interface{}:
		for i, elem := range v {
			walk(fmt.Sprintf("%s[%d]", prefix, i), elem, out)
		}
	}
}

// sortedKeys makes Parse deterministic regardless of Go's randomized map
// iteration order, which is required for the purity invariant (equal
// inputs, equal emitted sequences).
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if strings.HasPrefix(key, "[") {
		return prefix + key
	}
	return prefix + "." + key
}

// parseRelativeReference validates the Type/Id grammar: exactly two
// non-empty segments, no "://" scheme separator, no leading "#" fragment.
func parseRelativeReference(s string) (targetType, targetID string, ok bool) {
	if s == "" {
		return "", "", false
	}
	if strings.Contains(s, "://") {
		return "", "", false
	}
	if strings.HasPrefix(s, "#") {
		return "", "", false
	}
	segments := strings.Split(s, "/")
	if len(segments) != 2 {
		return "", "", false
	}
	targetType, targetID = segments[0], segments[1]
	if targetType == "" || targetID == "" {
		return "", "", false
	}
	return targetType, targetID, true
}
