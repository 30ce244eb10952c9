// Package validator owns the FHIR JSON Schema document and validates
// resources against it. The schema is loaded once, lazily, and treated as
// immutable process-wide state for the lifetime of the server (spec §5).
package validator

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validator validates decoded FHIR resources against a JSON Schema loaded
// from disk. If the schema file cannot be read, every call reports
// "schema not loaded" rather than panicking, so create/update/patch
// operations fail cleanly instead of the process refusing to start.
type Validator struct {
	path string

	once     sync.Once
	schema   *jsonschema.Schema
	loadErr  error
	rawTypes []string
}

func New(path string) *Validator {
	return &Validator{path: path}
}

func (v *Validator) load() {
	v.once.Do(func() {
		data, err := os.ReadFile(v.path)
		if err != nil {
			v.loadErr = fmt.Errorf("schema not loaded: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(v.path, strings.NewReader(string(data))); err != nil {
			v.loadErr = fmt.Errorf("schema not loaded: %w", err)
			return
		}
		schema, err := compiler.Compile(v.path)
		if err != nil {
			v.loadErr = fmt.Errorf("schema not loaded: %w", err)
			return
		}
		v.schema = schema

		var raw map[string]interface{}
		if err := json.Unmarshal(data, &raw); err == nil {
			v.rawTypes = extractDiscriminatorTypes(raw)
		}
	})
}

// Validate reports whether doc conforms to the schema. A schema-engine
// "circular reference"/"cannot resolve $ref" failure is treated as
// non-fatal and reported as valid, matching the tolerance required
// because some FHIR resource schemas are mutually self-referential in a
// way general-purpose JSON Schema engines cannot always resolve.
func (v *Validator) Validate(doc interface{}) (bool, error) {
	v.load()
	if v.loadErr != nil {
		return false, v.loadErr
	}
	if err := v.schema.Validate(doc); err != nil {
		if isCircularOrUnresolvable(err) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// isCircularOrUnresolvable recognizes the jsonschema/v5 error text produced
// when a $ref cannot be resolved because of a circular schema graph.
func isCircularOrUnresolvable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "cycle") ||
		strings.Contains(msg, "circular") ||
		strings.Contains(msg, "cannot resolve") ||
		strings.Contains(msg, "no such resource")
}

// ExtractResourceInfo pulls resourceType and, if present, id off doc.
// resourceType must be a non-empty string; a non-string id is rejected.
func ExtractResourceInfo(doc map[string]interface{}) (ok bool, err error, resourceType string, fhirID string) {
	rt, isStr := doc["resourceType"].(string)
	if !isStr || rt == "" {
		return false, fmt.Errorf("resourceType must be a non-empty string"), "", ""
	}
	idRaw, present := doc["id"]
	if !present {
		return true, nil, rt, ""
	}
	idStr, isStr := idRaw.(string)
	if !isStr {
		return false, fmt.Errorf("Invalid id: must be string"), rt, ""
	}
	return true, nil, rt, idStr
}

// ExtractSearchableProperties flattens the subset of a resource body that
// the graph backend can filter on directly as vertex properties. FHIR's
// "identifier" element is either a single Identifier object, a bare
// string, or an array of either — this normalizes all three shapes down to
// the first identifier's value string, which is what a token search on
// "identifier" or "_id" actually equality-matches against.
func ExtractSearchableProperties(doc map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{}
	if v, ok := identifierValue(doc["identifier"]); ok {
		props["identifier"] = v
	}
	return props
}

func identifierValue(raw interface{}) (string, bool) {
	switch t := raw.(type) {
	case string:
		return t, t != ""
	case map[string]interface{}:
		v, ok := t["value"].(string)
		return v, ok && v != ""
	case []interface{}:
		if len(t) == 0 {
			return "", false
		}
		return identifierValue(t[0])
	default:
		return "", false
	}
}

// ListSupportedTypes returns the sorted resource types declared under the
// schema's discriminator.mapping.
func (v *Validator) ListSupportedTypes() []string {
	v.load()
	out := make([]string, len(v.rawTypes))
	copy(out, v.rawTypes)
	sort.Strings(out)
	return out
}

func extractDiscriminatorTypes(raw map[string]interface{}) []string {
	disc, ok := raw["discriminator"].(map[string]interface{})
	if !ok {
		return nil
	}
	mapping, ok := disc["mapping"].(map[string]interface{})
	if !ok {
		return nil
	}
	types := make([]string, 0, len(mapping))
	for k := range mapping {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}
