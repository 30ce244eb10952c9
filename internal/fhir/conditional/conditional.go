// Package conditional dispatches FHIR conditional create/update/delete/
// patch semantics on top of Versioning, using a limit-bounded search
// probe to count matches before acting.
package conditional

import (
	"context"
	"encoding/json"

	"github.com/ehr/fhirgraph/internal/fhir/jsonpatch"
	"github.com/ehr/fhirgraph/internal/fhir/outcome"
	"github.com/ehr/fhirgraph/internal/fhir/validator"
	"github.com/ehr/fhirgraph/internal/fhir/versioning"
	"github.com/ehr/fhirgraph/internal/graph"
)

// Dispatcher implements the conditional operation table in spec §4.8.
type Dispatcher struct {
	versioning *versioning.Versioning
	validator  *validator.Validator
}

func New(v *versioning.Versioning, val *validator.Validator) *Dispatcher {
	return &Dispatcher{versioning: v, validator: val}
}

// CreateResult reports the outcome of a conditional create.
type CreateResult struct {
	GraphID string
	FhirID  string
	Created bool // false when an existing match was returned instead
}

// probe runs a limit=2 search so the dispatcher can distinguish
// 0/1/>1 matches without paying for a full result set.
func (d *Dispatcher) probe(ctx context.Context, resourceType string, filters []graph.Filter) ([]*versioning.Versioned, error) {
	results, _, err := d.versioning.Search(ctx, resourceType, filters, 2, 0)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ConditionalCreate implements If-None-Exist semantics. resourceJSON must
// already carry a logical id: assigning one is the caller's job, the same
// as for a plain create.
func (d *Dispatcher) ConditionalCreate(ctx context.Context, resourceType, resourceJSON string, filters []graph.Filter, materializeRefs, allowPlaceholders bool) (*CreateResult, error) {
	matches, err := d.probe(ctx, resourceType, filters)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		fhirID, ferr := extractID(resourceJSON)
		if ferr != nil {
			return nil, ferr
		}
		ver, verr := d.versioning.CreateVersioned(ctx, resourceType, fhirID, resourceJSON, materializeRefs, allowPlaceholders)
		if verr != nil {
			return nil, verr
		}
		return &CreateResult{GraphID: ver.GraphID, FhirID: ver.FhirID, Created: true}, nil
	case 1:
		return &CreateResult{GraphID: matches[0].GraphID, FhirID: matches[0].FhirID, Created: false}, nil
	default:
		return nil, outcome.MultipleMatches(len(matches))
	}
}

// ConditionalUpdate implements the update row of the conditional table.
func (d *Dispatcher) ConditionalUpdate(ctx context.Context, resourceType, resourceJSON string, filters []graph.Filter, materializeRefs, allowPlaceholders bool) (*CreateResult, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(resourceJSON), &doc); err != nil {
		return nil, outcome.ValidationFailure("invalid JSON: %v", err)
	}
	bodyID, _ := doc["id"].(string)

	matches, err := d.probe(ctx, resourceType, filters)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		if bodyID == "" {
			return nil, outcome.ValidationFailure("no id provided")
		}
		ver, verr := d.versioning.CreateVersioned(ctx, resourceType, bodyID, resourceJSON, materializeRefs, allowPlaceholders)
		if verr != nil {
			return nil, verr
		}
		return &CreateResult{GraphID: ver.GraphID, FhirID: ver.FhirID, Created: true}, nil
	case 1:
		if bodyID != "" && bodyID != matches[0].FhirID {
			return nil, outcome.ValidationFailure("body id %q does not match matched resource id %q", bodyID, matches[0].FhirID)
		}
		ver, verr := d.versioning.CreateVersioned(ctx, resourceType, matches[0].FhirID, resourceJSON, materializeRefs, allowPlaceholders)
		if verr != nil {
			return nil, verr
		}
		return &CreateResult{GraphID: ver.GraphID, FhirID: ver.FhirID, Created: false}, nil
	default:
		return nil, outcome.MultipleMatches(len(matches))
	}
}

// ConditionalDelete implements single- and multiple-match delete, tombstoning
// matched resources the same way a plain DELETE does.
// allowMultiple raises the effective match cap so 2+ matches delete all
// instead of failing with a precondition error.
func (d *Dispatcher) ConditionalDelete(ctx context.Context, resourceType string, filters []graph.Filter, allowMultiple bool) (deleted int, err error) {
	if len(filters) == 0 {
		return 0, outcome.ValidationFailure("conditional delete requires at least one search criterion")
	}

	if allowMultiple {
		results, _, serr := d.versioning.Search(ctx, resourceType, filters, 0, 0)
		if serr != nil {
			return 0, serr
		}
		for _, r := range results {
			if _, derr := d.versioning.Tombstone(ctx, resourceType, r.FhirID); derr != nil {
				return deleted, derr
			}
			deleted++
		}
		return deleted, nil
	}

	matches, err := d.probe(ctx, resourceType, filters)
	if err != nil {
		return 0, err
	}
	switch len(matches) {
	case 0:
		return 0, nil
	case 1:
		if _, derr := d.versioning.Tombstone(ctx, resourceType, matches[0].FhirID); derr != nil {
			return 0, derr
		}
		return 1, nil
	default:
		return 0, outcome.MultipleMatches(len(matches))
	}
}

// ConditionalPatch fetches the single matched resource, applies a JSON
// Patch, re-validates and creates the resulting new version.
func (d *Dispatcher) ConditionalPatch(ctx context.Context, resourceType string, filters []graph.Filter, ops []jsonpatch.Operation) (*CreateResult, error) {
	matches, err := d.probe(ctx, resourceType, filters)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, outcome.NotFound(resourceType, "")
	case 1:
		return d.applyPatch(ctx, resourceType, matches[0].FhirID, ops)
	default:
		return nil, outcome.MultipleMatches(len(matches))
	}
}

func (d *Dispatcher) applyPatch(ctx context.Context, resourceType, fhirID string, ops []jsonpatch.Operation) (*CreateResult, error) {
	current, err := d.versioning.GetCurrent(ctx, resourceType, fhirID)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(current.JSON), &doc); err != nil {
		return nil, outcome.BackendFailure(err)
	}

	patched, perr := jsonpatch.Apply(doc, ops)
	if perr != nil {
		return nil, outcome.Unprocessable("%v", perr)
	}

	patchedJSON, merr := json.Marshal(patched)
	if merr != nil {
		return nil, outcome.Unprocessable("%v", merr)
	}

	ver, verr := d.versioning.CreateVersioned(ctx, resourceType, fhirID, string(patchedJSON), false, false)
	if verr != nil {
		return nil, verr
	}
	return &CreateResult{GraphID: ver.GraphID, FhirID: ver.FhirID, Created: false}, nil
}

func extractID(resourceJSON string) (string, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(resourceJSON), &doc); err != nil {
		return "", outcome.ValidationFailure("invalid JSON: %v", err)
	}
	id, _ := doc["id"].(string)
	if id == "" {
		return "", outcome.ValidationFailure("no id provided")
	}
	return id, nil
}
