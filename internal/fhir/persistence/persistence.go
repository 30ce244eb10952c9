// Package persistence implements the non-versioned resource read/write
// path: validate, upsert-or-create a vertex, materialize references, and
// label-scoped search.
package persistence

import (
	"context"
	"encoding/json"

	"github.com/ehr/fhirgraph/internal/fhir/outcome"
	"github.com/ehr/fhirgraph/internal/fhir/refmaterializer"
	"github.com/ehr/fhirgraph/internal/fhir/validator"
	"github.com/ehr/fhirgraph/internal/graph"
)

// SearchResult is one row of a label-scoped or cross-type search.
type SearchResult struct {
	GraphID       string
	FhirID        string
	ResourceType  string
	JSON          string
	IsPlaceholder bool
}

// Persistence is the non-versioned resource store built directly on
// graph.Repo. Versioned reads/writes live in the versioning package.
type Persistence struct {
	repo         graph.Repo
	validator    *validator.Validator
	materializer *refmaterializer.Materializer
}

func New(repo graph.Repo, v *validator.Validator, m *refmaterializer.Materializer) *Persistence {
	return &Persistence{repo: repo, validator: v, materializer: m}
}

// ValidateAndPersist extracts resourceType/id, validates the document,
// then upserts a vertex keyed by (type, id) when an id is present, or
// creates a fresh vertex when it is not. If materializeRefs is set, it
// also runs the reference materializer against the new vertex.
func (p *Persistence) ValidateAndPersist(ctx context.Context, resourceJSON string, materializeRefs, allowPlaceholders bool) (ok bool, err error, graphID string, fhirID string, matCount int) {
	var doc map[string]interface{}
	if jsonErr := json.Unmarshal([]byte(resourceJSON), &doc); jsonErr != nil {
		return false, outcome.ValidationFailure("invalid JSON: %v", jsonErr), "", "", 0
	}

	infoOK, infoErr, resourceType, id := validator.ExtractResourceInfo(doc)
	if !infoOK {
		return false, outcome.ValidationFailure("%v", infoErr), "", "", 0
	}

	valid, valErr := p.validator.Validate(doc)
	if !valid {
		return false, outcome.ValidationFailure("%v", valErr), "", "", 0
	}

	props := map[string]interface{}{
		"resourceType":  resourceType,
		"json":          resourceJSON,
		"isPlaceholder": false,
	}
	for k, v := range validator.ExtractSearchableProperties(doc) {
		props[k] = v
	}

	var vertex *graph.Vertex
	if id != "" {
		props["id"] = id
		vertex, err = p.repo.UpsertVertexByProperty(ctx, resourceType, "id", id, props)
	} else {
		vertex, err = p.repo.AddVertex(ctx, resourceType, props)
	}
	if err != nil {
		return false, outcome.BackendFailure(err), "", "", 0
	}

	fhirID, _ = vertex.Properties["id"].(string)

	if materializeRefs {
		matCount = p.materializer.Materialize(ctx, vertex.ID, resourceJSON, allowPlaceholders)
	}

	return true, nil, vertex.ID, fhirID, matCount
}

// GetByResourceTypeAndId returns the stored JSON body for (type, id), or
// a NotFound error.
func (p *Persistence) GetByResourceTypeAndId(ctx context.Context, resourceType, id string) (string, error) {
	v, err := p.repo.GetVertexByLabelAndProperty(ctx, resourceType, "id", id)
	if err == graph.ErrNotFound {
		return "", outcome.NotFound(resourceType, id)
	}
	if err != nil {
		return "", outcome.BackendFailure(err)
	}
	body, _ := v.Properties["json"].(string)
	return body, nil
}

// DeleteByResourceTypeAndId hard-deletes the vertex for (type, id). This
// is not the versioned tombstone path; see versioning.Tombstone for that.
func (p *Persistence) DeleteByResourceTypeAndId(ctx context.Context, resourceType, id string) (bool, error) {
	vid, ok, err := p.repo.GetVertexIDByLabelAndProperty(ctx, resourceType, "id", id)
	if err != nil {
		return false, outcome.BackendFailure(err)
	}
	if !ok {
		return false, nil
	}
	deleted, err := p.repo.DeleteVertex(ctx, vid)
	if err != nil {
		return false, outcome.BackendFailure(err)
	}
	return deleted, nil
}

// Search performs a label-scoped scan with equality filters, returning
// the page of results plus the total match count.
func (p *Persistence) Search(ctx context.Context, resourceType string, filters []graph.Filter, limit, offset int) ([]SearchResult, int64, error) {
	vertices, err := p.repo.GetVerticesByLabel(ctx, resourceType, filters, limit, offset)
	if err != nil {
		return nil, 0, outcome.BackendFailure(err)
	}
	total, err := p.repo.CountVerticesByLabel(ctx, resourceType, filters)
	if err != nil {
		return nil, 0, outcome.BackendFailure(err)
	}
	return toSearchResults(resourceType, vertices), total, nil
}

// SearchAllTypes fans Search out across resourceTypes (or every supported
// type if none are given), accumulating results and clipping to limit at
// the end; totalCount sums the per-type counts.
func (p *Persistence) SearchAllTypes(ctx context.Context, resourceTypes []string, filters []graph.Filter, limit int) ([]SearchResult, int64, error) {
	types := resourceTypes
	if len(types) == 0 {
		types = p.validator.ListSupportedTypes()
	}

	var all []SearchResult
	var total int64
	for _, t := range types {
		vertices, err := p.repo.GetVerticesByLabel(ctx, t, filters, 0, 0)
		if err != nil {
			return nil, 0, outcome.BackendFailure(err)
		}
		count, err := p.repo.CountVerticesByLabel(ctx, t, filters)
		if err != nil {
			return nil, 0, outcome.BackendFailure(err)
		}
		total += count
		all = append(all, toSearchResults(t, vertices)...)
	}

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func toSearchResults(resourceType string, vertices []*graph.Vertex) []SearchResult {
	out := make([]SearchResult, 0, len(vertices))
	for _, v := range vertices {
		fhirID, _ := v.Properties["id"].(string)
		body, _ := v.Properties["json"].(string)
		placeholder, _ := v.Properties["isPlaceholder"].(bool)
		out = append(out, SearchResult{
			GraphID:       v.ID,
			FhirID:        fhirID,
			ResourceType:  resourceType,
			JSON:          body,
			IsPlaceholder: placeholder,
		})
	}
	return out
}
