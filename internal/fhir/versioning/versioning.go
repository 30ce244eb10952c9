// Package versioning implements the version-aware resource paths: every
// write creates a new version vertex rather than mutating one in place.
package versioning

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/ehr/fhirgraph/internal/fhir/outcome"
	"github.com/ehr/fhirgraph/internal/fhir/refmaterializer"
	"github.com/ehr/fhirgraph/internal/fhir/validator"
	"github.com/ehr/fhirgraph/internal/graph"
)

// Versioned is one resource version as returned by the read paths.
type Versioned struct {
	GraphID     string
	FhirID      string
	VersionID   int
	LastUpdated string
	IsCurrent   bool
	IsDeleted   bool
	JSON        string
}

// Versioning is built on graph.Repo's versioning primitives. Writes for
// the same (label, fhirId) are serialized through a KeyLock: two racing
// CreateVersioned calls could otherwise observe the same "next" version
// number and both flip isCurrent (spec §5 concurrency hazard).
type Versioning struct {
	repo         graph.Repo
	validator    *validator.Validator
	materializer *refmaterializer.Materializer
	locks        *graph.KeyLock
	now          func() string
}

func New(repo graph.Repo, v *validator.Validator, m *refmaterializer.Materializer, nowFn func() string) *Versioning {
	return &Versioning{repo: repo, validator: v, materializer: m, locks: graph.NewKeyLock(), now: nowFn}
}

// CreateVersioned validates resourceJSON, marks any existing current
// version non-current, and writes a new current version, linked to its
// predecessor by a supersedes edge.
func (v *Versioning) CreateVersioned(ctx context.Context, resourceType, fhirID, resourceJSON string, materializeRefs, allowPlaceholders bool) (*Versioned, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(resourceJSON), &doc); err != nil {
		return nil, outcome.ValidationFailure("invalid JSON: %v", err)
	}
	ok, valErr := v.validator.Validate(doc)
	if !ok {
		return nil, outcome.ValidationFailure("%v", valErr)
	}

	unlock := v.locks.Lock(resourceType + "|" + fhirID)
	defer unlock()

	prev, err := v.repo.GetCurrentVersion(ctx, resourceType, fhirID)
	hasPrev := err == nil
	if err != nil && err != graph.ErrNotFound {
		return nil, outcome.BackendFailure(err)
	}
	if hasPrev {
		if markErr := v.repo.MarkVersionNonCurrent(ctx, resourceType, fhirID); markErr != nil {
			return nil, outcome.BackendFailure(markErr)
		}
	}

	lastUpdated := v.now()
	props := map[string]interface{}{
		"json":        resourceJSON,
		"lastUpdated": lastUpdated,
		"isDeleted":   false,
	}
	for k, val := range validator.ExtractSearchableProperties(doc) {
		props[k] = val
	}
	graphID, versionID, err := v.repo.CreateVersionedVertex(ctx, resourceType, fhirID, props)
	if err != nil {
		return nil, outcome.BackendFailure(err)
	}

	if hasPrev {
		if edgeErr := v.repo.CreateSupersedesEdge(ctx, graphID, prev.ID); edgeErr != nil {
			return nil, outcome.BackendFailure(edgeErr)
		}
	}

	if materializeRefs {
		v.materializer.Materialize(ctx, graphID, resourceJSON, allowPlaceholders)
	}

	return &Versioned{
		GraphID:     graphID,
		FhirID:      fhirID,
		VersionID:   versionID,
		LastUpdated: lastUpdated,
		IsCurrent:   true,
		IsDeleted:   false,
		JSON:        resourceJSON,
	}, nil
}

// GetCurrent returns the current version for (resourceType, fhirID), or
// NotFound if it never existed, or Gone if the current version is a
// tombstone.
func (v *Versioning) GetCurrent(ctx context.Context, resourceType, fhirID string) (*Versioned, error) {
	vertex, err := v.repo.GetCurrentVersion(ctx, resourceType, fhirID)
	if err == graph.ErrNotFound {
		return nil, outcome.NotFound(resourceType, fhirID)
	}
	if err != nil {
		return nil, outcome.BackendFailure(err)
	}
	ver := toVersioned(fhirID, vertex)
	if ver.IsDeleted {
		return nil, outcome.Gone(resourceType, fhirID)
	}
	return ver, nil
}

// GetVersion is the vread path: it returns Gone if the requested version
// is a tombstone, NotFound if the version does not exist at all.
func (v *Versioning) GetVersion(ctx context.Context, resourceType, fhirID string, versionID int) (*Versioned, error) {
	vertex, err := v.repo.GetVersion(ctx, resourceType, fhirID, versionID)
	if err == graph.ErrNotFound {
		return nil, outcome.NotFound(resourceType, fhirID)
	}
	if err != nil {
		return nil, outcome.BackendFailure(err)
	}
	ver := toVersioned(fhirID, vertex)
	if ver.IsDeleted {
		return nil, outcome.Gone(resourceType, fhirID)
	}
	return ver, nil
}

// InstanceHistory returns every version of (resourceType, fhirID), sorted
// desc by lastUpdated with versionId desc breaking ties, clipped to limit.
func (v *Versioning) InstanceHistory(ctx context.Context, resourceType, fhirID string, limit int) ([]*Versioned, error) {
	vertices, err := v.repo.GetVersionHistory(ctx, resourceType, fhirID, 0)
	if err != nil {
		return nil, outcome.BackendFailure(err)
	}
	out := toVersionedSortedClipped(fhirID, vertices, limit)
	return out, nil
}

// TypeHistory returns recent versions across every instance of
// resourceType.
func (v *Versioning) TypeHistory(ctx context.Context, resourceType string, limit int) ([]*Versioned, error) {
	vertices, err := v.repo.GetTypeHistory(ctx, resourceType, 0)
	if err != nil {
		return nil, outcome.BackendFailure(err)
	}
	return toVersionedSortedClipped("", vertices, limit), nil
}

// TypeHistorySince is TypeHistory bounded to versions updated after since.
func (v *Versioning) TypeHistorySince(ctx context.Context, resourceType string, since string, limit int) ([]*Versioned, error) {
	vertices, err := v.repo.GetTypeHistorySince(ctx, resourceType, since, 0)
	if err != nil {
		return nil, outcome.BackendFailure(err)
	}
	return toVersionedSortedClipped("", vertices, limit), nil
}

// SystemHistory iterates every supported type, gathers its history since
// an optional cutoff, and globally sorts + clips the union.
func (v *Versioning) SystemHistory(ctx context.Context, limit int, since string) ([]*Versioned, error) {
	var all []*Versioned
	for _, t := range v.validator.ListSupportedTypes() {
		var vs []*Versioned
		var err error
		if since != "" {
			vs, err = v.TypeHistorySince(ctx, t, since, 0)
		} else {
			vs, err = v.TypeHistory(ctx, t, 0)
		}
		if err != nil {
			return nil, err
		}
		all = append(all, vs...)
	}
	sortVersionsDesc(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// Search scans resourceType for current, non-deleted versions matching
// filters, applying limit/offset after that current-only filter (the
// filters graph.Repo runs are plain property equality and can't express
// "isCurrent=true" alongside caller-supplied string filters in one pass).
func (v *Versioning) Search(ctx context.Context, resourceType string, filters []graph.Filter, limit, offset int) ([]*Versioned, int64, error) {
	vertices, err := v.repo.GetVerticesByLabel(ctx, resourceType, filters, 0, 0)
	if err != nil {
		return nil, 0, outcome.BackendFailure(err)
	}
	current := currentOnly(vertices)
	total := int64(len(current))
	if offset > len(current) {
		return nil, total, nil
	}
	current = current[offset:]
	if limit > 0 && limit < len(current) {
		current = current[:limit]
	}
	out := make([]*Versioned, 0, len(current))
	for _, vx := range current {
		out = append(out, toVersioned("", vx))
	}
	return out, total, nil
}

// SearchAllTypes fans Search out across resourceTypes, or every supported
// type if none are given.
func (v *Versioning) SearchAllTypes(ctx context.Context, resourceTypes []string, filters []graph.Filter, limit int) ([]*Versioned, int64, error) {
	types := resourceTypes
	if len(types) == 0 {
		types = v.validator.ListSupportedTypes()
	}

	var all []*Versioned
	var total int64
	for _, t := range types {
		results, count, err := v.Search(ctx, t, filters, 0, 0)
		if err != nil {
			return nil, 0, err
		}
		total += count
		all = append(all, results...)
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func currentOnly(vertices []*graph.Vertex) []*graph.Vertex {
	out := make([]*graph.Vertex, 0, len(vertices))
	for _, vx := range vertices {
		isCurrent, _ := vx.Properties["isCurrent"].(bool)
		isDeleted, _ := vx.Properties["isDeleted"].(bool)
		if isCurrent && !isDeleted {
			out = append(out, vx)
		}
	}
	return out
}

// Tombstone marks the current version deleted. It fails with Conflict if
// no current version exists to tombstone.
func (v *Versioning) Tombstone(ctx context.Context, resourceType, fhirID string) (*Versioned, error) {
	unlock := v.locks.Lock(resourceType + "|" + fhirID)
	defer unlock()

	graphID, versionID, ok, err := v.repo.CreateTombstone(ctx, resourceType, fhirID)
	if err != nil {
		return nil, outcome.BackendFailure(err)
	}
	if !ok {
		return nil, outcome.Conflict("no current version exists to tombstone for %s/%s", resourceType, fhirID)
	}
	return &Versioned{
		GraphID:     graphID,
		FhirID:      fhirID,
		VersionID:   versionID,
		LastUpdated: v.now(),
		IsCurrent:   true,
		IsDeleted:   true,
	}, nil
}

// DeleteAllVersions permanently removes every version vertex for
// (resourceType, fhirID) and returns the number deleted.
func (v *Versioning) DeleteAllVersions(ctx context.Context, resourceType, fhirID string) (int64, error) {
	n, err := v.repo.DeleteAllVersions(ctx, resourceType, fhirID)
	if err != nil {
		return 0, outcome.BackendFailure(err)
	}
	return n, nil
}

// DeleteVersion permanently removes a single version vertex, failing if
// it does not exist.
func (v *Versioning) DeleteVersion(ctx context.Context, resourceType, fhirID string, versionID int) error {
	ok, err := v.repo.DeleteVersion(ctx, resourceType, fhirID, versionID)
	if err != nil {
		return outcome.BackendFailure(err)
	}
	if !ok {
		return outcome.NotFound(resourceType, fhirID)
	}
	return nil
}

func toVersioned(fhirID string, vertex *graph.Vertex) *Versioned {
	id := fhirID
	if fid, ok := vertex.Properties["fhirId"].(string); ok && fid != "" {
		id = fid
	}
	versionID, _ := vertex.Properties["versionId"].(int)
	lastUpdated, _ := vertex.Properties["lastUpdated"].(string)
	isCurrent, _ := vertex.Properties["isCurrent"].(bool)
	isDeleted, _ := vertex.Properties["isDeleted"].(bool)
	body, _ := vertex.Properties["json"].(string)
	return &Versioned{
		GraphID:     vertex.ID,
		FhirID:      id,
		VersionID:   versionID,
		LastUpdated: lastUpdated,
		IsCurrent:   isCurrent,
		IsDeleted:   isDeleted,
		JSON:        body,
	}
}

func toVersionedSortedClipped(fhirID string, vertices []*graph.Vertex, limit int) []*Versioned {
	out := make([]*Versioned, 0, len(vertices))
	for _, v := range vertices {
		out = append(out, toVersioned(fhirID, v))
	}
	sortVersionsDesc(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortVersionsDesc(vs []*Versioned) {
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].LastUpdated != vs[j].LastUpdated {
			return vs[i].LastUpdated > vs[j].LastUpdated
		}
		return vs[i].VersionID > vs[j].VersionID
	})
}
