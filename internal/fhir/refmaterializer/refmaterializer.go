// Package refmaterializer turns the relative references RefParser finds
// inside a resource into fhir:ref:<path> edges against the graph backend.
package refmaterializer

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/ehr/fhirgraph/internal/fhir/refparser"
	"github.com/ehr/fhirgraph/internal/graph"
)

// Strategy controls how a reference's target vertex is found or created.
// Persistence and Versioning keep resource identity in different shapes
// (a single "id"-keyed vertex vs. a chain of fhirId+isCurrent-keyed version
// vertices), so each gets a Materializer configured for its own model
// rather than sharing one resolution strategy that fits neither.
type Strategy int

const (
	// ResolveByIDProperty targets Persistence's non-versioned vertices,
	// found or created by an "id" property, per spec §4.5's pseudocode.
	ResolveByIDProperty Strategy = iota
	// ResolveByCurrentVersion targets Versioning's version-chained
	// vertices: the current version is resolved via GetCurrentVersion,
	// and a missing target is realized as that resource's version 1.
	ResolveByCurrentVersion
)

// Materializer wires RefParser output into graph.Repo edges.
type Materializer struct {
	repo     graph.Repo
	logger   zerolog.Logger
	strategy Strategy
}

// New builds a Materializer for Persistence's non-versioned vertex model.
func New(repo graph.Repo, logger zerolog.Logger) *Materializer {
	return &Materializer{repo: repo, logger: logger, strategy: ResolveByIDProperty}
}

// NewVersioned builds a Materializer for Versioning's version-chained
// vertex model.
func NewVersioned(repo graph.Repo, logger zerolog.Logger) *Materializer {
	return &Materializer{repo: repo, logger: logger, strategy: ResolveByCurrentVersion}
}

// Materialize walks resourceJSON for relative references and creates an
// edge for each one not already present. It never returns an error to the
// caller: a failure to resolve or link one reference is logged and
// skipped so the rest of the resource still gets materialized.
//
// Calling Materialize twice with the same (sourceVertexID, resourceJSON)
// produces the same edge set and returns 0 on the second call, because
// EdgeExists makes the loop idempotent.
func (m *Materializer) Materialize(ctx context.Context, sourceVertexID string, resourceJSON string, allowPlaceholders bool) int {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(resourceJSON), &doc); err != nil {
		m.logger.Warn().Err(err).Msg("refmaterializer: resource is not valid JSON, skipping")
		return 0
	}

	count := 0
	for _, ref := range refparser.Parse(doc) {
		targetID, ok := m.resolveTarget(ctx, ref.TargetType, ref.TargetID, allowPlaceholders)
		if !ok {
			continue
		}

		edgeLabel := "fhir:ref:" + ref.Path
		exists, err := m.repo.EdgeExists(ctx, edgeLabel, sourceVertexID, targetID)
		if err != nil {
			m.logger.Warn().Err(err).Str("path", ref.Path).Msg("refmaterializer: edge existence check failed, skipping reference")
			continue
		}
		if exists {
			continue
		}

		err = m.repo.AddEdge(ctx, edgeLabel, sourceVertexID, targetID, map[string]interface{}{
			"path":               ref.Path,
			"targetResourceType": ref.TargetType,
			"targetFhirId":       ref.TargetID,
		})
		if err != nil {
			m.logger.Warn().Err(err).Str("path", ref.Path).Msg("refmaterializer: failed to add edge, skipping reference")
			continue
		}
		count++
	}
	return count
}

func (m *Materializer) resolveTarget(ctx context.Context, targetType, targetID string, allowPlaceholders bool) (string, bool) {
	if m.strategy == ResolveByCurrentVersion {
		return m.resolveTargetVersioned(ctx, targetType, targetID, allowPlaceholders)
	}

	if allowPlaceholders {
		v, err := m.repo.UpsertVertexByProperty(ctx, targetType, "id", targetID, map[string]interface{}{
			"resourceType":  targetType,
			"id":            targetID,
			"isPlaceholder": true,
		})
		if err != nil {
			m.logger.Warn().Err(err).Str("targetType", targetType).Str("targetId", targetID).Msg("refmaterializer: failed to upsert placeholder target")
			return "", false
		}
		return v.ID, true
	}

	id, ok, err := m.repo.GetVertexIDByLabelAndProperty(ctx, targetType, "id", targetID)
	if err != nil {
		m.logger.Warn().Err(err).Str("targetType", targetType).Str("targetId", targetID).Msg("refmaterializer: target lookup failed")
		return "", false
	}
	if !ok {
		return "", false
	}
	return id, true
}

// resolveTargetVersioned resolves against Versioning's current-version
// vertex for (targetType, targetID). A missing target with
// allowPlaceholders set is realized as that resource's version 1; a real
// create for the same id later supersedes it through the normal
// CreateVersioned chain, consistent with Versioning never mutating a
// vertex in place.
func (m *Materializer) resolveTargetVersioned(ctx context.Context, targetType, targetID string, allowPlaceholders bool) (string, bool) {
	current, err := m.repo.GetCurrentVersion(ctx, targetType, targetID)
	if err == nil {
		return current.ID, true
	}
	if err != graph.ErrNotFound {
		m.logger.Warn().Err(err).Str("targetType", targetType).Str("targetId", targetID).Msg("refmaterializer: target lookup failed")
		return "", false
	}
	if !allowPlaceholders {
		return "", false
	}

	graphID, _, cerr := m.repo.CreateVersionedVertex(ctx, targetType, targetID, map[string]interface{}{
		"isPlaceholder": true,
		"isDeleted":     false,
	})
	if cerr != nil {
		m.logger.Warn().Err(cerr).Str("targetType", targetType).Str("targetId", targetID).Msg("refmaterializer: failed to create placeholder version")
		return "", false
	}
	return graphID, true
}
