// Package graph defines the backend-agnostic property-graph contract that
// the resource layer (internal/fhir/*) is built against (spec §4.1). The
// contract deliberately never exposes a backend-native edge identifier:
// some graph engines encode relationship ids as composite structures that
// cannot be serialized portably, so edges are identified only by
// (label, outVertexId, inVertexId) and existence is proved by count.
package graph

import "context"

// Vertex is a materialized property-graph node: a label plus a flattened
// property map. Values that arrive from the backend as singleton lists are
// unwrapped to scalars; multi-valued lists are preserved as []interface{}.
type Vertex struct {
	ID         string
	Label      string
	Properties map[string]interface{}
}

// Direction is the orientation of an edge relative to a given vertex.
type Direction string

const (
	DirOut Direction = "out"
	DirIn  Direction = "in"
)

// Neighbor describes one edge incident to a vertex, as returned by
// GetEdgesForVertex.
type Neighbor struct {
	Direction  Direction
	Label      string
	VertexID   string
	Properties map[string]interface{}
}

// Filter is an equality filter over a string-coerced vertex property,
// per spec §4.6 ("only equality filters on string-coerced values").
type Filter struct {
	Key   string
	Value string
}

// VersionInfo is the subset of a resource version vertex's properties the
// versioning primitives need to reason about ordering and current-ness.
type VersionInfo struct {
	GraphID     string
	VersionID   int
	LastUpdated string
	IsCurrent   bool
	IsDeleted   bool
	JSON        string
}

// Repo is the graph API consumed by everything in internal/fhir/*.
// Implementations: Neo4jRepo (production, backed by a real Neo4j instance)
// and MemoryRepo (tests / local dev without a graph database).
type Repo interface {
	// Vertex primitives.
	AddVertex(ctx context.Context, label string, props map[string]interface{}) (*Vertex, error)
	AddVertexAndReturnID(ctx context.Context, label string, props map[string]interface{}) (string, error)
	GetVertexByID(ctx context.Context, id string) (*Vertex, error)
	UpdateVertexProperties(ctx context.Context, id string, props map[string]interface{}) (bool, error)
	DeleteVertex(ctx context.Context, id string) (bool, error)
	CountVertices(ctx context.Context) (int64, error)
	DropAll(ctx context.Context) (int64, error)

	UpsertVertexByProperty(ctx context.Context, label, key, value string, props map[string]interface{}) (*Vertex, error)
	GetVertexByLabelAndProperty(ctx context.Context, label, key, value string) (*Vertex, error)
	GetVertexIDByLabelAndProperty(ctx context.Context, label, key, value string) (string, bool, error)

	// Edge primitives.
	AddEdge(ctx context.Context, label, outID, inID string, props map[string]interface{}) error
	AddEdgeByProperty(ctx context.Context, label string, outLabel, outKey, outValue string, inLabel, inKey, inValue string, props map[string]interface{}) error
	EdgeExists(ctx context.Context, label, outID, inID string) (bool, error)
	GetEdgesForVertex(ctx context.Context, id string) ([]Neighbor, error)

	// Label-scoped search.
	GetVerticesByLabel(ctx context.Context, label string, filters []Filter, limit, offset int) ([]*Vertex, error)
	CountVerticesByLabel(ctx context.Context, label string, filters []Filter) (int64, error)

	// Neighbor walks / traversal.
	GetOutNeighbors(ctx context.Context, id string, edgeLabel string, limit int) ([]*Vertex, error)
	GetInNeighbors(ctx context.Context, id string, edgeLabel string, limit int) ([]*Vertex, error)
	Traverse(ctx context.Context, id string, maxHops int, edgeLabel string, limit int) ([]*Vertex, error)

	// Versioning primitives (spec §4.1).
	GetCurrentVersion(ctx context.Context, label, fhirID string) (*Vertex, error)
	GetVersion(ctx context.Context, label, fhirID string, versionID int) (*Vertex, error)
	GetVersionHistory(ctx context.Context, label, fhirID string, limit int) ([]*Vertex, error)
	GetTypeHistory(ctx context.Context, label string, limit int) ([]*Vertex, error)
	GetTypeHistorySince(ctx context.Context, label string, since string, limit int) ([]*Vertex, error)
	GetNextVersionNumber(ctx context.Context, label, fhirID string) (int, error)
	MarkVersionNonCurrent(ctx context.Context, label, fhirID string) error
	CreateSupersedesEdge(ctx context.Context, newID, oldID string) error
	CreateVersionedVertex(ctx context.Context, label, fhirID string, props map[string]interface{}) (graphID string, versionID int, err error)
	CreateTombstone(ctx context.Context, label, fhirID string) (graphID string, versionID int, ok bool, err error)
	DeleteAllVersions(ctx context.Context, label, fhirID string) (int64, error)
	DeleteVersion(ctx context.Context, label, fhirID string, versionID int) (bool, error)
}
