package graph

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
)

// MemoryRepo is an in-process Repo used by unit tests and local
// development when no Neo4j instance is configured. It keeps the same
// edge-existence-by-count contract as Neo4jRepo so that tests written
// against it exercise real Repo semantics, not a stub.
type MemoryRepo struct {
	mu       sync.RWMutex
	vertices map[string]*Vertex
	edges    []memEdge
	seq      int64
}

type memEdge struct {
	Label string
	Out   string
	In    string
	Props map[string]interface{}
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{vertices: make(map[string]*Vertex)}
}

func (m *MemoryRepo) nextID() string {
	id := atomic.AddInt64(&m.seq, 1)
	return "mem:" + strconv.FormatInt(id, 10)
}

func cloneProps(props map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

func (m *MemoryRepo) AddVertex(_ context.Context, label string, props map[string]interface{}) (*Vertex, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := &Vertex{ID: m.nextID(), Label: label, Properties: cloneProps(props)}
	m.vertices[v.ID] = v
	out := *v
	out.Properties = cloneProps(v.Properties)
	return &out, nil
}

func (m *MemoryRepo) AddVertexAndReturnID(ctx context.Context, label string, props map[string]interface{}) (string, error) {
	v, err := m.AddVertex(ctx, label, props)
	if err != nil {
		return "", err
	}
	return v.ID, nil
}

func (m *MemoryRepo) GetVertexByID(_ context.Context, id string) (*Vertex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vertices[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *v
	out.Properties = cloneProps(v.Properties)
	return &out, nil
}

func (m *MemoryRepo) UpdateVertexProperties(_ context.Context, id string, props map[string]interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vertices[id]
	if !ok {
		return false, nil
	}
	for k, val := range props {
		v.Properties[k] = val
	}
	return true, nil
}

func (m *MemoryRepo) DeleteVertex(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vertices[id]; !ok {
		return false, nil
	}
	delete(m.vertices, id)
	kept := m.edges[:0]
	for _, e := range m.edges {
		if e.Out != id && e.In != id {
			kept = append(kept, e)
		}
	}
	m.edges = kept
	return true, nil
}

func (m *MemoryRepo) CountVertices(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.vertices)), nil
}

func (m *MemoryRepo) DropAll(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.vertices))
	m.vertices = make(map[string]*Vertex)
	m.edges = nil
	return n, nil
}

func propString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

func (m *MemoryRepo) findByLabelAndProperty(label, key, value string) *Vertex {
	for _, v := range m.vertices {
		if v.Label != label {
			continue
		}
		if pv, ok := v.Properties[key]; ok && propString(pv) == value {
			return v
		}
	}
	return nil
}

func (m *MemoryRepo) UpsertVertexByProperty(_ context.Context, label, key, value string, props map[string]interface{}) (*Vertex, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing := m.findByLabelAndProperty(label, key, value); existing != nil {
		for k, val := range props {
			existing.Properties[k] = val
		}
		out := *existing
		out.Properties = cloneProps(existing.Properties)
		return &out, nil
	}
	merged := cloneProps(props)
	merged[key] = value
	v := &Vertex{ID: m.nextID(), Label: label, Properties: merged}
	m.vertices[v.ID] = v
	out := *v
	out.Properties = cloneProps(v.Properties)
	return &out, nil
}

func (m *MemoryRepo) GetVertexByLabelAndProperty(_ context.Context, label, key, value string) (*Vertex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v := m.findByLabelAndProperty(label, key, value)
	if v == nil {
		return nil, ErrNotFound
	}
	out := *v
	out.Properties = cloneProps(v.Properties)
	return &out, nil
}

func (m *MemoryRepo) GetVertexIDByLabelAndProperty(_ context.Context, label, key, value string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v := m.findByLabelAndProperty(label, key, value)
	if v == nil {
		return "", false, nil
	}
	return v.ID, true, nil
}

func (m *MemoryRepo) AddEdge(_ context.Context, label, outID, inID string, props map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vertices[outID]; !ok {
		return ErrNotFound
	}
	if _, ok := m.vertices[inID]; !ok {
		return ErrNotFound
	}
	m.edges = append(m.edges, memEdge{Label: label, Out: outID, In: inID, Props: cloneProps(props)})
	return nil
}

func (m *MemoryRepo) AddEdgeByProperty(_ context.Context, label string, outLabel, outKey, outValue string, inLabel, inKey, inValue string, props map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.findByLabelAndProperty(outLabel, outKey, outValue)
	in := m.findByLabelAndProperty(inLabel, inKey, inValue)
	if out == nil || in == nil {
		return ErrNotFound
	}
	m.edges = append(m.edges, memEdge{Label: label, Out: out.ID, In: in.ID, Props: cloneProps(props)})
	return nil
}

// EdgeExists proves existence by count, matching the property-graph
// contract that a backend edge id is never relied upon.
func (m *MemoryRepo) EdgeExists(_ context.Context, label, outID, inID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.edges {
		if e.Label == label && e.Out == outID && e.In == inID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryRepo) GetEdgesForVertex(_ context.Context, id string) ([]Neighbor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Neighbor
	for _, e := range m.edges {
		if e.Out == id {
			out = append(out, Neighbor{Direction: DirOut, Label: e.Label, VertexID: e.In, Properties: cloneProps(e.Props)})
		}
		if e.In == id {
			out = append(out, Neighbor{Direction: DirIn, Label: e.Label, VertexID: e.Out, Properties: cloneProps(e.Props)})
		}
	}
	return out, nil
}

func matchesFilters(v *Vertex, filters []Filter) bool {
	for _, f := range filters {
		pv, ok := v.Properties[f.Key]
		if !ok || propString(pv) != f.Value {
			return false
		}
	}
	return true
}

func (m *MemoryRepo) GetVerticesByLabel(_ context.Context, label string, filters []Filter, limit, offset int) ([]*Vertex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*Vertex
	for _, v := range m.vertices {
		if v.Label == label && matchesFilters(v, filters) {
			out := *v
			out.Properties = cloneProps(v.Properties)
			matched = append(matched, &out)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	if offset > len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MemoryRepo) CountVerticesByLabel(_ context.Context, label string, filters []Filter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, v := range m.vertices {
		if v.Label == label && matchesFilters(v, filters) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepo) neighbors(id, edgeLabel string, dir Direction, limit int) ([]*Vertex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Vertex
	for _, e := range m.edges {
		if edgeLabel != "" && e.Label != edgeLabel {
			continue
		}
		var otherID string
		if dir == DirOut && e.Out == id {
			otherID = e.In
		} else if dir == DirIn && e.In == id {
			otherID = e.Out
		} else {
			continue
		}
		if v, ok := m.vertices[otherID]; ok {
			cp := *v
			cp.Properties = cloneProps(v.Properties)
			out = append(out, &cp)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryRepo) GetOutNeighbors(_ context.Context, id string, edgeLabel string, limit int) ([]*Vertex, error) {
	return m.neighbors(id, edgeLabel, DirOut, limit)
}

func (m *MemoryRepo) GetInNeighbors(_ context.Context, id string, edgeLabel string, limit int) ([]*Vertex, error) {
	return m.neighbors(id, edgeLabel, DirIn, limit)
}

// Traverse walks inbound edges from id: reference edges point from the
// referencing resource to the resource they reference (spec §4.5), so
// gathering everything that (transitively) points at id -- the compartment
// walk $everything needs -- means following edges in the "in" direction.
func (m *MemoryRepo) Traverse(ctx context.Context, id string, maxHops int, edgeLabel string, limit int) ([]*Vertex, error) {
	seen := map[string]bool{id: true}
	frontier := []string{id}
	var result []*Vertex
	for hop := 0; hop < maxHops && (limit <= 0 || len(result) < limit); hop++ {
		var next []string
		for _, cur := range frontier {
			outs, _ := m.neighbors(cur, edgeLabel, DirIn, 0)
			for _, v := range outs {
				if !seen[v.ID] {
					seen[v.ID] = true
					result = append(result, v)
					next = append(next, v.ID)
					if limit > 0 && len(result) >= limit {
						break
					}
				}
			}
			if limit > 0 && len(result) >= limit {
				break
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return result, nil
}

// --- versioning primitives ---

func (m *MemoryRepo) versionsFor(label, fhirID string) []*Vertex {
	var out []*Vertex
	for _, v := range m.vertices {
		if v.Label != label {
			continue
		}
		if propString(v.Properties["fhirId"]) == fhirID {
			out = append(out, v)
		}
	}
	return out
}

func (m *MemoryRepo) GetCurrentVersion(_ context.Context, label, fhirID string) (*Vertex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.versionsFor(label, fhirID) {
		if b, _ := v.Properties["isCurrent"].(bool); b {
			out := *v
			out.Properties = cloneProps(v.Properties)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) GetVersion(_ context.Context, label, fhirID string, versionID int) (*Vertex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.versionsFor(label, fhirID) {
		if vid, ok := v.Properties["versionId"].(int); ok && vid == versionID {
			out := *v
			out.Properties = cloneProps(v.Properties)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func versionSortDesc(vs []*Vertex) {
	sort.Slice(vs, func(i, j int) bool {
		vi, _ := vs[i].Properties["versionId"].(int)
		vj, _ := vs[j].Properties["versionId"].(int)
		return vi > vj
	})
}

func (m *MemoryRepo) GetVersionHistory(_ context.Context, label, fhirID string, limit int) ([]*Vertex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vs := m.versionsFor(label, fhirID)
	versionSortDesc(vs)
	if limit > 0 && limit < len(vs) {
		vs = vs[:limit]
	}
	out := make([]*Vertex, len(vs))
	for i, v := range vs {
		cp := *v
		cp.Properties = cloneProps(v.Properties)
		out[i] = &cp
	}
	return out, nil
}

func (m *MemoryRepo) GetTypeHistory(_ context.Context, label string, limit int) ([]*Vertex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var vs []*Vertex
	for _, v := range m.vertices {
		if v.Label == label {
			vs = append(vs, v)
		}
	}
	sort.Slice(vs, func(i, j int) bool {
		return propString(vs[i].Properties["lastUpdated"]) > propString(vs[j].Properties["lastUpdated"])
	})
	if limit > 0 && limit < len(vs) {
		vs = vs[:limit]
	}
	out := make([]*Vertex, len(vs))
	for i, v := range vs {
		cp := *v
		cp.Properties = cloneProps(v.Properties)
		out[i] = &cp
	}
	return out, nil
}

func (m *MemoryRepo) GetTypeHistorySince(_ context.Context, label string, since string, limit int) ([]*Vertex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var vs []*Vertex
	for _, v := range m.vertices {
		if v.Label == label && propString(v.Properties["lastUpdated"]) > since {
			vs = append(vs, v)
		}
	}
	sort.Slice(vs, func(i, j int) bool {
		return propString(vs[i].Properties["lastUpdated"]) > propString(vs[j].Properties["lastUpdated"])
	})
	if limit > 0 && limit < len(vs) {
		vs = vs[:limit]
	}
	out := make([]*Vertex, len(vs))
	for i, v := range vs {
		cp := *v
		cp.Properties = cloneProps(v.Properties)
		out[i] = &cp
	}
	return out, nil
}

func (m *MemoryRepo) GetNextVersionNumber(_ context.Context, label, fhirID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	max := 0
	for _, v := range m.versionsFor(label, fhirID) {
		if vid, ok := v.Properties["versionId"].(int); ok && vid > max {
			max = vid
		}
	}
	return max + 1, nil
}

func (m *MemoryRepo) MarkVersionNonCurrent(_ context.Context, label, fhirID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.versionsFor(label, fhirID) {
		if b, _ := v.Properties["isCurrent"].(bool); b {
			v.Properties["isCurrent"] = false
		}
	}
	return nil
}

func (m *MemoryRepo) CreateSupersedesEdge(ctx context.Context, newID, oldID string) error {
	return m.AddEdge(ctx, "supersedes", newID, oldID, nil)
}

func (m *MemoryRepo) CreateVersionedVertex(_ context.Context, label, fhirID string, props map[string]interface{}) (string, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, v := range m.versionsFor(label, fhirID) {
		if vid, ok := v.Properties["versionId"].(int); ok && vid > max {
			max = vid
		}
	}
	versionID := max + 1
	merged := cloneProps(props)
	merged["fhirId"] = fhirID
	merged["versionId"] = versionID
	if _, ok := merged["isCurrent"]; !ok {
		merged["isCurrent"] = true
	}
	v := &Vertex{ID: m.nextID(), Label: label, Properties: merged}
	m.vertices[v.ID] = v
	return v.ID, versionID, nil
}

func (m *MemoryRepo) CreateTombstone(_ context.Context, label, fhirID string) (string, int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.versionsFor(label, fhirID)
	if len(existing) == 0 {
		return "", 0, false, nil
	}
	max := 0
	for _, v := range existing {
		if b, _ := v.Properties["isCurrent"].(bool); b {
			v.Properties["isCurrent"] = false
		}
		if vid, ok := v.Properties["versionId"].(int); ok && vid > max {
			max = vid
		}
	}
	versionID := max + 1
	v := &Vertex{
		ID:    m.nextID(),
		Label: label,
		Properties: map[string]interface{}{
			"fhirId":    fhirID,
			"versionId": versionID,
			"isCurrent": true,
			"isDeleted": true,
		},
	}
	m.vertices[v.ID] = v
	return v.ID, versionID, true, nil
}

func (m *MemoryRepo) DeleteAllVersions(_ context.Context, label, fhirID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vs := m.versionsFor(label, fhirID)
	for _, v := range vs {
		delete(m.vertices, v.ID)
	}
	kept := m.edges[:0]
	ids := make(map[string]bool, len(vs))
	for _, v := range vs {
		ids[v.ID] = true
	}
	for _, e := range m.edges {
		if !ids[e.Out] && !ids[e.In] {
			kept = append(kept, e)
		}
	}
	m.edges = kept
	return int64(len(vs)), nil
}

func (m *MemoryRepo) DeleteVersion(_ context.Context, label, fhirID string, versionID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.versionsFor(label, fhirID) {
		if vid, ok := v.Properties["versionId"].(int); ok && vid == versionID {
			delete(m.vertices, v.ID)
			return true, nil
		}
	}
	return false, nil
}

var _ Repo = (*MemoryRepo)(nil)
