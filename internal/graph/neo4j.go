package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jRepo is the production Repo backend. It speaks Cypher over the
// bolt protocol and never surfaces a neo4j.ElementId to callers: every
// vertex handed back across the Repo boundary carries the driver's
// internal element id as an opaque string, and edges are proven to
// exist by MATCH ... RETURN count(*) rather than by an edge id lookup,
// matching the contract in graph.go.
type Neo4jRepo struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewNeo4jRepo(driver neo4j.DriverWithContext, database string) *Neo4jRepo {
	return &Neo4jRepo{driver: driver, database: database}
}

func (r *Neo4jRepo) session(ctx context.Context) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.database})
}

func toVertex(node neo4j.Node) *Vertex {
	label := ""
	if len(node.Labels) > 0 {
		label = node.Labels[0]
	}
	return &Vertex{
		ID:         node.ElementId,
		Label:      label,
		Properties: node.Props,
	}
}

func singleVertex(res neo4j.ResultWithContext, ctx context.Context, key string) (*Vertex, error) {
	record, err := res.Single(ctx)
	if err != nil {
		return nil, ErrNotFound
	}
	raw, ok := record.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	node, ok := raw.(neo4j.Node)
	if !ok {
		return nil, fmt.Errorf("graph: expected node result for key %q", key)
	}
	return toVertex(node), nil
}

func (r *Neo4jRepo) AddVertex(ctx context.Context, label string, props map[string]interface{}) (*Vertex, error) {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	res, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		cypher := fmt.Sprintf("CREATE (n:%s $props) RETURN n", cypherLabel(label))
		result, err := tx.Run(ctx, cypher, map[string]interface{}{"props": props})
		if err != nil {
			return nil, err
		}
		return singleVertex(result, ctx, "n")
	})
	if err != nil {
		return nil, wrapErr("AddVertex", err)
	}
	return res.(*Vertex), nil
}

func (r *Neo4jRepo) AddVertexAndReturnID(ctx context.Context, label string, props map[string]interface{}) (string, error) {
	v, err := r.AddVertex(ctx, label, props)
	if err != nil {
		return "", err
	}
	return v.ID, nil
}

func (r *Neo4jRepo) GetVertexByID(ctx context.Context, id string) (*Vertex, error) {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	res, err := sess.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, "MATCH (n) WHERE elementId(n) = $id RETURN n", map[string]interface{}{"id": id})
		if err != nil {
			return nil, err
		}
		return singleVertex(result, ctx, "n")
	})
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, wrapErr("GetVertexByID", err)
	}
	return res.(*Vertex), nil
}

func (r *Neo4jRepo) UpdateVertexProperties(ctx context.Context, id string, props map[string]interface{}) (bool, error) {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	res, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, "MATCH (n) WHERE elementId(n) = $id SET n += $props RETURN count(n) AS c",
			map[string]interface{}{"id": id, "props": props})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return int64(0), nil
		}
		c, _ := record.Get("c")
		return c.(int64), nil
	})
	if err != nil {
		return false, wrapErr("UpdateVertexProperties", err)
	}
	return res.(int64) > 0, nil
}

func (r *Neo4jRepo) DeleteVertex(ctx context.Context, id string) (bool, error) {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	res, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, "MATCH (n) WHERE elementId(n) = $id DETACH DELETE n RETURN count(n) AS c",
			map[string]interface{}{"id": id})
		if err != nil {
			return nil, err
		}
		summary, err := result.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return summary.Counters().NodesDeleted(), nil
	})
	if err != nil {
		return false, wrapErr("DeleteVertex", err)
	}
	return res.(int) > 0, nil
}

func (r *Neo4jRepo) CountVertices(ctx context.Context) (int64, error) {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	res, err := sess.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, "MATCH (n) RETURN count(n) AS c", nil)
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		c, _ := record.Get("c")
		return c.(int64), nil
	})
	if err != nil {
		return 0, wrapErr("CountVertices", err)
	}
	return res.(int64), nil
}

// DropAll is a destructive maintenance operation intended for the CLI's
// "graph wipe" subcommand and integration test fixtures, never for
// runtime request handling.
func (r *Neo4jRepo) DropAll(ctx context.Context) (int64, error) {
	before, err := r.CountVertices(ctx)
	if err != nil {
		return 0, err
	}
	sess := r.session(ctx)
	defer sess.Close(ctx)

	_, err = sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		return tx.Run(ctx, "MATCH (n) DETACH DELETE n", nil)
	})
	if err != nil {
		return 0, wrapErr("DropAll", err)
	}
	return before, nil
}

func (r *Neo4jRepo) UpsertVertexByProperty(ctx context.Context, label, key, value string, props map[string]interface{}) (*Vertex, error) {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	res, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		cypher := fmt.Sprintf("MERGE (n:%s {%s: $value}) SET n += $props RETURN n", cypherLabel(label), cypherProp(key))
		result, err := tx.Run(ctx, cypher, map[string]interface{}{"value": value, "props": props})
		if err != nil {
			return nil, err
		}
		return singleVertex(result, ctx, "n")
	})
	if err != nil {
		return nil, wrapErr("UpsertVertexByProperty", err)
	}
	return res.(*Vertex), nil
}

func (r *Neo4jRepo) GetVertexByLabelAndProperty(ctx context.Context, label, key, value string) (*Vertex, error) {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	res, err := sess.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		cypher := fmt.Sprintf("MATCH (n:%s {%s: $value}) RETURN n LIMIT 1", cypherLabel(label), cypherProp(key))
		result, err := tx.Run(ctx, cypher, map[string]interface{}{"value": value})
		if err != nil {
			return nil, err
		}
		return singleVertex(result, ctx, "n")
	})
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, wrapErr("GetVertexByLabelAndProperty", err)
	}
	return res.(*Vertex), nil
}

func (r *Neo4jRepo) GetVertexIDByLabelAndProperty(ctx context.Context, label, key, value string) (string, bool, error) {
	v, err := r.GetVertexByLabelAndProperty(ctx, label, key, value)
	if err == ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v.ID, true, nil
}

func (r *Neo4jRepo) AddEdge(ctx context.Context, label, outID, inID string, props map[string]interface{}) error {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	_, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		cypher := fmt.Sprintf(`MATCH (o), (i) WHERE elementId(o) = $out AND elementId(i) = $in
CREATE (o)-[e:%s $props]->(i) RETURN e`, cypherLabel(label))
		return tx.Run(ctx, cypher, map[string]interface{}{"out": outID, "in": inID, "props": props})
	})
	if err != nil {
		return wrapErr("AddEdge", err)
	}
	return nil
}

func (r *Neo4jRepo) AddEdgeByProperty(ctx context.Context, label string, outLabel, outKey, outValue string, inLabel, inKey, inValue string, props map[string]interface{}) error {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	_, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		cypher := fmt.Sprintf(`MATCH (o:%s {%s: $outValue}), (i:%s {%s: $inValue})
CREATE (o)-[e:%s $props]->(i) RETURN e`,
			cypherLabel(outLabel), cypherProp(outKey), cypherLabel(inLabel), cypherProp(inKey), cypherLabel(label))
		return tx.Run(ctx, cypher, map[string]interface{}{"outValue": outValue, "inValue": inValue, "props": props})
	})
	if err != nil {
		return wrapErr("AddEdgeByProperty", err)
	}
	return nil
}

// EdgeExists proves existence purely by count: the backend's relationship
// id is never inspected, so this works identically whether the driver
// hands back an ElementId string or an integer id.
func (r *Neo4jRepo) EdgeExists(ctx context.Context, label, outID, inID string) (bool, error) {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	res, err := sess.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		cypher := fmt.Sprintf(`MATCH (o)-[e:%s]->(i) WHERE elementId(o) = $out AND elementId(i) = $in RETURN count(e) AS c`, cypherLabel(label))
		result, err := tx.Run(ctx, cypher, map[string]interface{}{"out": outID, "in": inID})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		c, _ := record.Get("c")
		return c.(int64), nil
	})
	if err != nil {
		return false, wrapErr("EdgeExists", err)
	}
	return res.(int64) > 0, nil
}

func (r *Neo4jRepo) GetEdgesForVertex(ctx context.Context, id string) ([]Neighbor, error) {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	res, err := sess.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, `MATCH (n)-[e]-(other) WHERE elementId(n) = $id
RETURN type(e) AS label, e AS edge, other AS other, startNode(e) = n AS isOut`,
			map[string]interface{}{"id": id})
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]Neighbor, 0, len(records))
		for _, rec := range records {
			label, _ := rec.Get("label")
			edgeRaw, _ := rec.Get("edge")
			otherRaw, _ := rec.Get("other")
			isOutRaw, _ := rec.Get("isOut")
			edge, _ := edgeRaw.(neo4j.Relationship)
			other, _ := otherRaw.(neo4j.Node)
			isOut, _ := isOutRaw.(bool)
			dir := DirIn
			if isOut {
				dir = DirOut
			}
			out = append(out, Neighbor{
				Direction:  dir,
				Label:      label.(string),
				VertexID:   other.ElementId,
				Properties: edge.Props,
			})
		}
		return out, nil
	})
	if err != nil {
		return nil, wrapErr("GetEdgesForVertex", err)
	}
	return res.([]Neighbor), nil
}

func (r *Neo4jRepo) collectVertices(ctx context.Context, cypher string, params map[string]interface{}, key string) ([]*Vertex, error) {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	res, err := sess.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]*Vertex, 0, len(records))
		for _, rec := range records {
			raw, ok := rec.Get(key)
			if !ok {
				continue
			}
			node, ok := raw.(neo4j.Node)
			if !ok {
				continue
			}
			out = append(out, toVertex(node))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]*Vertex), nil
}

func (r *Neo4jRepo) GetVerticesByLabel(ctx context.Context, label string, filters []Filter, limit, offset int) ([]*Vertex, error) {
	where, params := buildFilterClause("n", filters)
	cypher := fmt.Sprintf("MATCH (n:%s)%s RETURN n SKIP $offset LIMIT $limit", cypherLabel(label), where)
	params["offset"] = offset
	if limit <= 0 {
		limit = 1000
	}
	params["limit"] = limit
	vs, err := r.collectVertices(ctx, cypher, params, "n")
	if err != nil {
		return nil, wrapErr("GetVerticesByLabel", err)
	}
	return vs, nil
}

func (r *Neo4jRepo) CountVerticesByLabel(ctx context.Context, label string, filters []Filter) (int64, error) {
	where, params := buildFilterClause("n", filters)
	sess := r.session(ctx)
	defer sess.Close(ctx)

	cypher := fmt.Sprintf("MATCH (n:%s)%s RETURN count(n) AS c", cypherLabel(label), where)
	res, err := sess.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		c, _ := record.Get("c")
		return c.(int64), nil
	})
	if err != nil {
		return 0, wrapErr("CountVerticesByLabel", err)
	}
	return res.(int64), nil
}

// relType renders a relationship-type filter for a Cypher pattern. An
// empty edgeLabel means "any relationship type", which Cypher expresses
// by omitting the type filter entirely rather than naming an empty one.
func relType(edgeLabel string) string {
	if edgeLabel == "" {
		return ""
	}
	return ":" + cypherLabel(edgeLabel)
}

func (r *Neo4jRepo) GetOutNeighbors(ctx context.Context, id string, edgeLabel string, limit int) ([]*Vertex, error) {
	if limit <= 0 {
		limit = 1000
	}
	cypher := fmt.Sprintf("MATCH (n)-[%s]->(m) WHERE elementId(n) = $id RETURN m LIMIT $limit", relType(edgeLabel))
	vs, err := r.collectVertices(ctx, cypher, map[string]interface{}{"id": id, "limit": limit}, "m")
	if err != nil {
		return nil, wrapErr("GetOutNeighbors", err)
	}
	return vs, nil
}

func (r *Neo4jRepo) GetInNeighbors(ctx context.Context, id string, edgeLabel string, limit int) ([]*Vertex, error) {
	if limit <= 0 {
		limit = 1000
	}
	cypher := fmt.Sprintf("MATCH (n)<-[%s]-(m) WHERE elementId(n) = $id RETURN m LIMIT $limit", relType(edgeLabel))
	vs, err := r.collectVertices(ctx, cypher, map[string]interface{}{"id": id, "limit": limit}, "m")
	if err != nil {
		return nil, wrapErr("GetInNeighbors", err)
	}
	return vs, nil
}

// Traverse walks up to maxHops inbound edgeLabel hops from id, used by the
// compartment ($everything) search: reference edges point from the
// referencing resource to the resource they reference, so everything that
// (transitively) references id arrives via inbound edges. maxHops is
// bounded by the caller; Cypher variable-length patterns don't accept
// bound parameters for hop counts, so it is inlined here after validation.
func (r *Neo4jRepo) Traverse(ctx context.Context, id string, maxHops int, edgeLabel string, limit int) ([]*Vertex, error) {
	if maxHops <= 0 {
		maxHops = 1
	}
	if limit <= 0 {
		limit = 1000
	}
	cypher := fmt.Sprintf("MATCH (n)<-[%s*1..%d]-(m) WHERE elementId(n) = $id RETURN DISTINCT m LIMIT $limit",
		relType(edgeLabel), maxHops)
	vs, err := r.collectVertices(ctx, cypher, map[string]interface{}{"id": id, "limit": limit}, "m")
	if err != nil {
		return nil, wrapErr("Traverse", err)
	}
	return vs, nil
}

// --- versioning primitives ---

func (r *Neo4jRepo) GetCurrentVersion(ctx context.Context, label, fhirID string) (*Vertex, error) {
	sess := r.session(ctx)
	defer sess.Close(ctx)
	cypher := fmt.Sprintf("MATCH (n:%s {fhirId: $fhirId, isCurrent: true}) RETURN n LIMIT 1", cypherLabel(label))
	res, err := sess.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, cypher, map[string]interface{}{"fhirId": fhirID})
		if err != nil {
			return nil, err
		}
		return singleVertex(result, ctx, "n")
	})
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, wrapErr("GetCurrentVersion", err)
	}
	return res.(*Vertex), nil
}

func (r *Neo4jRepo) GetVersion(ctx context.Context, label, fhirID string, versionID int) (*Vertex, error) {
	sess := r.session(ctx)
	defer sess.Close(ctx)
	cypher := fmt.Sprintf("MATCH (n:%s {fhirId: $fhirId, versionId: $versionId}) RETURN n LIMIT 1", cypherLabel(label))
	res, err := sess.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, cypher, map[string]interface{}{"fhirId": fhirID, "versionId": versionID})
		if err != nil {
			return nil, err
		}
		return singleVertex(result, ctx, "n")
	})
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, wrapErr("GetVersion", err)
	}
	return res.(*Vertex), nil
}

func (r *Neo4jRepo) GetVersionHistory(ctx context.Context, label, fhirID string, limit int) ([]*Vertex, error) {
	if limit <= 0 {
		limit = 1000
	}
	cypher := fmt.Sprintf("MATCH (n:%s {fhirId: $fhirId}) RETURN n ORDER BY n.versionId DESC LIMIT $limit", cypherLabel(label))
	vs, err := r.collectVertices(ctx, cypher, map[string]interface{}{"fhirId": fhirID, "limit": limit}, "n")
	if err != nil {
		return nil, wrapErr("GetVersionHistory", err)
	}
	return vs, nil
}

func (r *Neo4jRepo) GetTypeHistory(ctx context.Context, label string, limit int) ([]*Vertex, error) {
	if limit <= 0 {
		limit = 1000
	}
	cypher := fmt.Sprintf("MATCH (n:%s) RETURN n ORDER BY n.lastUpdated DESC LIMIT $limit", cypherLabel(label))
	vs, err := r.collectVertices(ctx, cypher, map[string]interface{}{"limit": limit}, "n")
	if err != nil {
		return nil, wrapErr("GetTypeHistory", err)
	}
	return vs, nil
}

func (r *Neo4jRepo) GetTypeHistorySince(ctx context.Context, label string, since string, limit int) ([]*Vertex, error) {
	if limit <= 0 {
		limit = 1000
	}
	cypher := fmt.Sprintf("MATCH (n:%s) WHERE n.lastUpdated > $since RETURN n ORDER BY n.lastUpdated DESC LIMIT $limit", cypherLabel(label))
	vs, err := r.collectVertices(ctx, cypher, map[string]interface{}{"since": since, "limit": limit}, "n")
	if err != nil {
		return nil, wrapErr("GetTypeHistorySince", err)
	}
	return vs, nil
}

func (r *Neo4jRepo) GetNextVersionNumber(ctx context.Context, label, fhirID string) (int, error) {
	sess := r.session(ctx)
	defer sess.Close(ctx)
	cypher := fmt.Sprintf("MATCH (n:%s {fhirId: $fhirId}) RETURN coalesce(max(n.versionId), 0) AS m", cypherLabel(label))
	res, err := sess.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, cypher, map[string]interface{}{"fhirId": fhirID})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		m, _ := record.Get("m")
		return m.(int64), nil
	})
	if err != nil {
		return 0, wrapErr("GetNextVersionNumber", err)
	}
	return int(res.(int64)) + 1, nil
}

func (r *Neo4jRepo) MarkVersionNonCurrent(ctx context.Context, label, fhirID string) error {
	sess := r.session(ctx)
	defer sess.Close(ctx)
	cypher := fmt.Sprintf("MATCH (n:%s {fhirId: $fhirId, isCurrent: true}) SET n.isCurrent = false", cypherLabel(label))
	_, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		return tx.Run(ctx, cypher, map[string]interface{}{"fhirId": fhirID})
	})
	if err != nil {
		return wrapErr("MarkVersionNonCurrent", err)
	}
	return nil
}

func (r *Neo4jRepo) CreateSupersedesEdge(ctx context.Context, newID, oldID string) error {
	return r.AddEdge(ctx, "supersedes", newID, oldID, nil)
}

func (r *Neo4jRepo) CreateVersionedVertex(ctx context.Context, label, fhirID string, props map[string]interface{}) (string, int, error) {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	type result struct {
		id  string
		ver int
	}
	cypher := fmt.Sprintf(`MATCH (existing:%[1]s {fhirId: $fhirId})
WITH coalesce(max(existing.versionId), 0) + 1 AS nextVersion
CREATE (n:%[1]s $props)
SET n.fhirId = $fhirId, n.versionId = nextVersion, n.isCurrent = coalesce(n.isCurrent, true)
RETURN n, nextVersion`, cypherLabel(label))
	res, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		r, err := tx.Run(ctx, cypher, map[string]interface{}{"fhirId": fhirID, "props": props})
		if err != nil {
			return nil, err
		}
		record, err := r.Single(ctx)
		if err != nil {
			return nil, err
		}
		nRaw, _ := record.Get("n")
		verRaw, _ := record.Get("nextVersion")
		node := nRaw.(neo4j.Node)
		return result{id: node.ElementId, ver: int(verRaw.(int64))}, nil
	})
	if err != nil {
		return "", 0, wrapErr("CreateVersionedVertex", err)
	}
	rr := res.(result)
	return rr.id, rr.ver, nil
}

// CreateTombstone marks any existing current version non-current and
// writes a minimal deleted version vertex. It returns ok=false without
// writing anything when the resource never existed, matching the
// idempotent-delete semantics used by Versioning.Tombstone.
func (r *Neo4jRepo) CreateTombstone(ctx context.Context, label, fhirID string) (string, int, bool, error) {
	existing, err := r.GetVersionHistory(ctx, label, fhirID, 1)
	if err != nil {
		return "", 0, false, wrapErr("CreateTombstone", err)
	}
	if len(existing) == 0 {
		return "", 0, false, nil
	}
	if err := r.MarkVersionNonCurrent(ctx, label, fhirID); err != nil {
		return "", 0, false, err
	}
	id, ver, err := r.CreateVersionedVertex(ctx, label, fhirID, map[string]interface{}{"isDeleted": true})
	if err != nil {
		return "", 0, false, err
	}
	return id, ver, true, nil
}

func (r *Neo4jRepo) DeleteAllVersions(ctx context.Context, label, fhirID string) (int64, error) {
	sess := r.session(ctx)
	defer sess.Close(ctx)
	cypher := fmt.Sprintf("MATCH (n:%s {fhirId: $fhirId}) DETACH DELETE n", cypherLabel(label))
	res, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, cypher, map[string]interface{}{"fhirId": fhirID})
		if err != nil {
			return nil, err
		}
		summary, err := result.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return int64(summary.Counters().NodesDeleted()), nil
	})
	if err != nil {
		return 0, wrapErr("DeleteAllVersions", err)
	}
	return res.(int64), nil
}

func (r *Neo4jRepo) DeleteVersion(ctx context.Context, label, fhirID string, versionID int) (bool, error) {
	sess := r.session(ctx)
	defer sess.Close(ctx)
	cypher := fmt.Sprintf("MATCH (n:%s {fhirId: $fhirId, versionId: $versionId}) DETACH DELETE n", cypherLabel(label))
	res, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, cypher, map[string]interface{}{"fhirId": fhirID, "versionId": versionID})
		if err != nil {
			return nil, err
		}
		summary, err := result.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return summary.Counters().NodesDeleted() > 0, nil
	})
	if err != nil {
		return false, wrapErr("DeleteVersion", err)
	}
	return res.(bool), nil
}

// buildFilterClause turns Filter equality predicates into a Cypher WHERE
// clause. Only string-coerced equality is supported, matching the search
// contract in graph.go.
func buildFilterClause(alias string, filters []Filter) (string, map[string]interface{}) {
	if len(filters) == 0 {
		return "", map[string]interface{}{}
	}
	clauses := make([]string, 0, len(filters))
	params := make(map[string]interface{}, len(filters))
	for i, f := range filters {
		pname := fmt.Sprintf("f%d", i)
		clauses = append(clauses, fmt.Sprintf("toString(%s.%s) = $%s", alias, cypherProp(f.Key), pname))
		params[pname] = f.Value
	}
	return " WHERE " + strings.Join(clauses, " AND "), params
}

// cypherLabel and cypherProp validate identifiers against injection:
// labels, relationship types, and property keys cannot be parameterized
// in Cypher, so they are interpolated directly and must be restricted to
// a safe character set first.
func cypherLabel(label string) string {
	return sanitizeIdentifier(label)
}

func cypherProp(key string) string {
	return sanitizeIdentifier(key)
}

func sanitizeIdentifier(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == ':':
			b.WriteRune(c)
		}
	}
	return "`" + b.String() + "`"
}

var _ Repo = (*Neo4jRepo)(nil)
