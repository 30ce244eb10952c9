// Package facade assembles the HTTP-shaped results the outer server
// returns: it is the only layer that knows about status codes, ETags,
// Location headers, and the CapabilityStatement/searchset envelope.
package facade

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/fhirgraph/internal/fhir/bundle"
	"github.com/ehr/fhirgraph/internal/fhir/conditional"
	"github.com/ehr/fhirgraph/internal/fhir/jsonpatch"
	"github.com/ehr/fhirgraph/internal/fhir/outcome"
	"github.com/ehr/fhirgraph/internal/fhir/validator"
	"github.com/ehr/fhirgraph/internal/fhir/versioning"
	"github.com/ehr/fhirgraph/internal/graph"
)

// OperationResult is the response shape for internal/graph-facing endpoints
// (wipe, stats) that carry no FHIR resource semantics.
type OperationResult struct {
	Success bool
	Status  int
	Body    interface{}
}

// FhirOperationResult is the response shape for FHIR resource endpoints.
type FhirOperationResult struct {
	Success      bool
	Status       int
	Body         interface{}
	Location     string
	ETag         string
	LastModified string
}

// Config carries the small set of values the Facade needs to render
// headers and the CapabilityStatement without owning transport concerns.
type Config struct {
	BaseURL     string
	FhirVersion string
}

// Facade is the single entry point the HTTP shell calls into.
type Facade struct {
	repo        graph.Repo
	validator   *validator.Validator
	versioning  *versioning.Versioning
	conditional *conditional.Dispatcher
	bundle      *bundle.Processor
	cfg         Config
}

func New(repo graph.Repo, v *validator.Validator, ver *versioning.Versioning, c *conditional.Dispatcher, b *bundle.Processor, cfg Config) *Facade {
	return &Facade{repo: repo, validator: v, versioning: ver, conditional: c, bundle: b, cfg: cfg}
}

func weakETag(v string) string { return fmt.Sprintf(`W/"%s"`, v) }

func location(baseURL, resourceType, fhirID string) string {
	return fmt.Sprintf("%s/%s/%s", baseURL, resourceType, fhirID)
}

func lastModified(rfc3339 string) string {
	t, err := time.Parse(time.RFC3339, rfc3339)
	if err != nil {
		return rfc3339
	}
	return t.Format(time.RFC1123)
}

// Read handles GET {type}/{id}. A non-empty ifNoneMatch is compared against
// the current version's ETag: a match short-circuits to 304 with no body,
// per the conditional-read status row in the status-code contract.
func (f *Facade) Read(ctx context.Context, resourceType, id, ifNoneMatch string) *FhirOperationResult {
	ver, err := f.versioning.GetCurrent(ctx, resourceType, id)
	if err != nil {
		return f.errorResult(err)
	}
	etag := weakETag(fmt.Sprintf("%d", ver.VersionID))
	if etagsMatch(ifNoneMatch, etag) {
		return &FhirOperationResult{
			Success:      true,
			Status:       304,
			ETag:         etag,
			LastModified: lastModified(ver.LastUpdated),
		}
	}
	var doc interface{}
	json.Unmarshal([]byte(ver.JSON), &doc)
	return &FhirOperationResult{
		Success:      true,
		Status:       200,
		Body:         doc,
		ETag:         etag,
		LastModified: lastModified(ver.LastUpdated),
	}
}

// etagsMatch reports whether a client-supplied If-None-Match value matches
// the server's current ETag. A bare "*" always matches, per RFC 7232 §3.2.
func etagsMatch(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	if strings.TrimSpace(ifNoneMatch) == "*" {
		return true
	}
	return strings.TrimSpace(ifNoneMatch) == etag
}

// VRead handles GET {type}/{id}/_history/{vid}.
func (f *Facade) VRead(ctx context.Context, resourceType, id string, versionID int) *FhirOperationResult {
	ver, err := f.versioning.GetVersion(ctx, resourceType, id, versionID)
	if err != nil {
		return f.errorResult(err)
	}
	var doc interface{}
	json.Unmarshal([]byte(ver.JSON), &doc)
	return &FhirOperationResult{
		Success:      true,
		Status:       200,
		Body:         doc,
		ETag:         weakETag(fmt.Sprintf("%d", ver.VersionID)),
		LastModified: lastModified(ver.LastUpdated),
	}
}

// Create handles POST {type}.
func (f *Facade) Create(ctx context.Context, resourceType, resourceJSON string, ifNoneExist []graph.Filter) *FhirOperationResult {
	if len(ifNoneExist) > 0 {
		res, err := f.conditional.ConditionalCreate(ctx, resourceType, resourceJSON, ifNoneExist, true, true)
		if err != nil {
			return f.errorResult(err)
		}
		if !res.Created {
			return &FhirOperationResult{Success: true, Status: 200, Location: location(f.cfg.BaseURL, resourceType, res.FhirID)}
		}
		return f.createdResult(ctx, resourceType, res.FhirID)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(resourceJSON), &doc); err != nil {
		return f.errorResult(outcome.ValidationFailure("invalid JSON: %v", err))
	}
	fhirID, _ := doc["id"].(string)
	if fhirID == "" {
		fhirID = uuid.New().String()
		doc["id"] = fhirID
		if out, merr := json.Marshal(doc); merr == nil {
			resourceJSON = string(out)
		}
	}
	return f.versionedCreated(ctx, resourceType, fhirID, resourceJSON)
}

func (f *Facade) versionedCreated(ctx context.Context, resourceType, fhirID, resourceJSON string) *FhirOperationResult {
	ver, err := f.versioning.CreateVersioned(ctx, resourceType, fhirID, resourceJSON, true, true)
	if err != nil {
		return f.errorResult(err)
	}
	var doc interface{}
	json.Unmarshal([]byte(resourceJSON), &doc)
	return &FhirOperationResult{
		Success:      true,
		Status:       201,
		Body:         doc,
		Location:     location(f.cfg.BaseURL, resourceType, ver.FhirID),
		ETag:         weakETag(fmt.Sprintf("%d", ver.VersionID)),
		LastModified: lastModified(ver.LastUpdated),
	}
}

// createdResult builds a 201 response for a resource a conditional dispatch
// has already persisted, reading back the version it just wrote instead of
// invoking CreateVersioned a second time.
func (f *Facade) createdResult(ctx context.Context, resourceType, fhirID string) *FhirOperationResult {
	ver, err := f.versioning.GetCurrent(ctx, resourceType, fhirID)
	if err != nil {
		return f.errorResult(err)
	}
	var doc interface{}
	json.Unmarshal([]byte(ver.JSON), &doc)
	return &FhirOperationResult{
		Success:      true,
		Status:       201,
		Body:         doc,
		Location:     location(f.cfg.BaseURL, resourceType, ver.FhirID),
		ETag:         weakETag(fmt.Sprintf("%d", ver.VersionID)),
		LastModified: lastModified(ver.LastUpdated),
	}
}

// Update handles PUT {type}/{id}, honoring an optional If-Match ETag. A
// resource that does not yet exist has no current ETag to compare against,
// so If-Match is ignored and the update proceeds as an ordinary create.
func (f *Facade) Update(ctx context.Context, resourceType, id, resourceJSON, ifMatch string) *FhirOperationResult {
	if ifMatch != "" {
		current, err := f.versioning.GetCurrent(ctx, resourceType, id)
		if err != nil {
			if fe, ok := err.(*outcome.Error); !ok || fe.Kind != outcome.KindNotFound {
				return f.errorResult(err)
			}
		} else if weakETag(fmt.Sprintf("%d", current.VersionID)) != ifMatch {
			return f.errorResult(outcome.PreconditionFailed("If-Match %s does not match current version", ifMatch))
		}
	}
	return f.versionedCreated(ctx, resourceType, id, resourceJSON)
}

// ConditionalUpdate handles PUT {type}?<search> against a search-parameter
// condition in place of an explicit id, per the conditional table's update row.
func (f *Facade) ConditionalUpdate(ctx context.Context, resourceType, resourceJSON string, filters []graph.Filter) *FhirOperationResult {
	if len(filters) == 0 {
		return f.errorResult(outcome.ValidationFailure("conditional update requires at least one search criterion"))
	}
	res, err := f.conditional.ConditionalUpdate(ctx, resourceType, resourceJSON, filters, true, true)
	if err != nil {
		return f.errorResult(err)
	}
	return f.createdResult(ctx, resourceType, res.FhirID)
}

// Delete handles DELETE {type}/{id} via the versioned tombstone path.
func (f *Facade) Delete(ctx context.Context, resourceType, id string) *FhirOperationResult {
	ver, err := f.versioning.Tombstone(ctx, resourceType, id)
	if err != nil {
		return f.errorResult(err)
	}
	return &FhirOperationResult{Success: true, Status: 204, ETag: weakETag(fmt.Sprintf("%d", ver.VersionID))}
}

// ConditionalDelete handles DELETE {type}?<search>, single-match only
// per the CapabilityStatement's conditionalDelete="single".
func (f *Facade) ConditionalDelete(ctx context.Context, resourceType string, filters []graph.Filter) *FhirOperationResult {
	n, err := f.conditional.ConditionalDelete(ctx, resourceType, filters, false)
	if err != nil {
		return f.errorResult(err)
	}
	if n == 0 {
		return f.errorResult(outcome.NotFound(resourceType, ""))
	}
	return &FhirOperationResult{Success: true, Status: 204}
}

// Patch handles PATCH {type}/{id}.
func (f *Facade) Patch(ctx context.Context, resourceType, id string, ops []jsonpatch.Operation) *FhirOperationResult {
	current, err := f.versioning.GetCurrent(ctx, resourceType, id)
	if err != nil {
		return f.errorResult(err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(current.JSON), &doc); err != nil {
		return f.errorResult(outcome.BackendFailure(err))
	}
	patched, perr := jsonpatch.Apply(doc, ops)
	if perr != nil {
		return f.errorResult(outcome.Unprocessable("%v", perr))
	}
	patchedJSON, merr := json.Marshal(patched)
	if merr != nil {
		return f.errorResult(outcome.Unprocessable("%v", merr))
	}
	return f.versionedCreated(ctx, resourceType, id, string(patchedJSON))
}

// ConditionalPatch handles PATCH {type}?<search> against a search-parameter
// condition in place of an explicit id.
func (f *Facade) ConditionalPatch(ctx context.Context, resourceType string, filters []graph.Filter, ops []jsonpatch.Operation) *FhirOperationResult {
	if len(filters) == 0 {
		return f.errorResult(outcome.ValidationFailure("conditional patch requires at least one search criterion"))
	}
	res, err := f.conditional.ConditionalPatch(ctx, resourceType, filters, ops)
	if err != nil {
		return f.errorResult(err)
	}
	return f.createdResult(ctx, resourceType, res.FhirID)
}

// InstanceHistory handles GET {type}/{id}/_history.
func (f *Facade) InstanceHistory(ctx context.Context, resourceType, id string, limit int) *FhirOperationResult {
	versions, err := f.versioning.InstanceHistory(ctx, resourceType, id, limit)
	if err != nil {
		return f.errorResult(err)
	}
	return f.historyBundle(versions)
}

// TypeHistory handles GET {type}/_history.
func (f *Facade) TypeHistory(ctx context.Context, resourceType string, limit int, since string) *FhirOperationResult {
	var versions []*versioning.Versioned
	var err error
	if since != "" {
		versions, err = f.versioning.TypeHistorySince(ctx, resourceType, since, limit)
	} else {
		versions, err = f.versioning.TypeHistory(ctx, resourceType, limit)
	}
	if err != nil {
		return f.errorResult(err)
	}
	return f.historyBundle(versions)
}

// SystemHistory handles GET /_history.
func (f *Facade) SystemHistory(ctx context.Context, limit int, since string) *FhirOperationResult {
	versions, err := f.versioning.SystemHistory(ctx, limit, since)
	if err != nil {
		return f.errorResult(err)
	}
	return f.historyBundle(versions)
}

func (f *Facade) historyBundle(versions []*versioning.Versioned) *FhirOperationResult {
	entries := make([]map[string]interface{}, 0, len(versions))
	for _, v := range versions {
		if v.IsDeleted {
			entries = append(entries, map[string]interface{}{
				"request": map[string]interface{}{"method": "DELETE"},
			})
			continue
		}
		var doc interface{}
		if v.JSON != "" {
			json.Unmarshal([]byte(v.JSON), &doc)
		}
		entries = append(entries, map[string]interface{}{
			"resource": doc,
			"request":  map[string]interface{}{"method": "PUT"},
		})
	}
	body := map[string]interface{}{
		"resourceType": "Bundle",
		"type":         "history",
		"total":        len(entries),
		"entry":        entries,
	}
	return &FhirOperationResult{Success: true, Status: 200, Body: body}
}

// Search handles GET {type}?params.
func (f *Facade) Search(ctx context.Context, resourceType string, filters []graph.Filter, limit, offset int, selfURL string) *FhirOperationResult {
	results, total, err := f.versioning.Search(ctx, resourceType, filters, limit, offset)
	if err != nil {
		return f.errorResult(err)
	}
	return &FhirOperationResult{Success: true, Status: 200, Body: searchsetBundle(resourceType, results, total, selfURL)}
}

// SearchSystem handles GET /_search across every supported type.
func (f *Facade) SearchSystem(ctx context.Context, filters []graph.Filter, limit int, selfURL string) *FhirOperationResult {
	results, total, err := f.versioning.SearchAllTypes(ctx, nil, filters, limit)
	if err != nil {
		return f.errorResult(err)
	}
	return &FhirOperationResult{Success: true, Status: 200, Body: searchsetBundle("", results, total, selfURL)}
}

func searchsetBundle(resourceType string, results []*versioning.Versioned, total int64, selfURL string) map[string]interface{} {
	entries := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		var doc interface{}
		json.Unmarshal([]byte(r.JSON), &doc)
		rt := resourceType
		if rt == "" {
			if d, ok := doc.(map[string]interface{}); ok {
				rt, _ = d["resourceType"].(string)
			}
		}
		entries = append(entries, map[string]interface{}{
			"fullUrl":  fmt.Sprintf("%s/%s", rt, r.FhirID),
			"resource": doc,
			"search":   map[string]interface{}{"mode": "match"},
		})
	}
	links := []map[string]string{}
	if selfURL != "" {
		links = append(links, map[string]string{"relation": "self", "url": selfURL})
	}
	return map[string]interface{}{
		"resourceType": "Bundle",
		"type":         "searchset",
		"total":        total,
		"link":         links,
		"entry":        entries,
	}
}

// Everything handles GET Patient/{id}/$everything.
func (f *Facade) Everything(ctx context.Context, patientID string, limit int, selfURL string) *FhirOperationResult {
	patientVertex, err := f.repo.GetCurrentVersion(ctx, "Patient", patientID)
	if err != nil {
		return f.errorResult(err)
	}
	neighbors, terr := f.repo.Traverse(ctx, patientVertex.ID, 3, "", limit)
	if terr != nil {
		return f.errorResult(outcome.BackendFailure(terr))
	}

	entries := make([]map[string]interface{}, 0, len(neighbors)+1)
	entries = append(entries, resultEntry(patientVertex))
	for _, n := range neighbors {
		if placeholder, _ := n.Properties["isPlaceholder"].(bool); placeholder {
			continue
		}
		entries = append(entries, resultEntry(n))
	}

	body := map[string]interface{}{
		"resourceType": "Bundle",
		"type":         "searchset",
		"total":        len(entries),
		"link":         []map[string]string{{"relation": "self", "url": selfURL}},
		"entry":        entries,
	}
	return &FhirOperationResult{Success: true, Status: 200, Body: body}
}

func resultEntry(v *graph.Vertex) map[string]interface{} {
	var doc interface{}
	if body, ok := v.Properties["json"].(string); ok {
		json.Unmarshal([]byte(body), &doc)
	}
	return map[string]interface{}{"resource": doc, "search": map[string]interface{}{"mode": "match"}}
}

// Validate implements $validate: it never persists.
func (f *Facade) Validate(resourceJSON string) *FhirOperationResult {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(resourceJSON), &doc); err != nil {
		return &FhirOperationResult{Success: true, Status: 400, Body: outcome.FromError(outcome.ValidationFailure("invalid JSON: %v", err))}
	}
	ok, verr := f.validator.Validate(doc)
	if !ok {
		return &FhirOperationResult{Success: true, Status: 422, Body: outcome.FromError(outcome.ValidationFailure("%v", verr))}
	}
	return &FhirOperationResult{Success: true, Status: 200, Body: outcome.Info("resource is valid")}
}

// Batch runs a Bundle through the bundle processor.
func (f *Facade) Batch(ctx context.Context, bundleJSON string) *FhirOperationResult {
	result, err := f.bundle.Process(ctx, bundleJSON)
	if err != nil {
		return f.errorResult(err)
	}
	entries := make([]map[string]interface{}, 0, len(result.Entries))
	for _, e := range result.Entries {
		re := map[string]interface{}{
			"response": map[string]interface{}{"status": fmt.Sprintf("%d", e.Status)},
		}
		if e.Resource != nil {
			re["resource"] = e.Resource
		}
		if e.Outcome != nil {
			re["response"].(map[string]interface{})["outcome"] = e.Outcome
		}
		entries = append(entries, re)
	}
	return &FhirOperationResult{
		Success: true,
		Status:  200,
		Body: map[string]interface{}{
			"resourceType": "Bundle",
			"type":         result.Type,
			"entry":        entries,
		},
	}
}

// CapabilityStatement is assembled at call time from the loaded schema's
// supported types.
func (f *Facade) CapabilityStatement() *OperationResult {
	types := f.validator.ListSupportedTypes()
	resources := make([]map[string]interface{}, 0, len(types))
	for _, t := range types {
		resources = append(resources, map[string]interface{}{
			"type": t,
			"interaction": []map[string]string{
				{"code": "read"}, {"code": "vread"}, {"code": "update"}, {"code": "patch"},
				{"code": "delete"}, {"code": "history-instance"}, {"code": "history-type"},
				{"code": "create"}, {"code": "search-type"},
			},
			"conditionalCreate": true,
			"conditionalUpdate": true,
			"conditionalPatch":  true,
			"conditionalDelete": "single",
			"versioning":        "versioned",
			"readHistory":       true,
			"searchParam": []map[string]string{
				{"name": "_id", "type": "token"},
				{"name": "identifier", "type": "token"},
			},
		})
	}

	body := map[string]interface{}{
		"resourceType": "CapabilityStatement",
		"status":       "active",
		"kind":         "instance",
		"fhirVersion":  f.cfg.FhirVersion,
		"format":       []string{"application/fhir+json", "application/json"},
		"patchFormat":  []string{"application/json-patch+json"},
		"rest": []map[string]interface{}{
			{
				"mode": "server",
				"interaction": []map[string]string{
					{"code": "transaction"}, {"code": "batch"},
					{"code": "search-system"}, {"code": "history-system"},
				},
				"resource": resources,
				"operation": []map[string]string{
					{"name": "validate"},
				},
			},
		},
	}
	return &OperationResult{Success: true, Status: 200, Body: body}
}

// Wipe drops the entire graph. This is an internal/graph-facing operation,
// not a FHIR one, hence the plain OperationResult.
func (f *Facade) Wipe(ctx context.Context) *OperationResult {
	n, err := f.repo.DropAll(ctx)
	if err != nil {
		return &OperationResult{Success: false, Status: 500, Body: outcome.FromError(outcome.BackendFailure(err))}
	}
	return &OperationResult{Success: true, Status: 200, Body: map[string]interface{}{"deleted": n}}
}

// Stats reports the total vertex count.
func (f *Facade) Stats(ctx context.Context) *OperationResult {
	n, err := f.repo.CountVertices(ctx)
	if err != nil {
		return &OperationResult{Success: false, Status: 500, Body: outcome.FromError(outcome.BackendFailure(err))}
	}
	return &OperationResult{Success: true, Status: 200, Body: map[string]interface{}{"vertexCount": n}}
}

func (f *Facade) errorResult(err error) *FhirOperationResult {
	status := 500
	if fe, ok := err.(*outcome.Error); ok {
		switch fe.Kind {
		case outcome.KindValidationFailure:
			status = 400
		case outcome.KindNotFound:
			status = 404
		case outcome.KindGone:
			status = 410
		case outcome.KindPreconditionFailed, outcome.KindMultipleMatches:
			status = 412
		case outcome.KindConflict:
			status = 409
		case outcome.KindUnprocessable:
			status = 422
		case outcome.KindNotImplemented:
			status = 501
		default:
			status = 500
		}
	}
	return &FhirOperationResult{Success: false, Status: status, Body: outcome.FromError(err)}
}
