package facade

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	fhirbundle "github.com/ehr/fhirgraph/internal/fhir/bundle"
	"github.com/ehr/fhirgraph/internal/fhir/conditional"
	"github.com/ehr/fhirgraph/internal/fhir/jsonpatch"
	"github.com/ehr/fhirgraph/internal/fhir/refmaterializer"
	"github.com/ehr/fhirgraph/internal/fhir/validator"
	"github.com/ehr/fhirgraph/internal/fhir/versioning"
	"github.com/ehr/fhirgraph/internal/graph"
)

const testSchema = `{
	"discriminator": {"propertyName": "resourceType", "mapping": {"Patient": "#/definitions/Patient", "Observation": "#/definitions/Observation"}},
	"definitions": {
		"Patient": {"type": "object", "required": ["resourceType"], "properties": {"resourceType": {"const": "Patient"}}},
		"Observation": {"type": "object", "required": ["resourceType"], "properties": {"resourceType": {"const": "Observation"}}}
	},
	"oneOf": [{"$ref": "#/definitions/Patient"}, {"$ref": "#/definitions/Observation"}]
}`

func newTestFacade(t *testing.T) *Facade {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fhir.schema.json")
	if err := os.WriteFile(path, []byte(testSchema), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	repo := graph.NewMemoryRepo()
	v := validator.New(path)
	mv := refmaterializer.NewVersioned(repo, zerolog.New(io.Discard))
	tick := 0
	now := func() string {
		tick++
		return "2026-08-06T00:00:0" + string(rune('0'+tick)) + "Z"
	}
	ver := versioning.New(repo, v, mv, now)
	cond := conditional.New(ver, v)
	bp := fhirbundle.New(ver)
	return New(repo, v, ver, cond, bp, Config{BaseURL: "http://localhost/api/fhir/r6", FhirVersion: "6.0.0-ballot3"})
}

func TestCreate_ThenRead(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()

	res := f.Create(ctx, "Patient", `{"resourceType":"Patient","id":"p1"}`, nil)
	if res.Status != 201 || res.Location == "" || res.ETag == "" {
		t.Fatalf("expected 201 with Location/ETag, got %+v", res)
	}

	read := f.Read(ctx, "Patient", "p1", "")
	if read.Status != 200 {
		t.Fatalf("expected 200 on read, got %+v", read)
	}
}

func TestRead_IfNoneMatchCurrentETagReturns304(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()
	created := f.Create(ctx, "Patient", `{"resourceType":"Patient","id":"p1"}`, nil)

	res := f.Read(ctx, "Patient", "p1", created.ETag)
	if res.Status != 304 {
		t.Fatalf("expected 304 for matching If-None-Match, got %+v", res)
	}
	if res.Body != nil {
		t.Errorf("expected no body on 304, got %+v", res.Body)
	}
}

func TestCreate_ConditionalZeroMatchesCreatesExactlyOneVersion(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()

	res := f.Create(ctx, "Patient", `{"resourceType":"Patient","id":"p1","identifier":"abc"}`,
		[]graph.Filter{{Key: "identifier", Value: "abc"}})
	if res.Status != 201 {
		t.Fatalf("expected 201 for zero-match conditional create, got %+v", res)
	}
	if res.ETag != `W/"1"` {
		t.Errorf("expected a single version to have been created (ETag v1), got %+v", res)
	}

	history := f.InstanceHistory(ctx, "Patient", "p1", 10)
	body := history.Body.(map[string]interface{})
	if body["total"] != 1 {
		t.Errorf("expected exactly one version from a single conditional create, got %+v", body)
	}
}

func TestCreate_ConditionalIfNoneExistReturnsExisting(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()
	f.Create(ctx, "Patient", `{"resourceType":"Patient","id":"p1","identifier":"abc"}`, nil)

	res := f.Create(ctx, "Patient", `{"resourceType":"Patient","id":"p2","identifier":"abc"}`,
		[]graph.Filter{{Key: "identifier", Value: "abc"}})
	if res.Status != 200 {
		t.Fatalf("expected 200 for matched conditional create, got %+v", res)
	}
}

func TestUpdate_IfMatchMismatchIsPreconditionFailed(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()
	f.Create(ctx, "Patient", `{"resourceType":"Patient","id":"p1"}`, nil)

	res := f.Update(ctx, "Patient", "p1", `{"resourceType":"Patient","id":"p1","active":true}`, `W/"99"`)
	if res.Status != 412 {
		t.Fatalf("expected 412 on If-Match mismatch, got %+v", res)
	}
}

func TestUpdate_IfMatchMatchSucceeds(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()
	created := f.Create(ctx, "Patient", `{"resourceType":"Patient","id":"p1"}`, nil)

	res := f.Update(ctx, "Patient", "p1", `{"resourceType":"Patient","id":"p1","active":true}`, created.ETag)
	if res.Status != 201 {
		t.Fatalf("expected 201 for successful versioned update, got %+v", res)
	}
}

func TestUpdate_IfMatchAgainstNonexistentResourceSucceeds(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()

	res := f.Update(ctx, "Patient", "does-not-exist", `{"resourceType":"Patient","id":"does-not-exist"}`, `W/"1"`)
	if res.Status != 201 {
		t.Fatalf("expected If-Match against a nonexistent resource to proceed as a create, got %+v", res)
	}
}

func TestConditionalUpdate_OneMatchUpdatesInPlace(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()
	f.Create(ctx, "Patient", `{"resourceType":"Patient","id":"p1","identifier":"abc"}`, nil)

	res := f.ConditionalUpdate(ctx, "Patient",
		`{"resourceType":"Patient","id":"p1","identifier":"abc","active":true}`,
		[]graph.Filter{{Key: "identifier", Value: "abc"}})
	if res.Status != 201 {
		t.Fatalf("expected 201 for conditional update, got %+v", res)
	}
}

func TestConditionalUpdate_ZeroCriteriaFails(t *testing.T) {
	f := newTestFacade(t)
	res := f.ConditionalUpdate(context.Background(), "Patient", `{"resourceType":"Patient","id":"p1"}`, nil)
	if res.Success {
		t.Fatalf("expected failure for conditional update with no search criteria, got %+v", res)
	}
}

func TestConditionalDelete_SingleMatchSucceeds(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()
	f.Create(ctx, "Patient", `{"resourceType":"Patient","id":"p1","identifier":"abc"}`, nil)

	res := f.ConditionalDelete(ctx, "Patient", []graph.Filter{{Key: "identifier", Value: "abc"}})
	if res.Status != 204 {
		t.Fatalf("expected 204 for conditional delete, got %+v", res)
	}
}

func TestConditionalDelete_ZeroMatchesReturns404(t *testing.T) {
	f := newTestFacade(t)
	res := f.ConditionalDelete(context.Background(), "Patient", []graph.Filter{{Key: "identifier", Value: "missing"}})
	if res.Status != 404 {
		t.Fatalf("expected 404 for zero-match conditional delete, got %+v", res)
	}
}

func TestConditionalPatch_OneMatchApplies(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()
	f.Create(ctx, "Patient", `{"resourceType":"Patient","id":"p1","identifier":"abc"}`, nil)

	res := f.ConditionalPatch(ctx, "Patient", []graph.Filter{{Key: "identifier", Value: "abc"}},
		[]jsonpatch.Operation{{Op: "add", Path: "/active", Value: true}})
	if res.Status != 201 {
		t.Fatalf("expected 201 for conditional patch, got %+v", res)
	}
}

func TestDelete_ThenReadIsGone(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()
	f.Create(ctx, "Patient", `{"resourceType":"Patient","id":"p1"}`, nil)

	del := f.Delete(ctx, "Patient", "p1")
	if del.Status != 204 {
		t.Fatalf("expected 204 on delete, got %+v", del)
	}

	read := f.Read(ctx, "Patient", "p1", "")
	if read.Status != 410 {
		t.Fatalf("expected 410 reading a tombstoned resource, got %+v", read)
	}
}

func TestPatch_AppliesAndCreatesNewVersion(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()
	f.Create(ctx, "Patient", `{"resourceType":"Patient","id":"p1"}`, nil)

	res := f.Patch(ctx, "Patient", "p1", []jsonpatch.Operation{{Op: "add", Path: "/active", Value: true}})
	if res.Status != 201 {
		t.Fatalf("expected 201 for patch producing a new version, got %+v", res)
	}
}

func TestInstanceHistory_ReturnsBundle(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()
	f.Create(ctx, "Patient", `{"resourceType":"Patient","id":"p1"}`, nil)
	f.Patch(ctx, "Patient", "p1", []jsonpatch.Operation{{Op: "add", Path: "/active", Value: true}})

	res := f.InstanceHistory(ctx, "Patient", "p1", 10)
	if res.Status != 200 {
		t.Fatalf("expected 200 for instance history, got %+v", res)
	}
	body, ok := res.Body.(map[string]interface{})
	if !ok || body["total"] != 2 {
		t.Errorf("expected total=2, got %+v", body)
	}
}

func TestInstanceHistory_TombstoneEntryUsesDeleteMethod(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()
	f.Create(ctx, "Patient", `{"resourceType":"Patient","id":"p1"}`, nil)
	f.Delete(ctx, "Patient", "p1")

	res := f.InstanceHistory(ctx, "Patient", "p1", 10)
	if res.Status != 200 {
		t.Fatalf("expected 200 for instance history, got %+v", res)
	}
	body := res.Body.(map[string]interface{})
	entries := body["entry"].([]map[string]interface{})
	newest := entries[0]
	request := newest["request"].(map[string]interface{})
	if request["method"] != "DELETE" {
		t.Errorf("expected tombstone entry method DELETE, got %+v", request)
	}
	if _, hasResource := newest["resource"]; hasResource {
		t.Errorf("expected tombstone entry to omit resource, got %+v", newest)
	}
}

func TestSearch_ReturnsSearchsetBundle(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()
	f.Create(ctx, "Patient", `{"resourceType":"Patient","id":"p1","identifier":"abc"}`, nil)

	res := f.Search(ctx, "Patient", []graph.Filter{{Key: "identifier", Value: "abc"}}, 10, 0, "http://x/Patient?identifier=abc")
	if res.Status != 200 {
		t.Fatalf("expected 200, got %+v", res)
	}
	body := res.Body.(map[string]interface{})
	if body["resourceType"] != "Bundle" || body["type"] != "searchset" {
		t.Errorf("expected searchset Bundle, got %+v", body)
	}
}

func TestValidate_NeverPersists(t *testing.T) {
	f := newTestFacade(t)
	res := f.Validate(`{"resourceType":"Patient","id":"never-persisted"}`)
	if res.Status != 200 {
		t.Fatalf("expected 200 for valid resource, got %+v", res)
	}
	read := f.Read(context.Background(), "Patient", "never-persisted", "")
	if read.Status != 404 {
		t.Errorf("expected $validate to never persist, but read succeeded: %+v", read)
	}
}

func TestValidate_FailureReturns422(t *testing.T) {
	f := newTestFacade(t)
	res := f.Validate(`{"resourceType":"Unknown"}`)
	if res.Status != 422 {
		t.Fatalf("expected 422 for invalid resource, got %+v", res)
	}
}

func TestBatch_RunsBundleAndReportsPerEntryStatus(t *testing.T) {
	f := newTestFacade(t)
	res := f.Batch(context.Background(), `{
		"resourceType": "Bundle",
		"type": "batch",
		"entry": [{"request": {"method": "POST", "url": "Patient"}, "resource": {"resourceType": "Patient", "id": "bp1"}}]
	}`)
	if res.Status != 200 {
		t.Fatalf("expected 200 for batch envelope, got %+v", res)
	}
	body := res.Body.(map[string]interface{})
	if body["type"] != "batch-response" {
		t.Errorf("expected batch-response, got %+v", body)
	}
}

func TestCapabilityStatement_ListsSupportedTypes(t *testing.T) {
	f := newTestFacade(t)
	res := f.CapabilityStatement()
	if res.Status != 200 {
		t.Fatalf("expected 200, got %+v", res)
	}
	body := res.Body.(map[string]interface{})
	if body["fhirVersion"] != "6.0.0-ballot3" {
		t.Errorf("expected configured fhirVersion, got %+v", body)
	}
}

func TestEverything_IncludesPatientAndNeighbors(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()
	f.Create(ctx, "Patient", `{"resourceType":"Patient","id":"p1"}`, nil)
	f.Create(ctx, "Observation", `{"resourceType":"Observation","id":"o1","subject":{"reference":"Patient/p1"}}`, nil)

	res := f.Everything(ctx, "p1", 50, "http://x/Patient/p1/$everything")
	if res.Status != 200 {
		t.Fatalf("expected 200, got %+v", res)
	}
}

func TestWipeAndStats(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()
	f.Create(ctx, "Patient", `{"resourceType":"Patient","id":"p1"}`, nil)

	stats := f.Stats(ctx)
	if stats.Status != 200 {
		t.Fatalf("expected 200 from stats, got %+v", stats)
	}

	wipe := f.Wipe(ctx)
	if wipe.Status != 200 {
		t.Fatalf("expected 200 from wipe, got %+v", wipe)
	}

	afterWipe := f.Stats(ctx)
	body := afterWipe.Body.(map[string]interface{})
	if body["vertexCount"] != int64(0) {
		t.Errorf("expected 0 vertices after wipe, got %+v", body)
	}
}
