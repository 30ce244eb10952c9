package conditional

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ehr/fhirgraph/internal/fhir/jsonpatch"
	"github.com/ehr/fhirgraph/internal/fhir/refmaterializer"
	"github.com/ehr/fhirgraph/internal/fhir/validator"
	"github.com/ehr/fhirgraph/internal/fhir/versioning"
	"github.com/ehr/fhirgraph/internal/graph"
)

const testSchema = `{
	"discriminator": {"propertyName": "resourceType", "mapping": {"Patient": "#/definitions/Patient"}},
	"definitions": {"Patient": {"type": "object", "required": ["resourceType"], "properties": {"resourceType": {"const": "Patient"}}}},
	"oneOf": [{"$ref": "#/definitions/Patient"}]
}`

func newTestDispatcher(t *testing.T) (*Dispatcher, *versioning.Versioning) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fhir.schema.json")
	if err := os.WriteFile(path, []byte(testSchema), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	repo := graph.NewMemoryRepo()
	v := validator.New(path)
	m := refmaterializer.NewVersioned(repo, zerolog.New(io.Discard))
	tick := 0
	now := func() string {
		tick++
		return "2026-08-06T00:00:0" + string(rune('0'+tick)) + "Z"
	}
	ver := versioning.New(repo, v, m, now)
	return New(ver, v), ver
}

func TestConditionalCreate_ZeroMatchesCreates(t *testing.T) {
	d, _ := newTestDispatcher(t)
	res, err := d.ConditionalCreate(context.Background(), "Patient", `{"resourceType":"Patient","id":"p1","identifier":"abc"}`,
		[]graph.Filter{{Key: "identifier", Value: "abc"}}, false, false)
	if err != nil {
		t.Fatalf("ConditionalCreate: %v", err)
	}
	if !res.Created || res.FhirID != "p1" {
		t.Errorf("expected created p1, got %+v", res)
	}
}

func TestConditionalCreate_OneMatchReturnsExisting(t *testing.T) {
	d, ver := newTestDispatcher(t)
	ctx := context.Background()
	ver.CreateVersioned(ctx, "Patient", "p1", `{"resourceType":"Patient","id":"p1","identifier":"abc"}`, false, false)

	res, err := d.ConditionalCreate(ctx, "Patient", `{"resourceType":"Patient","id":"p2","identifier":"abc"}`,
		[]graph.Filter{{Key: "identifier", Value: "abc"}}, false, false)
	if err != nil {
		t.Fatalf("ConditionalCreate: %v", err)
	}
	if res.Created || res.FhirID != "p1" {
		t.Errorf("expected existing p1 returned, got %+v", res)
	}
}

func TestConditionalCreate_MultipleMatchesFails(t *testing.T) {
	d, ver := newTestDispatcher(t)
	ctx := context.Background()
	ver.CreateVersioned(ctx, "Patient", "p1", `{"resourceType":"Patient","id":"p1","identifier":"abc"}`, false, false)
	ver.CreateVersioned(ctx, "Patient", "p2", `{"resourceType":"Patient","id":"p2","identifier":"abc"}`, false, false)

	_, err := d.ConditionalCreate(ctx, "Patient", `{"resourceType":"Patient","id":"p3","identifier":"abc"}`,
		[]graph.Filter{{Key: "identifier", Value: "abc"}}, false, false)
	if err == nil {
		t.Fatal("expected multiple matches error")
	}
}

func TestConditionalUpdate_ZeroMatchesNoIdFails(t *testing.T) {
	d, _ := newTestDispatcher(t)
	_, err := d.ConditionalUpdate(context.Background(), "Patient", `{"resourceType":"Patient","identifier":"abc"}`,
		[]graph.Filter{{Key: "identifier", Value: "abc"}}, false, false)
	if err == nil {
		t.Fatal("expected validation failure for missing id")
	}
}

func TestConditionalUpdate_OneMatchUpdates(t *testing.T) {
	d, ver := newTestDispatcher(t)
	ctx := context.Background()
	ver.CreateVersioned(ctx, "Patient", "p1", `{"resourceType":"Patient","id":"p1","identifier":"abc"}`, false, false)

	res, err := d.ConditionalUpdate(ctx, "Patient", `{"resourceType":"Patient","id":"p1","identifier":"abc","active":true}`,
		[]graph.Filter{{Key: "identifier", Value: "abc"}}, false, false)
	if err != nil {
		t.Fatalf("ConditionalUpdate: %v", err)
	}
	if res.Created {
		t.Errorf("expected update not create, got %+v", res)
	}
}

func TestConditionalDelete_SingleMatch(t *testing.T) {
	d, ver := newTestDispatcher(t)
	ctx := context.Background()
	ver.CreateVersioned(ctx, "Patient", "p1", `{"resourceType":"Patient","id":"p1","identifier":"abc"}`, false, false)

	n, err := d.ConditionalDelete(ctx, "Patient", []graph.Filter{{Key: "identifier", Value: "abc"}}, false)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 deleted, got n=%d err=%v", n, err)
	}
}

func TestConditionalDelete_ZeroCriteriaFails(t *testing.T) {
	d, _ := newTestDispatcher(t)
	_, err := d.ConditionalDelete(context.Background(), "Patient", nil, false)
	if err == nil {
		t.Fatal("expected validation failure for zero criteria")
	}
}

func TestConditionalDelete_AllowMultipleDeletesAll(t *testing.T) {
	d, ver := newTestDispatcher(t)
	ctx := context.Background()
	ver.CreateVersioned(ctx, "Patient", "p1", `{"resourceType":"Patient","id":"p1","identifier":"abc"}`, false, false)
	ver.CreateVersioned(ctx, "Patient", "p2", `{"resourceType":"Patient","id":"p2","identifier":"abc"}`, false, false)

	n, err := d.ConditionalDelete(ctx, "Patient", []graph.Filter{{Key: "identifier", Value: "abc"}}, true)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 deleted, got n=%d err=%v", n, err)
	}
}

func TestConditionalPatch_AppliesToSingleMatch(t *testing.T) {
	d, ver := newTestDispatcher(t)
	ctx := context.Background()
	ver.CreateVersioned(ctx, "Patient", "p1", `{"resourceType":"Patient","id":"p1","identifier":"abc"}`, false, false)

	res, err := d.ConditionalPatch(ctx, "Patient", []graph.Filter{{Key: "identifier", Value: "abc"}},
		[]jsonpatch.Operation{{Op: "add", Path: "/active", Value: true}})
	if err != nil {
		t.Fatalf("ConditionalPatch: %v", err)
	}
	if res.FhirID != "p1" {
		t.Errorf("expected p1, got %+v", res)
	}

	current, err := ver.GetCurrent(ctx, "Patient", "p1")
	if err != nil || current.JSON == "" {
		t.Fatalf("expected patched body persisted, err=%v", err)
	}
}

func TestConditionalPatch_NoMatchFails(t *testing.T) {
	d, _ := newTestDispatcher(t)
	_, err := d.ConditionalPatch(context.Background(), "Patient", []graph.Filter{{Key: "identifier", Value: "abc"}}, nil)
	if err == nil {
		t.Fatal("expected NotFound error")
	}
}
