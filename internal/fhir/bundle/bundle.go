// Package bundle processes FHIR batch/transaction Bundles by dispatching
// each entry's request.{method,url} against Versioning and JsonPatch.
package bundle

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ehr/fhirgraph/internal/fhir/jsonpatch"
	"github.com/ehr/fhirgraph/internal/fhir/outcome"
	"github.com/ehr/fhirgraph/internal/fhir/versioning"
)

// EntryResult is one response bundle entry.
type EntryResult struct {
	Status   int
	Location string
	Resource map[string]interface{}
	Outcome  *outcome.Document
}

// Result is the outcome of processing a whole bundle.
type Result struct {
	Type    string // "batch-response" or "transaction-response"
	Entries []EntryResult
	// FullURLMap records, for entries that created a resource, the
	// mapping from the entry's bundle-local fullUrl to the graphId/fhirId
	// it was assigned. Intra-bundle reference rewriting against this
	// table is left as a documented follow-on.
	FullURLMap map[string]FullURLTarget
}

type FullURLTarget struct {
	GraphID string
	FhirID  string
}

type entry struct {
	FullURL string `json:"fullUrl"`
	// Resource holds a FHIR resource object for POST/PUT entries, or a
	// JSON Patch array for PATCH entries, so it stays raw until dispatch
	// knows which shape to decode.
	Resource json.RawMessage `json:"resource"`
	Request  *entryRequest   `json:"request"`
}

type entryRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

// methodPriority implements the DELETE -> POST -> PUT/PATCH -> GET
// ordering a transaction bundle must apply before dispatch.
var methodPriority = map[string]int{
	"DELETE": 0,
	"POST":   1,
	"PUT":    2,
	"PATCH":  2,
	"GET":    3,
}

// Processor dispatches bundle entries against Versioning.
type Processor struct {
	versioning *versioning.Versioning
}

func New(v *versioning.Versioning) *Processor {
	return &Processor{versioning: v}
}

// Process validates the envelope, reorders transaction entries, dispatches
// each one, and assembles the response bundle. batch failures are
// per-entry; a transaction stops at the first failing entry and returns
// that failure as the sole top-level error.
func (p *Processor) Process(ctx context.Context, bundleJSON string) (*Result, error) {
	var raw struct {
		ResourceType string  `json:"resourceType"`
		Type         string  `json:"type"`
		Entry        []entry `json:"entry"`
	}
	if err := json.Unmarshal([]byte(bundleJSON), &raw); err != nil {
		return nil, outcome.ValidationFailure("invalid bundle JSON: %v", err)
	}
	if raw.ResourceType != "Bundle" {
		return nil, outcome.ValidationFailure("resourceType must be Bundle")
	}
	if raw.Type != "batch" && raw.Type != "transaction" {
		return nil, outcome.ValidationFailure("bundle type must be batch or transaction")
	}

	entries := raw.Entry
	if raw.Type == "transaction" {
		entries = reorderForTransaction(entries)
	}

	result := &Result{
		Type:       raw.Type + "-response",
		FullURLMap: map[string]FullURLTarget{},
	}

	for _, e := range entries {
		res, target, err := p.dispatch(ctx, e)
		if err != nil {
			if raw.Type == "transaction" {
				return nil, err
			}
			result.Entries = append(result.Entries, EntryResult{
				Status:  statusForError(err),
				Outcome: outcome.FromError(err),
			})
			continue
		}
		if target != nil && e.FullURL != "" {
			result.FullURLMap[e.FullURL] = *target
		}
		result.Entries = append(result.Entries, *res)
	}

	return result, nil
}

// reorderForTransaction applies the DELETE -> POST -> PUT/PATCH -> GET
// ordering using a stable sort so entries within the same method class
// keep their original relative order.
func reorderForTransaction(entries []entry) []entry {
	out := make([]entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return priorityOf(out[i]) < priorityOf(out[j])
	})
	return out
}

func priorityOf(e entry) int {
	if e.Request == nil {
		return len(methodPriority)
	}
	if p, ok := methodPriority[strings.ToUpper(e.Request.Method)]; ok {
		return p
	}
	return len(methodPriority)
}

func (p *Processor) dispatch(ctx context.Context, e entry) (*EntryResult, *FullURLTarget, error) {
	if e.Request == nil || e.Request.URL == "" {
		return nil, nil, outcome.ValidationFailure("bundle entry missing request.method/request.url")
	}
	method := strings.ToUpper(e.Request.Method)
	resourceType, id, hasID := splitEntryURL(e.Request.URL)

	switch method {
	case "GET":
		if !hasID {
			return nil, nil, outcome.NotImplemented("intra-bundle type-level search is not supported")
		}
		current, err := p.versioning.GetCurrent(ctx, resourceType, id)
		if err != nil {
			return nil, nil, err
		}
		var doc map[string]interface{}
		json.Unmarshal([]byte(current.JSON), &doc)
		return &EntryResult{Status: 200, Resource: doc}, nil, nil

	case "POST":
		if len(e.Resource) == 0 {
			return nil, nil, outcome.ValidationFailure("POST entry missing resource")
		}
		resourceJSON, fhirID, err := withAssignedID(e.Resource)
		if err != nil {
			return nil, nil, err
		}
		ver, verr := p.versioning.CreateVersioned(ctx, resourceType, fhirID, resourceJSON, true, true)
		if verr != nil {
			return nil, nil, verr
		}
		return &EntryResult{Status: 201, Location: fmt.Sprintf("%s/%s", resourceType, ver.FhirID)},
			&FullURLTarget{GraphID: ver.GraphID, FhirID: ver.FhirID}, nil

	case "PUT":
		if !hasID {
			return nil, nil, outcome.ValidationFailure("PUT requires Type/Id")
		}
		if len(e.Resource) == 0 {
			return nil, nil, outcome.ValidationFailure("PUT entry missing resource")
		}
		ver, verr := p.versioning.CreateVersioned(ctx, resourceType, id, string(e.Resource), true, true)
		if verr != nil {
			return nil, nil, verr
		}
		return &EntryResult{Status: 200}, &FullURLTarget{GraphID: ver.GraphID, FhirID: ver.FhirID}, nil

	case "DELETE":
		if !hasID {
			return nil, nil, outcome.ValidationFailure("DELETE requires Type/Id")
		}
		if _, err := p.versioning.Tombstone(ctx, resourceType, id); err != nil {
			return nil, nil, err
		}
		return &EntryResult{Status: 204}, nil, nil

	case "PATCH":
		if !hasID {
			return nil, nil, outcome.ValidationFailure("PATCH requires Type/Id")
		}
		current, err := p.versioning.GetCurrent(ctx, resourceType, id)
		if err != nil {
			return nil, nil, err
		}
		var doc map[string]interface{}
		if err := json.Unmarshal([]byte(current.JSON), &doc); err != nil {
			return nil, nil, outcome.BackendFailure(err)
		}
		ops, err := decodePatchOps(e.Resource)
		if err != nil {
			return nil, nil, outcome.Unprocessable("%v", err)
		}
		if len(ops) == 0 {
			return nil, nil, outcome.ValidationFailure("PATCH entry missing JSON Patch operations")
		}
		patched, err := jsonpatch.Apply(doc, ops)
		if err != nil {
			return nil, nil, outcome.Unprocessable("%v", err)
		}
		patchedJSON, err := json.Marshal(patched)
		if err != nil {
			return nil, nil, outcome.Unprocessable("%v", err)
		}
		ver, verr := p.versioning.CreateVersioned(ctx, resourceType, id, string(patchedJSON), false, false)
		if verr != nil {
			return nil, nil, verr
		}
		return &EntryResult{Status: 200}, &FullURLTarget{GraphID: ver.GraphID, FhirID: ver.FhirID}, nil

	default:
		return nil, nil, outcome.NotImplemented("unsupported bundle entry method %q", method)
	}
}

// withAssignedID decodes a POST entry's resource body and, if it carries no
// logical id of its own, assigns one -- a bundled POST creates exactly like
// a plain create, and a plain create's id assignment is the caller's job.
func withAssignedID(raw json.RawMessage) (resourceJSON string, fhirID string, err error) {
	var doc map[string]interface{}
	if uerr := json.Unmarshal(raw, &doc); uerr != nil {
		return "", "", outcome.ValidationFailure("invalid JSON: %v", uerr)
	}
	id, _ := doc["id"].(string)
	if id == "" {
		id = uuid.New().String()
		doc["id"] = id
		out, merr := json.Marshal(doc)
		if merr != nil {
			return "", "", outcome.ValidationFailure("invalid JSON: %v", merr)
		}
		return string(out), id, nil
	}
	return string(raw), id, nil
}

func decodePatchOps(raw json.RawMessage) ([]jsonpatch.Operation, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ops []jsonpatch.Operation
	if err := json.Unmarshal(raw, &ops); err != nil {
		return nil, err
	}
	return ops, nil
}

// splitEntryURL parses a bundle entry's request.url into Type and,
// optionally, Id.
func splitEntryURL(url string) (resourceType, id string, hasID bool) {
	parts := strings.Split(strings.Trim(url, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", "", false
	}
	resourceType = parts[0]
	if len(parts) >= 2 && parts[1] != "" {
		return resourceType, parts[1], true
	}
	return resourceType, "", false
}

func statusForError(err error) int {
	fe, ok := err.(*outcome.Error)
	if !ok {
		return 500
	}
	switch fe.Kind {
	case outcome.KindValidationFailure:
		return 400
	case outcome.KindUnprocessable:
		return 422
	case outcome.KindNotFound:
		return 404
	case outcome.KindGone:
		return 410
	case outcome.KindPreconditionFailed, outcome.KindMultipleMatches:
		return 412
	case outcome.KindConflict:
		return 409
	case outcome.KindNotImplemented:
		return 501
	default:
		return 500
	}
}
