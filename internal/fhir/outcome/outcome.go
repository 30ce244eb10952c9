// Package outcome defines the tagged error-kind vocabulary that every
// internal resource-layer package returns (spec §7) and the FHIR
// OperationOutcome document shape used to render those errors to callers.
package outcome

import "fmt"

// Kind is a closed enumeration of the error kinds named in spec §7. Only
// the Facade maps a Kind to an HTTP status code; every other layer just
// produces and threads *Error values.
type Kind string

const (
	KindValidationFailure   Kind = "validation_failure"
	KindNotFound            Kind = "not_found"
	KindGone                Kind = "gone"
	KindPreconditionFailed  Kind = "precondition_failed"
	KindMultipleMatches     Kind = "multiple_matches"
	KindConflict            Kind = "conflict"
	KindUnprocessable       Kind = "unprocessable"
	KindBackendFailure      Kind = "backend_failure"
	KindNotImplemented      Kind = "not_implemented"
	KindFatal               Kind = "fatal"
)

// Error is the error type every resource-layer operation returns. It
// carries enough information for the Facade to render an HTTP status and
// an OperationOutcome body without re-inspecting error strings.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func ValidationFailure(format string, args ...interface{}) *Error {
	return New(KindValidationFailure, fmt.Sprintf(format, args...))
}

func NotFound(resourceType, id string) *Error {
	return New(KindNotFound, fmt.Sprintf("%s/%s not found", resourceType, id))
}

func Gone(resourceType, id string) *Error {
	return New(KindGone, fmt.Sprintf("%s/%s is deleted", resourceType, id))
}

func PreconditionFailed(format string, args ...interface{}) *Error {
	return New(KindPreconditionFailed, fmt.Sprintf(format, args...))
}

func MultipleMatches(count int) *Error {
	return New(KindMultipleMatches, fmt.Sprintf("%d resources match the search criteria", count))
}

func Conflict(format string, args ...interface{}) *Error {
	return New(KindConflict, fmt.Sprintf(format, args...))
}

func Unprocessable(format string, args ...interface{}) *Error {
	return New(KindUnprocessable, fmt.Sprintf(format, args...))
}

func BackendFailure(cause error) *Error {
	return Wrap(KindBackendFailure, "graph backend operation failed", cause)
}

func NotImplemented(format string, args ...interface{}) *Error {
	return New(KindNotImplemented, fmt.Sprintf(format, args...))
}

// Document represents a FHIR OperationOutcome resource.
type Document struct {
	ResourceType string  `json:"resourceType"`
	Issue        []Issue `json:"issue"`
}

type Issue struct {
	Severity    string `json:"severity"`
	Code        string `json:"code"`
	Diagnostics string `json:"diagnostics,omitempty"`
}

// kindToCode maps a Kind to the FHIR issue-type code vocabulary in spec §7.
var kindToCode = map[Kind]string{
	KindValidationFailure:  "invalid",
	KindNotFound:           "not-found",
	KindGone:               "deleted",
	KindPreconditionFailed: "multiple-matches",
	KindMultipleMatches:    "duplicate",
	KindConflict:           "conflict",
	KindUnprocessable:      "invalid",
	KindBackendFailure:     "exception",
	KindNotImplemented:     "not-supported",
	KindFatal:              "exception",
}

// New builds a single-issue OperationOutcome document for a given severity.
func FromError(err error) *Document {
	fe, ok := err.(*Error)
	if !ok {
		return &Document{
			ResourceType: "OperationOutcome",
			Issue: []Issue{{
				Severity:    "fatal",
				Code:        "exception",
				Diagnostics: err.Error(),
			}},
		}
	}
	code, ok := kindToCode[fe.Kind]
	if !ok {
		code = "exception"
	}
	return &Document{
		ResourceType: "OperationOutcome",
		Issue: []Issue{{
			Severity:    "error",
			Code:        code,
			Diagnostics: fe.Message,
		}},
	}
}

// Info builds an informational OperationOutcome, used by the $validate
// operation on success (spec §4.10).
func Info(diagnostics string) *Document {
	return &Document{
		ResourceType: "OperationOutcome",
		Issue: []Issue{{
			Severity:    "information",
			Code:        "informational",
			Diagnostics: diagnostics,
		}},
	}
}
