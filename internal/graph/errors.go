package graph

import "fmt"

// ErrNotFound is returned by point lookups that find nothing, letting
// callers distinguish "absent" from a real backend failure.
var ErrNotFound = fmt.Errorf("graph: vertex not found")

// BackendError wraps a driver-level failure (a Neo4j session or Cypher
// execution error) without leaking driver types into internal/fhir/*.
type BackendError struct {
	Op    string
	Cause error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("graph backend: %s: %v", e.Op, e.Cause)
}

func (e *BackendError) Unwrap() error { return e.Cause }

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Op: op, Cause: err}
}
