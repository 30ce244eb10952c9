// Package audit appends one row per mutating Facade call to a Postgres
// audit_event table, mirroring the shape of a HIPAA-style access log
// without owning any resource-layer semantics of its own.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Event is one recorded mutation.
type Event struct {
	ID           uuid.UUID
	ResourceType string
	FhirID       string
	Action       string // create/update/delete/patch
	Actor        string
	At           time.Time
}

// Logger writes Events to Postgres. A nil pool makes every call a no-op,
// so the rest of the module runs and tests fully without a database.
type Logger struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func New(pool *pgxpool.Pool, logger zerolog.Logger) *Logger {
	return &Logger{pool: pool, logger: logger}
}

// Log records a mutation. Failures are logged and swallowed: audit is an
// ambient concern and must never fail the FHIR operation that triggered it.
func (l *Logger) Log(ctx context.Context, resourceType, fhirID, action, actor string) {
	if l == nil || l.pool == nil {
		return
	}

	event := Event{
		ID:           uuid.New(),
		ResourceType: resourceType,
		FhirID:       fhirID,
		Action:       action,
		Actor:        actor,
		At:           time.Now().UTC(),
	}

	const query = `
		INSERT INTO audit_event (id, resource_type, fhir_id, action, actor, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := l.pool.Exec(ctx, query, event.ID, event.ResourceType, event.FhirID, event.Action, event.Actor, event.At); err != nil {
		l.logger.Warn().Err(err).Str("resourceType", resourceType).Str("fhirId", fhirID).Msg("audit: failed to record event")
	}
}
