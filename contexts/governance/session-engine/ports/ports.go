package ports

import (
	"context"
	"time"

	"agora/contexts/governance/session-engine/domain/entities"
	"agora/internal/shared/events"
)

// SessionEvents builds the outbox envelopes for a write once the stored
// session (with its assigned id) is known. Adapters invoke it inside the
// same atomic operation that persists the session.
type SessionEvents func(stored entities.Session) ([]EventEnvelope, error)

// DeriveCompletion finishes a tie-break derivation once the child session
// (with its assigned id) is known: it returns the updated parent and the
// envelopes to append. Adapters persist child, parent, and envelopes as one
// atomic operation.
type DeriveCompletion func(child entities.Session) (entities.Session, []EventEnvelope, error)

// SessionRepository owns the session arena. CreateSession assigns the next
// dense id (creation order, starting at 0) and returns the stored session.
// Every write couples the session state with its outbox envelopes; a failed
// write commits neither.
type SessionRepository interface {
	CreateSession(ctx context.Context, session entities.Session, events SessionEvents) (entities.Session, error)
	GetSession(ctx context.Context, sessionID uint64) (entities.Session, error)
	SaveSession(ctx context.Context, session entities.Session, events []EventEnvelope) error
	DeriveSession(ctx context.Context, child entities.Session, complete DeriveCompletion) (entities.Session, error)
	CountSessions(ctx context.Context) (uint64, error)
}

// EventEnvelope reuses the canonical cross-context envelope contract.
type EventEnvelope = events.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	OutboxWriter
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// AccessGate is the external collaborator guarding mutating operations:
// role check for administrative calls, operational flag for every write.
type AccessGate interface {
	IsAuthorized(ctx context.Context, caller string) (bool, error)
	IsOperational(ctx context.Context) (bool, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
