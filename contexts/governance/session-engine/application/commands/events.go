package commands

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"agora/contexts/governance/session-engine/ports"
)

// sessionEnvelope builds one outbox envelope, partitioned by session id so
// per-session consumers observe a stable order. The caller hands the result
// to the repository write that produced it; session state and envelopes
// commit together or not at all.
func (uc *SessionUseCase) sessionEnvelope(
	ctx context.Context,
	eventType string,
	sessionID uint64,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	eventID, err := uc.idGen.NewID(ctx)
	if err != nil {
		return ports.EventEnvelope{}, err
	}

	if data == nil {
		data = make(map[string]any, 2)
	}
	data["session_id"] = sessionID
	data["occurred_at"] = occurredAt.Format(time.RFC3339)
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}

	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "session-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "session_id",
		PartitionKey:     strconv.FormatUint(sessionID, 10),
		Data:             payload,
	}, nil
}

// sessionEvents wraps sessionEnvelope for the common single-event write.
func (uc *SessionUseCase) sessionEvents(
	ctx context.Context,
	eventType string,
	sessionID uint64,
	occurredAt time.Time,
	data map[string]any,
) ([]ports.EventEnvelope, error) {
	envelope, err := uc.sessionEnvelope(ctx, eventType, sessionID, occurredAt, data)
	if err != nil {
		return nil, err
	}
	return []ports.EventEnvelope{envelope}, nil
}
