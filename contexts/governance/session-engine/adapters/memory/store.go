package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"agora/contexts/governance/session-engine/domain/entities"
	domainerrors "agora/contexts/governance/session-engine/domain/errors"
	"agora/contexts/governance/session-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory session arena implementing the repository, outbox,
// clock, and id-generator ports. Ids are dense slice indexes, so creation
// order is the id order. Sessions are cloned at the boundary in both
// directions; callers never share backing storage with the arena.
type Store struct {
	mu sync.RWMutex

	sessions []entities.Session
	outbox   map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		outbox: make(map[string]outboxRecord),
	}
}

func (s *Store) CreateSession(_ context.Context, session entities.Session, events ports.SessionEvents) (entities.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session.ID = uint64(len(s.sessions))
	stored := session.Clone()
	if stored.Voters == nil {
		stored.Voters = make(map[string]entities.VoterRecord)
	}
	staged, err := s.stageEvents(stored, events)
	if err != nil {
		return entities.Session{}, err
	}
	s.sessions = append(s.sessions, stored)
	s.commitOutbox(staged)
	return stored.Clone(), nil
}

func (s *Store) GetSession(_ context.Context, sessionID uint64) (entities.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sessionID >= uint64(len(s.sessions)) {
		return entities.Session{}, domainerrors.ErrSessionNotFound
	}
	return s.sessions[sessionID].Clone(), nil
}

func (s *Store) SaveSession(_ context.Context, session entities.Session, events []ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session.ID >= uint64(len(s.sessions)) {
		return domainerrors.ErrSessionNotFound
	}
	staged, err := s.stageOutbox(events)
	if err != nil {
		return err
	}
	s.sessions[session.ID] = session.Clone()
	s.commitOutbox(staged)
	return nil
}

// DeriveSession appends the child, rewrites the parent returned by the
// completion, and commits the envelopes, all under one lock hold. A failing
// completion leaves the arena untouched.
func (s *Store) DeriveSession(_ context.Context, child entities.Session, complete ports.DeriveCompletion) (entities.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	child.ID = uint64(len(s.sessions))
	stored := child.Clone()
	if stored.Voters == nil {
		stored.Voters = make(map[string]entities.VoterRecord)
	}
	parent, envelopes, err := complete(stored.Clone())
	if err != nil {
		return entities.Session{}, err
	}
	if parent.ID >= uint64(len(s.sessions)) {
		return entities.Session{}, domainerrors.ErrSessionNotFound
	}
	staged, err := s.stageOutbox(envelopes)
	if err != nil {
		return entities.Session{}, err
	}
	s.sessions = append(s.sessions, stored)
	s.sessions[parent.ID] = parent.Clone()
	s.commitOutbox(staged)
	return stored.Clone(), nil
}

func (s *Store) CountSessions(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.sessions)), nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged, err := s.stageOutbox([]ports.EventEnvelope{envelope})
	if err != nil {
		return err
	}
	s.commitOutbox(staged)
	return nil
}

// stageEvents evaluates the event builder against the session about to be
// stored and stages the resulting envelopes. Holds s.mu.
func (s *Store) stageEvents(stored entities.Session, events ports.SessionEvents) ([]outboxRecord, error) {
	if events == nil {
		return nil, nil
	}
	envelopes, err := events(stored.Clone())
	if err != nil {
		return nil, err
	}
	return s.stageOutbox(envelopes)
}

// stageOutbox validates and marshals envelopes without touching the outbox
// map, so a write can still abort cleanly. A replayed id with an identical
// payload is skipped; a differing payload is a conflict. Holds s.mu.
func (s *Store) stageOutbox(envelopes []ports.EventEnvelope) ([]outboxRecord, error) {
	staged := make([]outboxRecord, 0, len(envelopes))
	for _, envelope := range envelopes {
		payload, err := json.Marshal(envelope)
		if err != nil {
			return nil, err
		}
		outboxID := strings.TrimSpace(envelope.EventID)
		if outboxID == "" {
			outboxID = uuid.NewString()
		}
		if existing, ok := s.outbox[outboxID]; ok {
			if !bytes.Equal(existing.message.Payload, payload) {
				return nil, domainerrors.ErrConflict
			}
			continue
		}
		createdAt := envelope.OccurredAt.UTC()
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		staged = append(staged, outboxRecord{
			message: ports.OutboxMessage{
				OutboxID:     outboxID,
				EventType:    strings.TrimSpace(envelope.EventType),
				PartitionKey: strings.TrimSpace(envelope.PartitionKey),
				Payload:      payload,
				CreatedAt:    createdAt,
			},
		})
	}
	return staged, nil
}

func (s *Store) commitOutbox(staged []outboxRecord) {
	for _, row := range staged {
		s.outbox[row.message.OutboxID] = row
	}
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
