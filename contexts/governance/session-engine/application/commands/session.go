package commands

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	application "agora/contexts/governance/session-engine/application"
	"agora/contexts/governance/session-engine/domain/entities"
	domainerrors "agora/contexts/governance/session-engine/domain/errors"
	"agora/contexts/governance/session-engine/ports"
)

// Default per-session bounds. Overridable through Limits at wiring time.
const (
	DefaultMaxVoters      = 500
	DefaultMaxProposals   = 100
	DefaultMaxBatch       = 100
	DefaultMinDescription = 10
	DefaultMaxDescription = 500
)

// Limits bounds voter/proposal/batch growth and description length.
type Limits struct {
	MaxVoters      int
	MaxProposals   int
	MaxBatch       int
	MinDescription int
	MaxDescription int
}

func (l Limits) withDefaults() Limits {
	if l.MaxVoters <= 0 {
		l.MaxVoters = DefaultMaxVoters
	}
	if l.MaxProposals <= 0 {
		l.MaxProposals = DefaultMaxProposals
	}
	if l.MaxBatch <= 0 {
		l.MaxBatch = DefaultMaxBatch
	}
	if l.MinDescription <= 0 {
		l.MinDescription = DefaultMinDescription
	}
	if l.MaxDescription <= 0 {
		l.MaxDescription = DefaultMaxDescription
	}
	return l
}

// SessionUseCase orchestrates every state-changing session operation. A
// single mutex serializes mutating commands into the strict global total
// order the state machine assumes: each command observes and commits a whole
// session, or aborts with no observable effect.
type SessionUseCase struct {
	mu       sync.Mutex
	sessions ports.SessionRepository
	gate     ports.AccessGate
	clock    ports.Clock
	idGen    ports.IDGenerator
	limits   Limits
	logger   *slog.Logger
}

// SessionUseCaseDeps carries the ports required by NewSessionUseCase.
type SessionUseCaseDeps struct {
	Sessions ports.SessionRepository
	Gate     ports.AccessGate
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Limits   Limits
	Logger   *slog.Logger
}

func NewSessionUseCase(deps SessionUseCaseDeps) *SessionUseCase {
	return &SessionUseCase{
		sessions: deps.Sessions,
		gate:     deps.Gate,
		clock:    deps.Clock,
		idGen:    deps.IDGen,
		limits:   deps.Limits.withDefaults(),
		logger:   deps.Logger,
	}
}

// CreateSession opens a fresh session in the voter-registration phase.
func (uc *SessionUseCase) CreateSession(ctx context.Context, caller string) (entities.Session, error) {
	logger := application.ResolveLogger(uc.logger)
	if err := uc.requireAdmin(ctx, caller); err != nil {
		return entities.Session{}, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	now := uc.now()
	session := entities.Session{
		State:     entities.StateRegisteringVoters,
		Voters:    make(map[string]entities.VoterRecord),
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := uc.sessions.CreateSession(ctx, session, func(stored entities.Session) ([]ports.EventEnvelope, error) {
		return uc.sessionEvents(ctx, "session.created", stored.ID, now, map[string]any{
			"state": stored.State.String(),
		})
	})
	if err != nil {
		return entities.Session{}, err
	}

	logger.Info("session created",
		"event", "session_created",
		"module", "governance/session-engine",
		"layer", "application",
		"session_id", created.ID,
	)
	return created, nil
}

// CancelSession permanently freezes a session before its terminal state.
// The record stays queryable but refuses every further mutation.
func (uc *SessionUseCase) CancelSession(ctx context.Context, caller string, sessionID uint64) error {
	logger := application.ResolveLogger(uc.logger)
	if err := uc.requireAdmin(ctx, caller); err != nil {
		return err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	session, err := uc.loadMutable(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.State.Terminal() {
		logger.Warn("cancel refused for tallied session",
			"event", "session_cancel_rejected",
			"module", "governance/session-engine",
			"layer", "application",
			"session_id", sessionID,
			"state", session.State.String(),
		)
		return domainerrors.ErrInvalidStateTransition
	}

	now := uc.now()
	session.Cancelled = true
	session.UpdatedAt = now
	events, err := uc.sessionEvents(ctx, "session.cancelled", sessionID, now, map[string]any{
		"state": session.State.String(),
	})
	if err != nil {
		return err
	}
	if err := uc.sessions.SaveSession(ctx, session, events); err != nil {
		return err
	}

	logger.Info("session cancelled",
		"event", "session_cancelled",
		"module", "governance/session-engine",
		"layer", "application",
		"session_id", sessionID,
	)
	return nil
}

// requireOperational gates every mutating call on the external pause flag.
func (uc *SessionUseCase) requireOperational(ctx context.Context) error {
	operational, err := uc.gate.IsOperational(ctx)
	if err != nil {
		return err
	}
	if !operational {
		return domainerrors.ErrNotOperational
	}
	return nil
}

// requireAdmin gates administrative calls on both the operational flag and
// the caller's role.
func (uc *SessionUseCase) requireAdmin(ctx context.Context, caller string) error {
	if err := uc.requireOperational(ctx); err != nil {
		return err
	}
	authorized, err := uc.gate.IsAuthorized(ctx, strings.TrimSpace(caller))
	if err != nil {
		return err
	}
	if !authorized {
		return domainerrors.ErrUnauthorized
	}
	return nil
}

// loadMutable fetches a session that may still be mutated.
func (uc *SessionUseCase) loadMutable(ctx context.Context, sessionID uint64) (entities.Session, error) {
	session, err := uc.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return entities.Session{}, err
	}
	if session.Cancelled {
		return entities.Session{}, domainerrors.ErrSessionCancelled
	}
	return session, nil
}

func (uc *SessionUseCase) now() time.Time {
	if uc.clock != nil {
		return uc.clock.Now().UTC()
	}
	return time.Now().UTC()
}
