package commands

import (
	"context"

	application "agora/contexts/governance/session-engine/application"
	"agora/contexts/governance/session-engine/domain/entities"
	domainerrors "agora/contexts/governance/session-engine/domain/errors"
)

// OpenProposals moves a session with at least one registered voter into the
// proposal-registration phase.
func (uc *SessionUseCase) OpenProposals(ctx context.Context, caller string, sessionID uint64) error {
	return uc.advance(ctx, caller, sessionID,
		entities.StateRegisteringVoters,
		entities.StateProposalsRegistrationStarted,
		func(session entities.Session) error {
			if session.VoterCount() == 0 {
				return domainerrors.ErrNoVotersRegistered
			}
			return nil
		},
	)
}

// CloseProposals ends the proposal phase once at least one proposal exists.
func (uc *SessionUseCase) CloseProposals(ctx context.Context, caller string, sessionID uint64) error {
	return uc.advance(ctx, caller, sessionID,
		entities.StateProposalsRegistrationStarted,
		entities.StateProposalsRegistrationEnded,
		func(session entities.Session) error {
			if len(session.Proposals) == 0 {
				return domainerrors.ErrNoProposals
			}
			return nil
		},
	)
}

// OpenVoting opens the voting phase.
func (uc *SessionUseCase) OpenVoting(ctx context.Context, caller string, sessionID uint64) error {
	return uc.advance(ctx, caller, sessionID,
		entities.StateProposalsRegistrationEnded,
		entities.StateVotingSessionStarted,
		nil,
	)
}

// CloseVoting ends the voting phase; at least one vote must have been cast.
func (uc *SessionUseCase) CloseVoting(ctx context.Context, caller string, sessionID uint64) error {
	return uc.advance(ctx, caller, sessionID,
		entities.StateVotingSessionStarted,
		entities.StateVotingSessionEnded,
		func(session entities.Session) error {
			if session.HighestVoteCount == 0 {
				return domainerrors.ErrNoVotesCast
			}
			return nil
		},
	)
}

// advance applies one forward workflow transition. The state order is fixed;
// a session never regresses.
func (uc *SessionUseCase) advance(
	ctx context.Context,
	caller string,
	sessionID uint64,
	from entities.WorkflowState,
	to entities.WorkflowState,
	precondition func(entities.Session) error,
) error {
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
	if session.State != from {
		logger.Warn("workflow transition rejected",
			"event", "session_transition_rejected",
			"module", "governance/session-engine",
			"layer", "application",
			"session_id", sessionID,
			"state", session.State.String(),
			"requested", to.String(),
		)
		return domainerrors.ErrInvalidStateTransition
	}
	if precondition != nil {
		if err := precondition(session); err != nil {
			return err
		}
	}

	now := uc.now()
	session.State = to
	session.UpdatedAt = now
	events, err := uc.sessionEvents(ctx, "session.transitioned", sessionID, now, map[string]any{
		"from": from.String(),
		"to":   to.String(),
	})
	if err != nil {
		return err
	}
	if err := uc.sessions.SaveSession(ctx, session, events); err != nil {
		return err
	}

	logger.Info("workflow transitioned",
		"event", "session_transitioned",
		"module", "governance/session-engine",
		"layer", "application",
		"session_id", sessionID,
		"from", from.String(),
		"to", to.String(),
	)
	return nil
}
