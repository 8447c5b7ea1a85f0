package commands

import (
	"context"

	application "agora/contexts/governance/session-engine/application"
	"agora/contexts/governance/session-engine/domain/entities"
	domainerrors "agora/contexts/governance/session-engine/domain/errors"
	"agora/contexts/governance/session-engine/domain/services"
	"agora/contexts/governance/session-engine/ports"
)

// TallyResult reports how a tally resolved: a unique winner, or a derived
// session seeded from the tied subset.
type TallyResult struct {
	Session   entities.Session
	WinnerID  uint64
	Winner    entities.Proposal
	HasWinner bool
	Child     entities.Session
	Renewed   bool
}

// Tally closes a session whose voting has ended. Exactly one proposal at the
// maximum vote count wins; a tie instead spawns a fresh session holding the
// tied proposals (counts reset) and the parent's full voter membership,
// entering directly at the voting phase. Either way the tallied session
// reaches its terminal state.
func (uc *SessionUseCase) Tally(ctx context.Context, caller string, sessionID uint64) (TallyResult, error) {
	logger := application.ResolveLogger(uc.logger)
	if err := uc.requireAdmin(ctx, caller); err != nil {
		return TallyResult{}, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	session, err := uc.loadMutable(ctx, sessionID)
	if err != nil {
		return TallyResult{}, err
	}
	if session.State != entities.StateVotingSessionEnded {
		return TallyResult{}, domainerrors.ErrInvalidStateTransition
	}

	now := uc.now()
	previous := session.State
	outcome := services.ResolveTally(session.Proposals)

	if winnerID, ok := outcome.UniqueWinner(); ok {
		session.WinningProposal = winnerID
		session.HasWinner = true
		session.State = entities.StateVotesTallied
		session.UpdatedAt = now
		transitioned, err := uc.sessionEnvelope(ctx, "session.transitioned", sessionID, now, map[string]any{
			"from": previous.String(),
			"to":   session.State.String(),
		})
		if err != nil {
			return TallyResult{}, err
		}
		determined, err := uc.sessionEnvelope(ctx, "winner.determined", sessionID, now, map[string]any{
			"proposal_id": winnerID,
			"vote_count":  session.Proposals[winnerID].VoteCount,
		})
		if err != nil {
			return TallyResult{}, err
		}
		if err := uc.sessions.SaveSession(ctx, session, []ports.EventEnvelope{transitioned, determined}); err != nil {
			return TallyResult{}, err
		}

		logger.Info("winner determined",
			"event", "winner_determined",
			"module", "governance/session-engine",
			"layer", "application",
			"session_id", sessionID,
			"proposal_id", winnerID,
			"vote_count", session.Proposals[winnerID].VoteCount,
		)
		return TallyResult{
			Session:   session,
			WinnerID:  winnerID,
			Winner:    session.Proposals[winnerID],
			HasWinner: true,
		}, nil
	}

	child := services.DeriveRenewal(session, outcome.Tied)
	child.CreatedAt = now
	child.UpdatedAt = now

	// Parent link, terminal transition, and both envelopes only exist once
	// the child id is assigned; DeriveSession commits all of it in one write.
	var parent entities.Session
	created, err := uc.sessions.DeriveSession(ctx, child, func(stored entities.Session) (entities.Session, []ports.EventEnvelope, error) {
		parent = session
		parent.ChildID = stored.ID
		parent.HasChild = true
		parent.HasWinner = false
		parent.State = entities.StateVotesTallied
		parent.UpdatedAt = now
		transitioned, err := uc.sessionEnvelope(ctx, "session.transitioned", sessionID, now, map[string]any{
			"from": previous.String(),
			"to":   parent.State.String(),
		})
		if err != nil {
			return entities.Session{}, nil, err
		}
		derived, err := uc.sessionEnvelope(ctx, "session.derived", sessionID, now, map[string]any{
			"child_session_id": stored.ID,
			"tied_proposals":   len(outcome.Tied),
		})
		if err != nil {
			return entities.Session{}, nil, err
		}
		return parent, []ports.EventEnvelope{transitioned, derived}, nil
	})
	if err != nil {
		return TallyResult{}, err
	}
	session = parent

	logger.Info("tie resolved into derived session",
		"event", "session_derived",
		"module", "governance/session-engine",
		"layer", "application",
		"session_id", sessionID,
		"child_session_id", created.ID,
		"tied_proposals", len(outcome.Tied),
	)
	return TallyResult{
		Session: session,
		Child:   created,
		Renewed: true,
	}, nil
}
