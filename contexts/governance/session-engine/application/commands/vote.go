package commands

import (
	"context"
	"strings"

	application "agora/contexts/governance/session-engine/application"
	"agora/contexts/governance/session-engine/domain/entities"
	domainerrors "agora/contexts/governance/session-engine/domain/errors"
)

// CastVote records one permanent vote for a proposal. Each registered voter
// votes at most once per session; there is no change or withdrawal.
func (uc *SessionUseCase) CastVote(ctx context.Context, caller string, sessionID uint64, proposalID uint64) error {
	logger := application.ResolveLogger(uc.logger)
	if err := uc.requireOperational(ctx); err != nil {
		return err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	session, err := uc.loadMutable(ctx, sessionID)
	if err != nil {
		return err
	}
	if proposalID >= uint64(len(session.Proposals)) {
		return domainerrors.ErrProposalNotFound
	}
	if session.State != entities.StateVotingSessionStarted {
		return domainerrors.ErrInvalidStateTransition
	}

	caller = strings.TrimSpace(caller)
	record := session.Voters[caller]
	if !record.Registered {
		return domainerrors.ErrVoterNotRegistered
	}
	if record.HasVoted {
		logger.Warn("vote rejected: duplicate",
			"event", "vote_duplicate",
			"module", "governance/session-engine",
			"layer", "application",
			"session_id", sessionID,
			"voter", caller,
		)
		return domainerrors.ErrAlreadyVoted
	}

	now := uc.now()
	session.Proposals[proposalID].VoteCount++
	record.HasVoted = true
	record.ChosenProposal = proposalID
	session.Voters[caller] = record
	if session.Proposals[proposalID].VoteCount > session.HighestVoteCount {
		session.HighestVoteCount = session.Proposals[proposalID].VoteCount
	}
	session.UpdatedAt = now
	events, err := uc.sessionEvents(ctx, "vote.cast", sessionID, now, map[string]any{
		"voter":       caller,
		"proposal_id": proposalID,
	})
	if err != nil {
		return err
	}
	if err := uc.sessions.SaveSession(ctx, session, events); err != nil {
		return err
	}

	logger.Info("vote cast",
		"event", "vote_cast",
		"module", "governance/session-engine",
		"layer", "application",
		"session_id", sessionID,
		"voter", caller,
		"proposal_id", proposalID,
		"vote_count", session.Proposals[proposalID].VoteCount,
	)
	return nil
}
