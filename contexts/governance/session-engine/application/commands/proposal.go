package commands

import (
	"context"
	"strings"

	application "agora/contexts/governance/session-engine/application"
	"agora/contexts/governance/session-engine/domain/entities"
	domainerrors "agora/contexts/governance/session-engine/domain/errors"
)

// SubmitProposal appends a zero-vote proposal on behalf of a registered
// voter and returns its index. Participant surface: no admin role required,
// only the operational gate.
func (uc *SessionUseCase) SubmitProposal(ctx context.Context, caller string, sessionID uint64, description string) (uint64, error) {
	logger := application.ResolveLogger(uc.logger)
	if err := uc.requireOperational(ctx); err != nil {
		return 0, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	session, err := uc.loadMutable(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	caller = strings.TrimSpace(caller)
	if !session.Voters[caller].Registered {
		return 0, domainerrors.ErrVoterNotRegistered
	}
	if session.State != entities.StateProposalsRegistrationStarted {
		return 0, domainerrors.ErrInvalidStateTransition
	}
	if len(description) < uc.limits.MinDescription || len(description) > uc.limits.MaxDescription {
		logger.Warn("proposal rejected: description length",
			"event", "proposal_invalid_description",
			"module", "governance/session-engine",
			"layer", "application",
			"session_id", sessionID,
			"length", len(description),
			"min", uc.limits.MinDescription,
			"max", uc.limits.MaxDescription,
		)
		return 0, domainerrors.ErrInvalidDescription
	}
	if len(session.Proposals) >= uc.limits.MaxProposals {
		return 0, domainerrors.ErrProposalLimitReached
	}

	now := uc.now()
	proposalID := uint64(len(session.Proposals))
	session.Proposals = append(session.Proposals, entities.Proposal{Description: description})
	session.UpdatedAt = now
	events, err := uc.sessionEvents(ctx, "proposal.registered", sessionID, now, map[string]any{
		"proposal_id": proposalID,
		"submitter":   caller,
	})
	if err != nil {
		return 0, err
	}
	if err := uc.sessions.SaveSession(ctx, session, events); err != nil {
		return 0, err
	}

	logger.Info("proposal registered",
		"event", "proposal_registered",
		"module", "governance/session-engine",
		"layer", "application",
		"session_id", sessionID,
		"proposal_id", proposalID,
		"submitter", caller,
	)
	return proposalID, nil
}
