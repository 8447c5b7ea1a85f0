package commands

import (
	"context"
	"strings"

	application "agora/contexts/governance/session-engine/application"
	"agora/contexts/governance/session-engine/domain/entities"
	domainerrors "agora/contexts/governance/session-engine/domain/errors"
)

// RegisterVoter whitelists one address for a session during the
// voter-registration phase.
func (uc *SessionUseCase) RegisterVoter(ctx context.Context, caller string, sessionID uint64, address string) error {
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
	if session.State != entities.StateRegisteringVoters {
		return domainerrors.ErrInvalidStateTransition
	}

	address = strings.TrimSpace(address)
	if address == "" {
		logger.Warn("voter registration rejected: empty address",
			"event", "voter_registration_invalid_address",
			"module", "governance/session-engine",
			"layer", "application",
			"session_id", sessionID,
		)
		return domainerrors.ErrInvalidAddress
	}
	if session.Voters[address].Registered {
		return domainerrors.ErrVoterAlreadyRegistered
	}
	if session.VoterCount() >= uc.limits.MaxVoters {
		logger.Warn("voter registration rejected: cap reached",
			"event", "voter_registration_limit_reached",
			"module", "governance/session-engine",
			"layer", "application",
			"session_id", sessionID,
			"max_voters", uc.limits.MaxVoters,
		)
		return domainerrors.ErrVoterLimitReached
	}

	now := uc.now()
	session.VoterOrder = append(session.VoterOrder, address)
	session.Voters[address] = entities.VoterRecord{Registered: true}
	session.UpdatedAt = now
	events, err := uc.sessionEvents(ctx, "voter.registered", sessionID, now, map[string]any{
		"address": address,
	})
	if err != nil {
		return err
	}
	if err := uc.sessions.SaveSession(ctx, session, events); err != nil {
		return err
	}

	logger.Info("voter registered",
		"event", "voter_registered",
		"module", "governance/session-engine",
		"layer", "application",
		"session_id", sessionID,
		"address", address,
		"voter_count", session.VoterCount(),
	)
	return nil
}

// RegisterVotersBatch registers many addresses at once. Empty and
// already-registered addresses are skipped silently; an oversized batch is
// rejected outright; crossing the per-session voter cap aborts the whole
// call before any registration takes effect. Returns the count actually
// registered.
func (uc *SessionUseCase) RegisterVotersBatch(ctx context.Context, caller string, sessionID uint64, addresses []string) (int, error) {
	logger := application.ResolveLogger(uc.logger)
	if err := uc.requireAdmin(ctx, caller); err != nil {
		return 0, err
	}
	if len(addresses) > uc.limits.MaxBatch {
		logger.Warn("voter batch rejected: oversized",
			"event", "voter_batch_limit_exceeded",
			"module", "governance/session-engine",
			"layer", "application",
			"session_id", sessionID,
			"batch_size", len(addresses),
			"max_batch", uc.limits.MaxBatch,
		)
		return 0, domainerrors.ErrBatchLimitReached
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	session, err := uc.loadMutable(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if session.State != entities.StateRegisteringVoters {
		return 0, domainerrors.ErrInvalidStateTransition
	}

	// Pre-scan so the cap check covers exactly the addresses that would
	// register; the command then either applies all of them or none.
	eligible := make([]string, 0, len(addresses))
	seen := make(map[string]struct{}, len(addresses))
	for _, raw := range addresses {
		address := strings.TrimSpace(raw)
		if address == "" {
			continue
		}
		if session.Voters[address].Registered {
			continue
		}
		if _, dup := seen[address]; dup {
			continue
		}
		seen[address] = struct{}{}
		eligible = append(eligible, address)
	}
	if session.VoterCount()+len(eligible) > uc.limits.MaxVoters {
		logger.Warn("voter batch rejected: cap would be exceeded",
			"event", "voter_batch_cap_exceeded",
			"module", "governance/session-engine",
			"layer", "application",
			"session_id", sessionID,
			"voter_count", session.VoterCount(),
			"eligible", len(eligible),
			"max_voters", uc.limits.MaxVoters,
		)
		return 0, domainerrors.ErrVoterLimitReached
	}

	now := uc.now()
	for _, address := range eligible {
		session.VoterOrder = append(session.VoterOrder, address)
		session.Voters[address] = entities.VoterRecord{Registered: true}
	}
	session.UpdatedAt = now
	events, err := uc.sessionEvents(ctx, "voters.batch_registered", sessionID, now, map[string]any{
		"requested":  len(addresses),
		"registered": len(eligible),
	})
	if err != nil {
		return 0, err
	}
	if err := uc.sessions.SaveSession(ctx, session, events); err != nil {
		return 0, err
	}

	logger.Info("voter batch registered",
		"event", "voter_batch_registered",
		"module", "governance/session-engine",
		"layer", "application",
		"session_id", sessionID,
		"requested", len(addresses),
		"registered", len(eligible),
	)
	return len(eligible), nil
}
