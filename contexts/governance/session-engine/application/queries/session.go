package queries

import (
	"context"
	"strings"
	"time"

	"agora/contexts/governance/session-engine/domain/entities"
	domainerrors "agora/contexts/governance/session-engine/domain/errors"
	"agora/contexts/governance/session-engine/ports"
)

// SessionQueries is the ungated read surface. Queries observe only committed
// state; no capability check applies.
type SessionQueries struct {
	Sessions ports.SessionRepository
}

// SessionStats is the aggregate snapshot of one session.
type SessionStats struct {
	ID               uint64
	State            entities.WorkflowState
	Cancelled        bool
	VoterCount       int
	ProposalCount    int
	VotesCast        uint64
	HighestVoteCount uint64
	HasWinner        bool
	WinningProposal  uint64
	ParentID         uint64
	HasParent        bool
	ChildID          uint64
	HasChild         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (q SessionQueries) Session(ctx context.Context, sessionID uint64) (entities.Session, error) {
	return q.Sessions.GetSession(ctx, sessionID)
}

// WinningProposal fails with ErrNoWinner until a tally resolved uniquely.
func (q SessionQueries) WinningProposal(ctx context.Context, sessionID uint64) (uint64, entities.Proposal, error) {
	session, err := q.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return 0, entities.Proposal{}, err
	}
	if !session.HasWinner {
		return 0, entities.Proposal{}, domainerrors.ErrNoWinner
	}
	return session.WinningProposal, session.Proposals[session.WinningProposal], nil
}

func (q SessionQueries) ParentOf(ctx context.Context, sessionID uint64) (uint64, bool, error) {
	session, err := q.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return 0, false, err
	}
	return session.ParentID, session.HasParent, nil
}

func (q SessionQueries) ChildOf(ctx context.Context, sessionID uint64) (uint64, bool, error) {
	session, err := q.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return 0, false, err
	}
	return session.ChildID, session.HasChild, nil
}

func (q SessionQueries) Proposals(ctx context.Context, sessionID uint64) ([]entities.Proposal, error) {
	session, err := q.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Proposals, nil
}

func (q SessionQueries) ProposalByID(ctx context.Context, sessionID uint64, proposalID uint64) (entities.Proposal, error) {
	session, err := q.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return entities.Proposal{}, err
	}
	if proposalID >= uint64(len(session.Proposals)) {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	return session.Proposals[proposalID], nil
}

// VoterStatus returns the voter record for an address; an unknown address
// yields the zero record, not an error.
func (q SessionQueries) VoterStatus(ctx context.Context, sessionID uint64, address string) (entities.VoterRecord, error) {
	session, err := q.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return entities.VoterRecord{}, err
	}
	return session.Voters[strings.TrimSpace(address)], nil
}

func (q SessionQueries) Addresses(ctx context.Context, sessionID uint64) ([]string, error) {
	session, err := q.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.VoterOrder, nil
}

func (q SessionQueries) Stats(ctx context.Context, sessionID uint64) (SessionStats, error) {
	session, err := q.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return SessionStats{}, err
	}
	return SessionStats{
		ID:               session.ID,
		State:            session.State,
		Cancelled:        session.Cancelled,
		VoterCount:       session.VoterCount(),
		ProposalCount:    len(session.Proposals),
		VotesCast:        session.VoteTotal(),
		HighestVoteCount: session.HighestVoteCount,
		HasWinner:        session.HasWinner,
		WinningProposal:  session.WinningProposal,
		ParentID:         session.ParentID,
		HasParent:        session.HasParent,
		ChildID:          session.ChildID,
		HasChild:         session.HasChild,
		CreatedAt:        session.CreatedAt,
		UpdatedAt:        session.UpdatedAt,
	}, nil
}

func (q SessionQueries) SessionCount(ctx context.Context) (uint64, error) {
	return q.Sessions.CountSessions(ctx)
}

func (q SessionQueries) IsRegistered(ctx context.Context, sessionID uint64, address string) (bool, error) {
	record, err := q.VoterStatus(ctx, sessionID, address)
	if err != nil {
		return false, err
	}
	return record.Registered, nil
}

func (q SessionQueries) HasVoted(ctx context.Context, sessionID uint64, address string) (bool, error) {
	record, err := q.VoterStatus(ctx, sessionID, address)
	if err != nil {
		return false, err
	}
	return record.HasVoted, nil
}

func (q SessionQueries) IsCancelled(ctx context.Context, sessionID uint64) (bool, error) {
	session, err := q.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return session.Cancelled, nil
}
