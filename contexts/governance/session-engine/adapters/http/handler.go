package httpadapter

import (
	"context"
	"log/slog"

	"agora/contexts/governance/session-engine/application/commands"
	"agora/contexts/governance/session-engine/application/queries"
	httptransport "agora/contexts/governance/session-engine/transport/http"
)

// Handler maps transport DTOs onto the session use cases. The platform HTTP
// server owns routing, header parsing, and error-to-status mapping.
type Handler struct {
	Sessions *commands.SessionUseCase
	Queries  queries.SessionQueries
	Logger   *slog.Logger
}

func (h Handler) CreateSessionHandler(ctx context.Context, caller string) (httptransport.SessionResponse, error) {
	session, err := h.Sessions.CreateSession(ctx, caller)
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return h.StatsHandler(ctx, session.ID)
}

func (h Handler) CancelSessionHandler(ctx context.Context, caller string, sessionID uint64) error {
	return h.Sessions.CancelSession(ctx, caller, sessionID)
}

func (h Handler) RegisterVoterHandler(ctx context.Context, caller string, sessionID uint64, req httptransport.RegisterVoterRequest) error {
	return h.Sessions.RegisterVoter(ctx, caller, sessionID, req.Address)
}

func (h Handler) RegisterVotersBatchHandler(
	ctx context.Context,
	caller string,
	sessionID uint64,
	req httptransport.RegisterVotersBatchRequest,
) (httptransport.RegisterVotersBatchResponse, error) {
	registered, err := h.Sessions.RegisterVotersBatch(ctx, caller, sessionID, req.Addresses)
	if err != nil {
		return httptransport.RegisterVotersBatchResponse{}, err
	}
	return httptransport.RegisterVotersBatchResponse{
		Requested:  len(req.Addresses),
		Registered: registered,
	}, nil
}

func (h Handler) OpenProposalsHandler(ctx context.Context, caller string, sessionID uint64) error {
	return h.Sessions.OpenProposals(ctx, caller, sessionID)
}

func (h Handler) CloseProposalsHandler(ctx context.Context, caller string, sessionID uint64) error {
	return h.Sessions.CloseProposals(ctx, caller, sessionID)
}

func (h Handler) OpenVotingHandler(ctx context.Context, caller string, sessionID uint64) error {
	return h.Sessions.OpenVoting(ctx, caller, sessionID)
}

func (h Handler) CloseVotingHandler(ctx context.Context, caller string, sessionID uint64) error {
	return h.Sessions.CloseVoting(ctx, caller, sessionID)
}

func (h Handler) TallyHandler(ctx context.Context, caller string, sessionID uint64) (httptransport.TallyResponse, error) {
	result, err := h.Sessions.Tally(ctx, caller, sessionID)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	resp := httptransport.TallyResponse{
		SessionID: result.Session.ID,
		State:     result.Session.State.String(),
		HasWinner: result.HasWinner,
		Renewed:   result.Renewed,
	}
	if result.HasWinner {
		resp.WinningProposal = result.WinnerID
		resp.WinnerVotes = result.Winner.VoteCount
	}
	if result.Renewed {
		resp.ChildSessionID = result.Child.ID
	}
	return resp, nil
}

func (h Handler) SubmitProposalHandler(
	ctx context.Context,
	caller string,
	sessionID uint64,
	req httptransport.SubmitProposalRequest,
) (httptransport.SubmitProposalResponse, error) {
	proposalID, err := h.Sessions.SubmitProposal(ctx, caller, sessionID, req.Description)
	if err != nil {
		return httptransport.SubmitProposalResponse{}, err
	}
	return httptransport.SubmitProposalResponse{
		SessionID:  sessionID,
		ProposalID: proposalID,
	}, nil
}

func (h Handler) CastVoteHandler(ctx context.Context, caller string, sessionID uint64, req httptransport.CastVoteRequest) error {
	return h.Sessions.CastVote(ctx, caller, sessionID, req.ProposalID)
}

func (h Handler) StatsHandler(ctx context.Context, sessionID uint64) (httptransport.SessionResponse, error) {
	stats, err := h.Queries.Stats(ctx, sessionID)
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return httptransport.SessionResponse{
		SessionID:        stats.ID,
		State:            stats.State.String(),
		Cancelled:        stats.Cancelled,
		ParentID:         stats.ParentID,
		HasParent:        stats.HasParent,
		ChildID:          stats.ChildID,
		HasChild:         stats.HasChild,
		VoterCount:       stats.VoterCount,
		ProposalCount:    stats.ProposalCount,
		VotesCast:        stats.VotesCast,
		HighestVoteCount: stats.HighestVoteCount,
		HasWinner:        stats.HasWinner,
		WinningProposal:  stats.WinningProposal,
	}, nil
}

func (h Handler) WinningProposalHandler(ctx context.Context, sessionID uint64) (httptransport.WinningProposalResponse, error) {
	proposalID, proposal, err := h.Queries.WinningProposal(ctx, sessionID)
	if err != nil {
		return httptransport.WinningProposalResponse{}, err
	}
	return httptransport.WinningProposalResponse{
		SessionID:   sessionID,
		ProposalID:  proposalID,
		Description: proposal.Description,
		VoteCount:   proposal.VoteCount,
	}, nil
}

func (h Handler) ProposalsHandler(ctx context.Context, sessionID uint64) (httptransport.ProposalListResponse, error) {
	proposals, err := h.Queries.Proposals(ctx, sessionID)
	if err != nil {
		return httptransport.ProposalListResponse{}, err
	}
	items := make([]httptransport.ProposalResponse, 0, len(proposals))
	for index, proposal := range proposals {
		items = append(items, httptransport.ProposalResponse{
			ProposalID:  uint64(index),
			Description: proposal.Description,
			VoteCount:   proposal.VoteCount,
		})
	}
	return httptransport.ProposalListResponse{
		SessionID: sessionID,
		Items:     items,
	}, nil
}

func (h Handler) ProposalByIDHandler(ctx context.Context, sessionID uint64, proposalID uint64) (httptransport.ProposalResponse, error) {
	proposal, err := h.Queries.ProposalByID(ctx, sessionID, proposalID)
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return httptransport.ProposalResponse{
		ProposalID:  proposalID,
		Description: proposal.Description,
		VoteCount:   proposal.VoteCount,
	}, nil
}

func (h Handler) VoterStatusHandler(ctx context.Context, sessionID uint64, address string) (httptransport.VoterStatusResponse, error) {
	record, err := h.Queries.VoterStatus(ctx, sessionID, address)
	if err != nil {
		return httptransport.VoterStatusResponse{}, err
	}
	return httptransport.VoterStatusResponse{
		SessionID:      sessionID,
		Address:        address,
		Registered:     record.Registered,
		HasVoted:       record.HasVoted,
		ChosenProposal: record.ChosenProposal,
	}, nil
}

func (h Handler) AddressesHandler(ctx context.Context, sessionID uint64) (httptransport.AddressListResponse, error) {
	addresses, err := h.Queries.Addresses(ctx, sessionID)
	if err != nil {
		return httptransport.AddressListResponse{}, err
	}
	return httptransport.AddressListResponse{
		SessionID: sessionID,
		Addresses: addresses,
	}, nil
}

func (h Handler) ParentOfHandler(ctx context.Context, sessionID uint64) (httptransport.LineageResponse, error) {
	parentID, present, err := h.Queries.ParentOf(ctx, sessionID)
	if err != nil {
		return httptransport.LineageResponse{}, err
	}
	return httptransport.LineageResponse{
		SessionID: sessionID,
		RelatedID: parentID,
		Present:   present,
	}, nil
}

func (h Handler) ChildOfHandler(ctx context.Context, sessionID uint64) (httptransport.LineageResponse, error) {
	childID, present, err := h.Queries.ChildOf(ctx, sessionID)
	if err != nil {
		return httptransport.LineageResponse{}, err
	}
	return httptransport.LineageResponse{
		SessionID: sessionID,
		RelatedID: childID,
		Present:   present,
	}, nil
}

func (h Handler) SessionCountHandler(ctx context.Context) (httptransport.SessionCountResponse, error) {
	count, err := h.Queries.SessionCount(ctx)
	if err != nil {
		return httptransport.SessionCountResponse{}, err
	}
	return httptransport.SessionCountResponse{Count: count}, nil
}
