package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SessionResponse struct {
	SessionID        uint64 `json:"session_id"`
	State            string `json:"state"`
	Cancelled        bool   `json:"cancelled"`
	ParentID         uint64 `json:"parent_id"`
	HasParent        bool   `json:"has_parent"`
	ChildID          uint64 `json:"child_id"`
	HasChild         bool   `json:"has_child"`
	VoterCount       int    `json:"voter_count"`
	ProposalCount    int    `json:"proposal_count"`
	VotesCast        uint64 `json:"votes_cast"`
	HighestVoteCount uint64 `json:"highest_vote_count"`
	HasWinner        bool   `json:"has_winner"`
	WinningProposal  uint64 `json:"winning_proposal"`
}

type RegisterVoterRequest struct {
	Address string `json:"address"`
}

type RegisterVotersBatchRequest struct {
	Addresses []string `json:"addresses"`
}

type RegisterVotersBatchResponse struct {
	Requested  int `json:"requested"`
	Registered int `json:"registered"`
}

type SubmitProposalRequest struct {
	Description string `json:"description"`
}

type SubmitProposalResponse struct {
	SessionID  uint64 `json:"session_id"`
	ProposalID uint64 `json:"proposal_id"`
}

type CastVoteRequest struct {
	ProposalID uint64 `json:"proposal_id"`
}

type ProposalResponse struct {
	ProposalID  uint64 `json:"proposal_id"`
	Description string `json:"description"`
	VoteCount   uint64 `json:"vote_count"`
}

type ProposalListResponse struct {
	SessionID uint64             `json:"session_id"`
	Items     []ProposalResponse `json:"items"`
}

type WinningProposalResponse struct {
	SessionID   uint64 `json:"session_id"`
	ProposalID  uint64 `json:"proposal_id"`
	Description string `json:"description"`
	VoteCount   uint64 `json:"vote_count"`
}

type TallyResponse struct {
	SessionID       uint64 `json:"session_id"`
	State           string `json:"state"`
	HasWinner       bool   `json:"has_winner"`
	WinningProposal uint64 `json:"winning_proposal,omitempty"`
	WinnerVotes     uint64 `json:"winner_votes,omitempty"`
	Renewed         bool   `json:"renewed"`
	ChildSessionID  uint64 `json:"child_session_id,omitempty"`
}

type VoterStatusResponse struct {
	SessionID      uint64 `json:"session_id"`
	Address        string `json:"address"`
	Registered     bool   `json:"registered"`
	HasVoted       bool   `json:"has_voted"`
	ChosenProposal uint64 `json:"chosen_proposal"`
}

type AddressListResponse struct {
	SessionID uint64   `json:"session_id"`
	Addresses []string `json:"addresses"`
}

type LineageResponse struct {
	SessionID uint64 `json:"session_id"`
	RelatedID uint64 `json:"related_id"`
	Present   bool   `json:"present"`
}

type SessionCountResponse struct {
	Count uint64 `json:"count"`
}
