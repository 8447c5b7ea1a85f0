package entities

import "time"

type WorkflowState int

const (
	StateRegisteringVoters WorkflowState = iota
	StateProposalsRegistrationStarted
	StateProposalsRegistrationEnded
	StateVotingSessionStarted
	StateVotingSessionEnded
	StateVotesTallied
)

func (s WorkflowState) String() string {
	switch s {
	case StateRegisteringVoters:
		return "registering_voters"
	case StateProposalsRegistrationStarted:
		return "proposals_registration_started"
	case StateProposalsRegistrationEnded:
		return "proposals_registration_ended"
	case StateVotingSessionStarted:
		return "voting_session_started"
	case StateVotingSessionEnded:
		return "voting_session_ended"
	case StateVotesTallied:
		return "votes_tallied"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further workflow transition can happen.
func (s WorkflowState) Terminal() bool {
	return s == StateVotesTallied
}

type Proposal struct {
	Description string
	VoteCount   uint64
}

type VoterRecord struct {
	Registered     bool
	HasVoted       bool
	ChosenProposal uint64
}

// Session is one complete workflow run. Ids are dense and assigned in
// creation order starting at 0, so parent/child references carry explicit
// presence flags instead of a zero sentinel.
type Session struct {
	ID        uint64
	ParentID  uint64
	HasParent bool
	ChildID   uint64
	HasChild  bool
	Cancelled bool
	State     WorkflowState

	HighestVoteCount uint64
	WinningProposal  uint64
	HasWinner        bool

	Proposals  []Proposal
	VoterOrder []string
	Voters     map[string]VoterRecord

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy. Adapters hand out clones so an aborted command
// never leaks partial mutations into the arena.
func (s Session) Clone() Session {
	out := s
	out.Proposals = append([]Proposal(nil), s.Proposals...)
	out.VoterOrder = append([]string(nil), s.VoterOrder...)
	out.Voters = make(map[string]VoterRecord, len(s.Voters))
	for address, record := range s.Voters {
		out.Voters[address] = record
	}
	return out
}

// VoterCount is the number of registered voters.
func (s Session) VoterCount() int {
	return len(s.VoterOrder)
}

// VoteTotal is the number of voters that have cast a vote.
func (s Session) VoteTotal() uint64 {
	var total uint64
	for _, record := range s.Voters {
		if record.HasVoted {
			total++
		}
	}
	return total
}
