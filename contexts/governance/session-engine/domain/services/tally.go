package services

import "agora/contexts/governance/session-engine/domain/entities"

// TallyOutcome is the result of scanning a closed session's proposals.
type TallyOutcome struct {
	HighestVoteCount uint64
	Tied             []uint64
}

// UniqueWinner reports whether exactly one proposal holds the maximum.
func (o TallyOutcome) UniqueWinner() (uint64, bool) {
	if len(o.Tied) == 1 {
		return o.Tied[0], true
	}
	return 0, false
}

// ResolveTally scans proposals for the maximum vote count and collects every
// index that holds it. With at least one vote cast the tied set is never
// empty.
func ResolveTally(proposals []entities.Proposal) TallyOutcome {
	var highest uint64
	for _, proposal := range proposals {
		if proposal.VoteCount > highest {
			highest = proposal.VoteCount
		}
	}

	outcome := TallyOutcome{HighestVoteCount: highest}
	for index, proposal := range proposals {
		if proposal.VoteCount == highest {
			outcome.Tied = append(outcome.Tied, uint64(index))
		}
	}
	return outcome
}

// DeriveRenewal builds the child session seeded from the tied subset of the
// parent: descriptions copied with counts reset, full voter membership with
// no vote history, entering directly at the voting phase.
func DeriveRenewal(parent entities.Session, tied []uint64) entities.Session {
	child := entities.Session{
		ParentID:  parent.ID,
		HasParent: true,
		State:     entities.StateVotingSessionStarted,
		Proposals: make([]entities.Proposal, 0, len(tied)),
		Voters:    make(map[string]entities.VoterRecord, len(parent.Voters)),
	}
	for _, index := range tied {
		child.Proposals = append(child.Proposals, entities.Proposal{
			Description: parent.Proposals[index].Description,
		})
	}
	child.VoterOrder = append([]string(nil), parent.VoterOrder...)
	for _, address := range parent.VoterOrder {
		child.Voters[address] = entities.VoterRecord{Registered: true}
	}
	return child
}
