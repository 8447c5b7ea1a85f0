package sessionengine_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	sessionengine "agora/contexts/governance/session-engine"
	"agora/contexts/governance/session-engine/adapters/memory"
	"agora/contexts/governance/session-engine/application/commands"
	domainerrors "agora/contexts/governance/session-engine/domain/errors"
	httptransport "agora/contexts/governance/session-engine/transport/http"
	accessgate "agora/contexts/identity/access-gate"
)

const admin = "admin-1"

func newModules(t *testing.T) (sessionengine.Module, accessgate.Module) {
	t.Helper()
	gate := accessgate.NewInMemoryModule([]string{admin}, nil)
	return sessionengine.NewInMemoryModule(gate.Checks, nil), gate
}

func createSession(t *testing.T, module sessionengine.Module) uint64 {
	t.Helper()
	created, err := module.Handler.CreateSessionHandler(context.Background(), admin)
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	return created.SessionID
}

func registerVoters(t *testing.T, module sessionengine.Module, sessionID uint64, addresses ...string) {
	t.Helper()
	for _, address := range addresses {
		err := module.Handler.RegisterVoterHandler(context.Background(), admin, sessionID, httptransport.RegisterVoterRequest{
			Address: address,
		})
		if err != nil {
			t.Fatalf("register voter %s failed: %v", address, err)
		}
	}
}

func submitProposal(t *testing.T, module sessionengine.Module, sessionID uint64, voter string, description string) uint64 {
	t.Helper()
	resp, err := module.Handler.SubmitProposalHandler(context.Background(), voter, sessionID, httptransport.SubmitProposalRequest{
		Description: description,
	})
	if err != nil {
		t.Fatalf("submit proposal by %s failed: %v", voter, err)
	}
	return resp.ProposalID
}

func castVote(t *testing.T, module sessionengine.Module, sessionID uint64, voter string, proposalID uint64) {
	t.Helper()
	err := module.Handler.CastVoteHandler(context.Background(), voter, sessionID, httptransport.CastVoteRequest{
		ProposalID: proposalID,
	})
	if err != nil {
		t.Fatalf("vote by %s failed: %v", voter, err)
	}
}

func TestFullWorkflowWithUniqueWinner(t *testing.T) {
	module, _ := newModules(t)
	sessionID := createSession(t, module)

	stats, err := module.Handler.StatsHandler(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.State != "registering_voters" {
		t.Fatalf("expected fresh session in registering_voters, got %s", stats.State)
	}

	registerVoters(t, module, sessionID, "voter-a", "voter-b", "voter-c")
	if err := module.Handler.OpenProposalsHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("open proposals failed: %v", err)
	}

	first := submitProposal(t, module, sessionID, "voter-a", "extend the harbor promenade")
	second := submitProposal(t, module, sessionID, "voter-b", "build a public library annex")
	if first != 0 || second != 1 {
		t.Fatalf("expected dense proposal ids 0 and 1, got %d and %d", first, second)
	}

	if err := module.Handler.CloseProposalsHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("close proposals failed: %v", err)
	}
	if err := module.Handler.OpenVotingHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("open voting failed: %v", err)
	}

	castVote(t, module, sessionID, "voter-a", second)
	castVote(t, module, sessionID, "voter-b", second)
	castVote(t, module, sessionID, "voter-c", first)

	if err := module.Handler.CloseVotingHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("close voting failed: %v", err)
	}

	result, err := module.Handler.TallyHandler(context.Background(), admin, sessionID)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if !result.HasWinner || result.Renewed {
		t.Fatalf("expected unique winner, got %+v", result)
	}
	if result.WinningProposal != second {
		t.Fatalf("expected proposal %d to win, got %d", second, result.WinningProposal)
	}
	if result.State != "votes_tallied" {
		t.Fatalf("expected terminal state, got %s", result.State)
	}

	winner, err := module.Handler.WinningProposalHandler(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("winning proposal failed: %v", err)
	}
	if winner.ProposalID != second || winner.VoteCount != 2 {
		t.Fatalf("unexpected winner %+v", winner)
	}

	stats, err = module.Handler.StatsHandler(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.VotesCast != 3 {
		t.Fatalf("expected 3 votes cast, got %d", stats.VotesCast)
	}
	if stats.HighestVoteCount != 2 {
		t.Fatalf("expected highest vote count 2, got %d", stats.HighestVoteCount)
	}

	proposals, err := module.Handler.ProposalsHandler(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("proposals failed: %v", err)
	}
	var total uint64
	for _, proposal := range proposals.Items {
		total += proposal.VoteCount
	}
	if total != stats.VotesCast {
		t.Fatalf("vote counts sum to %d, stats report %d", total, stats.VotesCast)
	}
}

func TestAdminOperationsRejectNonAdmin(t *testing.T) {
	module, _ := newModules(t)
	sessionID := createSession(t, module)
	registerVoters(t, module, sessionID, "voter-a")

	if _, err := module.Handler.CreateSessionHandler(context.Background(), "voter-a"); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-admin create, got %v", err)
	}
	err := module.Handler.RegisterVoterHandler(context.Background(), "voter-a", sessionID, httptransport.RegisterVoterRequest{
		Address: "voter-b",
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-admin registration, got %v", err)
	}
	if err := module.Handler.OpenProposalsHandler(context.Background(), "voter-a", sessionID); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-admin transition, got %v", err)
	}
	if _, err := module.Handler.TallyHandler(context.Background(), "voter-a", sessionID); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-admin tally, got %v", err)
	}
	if err := module.Handler.CancelSessionHandler(context.Background(), "voter-a", sessionID); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-admin cancel, got %v", err)
	}
}

func TestParticipantOperationsRequireRegistration(t *testing.T) {
	module, _ := newModules(t)
	sessionID := createSession(t, module)
	registerVoters(t, module, sessionID, "voter-a")
	if err := module.Handler.OpenProposalsHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("open proposals failed: %v", err)
	}

	_, err := module.Handler.SubmitProposalHandler(context.Background(), "stranger", sessionID, httptransport.SubmitProposalRequest{
		Description: "a perfectly valid proposal",
	})
	if !errors.Is(err, domainerrors.ErrVoterNotRegistered) {
		t.Fatalf("expected ErrVoterNotRegistered for stranger proposal, got %v", err)
	}

	submitProposal(t, module, sessionID, "voter-a", "a perfectly valid proposal")
	if err := module.Handler.CloseProposalsHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("close proposals failed: %v", err)
	}
	if err := module.Handler.OpenVotingHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("open voting failed: %v", err)
	}

	err = module.Handler.CastVoteHandler(context.Background(), "stranger", sessionID, httptransport.CastVoteRequest{ProposalID: 0})
	if !errors.Is(err, domainerrors.ErrVoterNotRegistered) {
		t.Fatalf("expected ErrVoterNotRegistered for stranger vote, got %v", err)
	}
}

func TestWorkflowOrderIsStrict(t *testing.T) {
	module, _ := newModules(t)
	sessionID := createSession(t, module)

	// No voters yet: the proposal phase must not open.
	if err := module.Handler.OpenProposalsHandler(context.Background(), admin, sessionID); !errors.Is(err, domainerrors.ErrNoVotersRegistered) {
		t.Fatalf("expected ErrNoVotersRegistered, got %v", err)
	}
	// Skipping phases is rejected outright.
	if err := module.Handler.OpenVotingHandler(context.Background(), admin, sessionID); !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition for phase skip, got %v", err)
	}

	registerVoters(t, module, sessionID, "voter-a", "voter-b")

	// Proposal submission outside its phase.
	_, err := module.Handler.SubmitProposalHandler(context.Background(), "voter-a", sessionID, httptransport.SubmitProposalRequest{
		Description: "submitted far too early",
	})
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition for early proposal, got %v", err)
	}

	if err := module.Handler.OpenProposalsHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("open proposals failed: %v", err)
	}
	// Registration window has closed.
	err = module.Handler.RegisterVoterHandler(context.Background(), admin, sessionID, httptransport.RegisterVoterRequest{
		Address: "voter-c",
	})
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition for late registration, got %v", err)
	}
	// Closing the phase with zero proposals is refused.
	if err := module.Handler.CloseProposalsHandler(context.Background(), admin, sessionID); !errors.Is(err, domainerrors.ErrNoProposals) {
		t.Fatalf("expected ErrNoProposals, got %v", err)
	}

	submitProposal(t, module, sessionID, "voter-a", "the only proposal on the table")
	if err := module.Handler.CloseProposalsHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("close proposals failed: %v", err)
	}

	// Voting has not opened; an existing proposal id still cannot be voted.
	err = module.Handler.CastVoteHandler(context.Background(), "voter-a", sessionID, httptransport.CastVoteRequest{ProposalID: 0})
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition for early vote, got %v", err)
	}
	// An unknown proposal id is reported before the state check.
	err = module.Handler.CastVoteHandler(context.Background(), "voter-a", sessionID, httptransport.CastVoteRequest{ProposalID: 42})
	if !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound before state check, got %v", err)
	}

	if err := module.Handler.OpenVotingHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("open voting failed: %v", err)
	}
	// Closing the vote with zero ballots is refused.
	if err := module.Handler.CloseVotingHandler(context.Background(), admin, sessionID); !errors.Is(err, domainerrors.ErrNoVotesCast) {
		t.Fatalf("expected ErrNoVotesCast, got %v", err)
	}
	// Tally only runs after voting ended.
	if _, err := module.Handler.TallyHandler(context.Background(), admin, sessionID); !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition for early tally, got %v", err)
	}
}

func TestDuplicateRegistrationAndDoubleVoting(t *testing.T) {
	module, _ := newModules(t)
	sessionID := createSession(t, module)
	registerVoters(t, module, sessionID, "voter-a", "voter-b")

	err := module.Handler.RegisterVoterHandler(context.Background(), admin, sessionID, httptransport.RegisterVoterRequest{
		Address: "voter-a",
	})
	if !errors.Is(err, domainerrors.ErrVoterAlreadyRegistered) {
		t.Fatalf("expected ErrVoterAlreadyRegistered, got %v", err)
	}
	err = module.Handler.RegisterVoterHandler(context.Background(), admin, sessionID, httptransport.RegisterVoterRequest{
		Address: "   ",
	})
	if !errors.Is(err, domainerrors.ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress for blank address, got %v", err)
	}

	if err := module.Handler.OpenProposalsHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("open proposals failed: %v", err)
	}
	submitProposal(t, module, sessionID, "voter-a", "proposal one for the record")
	submitProposal(t, module, sessionID, "voter-b", "proposal two for the record")
	if err := module.Handler.CloseProposalsHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("close proposals failed: %v", err)
	}
	if err := module.Handler.OpenVotingHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("open voting failed: %v", err)
	}

	castVote(t, module, sessionID, "voter-a", 0)
	err = module.Handler.CastVoteHandler(context.Background(), "voter-a", sessionID, httptransport.CastVoteRequest{ProposalID: 1})
	if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}

	status, err := module.Handler.VoterStatusHandler(context.Background(), sessionID, "voter-a")
	if err != nil {
		t.Fatalf("voter status failed: %v", err)
	}
	if !status.HasVoted || status.ChosenProposal != 0 {
		t.Fatalf("vote must stay permanent, got %+v", status)
	}
}

func TestTieSpawnsRenewalSession(t *testing.T) {
	module, _ := newModules(t)
	sessionID := createSession(t, module)
	registerVoters(t, module, sessionID, "voter-a", "voter-b")

	if err := module.Handler.OpenProposalsHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("open proposals failed: %v", err)
	}
	submitProposal(t, module, sessionID, "voter-a", "repave the northern cycle path")
	submitProposal(t, module, sessionID, "voter-b", "plant an orchard on the common")
	if err := module.Handler.CloseProposalsHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("close proposals failed: %v", err)
	}
	if err := module.Handler.OpenVotingHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("open voting failed: %v", err)
	}
	castVote(t, module, sessionID, "voter-a", 0)
	castVote(t, module, sessionID, "voter-b", 1)
	if err := module.Handler.CloseVotingHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("close voting failed: %v", err)
	}

	result, err := module.Handler.TallyHandler(context.Background(), admin, sessionID)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if result.HasWinner || !result.Renewed {
		t.Fatalf("expected tie renewal, got %+v", result)
	}
	if result.State != "votes_tallied" {
		t.Fatalf("parent must reach terminal state, got %s", result.State)
	}
	childID := result.ChildSessionID

	// The tallied parent has no winner to expose.
	if _, err := module.Handler.WinningProposalHandler(context.Background(), sessionID); !errors.Is(err, domainerrors.ErrNoWinner) {
		t.Fatalf("expected ErrNoWinner on tied parent, got %v", err)
	}

	// Lineage is navigable both ways.
	child, err := module.Handler.ChildOfHandler(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("child lookup failed: %v", err)
	}
	if !child.Present || child.RelatedID != childID {
		t.Fatalf("unexpected child lineage %+v", child)
	}
	parent, err := module.Handler.ParentOfHandler(context.Background(), childID)
	if err != nil {
		t.Fatalf("parent lookup failed: %v", err)
	}
	if !parent.Present || parent.RelatedID != sessionID {
		t.Fatalf("unexpected parent lineage %+v", parent)
	}

	// The child carries the tied proposals at zero votes, the full voter
	// membership with no vote history, and sits directly in the voting phase.
	stats, err := module.Handler.StatsHandler(context.Background(), childID)
	if err != nil {
		t.Fatalf("child stats failed: %v", err)
	}
	if stats.State != "voting_session_started" {
		t.Fatalf("child must enter the voting phase, got %s", stats.State)
	}
	if stats.ProposalCount != 2 || stats.VotesCast != 0 || stats.HighestVoteCount != 0 {
		t.Fatalf("child must start with reset counts, got %+v", stats)
	}
	if stats.VoterCount != 2 {
		t.Fatalf("child must inherit voter membership, got %d voters", stats.VoterCount)
	}
	status, err := module.Handler.VoterStatusHandler(context.Background(), childID, "voter-a")
	if err != nil {
		t.Fatalf("child voter status failed: %v", err)
	}
	if !status.Registered || status.HasVoted {
		t.Fatalf("child voter must be registered without vote history, got %+v", status)
	}

	// The renewal round resolves normally.
	castVote(t, module, childID, "voter-a", 0)
	castVote(t, module, childID, "voter-b", 0)
	if err := module.Handler.CloseVotingHandler(context.Background(), admin, childID); err != nil {
		t.Fatalf("child close voting failed: %v", err)
	}
	childResult, err := module.Handler.TallyHandler(context.Background(), admin, childID)
	if err != nil {
		t.Fatalf("child tally failed: %v", err)
	}
	if !childResult.HasWinner || childResult.WinningProposal != 0 {
		t.Fatalf("expected child winner 0, got %+v", childResult)
	}
}

func TestTieRenewalRecordsDerivationEvents(t *testing.T) {
	module, _ := newModules(t)
	sessionID := createSession(t, module)
	registerVoters(t, module, sessionID, "voter-a", "voter-b")

	if err := module.Handler.OpenProposalsHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("open proposals failed: %v", err)
	}
	submitProposal(t, module, sessionID, "voter-a", "repave the northern cycle path")
	submitProposal(t, module, sessionID, "voter-b", "plant an orchard on the common")
	if err := module.Handler.CloseProposalsHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("close proposals failed: %v", err)
	}
	if err := module.Handler.OpenVotingHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("open voting failed: %v", err)
	}
	castVote(t, module, sessionID, "voter-a", 0)
	castVote(t, module, sessionID, "voter-b", 1)
	if err := module.Handler.CloseVotingHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("close voting failed: %v", err)
	}
	result, err := module.Handler.TallyHandler(context.Background(), admin, sessionID)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if !result.Renewed {
		t.Fatalf("expected tie renewal, got %+v", result)
	}

	// Every command above committed its envelopes with its state write, so
	// the pending outbox holds the whole trail, derivation included.
	pending, err := module.Store.ListPendingOutbox(context.Background(), 100)
	if err != nil {
		t.Fatalf("list pending outbox failed: %v", err)
	}
	counts := make(map[string]int, len(pending))
	for _, message := range pending {
		counts[message.EventType]++
	}
	expected := map[string]int{
		"session.created":      1,
		"voter.registered":     2,
		"proposal.registered":  2,
		"vote.cast":            2,
		"session.transitioned": 5,
		"session.derived":      1,
	}
	for eventType, want := range expected {
		if counts[eventType] != want {
			t.Fatalf("expected %d %s events, got %d (trail %v)", want, eventType, counts[eventType], counts)
		}
	}
	for _, message := range pending {
		if message.EventType != "session.derived" {
			continue
		}
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			t.Fatalf("unmarshal envelope failed: %v", err)
		}
		var data struct {
			ChildSessionID uint64 `json:"child_session_id"`
			SessionID      uint64 `json:"session_id"`
		}
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			t.Fatalf("unmarshal derivation data failed: %v", err)
		}
		if data.SessionID != sessionID || data.ChildSessionID != result.ChildSessionID {
			t.Fatalf("derivation event must name parent %d and child %d, got %+v", sessionID, result.ChildSessionID, data)
		}
	}
}

func TestRepeatedTiesChainSessions(t *testing.T) {
	module, _ := newModules(t)
	sessionID := createSession(t, module)
	registerVoters(t, module, sessionID, "voter-a", "voter-b")

	if err := module.Handler.OpenProposalsHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("open proposals failed: %v", err)
	}
	submitProposal(t, module, sessionID, "voter-a", "option one of a stubborn pair")
	submitProposal(t, module, sessionID, "voter-b", "option two of a stubborn pair")
	if err := module.Handler.CloseProposalsHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("close proposals failed: %v", err)
	}
	if err := module.Handler.OpenVotingHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("open voting failed: %v", err)
	}

	current := sessionID
	for generation := 0; generation < 3; generation++ {
		castVote(t, module, current, "voter-a", 0)
		castVote(t, module, current, "voter-b", 1)
		if err := module.Handler.CloseVotingHandler(context.Background(), admin, current); err != nil {
			t.Fatalf("generation %d close voting failed: %v", generation, err)
		}
		result, err := module.Handler.TallyHandler(context.Background(), admin, current)
		if err != nil {
			t.Fatalf("generation %d tally failed: %v", generation, err)
		}
		if !result.Renewed {
			t.Fatalf("generation %d expected renewal, got %+v", generation, result)
		}
		current = result.ChildSessionID
	}

	// Walk the lineage back to the root.
	steps := 0
	for cursor := current; ; steps++ {
		parent, err := module.Handler.ParentOfHandler(context.Background(), cursor)
		if err != nil {
			t.Fatalf("lineage walk failed: %v", err)
		}
		if !parent.Present {
			break
		}
		cursor = parent.RelatedID
	}
	if steps != 3 {
		t.Fatalf("expected a 3-deep renewal chain, got %d", steps)
	}
}

func TestBatchRegistrationSkipsAndCounts(t *testing.T) {
	module, _ := newModules(t)
	sessionID := createSession(t, module)
	registerVoters(t, module, sessionID, "voter-a")

	resp, err := module.Handler.RegisterVotersBatchHandler(context.Background(), admin, sessionID, httptransport.RegisterVotersBatchRequest{
		Addresses: []string{"voter-a", "voter-b", "  ", "voter-b", "voter-c"},
	})
	if err != nil {
		t.Fatalf("batch registration failed: %v", err)
	}
	if resp.Requested != 5 || resp.Registered != 2 {
		t.Fatalf("expected 2 of 5 registered, got %+v", resp)
	}

	addresses, err := module.Handler.AddressesHandler(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("addresses failed: %v", err)
	}
	want := []string{"voter-a", "voter-b", "voter-c"}
	if len(addresses.Addresses) != len(want) {
		t.Fatalf("expected %d addresses, got %d", len(want), len(addresses.Addresses))
	}
	for index, address := range want {
		if addresses.Addresses[index] != address {
			t.Fatalf("expected registration order %v, got %v", want, addresses.Addresses)
		}
	}
}

func TestLimitsAreEnforcedAtomically(t *testing.T) {
	gate := accessgate.NewInMemoryModule([]string{admin}, nil)
	store := memory.NewStore()
	module := sessionengine.NewModule(sessionengine.Dependencies{
		Sessions: store,
		Gate:     gate.Checks,
		Clock:    store,
		IDGen:    store,
		Limits: commands.Limits{
			MaxVoters:    3,
			MaxProposals: 2,
			MaxBatch:     4,
		},
	})
	sessionID := createSession(t, module)

	// Oversized batch is rejected before anything else.
	_, err := module.Handler.RegisterVotersBatchHandler(context.Background(), admin, sessionID, httptransport.RegisterVotersBatchRequest{
		Addresses: []string{"v1", "v2", "v3", "v4", "v5"},
	})
	if !errors.Is(err, domainerrors.ErrBatchLimitReached) {
		t.Fatalf("expected ErrBatchLimitReached, got %v", err)
	}

	registerVoters(t, module, sessionID, "v1", "v2")

	// A batch that would cross the voter cap registers nobody.
	_, err = module.Handler.RegisterVotersBatchHandler(context.Background(), admin, sessionID, httptransport.RegisterVotersBatchRequest{
		Addresses: []string{"v3", "v4"},
	})
	if !errors.Is(err, domainerrors.ErrVoterLimitReached) {
		t.Fatalf("expected ErrVoterLimitReached, got %v", err)
	}
	stats, err := module.Handler.StatsHandler(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.VoterCount != 2 {
		t.Fatalf("rejected batch must register nobody, got %d voters", stats.VoterCount)
	}

	registerVoters(t, module, sessionID, "v3")
	err = module.Handler.RegisterVoterHandler(context.Background(), admin, sessionID, httptransport.RegisterVoterRequest{Address: "v4"})
	if !errors.Is(err, domainerrors.ErrVoterLimitReached) {
		t.Fatalf("expected ErrVoterLimitReached at the cap, got %v", err)
	}

	if err := module.Handler.OpenProposalsHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("open proposals failed: %v", err)
	}
	submitProposal(t, module, sessionID, "v1", "first proposal under the cap")
	submitProposal(t, module, sessionID, "v2", "second proposal under the cap")
	_, err = module.Handler.SubmitProposalHandler(context.Background(), "v3", sessionID, httptransport.SubmitProposalRequest{
		Description: "third proposal over the cap",
	})
	if !errors.Is(err, domainerrors.ErrProposalLimitReached) {
		t.Fatalf("expected ErrProposalLimitReached, got %v", err)
	}
}

func TestProposalDescriptionBounds(t *testing.T) {
	module, _ := newModules(t)
	sessionID := createSession(t, module)
	registerVoters(t, module, sessionID, "voter-a")
	if err := module.Handler.OpenProposalsHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("open proposals failed: %v", err)
	}

	_, err := module.Handler.SubmitProposalHandler(context.Background(), "voter-a", sessionID, httptransport.SubmitProposalRequest{
		Description: "too short",
	})
	if !errors.Is(err, domainerrors.ErrInvalidDescription) {
		t.Fatalf("expected ErrInvalidDescription for short text, got %v", err)
	}

	long := make([]byte, 501)
	for index := range long {
		long[index] = 'x'
	}
	_, err = module.Handler.SubmitProposalHandler(context.Background(), "voter-a", sessionID, httptransport.SubmitProposalRequest{
		Description: string(long),
	})
	if !errors.Is(err, domainerrors.ErrInvalidDescription) {
		t.Fatalf("expected ErrInvalidDescription for long text, got %v", err)
	}

	// Both bounds are inclusive.
	if id := submitProposal(t, module, sessionID, "voter-a", "exactly10!"); id != 0 {
		t.Fatalf("expected proposal id 0, got %d", id)
	}
	if id := submitProposal(t, module, sessionID, "voter-a", string(long[:500])); id != 1 {
		t.Fatalf("expected proposal id 1, got %d", id)
	}
}

func TestCancelFreezesSession(t *testing.T) {
	module, _ := newModules(t)
	sessionID := createSession(t, module)
	registerVoters(t, module, sessionID, "voter-a", "voter-b")

	if err := module.Handler.CancelSessionHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	// Every further mutation is refused.
	err := module.Handler.RegisterVoterHandler(context.Background(), admin, sessionID, httptransport.RegisterVoterRequest{Address: "voter-c"})
	if !errors.Is(err, domainerrors.ErrSessionCancelled) {
		t.Fatalf("expected ErrSessionCancelled for registration, got %v", err)
	}
	if err := module.Handler.OpenProposalsHandler(context.Background(), admin, sessionID); !errors.Is(err, domainerrors.ErrSessionCancelled) {
		t.Fatalf("expected ErrSessionCancelled for transition, got %v", err)
	}
	if err := module.Handler.CancelSessionHandler(context.Background(), admin, sessionID); !errors.Is(err, domainerrors.ErrSessionCancelled) {
		t.Fatalf("expected ErrSessionCancelled for repeated cancel, got %v", err)
	}

	// The record stays fully queryable.
	stats, err := module.Handler.StatsHandler(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("stats on cancelled session failed: %v", err)
	}
	if !stats.Cancelled || stats.State != "registering_voters" {
		t.Fatalf("cancelled session must keep its last state, got %+v", stats)
	}
	addresses, err := module.Handler.AddressesHandler(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("addresses on cancelled session failed: %v", err)
	}
	if len(addresses.Addresses) != 2 {
		t.Fatalf("expected 2 addresses, got %d", len(addresses.Addresses))
	}
}

func TestCancelRejectedAfterTally(t *testing.T) {
	module, _ := newModules(t)
	sessionID := createSession(t, module)
	registerVoters(t, module, sessionID, "voter-a")
	if err := module.Handler.OpenProposalsHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("open proposals failed: %v", err)
	}
	submitProposal(t, module, sessionID, "voter-a", "the sole proposal in play")
	if err := module.Handler.CloseProposalsHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("close proposals failed: %v", err)
	}
	if err := module.Handler.OpenVotingHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("open voting failed: %v", err)
	}
	castVote(t, module, sessionID, "voter-a", 0)
	if err := module.Handler.CloseVotingHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("close voting failed: %v", err)
	}
	if _, err := module.Handler.TallyHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("tally failed: %v", err)
	}

	if err := module.Handler.CancelSessionHandler(context.Background(), admin, sessionID); !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition cancelling a tallied session, got %v", err)
	}
}

func TestPauseBlocksMutationsNotReads(t *testing.T) {
	module, gate := newModules(t)
	sessionID := createSession(t, module)
	registerVoters(t, module, sessionID, "voter-a")

	if err := gate.Handler.PauseHandler(context.Background(), admin); err != nil {
		t.Fatalf("pause failed: %v", err)
	}

	if _, err := module.Handler.CreateSessionHandler(context.Background(), admin); !errors.Is(err, domainerrors.ErrNotOperational) {
		t.Fatalf("expected ErrNotOperational for create while paused, got %v", err)
	}
	err := module.Handler.RegisterVoterHandler(context.Background(), admin, sessionID, httptransport.RegisterVoterRequest{Address: "voter-b"})
	if !errors.Is(err, domainerrors.ErrNotOperational) {
		t.Fatalf("expected ErrNotOperational for registration while paused, got %v", err)
	}
	_, err = module.Handler.SubmitProposalHandler(context.Background(), "voter-a", sessionID, httptransport.SubmitProposalRequest{
		Description: "submitted during the pause",
	})
	if !errors.Is(err, domainerrors.ErrNotOperational) {
		t.Fatalf("expected ErrNotOperational for proposal while paused, got %v", err)
	}

	// Reads stay available.
	if _, err := module.Handler.StatsHandler(context.Background(), sessionID); err != nil {
		t.Fatalf("stats while paused failed: %v", err)
	}

	if err := gate.Handler.ResumeHandler(context.Background(), admin); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	err = module.Handler.RegisterVoterHandler(context.Background(), admin, sessionID, httptransport.RegisterVoterRequest{Address: "voter-b"})
	if err != nil {
		t.Fatalf("registration after resume failed: %v", err)
	}
}

func TestReadSurfaceEdges(t *testing.T) {
	module, _ := newModules(t)

	if _, err := module.Handler.StatsHandler(context.Background(), 7); !errors.Is(err, domainerrors.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	first := createSession(t, module)
	second := createSession(t, module)
	if first != 0 || second != 1 {
		t.Fatalf("expected dense session ids 0 and 1, got %d and %d", first, second)
	}

	count, err := module.Handler.SessionCountHandler(context.Background())
	if err != nil {
		t.Fatalf("session count failed: %v", err)
	}
	if count.Count != 2 {
		t.Fatalf("expected 2 sessions, got %d", count.Count)
	}

	// Unknown addresses read as the zero record.
	status, err := module.Handler.VoterStatusHandler(context.Background(), first, "nobody")
	if err != nil {
		t.Fatalf("voter status failed: %v", err)
	}
	if status.Registered || status.HasVoted {
		t.Fatalf("unknown address must read as unregistered, got %+v", status)
	}

	if _, err := module.Handler.ProposalByIDHandler(context.Background(), first, 0); !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound, got %v", err)
	}
	if _, err := module.Handler.WinningProposalHandler(context.Background(), first); !errors.Is(err, domainerrors.ErrNoWinner) {
		t.Fatalf("expected ErrNoWinner, got %v", err)
	}

	lineage, err := module.Handler.ParentOfHandler(context.Background(), first)
	if err != nil {
		t.Fatalf("parent lookup failed: %v", err)
	}
	if lineage.Present {
		t.Fatalf("root session must have no parent, got %+v", lineage)
	}
}

func TestManyVotersLargeSession(t *testing.T) {
	module, _ := newModules(t)
	sessionID := createSession(t, module)

	addresses := make([]string, 0, 90)
	for index := 0; index < 90; index++ {
		addresses = append(addresses, fmt.Sprintf("voter-%03d", index))
	}
	resp, err := module.Handler.RegisterVotersBatchHandler(context.Background(), admin, sessionID, httptransport.RegisterVotersBatchRequest{
		Addresses: addresses,
	})
	if err != nil {
		t.Fatalf("batch registration failed: %v", err)
	}
	if resp.Registered != 90 {
		t.Fatalf("expected 90 registered, got %d", resp.Registered)
	}

	if err := module.Handler.OpenProposalsHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("open proposals failed: %v", err)
	}
	for index := 0; index < 3; index++ {
		submitProposal(t, module, sessionID, addresses[index], fmt.Sprintf("candidate option number %d", index))
	}
	if err := module.Handler.CloseProposalsHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("close proposals failed: %v", err)
	}
	if err := module.Handler.OpenVotingHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("open voting failed: %v", err)
	}

	for index, address := range addresses {
		castVote(t, module, sessionID, address, uint64(index%3))
	}
	if err := module.Handler.CloseVotingHandler(context.Background(), admin, sessionID); err != nil {
		t.Fatalf("close voting failed: %v", err)
	}
	result, err := module.Handler.TallyHandler(context.Background(), admin, sessionID)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	// 90 voters split evenly across 3 proposals: a three-way tie.
	if !result.Renewed {
		t.Fatalf("expected renewal for an even split, got %+v", result)
	}
	stats, err := module.Handler.StatsHandler(context.Background(), result.ChildSessionID)
	if err != nil {
		t.Fatalf("child stats failed: %v", err)
	}
	if stats.ProposalCount != 3 || stats.VoterCount != 90 {
		t.Fatalf("child must carry tied proposals and full membership, got %+v", stats)
	}
}
