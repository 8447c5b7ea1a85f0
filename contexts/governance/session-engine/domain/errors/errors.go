package errors

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrProposalNotFound = errors.New("proposal not found")

	ErrInvalidStateTransition = errors.New("operation not allowed in current workflow state")

	ErrUnauthorized       = errors.New("caller is not the session administrator")
	ErrVoterNotRegistered = errors.New("caller is not a registered voter")
	ErrNotOperational     = errors.New("service is paused")

	ErrVoterAlreadyRegistered = errors.New("address is already registered")
	ErrAlreadyVoted           = errors.New("caller has already voted")

	ErrVoterLimitReached    = errors.New("voter limit reached")
	ErrProposalLimitReached = errors.New("proposal limit reached")
	ErrBatchLimitReached    = errors.New("batch size limit exceeded")

	ErrInvalidAddress     = errors.New("address must not be empty")
	ErrInvalidDescription = errors.New("proposal description length out of bounds")

	ErrSessionCancelled = errors.New("session is cancelled")

	ErrNoVotersRegistered = errors.New("no voters registered")
	ErrNoProposals        = errors.New("no proposals submitted")
	ErrNoVotesCast        = errors.New("no votes cast")

	ErrNoWinner = errors.New("session has no winner yet")

	ErrConflict = errors.New("outbox record conflict")
)
