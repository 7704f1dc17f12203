package governance

import "errors"

var (
	ErrAlreadyRegistered  = errors.New("contributor already registered")
	ErrUnknownContributor = errors.New("unknown contributor")
	ErrNotAContributor    = errors.New("not a contributor")
	ErrInvalidProposal    = errors.New("invalid proposal")
	ErrUnknownProposal    = errors.New("unknown proposal")
	ErrAlreadyVoted       = errors.New("already voted")
	ErrNotExecutable      = errors.New("proposal not executable")
	ErrInvalidScore       = errors.New("invalid score")
	ErrInvalidBonus       = errors.New("invalid module bonus")
	ErrInvalidAddress     = errors.New("invalid address")

	ErrVotingClosed   = errors.New("voting closed")
	ErrNotProposer    = errors.New("not the proposer")
	ErrNotCancellable = errors.New("proposal cannot be cancelled")
)
