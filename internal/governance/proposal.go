package governance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

type ProposalStatus int

const (
	StatusPending ProposalStatus = iota
	StatusActive
	StatusPassed
	StatusFailed
	StatusExecuted
	StatusCancelled
)

func (s ProposalStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusExecuted:
		return "executed"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Open reports whether the proposal still accepts votes.
func (s ProposalStatus) Open() bool {
	return s == StatusPending || s == StatusActive
}

type VoteType int

const (
	VoteFor VoteType = iota
	VoteAgainst
	VoteAbstain
)

func (v VoteType) String() string {
	switch v {
	case VoteFor:
		return "for"
	case VoteAgainst:
		return "against"
	case VoteAbstain:
		return "abstain"
	default:
		return fmt.Sprintf("vote(%d)", int(v))
	}
}

func ParseVoteType(s string) (VoteType, error) {
	switch strings.ToLower(s) {
	case "for":
		return VoteFor, nil
	case "against":
		return VoteAgainst, nil
	case "abstain":
		return VoteAbstain, nil
	default:
		return 0, fmt.Errorf("unknown vote type %q", s)
	}
}

type Proposal struct {
	ID           uint64
	Proposer     string
	Title        string
	Description  string
	Status       ProposalStatus
	VotesFor     uint64
	VotesAgainst uint64
	VotesAbstain uint64
	CreatedAt    time.Time
	Deadline     time.Time
	FinalizedAt  time.Time
	ExecutedAt   time.Time
}

// Vote is immutable once cast. Power is the voter's tier multiplier at cast time.
type Vote struct {
	ProposalID uint64
	Voter      string
	Type       VoteType
	Power      uint64
	CastAt     time.Time
}

type voteKey struct {
	proposal uint64
	voter    string
}

func (r *Registry) CreateProposal(proposer, title, description string) (uint64, error) {
	if _, ok := r.contributors[proposer]; !ok {
		logRejected("create_proposal", ErrNotAContributor, zap.String("proposer", proposer))
		return 0, ErrNotAContributor
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(description) == "" {
		return 0, fmt.Errorf("%w: title and description are required", ErrInvalidProposal)
	}

	now := r.clock.Now()
	id := r.nextProposal
	r.nextProposal++
	r.proposals[id] = &Proposal{
		ID:          id,
		Proposer:    proposer,
		Title:       title,
		Description: description,
		Status:      StatusPending,
		CreatedAt:   now,
		Deadline:    now.Add(r.params.VotingPeriod),
	}
	r.record("create_proposal", proposer, fmt.Sprintf("proposal %d", id), 0, 0, "")

	zap.L().Info("Proposal created",
		zap.Uint64("proposal_id", id),
		zap.String("proposer", proposer),
		zap.Time("deadline", now.Add(r.params.VotingPeriod)))
	return id, nil
}

// CastVote records a weighted vote. The first vote activates a pending proposal.
func (r *Registry) CastVote(proposalID uint64, voter string, voteType VoteType) error {
	p, ok := r.proposals[proposalID]
	if !ok {
		return ErrUnknownProposal
	}
	c, ok := r.contributors[voter]
	if !ok {
		logRejected("cast_vote", ErrNotAContributor, zap.String("voter", voter))
		return ErrNotAContributor
	}
	key := voteKey{proposal: proposalID, voter: voter}
	if _, voted := r.votes[key]; voted {
		logRejected("cast_vote", ErrAlreadyVoted,
			zap.Uint64("proposal_id", proposalID),
			zap.String("voter", voter))
		return ErrAlreadyVoted
	}
	now := r.clock.Now()
	if !p.Status.Open() || !now.Before(p.Deadline) {
		return fmt.Errorf("%w: proposal %d is %s, deadline %s", ErrVotingClosed, proposalID, p.Status, p.Deadline.Format(time.RFC3339))
	}
	switch voteType {
	case VoteFor, VoteAgainst, VoteAbstain:
	default:
		return fmt.Errorf("%w: unknown vote type %d", ErrInvalidProposal, int(voteType))
	}

	power := c.Tier.VotingPower()
	switch voteType {
	case VoteFor:
		p.VotesFor += power
	case VoteAgainst:
		p.VotesAgainst += power
	case VoteAbstain:
		p.VotesAbstain += power
	}
	if p.Status == StatusPending {
		p.Status = StatusActive
	}
	r.votes[key] = Vote{
		ProposalID: proposalID,
		Voter:      voter,
		Type:       voteType,
		Power:      power,
		CastAt:     now,
	}
	r.record("cast_vote", voter, fmt.Sprintf("proposal %d %s", proposalID, voteType), power, 0, "")

	zap.L().Info("Vote cast",
		zap.Uint64("proposal_id", proposalID),
		zap.String("voter", voter),
		zap.Stringer("vote", voteType),
		zap.Uint64("power", power))
	return nil
}

// passes applies the simple majority rule: for must be at least half of for+against.
// Abstentions do not count, and a proposal nobody voted for or against fails.
func passes(p *Proposal) bool {
	decided := p.VotesFor + p.VotesAgainst
	return decided > 0 && p.VotesFor*2 >= decided
}

// FinalizeProposals closes every open proposal whose deadline is at or before now and
// returns the closed proposals ordered by id.
func (r *Registry) FinalizeProposals(now time.Time) []Proposal {
	var closed []Proposal
	for _, id := range r.sortedProposalIDs() {
		p := r.proposals[id]
		if !p.Status.Open() || now.Before(p.Deadline) {
			continue
		}
		if passes(p) {
			p.Status = StatusPassed
		} else {
			p.Status = StatusFailed
		}
		p.FinalizedAt = now
		r.record("finalize_proposal", p.Proposer, fmt.Sprintf("proposal %d %s", id, p.Status), 0, 0, "")
		closed = append(closed, *p)

		zap.L().Info("Proposal finalized",
			zap.Uint64("proposal_id", id),
			zap.Stringer("status", p.Status),
			zap.Uint64("votes_for", p.VotesFor),
			zap.Uint64("votes_against", p.VotesAgainst),
			zap.Uint64("votes_abstain", p.VotesAbstain))
	}
	return closed
}

func (r *Registry) ExecuteProposal(proposalID uint64) error {
	p, ok := r.proposals[proposalID]
	if !ok {
		return ErrUnknownProposal
	}
	if p.Status != StatusPassed {
		return fmt.Errorf("%w: proposal %d is %s", ErrNotExecutable, proposalID, p.Status)
	}
	p.Status = StatusExecuted
	p.ExecutedAt = r.clock.Now()
	r.record("execute_proposal", p.Proposer, fmt.Sprintf("proposal %d", proposalID), 0, 0, "")

	zap.L().Info("Proposal executed", zap.Uint64("proposal_id", proposalID))
	return nil
}

func (r *Registry) CancelProposal(proposalID uint64, proposer string) error {
	p, ok := r.proposals[proposalID]
	if !ok {
		return ErrUnknownProposal
	}
	if p.Proposer != proposer {
		return ErrNotProposer
	}
	if !p.Status.Open() {
		return fmt.Errorf("%w: proposal %d is %s", ErrNotCancellable, proposalID, p.Status)
	}
	p.Status = StatusCancelled
	r.record("cancel_proposal", proposer, fmt.Sprintf("proposal %d", proposalID), 0, 0, "")
	return nil
}

func (r *Registry) Proposal(proposalID uint64) (Proposal, bool) {
	p, ok := r.proposals[proposalID]
	if !ok {
		return Proposal{}, false
	}
	return *p, true
}

// ActiveProposals returns the proposals still accepting votes at now.
func (r *Registry) ActiveProposals(now time.Time) []Proposal {
	var out []Proposal
	for _, id := range r.sortedProposalIDs() {
		p := r.proposals[id]
		if p.Status.Open() && now.Before(p.Deadline) {
			out = append(out, *p)
		}
	}
	return out
}

func (r *Registry) HasVoted(proposalID uint64, voter string) bool {
	_, ok := r.votes[voteKey{proposal: proposalID, voter: voter}]
	return ok
}

func (r *Registry) Vote(proposalID uint64, voter string) (Vote, bool) {
	v, ok := r.votes[voteKey{proposal: proposalID, voter: voter}]
	return v, ok
}

func (r *Registry) sortedProposalIDs() []uint64 {
	ids := make([]uint64, 0, len(r.proposals))
	for id := range r.proposals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
