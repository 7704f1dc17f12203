// Package governance implements the contributor registry: composite scoring, tier
// derivation, weighted proposal voting and the periodic reward cycle.
package governance

import (
	"fmt"
	"sort"
	"time"

	"ucic-governance-go/internal/clock"
	"ucic-governance-go/internal/ledger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Treasury pays rewards. *ledger.Ledger satisfies it.
type Treasury interface {
	DistributeReward(recipient string, amount uint64) (ledger.Transaction, error)
}

var logNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("ucic:governance:log"))

// LogEntry is one record of the registry's append-only governance log. Contributor
// audit trails reference entries by Ref.
type LogEntry struct {
	Seq     uint64
	Ref     string
	Action  string
	Address string
	Detail  string
	Points  uint64
	Amount  uint64
	// LedgerRef is set when the action moved tokens.
	LedgerRef string
	At        time.Time
}

type Registry struct {
	params   Params
	clock    clock.Clock
	treasury Treasury

	contributors map[string]*Contributor
	proposals    map[uint64]*Proposal
	votes        map[voteKey]Vote
	nextProposal uint64

	log  []LogEntry
	refs map[string]int

	totalRewardsDistributed uint64
	rewardCycles            uint64
	lastRewardDistribution  time.Time
}

func NewRegistry(params Params, clk clock.Clock, treasury Treasury) (*Registry, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid governance params: %w", err)
	}
	return &Registry{
		params:       params,
		clock:        clk,
		treasury:     treasury,
		contributors: make(map[string]*Contributor),
		proposals:    make(map[uint64]*Proposal),
		votes:        make(map[voteKey]Vote),
		nextProposal: 1,
		refs:         make(map[string]int),
	}, nil
}

func (r *Registry) Params() Params {
	return r.params
}

func (r *Registry) record(action, address, detail string, points, amount uint64, ledgerRef string) LogEntry {
	seq := uint64(len(r.log)) + 1
	entry := LogEntry{
		Seq:       seq,
		Ref:       uuid.NewSHA1(logNamespace, []byte(fmt.Sprintf("%d:%s:%s", seq, action, address))).String(),
		Action:    action,
		Address:   address,
		Detail:    detail,
		Points:    points,
		Amount:    amount,
		LedgerRef: ledgerRef,
		At:        r.clock.Now(),
	}
	r.log = append(r.log, entry)
	r.refs[entry.Ref] = len(r.log) - 1

	if c, ok := r.contributors[address]; ok {
		c.Trail = append(c.Trail, entry.Ref)
	}
	return entry
}

// GovernanceLog returns the full governance log, oldest first.
func (r *Registry) GovernanceLog() []LogEntry {
	return append([]LogEntry(nil), r.log...)
}

// AuditTrail returns the log entries of one contributor.
func (r *Registry) AuditTrail(address string) []LogEntry {
	c, ok := r.contributors[address]
	if !ok {
		return nil
	}
	out := make([]LogEntry, 0, len(c.Trail))
	for _, ref := range c.Trail {
		out = append(out, r.log[r.refs[ref]])
	}
	return out
}

type Statistics struct {
	Contributors            int
	Proposals               int
	OpenProposals           int
	TotalRewardsDistributed uint64
	RewardCycles            uint64
	LastRewardDistribution  time.Time
	TierDistribution        map[Tier]int
}

func (r *Registry) Statistics() Statistics {
	open := 0
	for _, p := range r.proposals {
		if p.Status.Open() {
			open++
		}
	}
	return Statistics{
		Contributors:            len(r.contributors),
		Proposals:               len(r.proposals),
		OpenProposals:           open,
		TotalRewardsDistributed: r.totalRewardsDistributed,
		RewardCycles:            r.rewardCycles,
		LastRewardDistribution:  r.lastRewardDistribution,
		TierDistribution:        r.TierDistribution(),
	}
}

func (r *Registry) TotalRewardsDistributed() uint64 {
	return r.totalRewardsDistributed
}

// VerifyIntegrity checks that every contributor is keyed by its own address, that its
// tier matches its points, and that every vote refers to a known proposal and voter.
func (r *Registry) VerifyIntegrity() error {
	for addr, c := range r.contributors {
		if c.Address != addr {
			return fmt.Errorf("contributor keyed %q has address %q", addr, c.Address)
		}
		if want := r.params.tierFor(c.Founder, c.PointsEarned); c.Tier != want {
			return fmt.Errorf("contributor %s has tier %s, points imply %s", addr, c.Tier, want)
		}
	}
	for key := range r.votes {
		if _, ok := r.proposals[key.proposal]; !ok {
			return fmt.Errorf("vote by %s references unknown proposal %d", key.voter, key.proposal)
		}
		if _, ok := r.contributors[key.voter]; !ok {
			return fmt.Errorf("vote on proposal %d by unknown contributor %s", key.proposal, key.voter)
		}
	}
	return nil
}

func sortedAddresses(m map[string]*Contributor) []string {
	out := make([]string, 0, len(m))
	for addr := range m {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

func logRejected(op string, err error, fields ...zap.Field) {
	zap.L().Debug("Governance operation rejected",
		append([]zap.Field{zap.String("operation", op), zap.Error(err)}, fields...)...)
}
