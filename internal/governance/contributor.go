package governance

import (
	"fmt"
	"sort"
	"time"

	"ucic-governance-go/internal/ledger"

	"go.uber.org/zap"
)

type Contributor struct {
	Address  string
	Referrer string
	Founder  bool
	Tier     Tier
	// CompositeScore is the most recent evaluation plus any module bonuses applied since.
	CompositeScore    uint64
	PointsEarned      uint64
	RewardsReceived   uint64
	JoinedAt          time.Time
	LastRewardClaimAt time.Time
	// Trail holds governance log refs, oldest first.
	Trail []string
}

func copyContributor(c *Contributor) Contributor {
	out := *c
	out.Trail = append([]string(nil), c.Trail...)
	return out
}

func (r *Registry) RegisterContributor(address, referrer string) error {
	if address == "" || len(address) > ledger.MaxAddressLength {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	if ledger.IsReserved(address) {
		logRejected("register_contributor", ErrInvalidAddress, zap.String("contributor", address))
		return fmt.Errorf("%w: %s is reserved", ErrInvalidAddress, address)
	}
	if _, ok := r.contributors[address]; ok {
		logRejected("register_contributor", ErrAlreadyRegistered, zap.String("contributor", address))
		return ErrAlreadyRegistered
	}

	r.contributors[address] = &Contributor{
		Address:  address,
		Referrer: referrer,
		Tier:     Recognized,
		JoinedAt: r.clock.Now(),
	}
	r.record("register_contributor", address, referrer, 0, 0, "")

	zap.L().Info("Contributor registered",
		zap.String("contributor", address),
		zap.String("referrer", referrer))
	return nil
}

// AssignFounder grants the administrative Founder tier.
func (r *Registry) AssignFounder(address string) error {
	c, ok := r.contributors[address]
	if !ok {
		return ErrUnknownContributor
	}
	if c.Founder {
		return nil
	}
	c.Founder = true
	r.retier(c)
	r.record("assign_founder", address, "", 0, 0, "")
	return nil
}

// SubmitCompositeScore records a new evaluation and adds its composite to points earned.
func (r *Registry) SubmitCompositeScore(address string, scores Scores) (uint64, error) {
	c, ok := r.contributors[address]
	if !ok {
		logRejected("submit_composite_score", ErrUnknownContributor, zap.String("contributor", address))
		return 0, ErrUnknownContributor
	}
	if err := scores.Validate(); err != nil {
		return 0, err
	}

	composite := scores.Composite()
	c.CompositeScore = composite
	c.PointsEarned += composite
	prev := r.retier(c)
	r.record("submit_composite_score", address, "", composite, 0, "")

	zap.L().Info("Composite score recorded",
		zap.String("contributor", address),
		zap.Uint64("composite", composite),
		zap.Uint64("points_earned", c.PointsEarned),
		zap.Stringer("tier", c.Tier),
		zap.Stringer("previous_tier", prev))
	return composite, nil
}

// ModuleBonus looks up the configured bonus for a module.
func (r *Registry) ModuleBonus(moduleID uint32) (uint64, bool) {
	bonus, ok := r.params.ModuleBonuses[moduleID]
	return bonus, ok
}

func (r *Registry) AvailableBonuses() map[uint32]uint64 {
	out := make(map[uint32]uint64, len(r.params.ModuleBonuses))
	for id, bonus := range r.params.ModuleBonuses {
		out[id] = bonus
	}
	return out
}

// ApplyModuleBonus adds bonusPoints to both the composite score and points earned.
func (r *Registry) ApplyModuleBonus(address string, moduleID uint32, bonusPoints uint64) error {
	c, ok := r.contributors[address]
	if !ok {
		logRejected("apply_module_bonus", ErrUnknownContributor, zap.String("contributor", address))
		return ErrUnknownContributor
	}
	if bonusPoints == 0 {
		return fmt.Errorf("%w: module %d bonus is zero", ErrInvalidBonus, moduleID)
	}
	if c.PointsEarned+bonusPoints < c.PointsEarned || c.CompositeScore+bonusPoints < c.CompositeScore {
		return fmt.Errorf("%w: points overflow", ErrInvalidBonus)
	}

	// Bonuses are flat and may lift the composite score above MaxCategoryScore.
	c.CompositeScore += bonusPoints
	c.PointsEarned += bonusPoints
	r.retier(c)
	r.record("apply_module_bonus", address, fmt.Sprintf("module %d", moduleID), bonusPoints, 0, "")

	zap.L().Info("Module bonus applied",
		zap.String("contributor", address),
		zap.Uint32("module_id", moduleID),
		zap.Uint64("bonus", bonusPoints),
		zap.Stringer("tier", c.Tier))
	return nil
}

// retier recomputes the contributor's tier and returns the previous one.
func (r *Registry) retier(c *Contributor) Tier {
	prev := c.Tier
	c.Tier = r.params.tierFor(c.Founder, c.PointsEarned)
	return prev
}

func (r *Registry) Contributor(address string) (Contributor, bool) {
	c, ok := r.contributors[address]
	if !ok {
		return Contributor{}, false
	}
	return copyContributor(c), true
}

func (r *Registry) IsContributor(address string) bool {
	_, ok := r.contributors[address]
	return ok
}

func (r *Registry) ContributorCount() int {
	return len(r.contributors)
}

func (r *Registry) CompositeScore(address string) uint64 {
	if c, ok := r.contributors[address]; ok {
		return c.CompositeScore
	}
	return 0
}

// Tier returns the contributor's tier; unknown addresses are Recognized.
func (r *Registry) Tier(address string) Tier {
	if c, ok := r.contributors[address]; ok {
		return c.Tier
	}
	return Recognized
}

func (r *Registry) TierThreshold(t Tier) uint64 {
	return r.params.TierThresholds[t]
}

// VotingPower is zero for unknown addresses.
func (r *Registry) VotingPower(address string) uint64 {
	if c, ok := r.contributors[address]; ok {
		return c.Tier.VotingPower()
	}
	return 0
}

func (r *Registry) ContributorsInTier(t Tier) []string {
	var out []string
	for _, addr := range sortedAddresses(r.contributors) {
		if r.contributors[addr].Tier == t {
			out = append(out, addr)
		}
	}
	return out
}

func (r *Registry) TierDistribution() map[Tier]int {
	dist := make(map[Tier]int, len(Tiers))
	for _, t := range Tiers {
		dist[t] = 0
	}
	for _, c := range r.contributors {
		dist[c.Tier]++
	}
	return dist
}

// TopContributors returns up to n contributors ordered by points earned, then address.
func (r *Registry) TopContributors(n int) []Contributor {
	all := make([]Contributor, 0, len(r.contributors))
	for _, c := range r.contributors {
		all = append(all, copyContributor(c))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].PointsEarned != all[j].PointsEarned {
			return all[i].PointsEarned > all[j].PointsEarned
		}
		return all[i].Address < all[j].Address
	})
	if n >= 0 && n < len(all) {
		all = all[:n]
	}
	return all
}
