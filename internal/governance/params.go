package governance

import (
	"fmt"
	"time"

	"ucic-governance-go/internal/ledger"
)

// Params are the tunable governance constants.
type Params struct {
	VotingPeriod time.Duration
	// MonthlyPool is the reward pool per cycle, in ledger units.
	MonthlyPool uint64
	// TierThresholds are cumulative points. The Founder entry is informational only;
	// Founder is assigned, never earned.
	TierThresholds map[Tier]uint64
	// RewardWeights are the relative pool shares of the scored tiers.
	RewardWeights map[Tier]uint64
	// FounderReservePercent of the pool is set aside for founders when any exist.
	FounderReservePercent uint64
	ModuleBonuses         map[uint32]uint64
}

func DefaultParams() Params {
	return Params{
		VotingPeriod: 72 * time.Hour,
		MonthlyPool:  ledger.ToUnits(30),
		TierThresholds: map[Tier]uint64{
			Recognized: 0,
			Silver:     100,
			Gold:       250,
			Platinum:   500,
			Founder:    1000,
		},
		RewardWeights: map[Tier]uint64{
			Recognized: 20,
			Silver:     20,
			Gold:       30,
			Platinum:   40,
		},
		FounderReservePercent: 10,
		ModuleBonuses: map[uint32]uint64{
			1: 50,
			2: 75,
			3: 100,
			4: 50,
		},
	}
}

func (p Params) Validate() error {
	if p.VotingPeriod <= 0 {
		return fmt.Errorf("voting period must be positive, got %s", p.VotingPeriod)
	}
	if p.TierThresholds[Recognized] != 0 {
		return fmt.Errorf("recognized threshold must be 0, got %d", p.TierThresholds[Recognized])
	}
	for i := 1; i < len(scoredTiers); i++ {
		prev, cur := scoredTiers[i-1], scoredTiers[i]
		if p.TierThresholds[cur] <= p.TierThresholds[prev] {
			return fmt.Errorf("threshold for %s (%d) must exceed %s (%d)",
				cur, p.TierThresholds[cur], prev, p.TierThresholds[prev])
		}
	}
	var weights uint64
	for _, t := range scoredTiers {
		weights += p.RewardWeights[t]
	}
	if weights == 0 {
		return fmt.Errorf("at least one tier needs a reward weight")
	}
	if p.FounderReservePercent > 100 {
		return fmt.Errorf("founder reserve %d%% exceeds 100%%", p.FounderReservePercent)
	}
	return nil
}
