package governance

import (
	"math/bits"
	"time"

	"go.uber.org/zap"
)

// Allocation is one contributor's share of a reward cycle.
type Allocation struct {
	Address string
	Tier    Tier
	Amount  uint64
}

type Payout struct {
	Allocation
	LedgerRef string
}

type RewardReport struct {
	At          time.Time
	Pool        uint64
	Paid        int
	Distributed uint64
	Payouts     []Payout
	// Failed lists allocations the treasury could not pay. They are not retried.
	Failed []Allocation
}

// mulDiv computes a*b/c without intermediate overflow. The quotient must fit in 64 bits,
// which holds whenever b <= c.
func mulDiv(a, b, c uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	q, _ := bits.Div64(hi, lo, c)
	return q
}

// allocate splits the monthly pool across the current tier grouping. Founders share
// FounderReservePercent of the pool when any exist. The rest goes to the scored tiers
// that have members, in proportion to their weights. Each tier's share is split evenly
// and integer remainders stay in the treasury, so the total never exceeds the pool.
func (r *Registry) allocate() []Allocation {
	groups := make(map[Tier][]string)
	for _, addr := range sortedAddresses(r.contributors) {
		t := r.contributors[addr].Tier
		groups[t] = append(groups[t], addr)
	}

	pool := r.params.MonthlyPool
	remaining := pool
	var out []Allocation

	if founders := groups[Founder]; len(founders) > 0 {
		reserve := mulDiv(pool, r.params.FounderReservePercent, 100)
		remaining -= reserve
		per := reserve / uint64(len(founders))
		for _, addr := range founders {
			out = append(out, Allocation{Address: addr, Tier: Founder, Amount: per})
		}
	}

	var weightSum uint64
	for _, t := range scoredTiers {
		if len(groups[t]) > 0 {
			weightSum += r.params.RewardWeights[t]
		}
	}
	if weightSum == 0 {
		return out
	}

	for i := len(scoredTiers) - 1; i >= 0; i-- {
		t := scoredTiers[i]
		members := groups[t]
		if len(members) == 0 {
			continue
		}
		share := mulDiv(remaining, r.params.RewardWeights[t], weightSum)
		per := share / uint64(len(members))
		for _, addr := range members {
			out = append(out, Allocation{Address: addr, Tier: t, Amount: per})
		}
	}
	return out
}

// PendingReward projects what address would receive if the cycle ran now.
func (r *Registry) PendingReward(address string) uint64 {
	if _, ok := r.contributors[address]; !ok {
		return 0
	}
	for _, a := range r.allocate() {
		if a.Address == address {
			return a.Amount
		}
	}
	return 0
}

// DistributeMonthlyRewards pays one reward cycle out of the treasury. Zero allocations
// are skipped. A failed payment is logged, left unpaid and not counted.
func (r *Registry) DistributeMonthlyRewards(timestamp time.Time) RewardReport {
	report := RewardReport{At: timestamp, Pool: r.params.MonthlyPool}

	for _, a := range r.allocate() {
		if a.Amount == 0 {
			continue
		}
		tx, err := r.treasury.DistributeReward(a.Address, a.Amount)
		if err != nil {
			zap.L().Warn("Reward payment failed",
				zap.String("contributor", a.Address),
				zap.Uint64("amount", a.Amount),
				zap.Error(err))
			report.Failed = append(report.Failed, a)
			continue
		}

		c := r.contributors[a.Address]
		c.RewardsReceived += a.Amount
		c.LastRewardClaimAt = timestamp
		r.totalRewardsDistributed += a.Amount
		r.record("reward", a.Address, a.Tier.String(), 0, a.Amount, tx.Ref)

		report.Paid++
		report.Distributed += a.Amount
		report.Payouts = append(report.Payouts, Payout{Allocation: a, LedgerRef: tx.Ref})
	}

	r.rewardCycles++
	r.lastRewardDistribution = timestamp
	r.record("distribute_monthly_rewards", "", "", 0, report.Distributed, "")

	zap.L().Info("Monthly rewards distributed",
		zap.Time("timestamp", timestamp),
		zap.Int("paid", report.Paid),
		zap.Int("failed", len(report.Failed)),
		zap.Uint64("distributed", report.Distributed),
		zap.Uint64("pool", report.Pool))
	return report
}

func (r *Registry) LastRewardDistribution() time.Time {
	return r.lastRewardDistribution
}
