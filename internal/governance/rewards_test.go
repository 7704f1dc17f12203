package governance

import (
	"testing"

	"ucic-governance-go/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewardsNoContributors(t *testing.T) {
	r, clk, treasury := newTestRegistry(t)

	report := r.DistributeMonthlyRewards(clk.Now())
	assert.Zero(t, report.Paid)
	assert.Zero(t, treasury.calls)
	assert.Equal(t, uint64(1), r.Statistics().RewardCycles)
}

func TestRewardsSingleTierTakesWholePool(t *testing.T) {
	r, clk, treasury := newTestRegistry(t)
	for _, addr := range []string{"a", "b", "c"} {
		require.NoError(t, r.RegisterContributor(addr, ""))
	}

	report := r.DistributeMonthlyRewards(clk.Now())
	require.Equal(t, 3, report.Paid)

	per := ledger.ToUnits(30) / 3
	for _, addr := range []string{"a", "b", "c"} {
		assert.Equal(t, per, treasury.paid[addr])
		c, _ := r.Contributor(addr)
		assert.Equal(t, per, c.RewardsReceived)
		assert.Equal(t, clk.Now(), c.LastRewardClaimAt)
	}
	assert.Equal(t, per*3, r.TotalRewardsDistributed())
}

func TestRewardsAcrossAllTiersStayWithinPool(t *testing.T) {
	r, clk, treasury := newTestRegistry(t)

	setup := map[string]uint64{"rec": 0, "sil": 100, "gol": 300, "pla": 600, "fou": 0}
	for addr, bonus := range setup {
		require.NoError(t, r.RegisterContributor(addr, ""))
		if bonus > 0 {
			require.NoError(t, r.ApplyModuleBonus(addr, 1, bonus))
		}
	}
	require.NoError(t, r.AssignFounder("fou"))

	pool := r.Params().MonthlyPool
	before := treasury.balance
	report := r.DistributeMonthlyRewards(clk.Now())

	require.Equal(t, 5, report.Paid)
	assert.LessOrEqual(t, report.Distributed, pool)
	assert.Equal(t, before-treasury.balance, report.Distributed)

	reserve := pool / 10
	rest := pool - reserve
	assert.Equal(t, reserve, treasury.paid["fou"])
	assert.Equal(t, rest*40/110, treasury.paid["pla"])
	assert.Equal(t, rest*30/110, treasury.paid["gol"])
	assert.Equal(t, rest*20/110, treasury.paid["sil"])
	assert.Equal(t, rest*20/110, treasury.paid["rec"])

	assert.Greater(t, treasury.paid["pla"], treasury.paid["gol"])
}

func TestPendingRewardMatchesPayout(t *testing.T) {
	r, clk, treasury := newTestRegistry(t)
	require.NoError(t, r.RegisterContributor("x", ""))
	require.NoError(t, r.RegisterContributor("y", ""))
	require.NoError(t, r.ApplyModuleBonus("y", 3, 250))

	pendingX := r.PendingReward("x")
	pendingY := r.PendingReward("y")
	assert.Zero(t, r.PendingReward("stranger"))

	r.DistributeMonthlyRewards(clk.Now())
	assert.Equal(t, pendingX, treasury.paid["x"])
	assert.Equal(t, pendingY, treasury.paid["y"])
}

func TestFailedPaymentIsNotCounted(t *testing.T) {
	r, clk, treasury := newTestRegistry(t)
	require.NoError(t, r.RegisterContributor("ok", ""))
	require.NoError(t, r.RegisterContributor("bad", ""))
	treasury.reject["bad"] = true

	report := r.DistributeMonthlyRewards(clk.Now())
	assert.Equal(t, 1, report.Paid)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "bad", report.Failed[0].Address)

	bad, _ := r.Contributor("bad")
	assert.Zero(t, bad.RewardsReceived)
	assert.True(t, bad.LastRewardClaimAt.IsZero())
	assert.Equal(t, treasury.paid["ok"], r.TotalRewardsDistributed())
}

func TestRewardsAgainstRealLedger(t *testing.T) {
	clk := newTestClock()
	l := ledger.New(ledger.ToUnits(1000), clk)
	r, err := NewRegistry(DefaultParams(), clk, l)
	require.NoError(t, err)

	for _, addr := range []string{"m1", "m2", "m3", "m4", "m5", "m6", "m7"} {
		require.NoError(t, r.RegisterContributor(addr, ""))
	}
	require.NoError(t, r.ApplyModuleBonus("m1", 3, 500))

	treasuryBefore := l.TreasuryBalance()
	report := r.DistributeMonthlyRewards(clk.Now())
	assert.Equal(t, 7, report.Paid)
	assert.Equal(t, treasuryBefore-report.Distributed, l.TreasuryBalance())
	assert.LessOrEqual(t, report.Distributed, r.Params().MonthlyPool)
	assert.True(t, l.VerifyIntegrity())

	for _, p := range report.Payouts {
		tx, ok := l.Transaction(p.LedgerRef)
		require.True(t, ok)
		assert.Equal(t, ledger.TxReward, tx.Kind)
		assert.Equal(t, p.Address, tx.To)
	}
}

func TestRewardsStopWhenTreasuryRunsDry(t *testing.T) {
	clk := newTestClock()
	l := ledger.New(ledger.ToUnits(40), clk)
	r, err := NewRegistry(DefaultParams(), clk, l)
	require.NoError(t, err)
	require.NoError(t, r.RegisterContributor("solo", ""))

	first := r.DistributeMonthlyRewards(clk.Now())
	assert.Equal(t, 1, first.Paid)

	second := r.DistributeMonthlyRewards(clk.Now())
	assert.Zero(t, second.Paid)
	require.Len(t, second.Failed, 1)
	assert.Equal(t, ledger.ToUnits(10), l.TreasuryBalance())
	assert.True(t, l.VerifyIntegrity())
}
