package governance

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"ucic-governance-go/internal/clock"
	"ucic-governance-go/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeTreasury pays from a fixed balance and can be told to reject recipients.
type fakeTreasury struct {
	balance uint64
	paid    map[string]uint64
	reject  map[string]bool
	calls   int
}

func newFakeTreasury(balance uint64) *fakeTreasury {
	return &fakeTreasury{balance: balance, paid: make(map[string]uint64), reject: make(map[string]bool)}
}

func (f *fakeTreasury) DistributeReward(recipient string, amount uint64) (ledger.Transaction, error) {
	f.calls++
	if f.reject[recipient] || amount > f.balance {
		return ledger.Transaction{}, ledger.ErrTreasuryExhausted
	}
	f.balance -= amount
	f.paid[recipient] += amount
	return ledger.Transaction{Ref: fmt.Sprintf("tx-%d", f.calls), Kind: ledger.TxReward, To: recipient, Amount: amount}, nil
}

func newTestClock() *clock.Manual {
	return clock.NewManual(epoch)
}

func newTestRegistry(t *testing.T) (*Registry, *clock.Manual, *fakeTreasury) {
	t.Helper()
	clk := newTestClock()
	treasury := newFakeTreasury(ledger.ToUnits(1000))
	r, err := NewRegistry(DefaultParams(), clk, treasury)
	require.NoError(t, err)
	return r, clk, treasury
}

func perfect() Scores {
	return Scores{CodeQuality: 100, Documentation: 100, Testing: 100, Innovation: 100, Community: 100}
}

func TestCompositeWeights(t *testing.T) {
	tests := []struct {
		name   string
		scores Scores
		want   uint64
	}{
		{name: "all zero", scores: Scores{}, want: 0},
		{name: "all max", scores: perfect(), want: 100},
		{name: "code only", scores: Scores{CodeQuality: 100}, want: 25},
		{name: "community only", scores: Scores{Community: 100}, want: 15},
		{name: "rounds down", scores: Scores{CodeQuality: 85, Documentation: 90, Testing: 80, Innovation: 95, Community: 75}, want: 85},
		{name: "fractional", scores: Scores{Community: 3}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scores.Composite())
		})
	}

	var weights uint64
	for _, c := range Categories {
		weights += c.Weight()
	}
	assert.Equal(t, uint64(100), weights)
}

func TestRegisterContributor(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	require.NoError(t, r.RegisterContributor("bob", "alice"))
	c, ok := r.Contributor("bob")
	require.True(t, ok)
	assert.Equal(t, Recognized, c.Tier)
	assert.Zero(t, c.CompositeScore)
	assert.Equal(t, "alice", c.Referrer)
	assert.Equal(t, epoch, c.JoinedAt)

	require.ErrorIs(t, r.RegisterContributor("bob", ""), ErrAlreadyRegistered)
	require.ErrorIs(t, r.RegisterContributor("", ""), ErrInvalidAddress)
	assert.Equal(t, 1, r.ContributorCount())
}

func TestPerfectScoreReachesSilverNotGold(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	require.NoError(t, r.RegisterContributor("bob", ""))

	composite, err := r.SubmitCompositeScore("bob", perfect())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), composite)
	assert.Equal(t, Silver, r.Tier("bob"))
	assert.Equal(t, uint64(2), r.VotingPower("bob"))
}

func TestTierFollowsPoints(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	require.NoError(t, r.RegisterContributor("dan", ""))

	want := []Tier{Silver, Silver, Gold, Gold, Platinum}
	for i, tier := range want {
		_, err := r.SubmitCompositeScore("dan", perfect())
		require.NoError(t, err)
		c, _ := r.Contributor("dan")
		assert.Equal(t, uint64(100*(i+1)), c.PointsEarned)
		assert.Equal(t, tier, c.Tier, "after %d submissions", i+1)
		assert.Equal(t, r.params.tierFor(false, c.PointsEarned), c.Tier)
	}

	// Points alone never reach Founder.
	for i := 0; i < 10; i++ {
		_, err := r.SubmitCompositeScore("dan", perfect())
		require.NoError(t, err)
	}
	assert.Equal(t, Platinum, r.Tier("dan"))
	require.NoError(t, r.VerifyIntegrity())
}

func TestSubmitCompositeScoreRejections(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	require.NoError(t, r.RegisterContributor("eve", ""))

	_, err := r.SubmitCompositeScore("nobody", perfect())
	require.ErrorIs(t, err, ErrUnknownContributor)

	_, err = r.SubmitCompositeScore("eve", Scores{Testing: 101})
	require.ErrorIs(t, err, ErrInvalidScore)

	c, _ := r.Contributor("eve")
	assert.Zero(t, c.PointsEarned)
	assert.Len(t, c.Trail, 1, "only the registration is in the trail")
}

func TestModuleBonus(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	require.NoError(t, r.RegisterContributor("fay", ""))

	bonus, ok := r.ModuleBonus(3)
	require.True(t, ok)
	require.NoError(t, r.ApplyModuleBonus("fay", 3, bonus))

	c, _ := r.Contributor("fay")
	assert.Equal(t, uint64(100), c.PointsEarned)
	assert.Equal(t, uint64(100), c.CompositeScore)
	assert.Equal(t, Silver, c.Tier)

	require.NoError(t, r.ApplyModuleBonus("fay", 2, 75))
	c, _ = r.Contributor("fay")
	assert.Equal(t, uint64(175), c.PointsEarned)
	assert.Equal(t, uint64(175), c.CompositeScore)

	require.ErrorIs(t, r.ApplyModuleBonus("ghost", 1, 50), ErrUnknownContributor)
	require.ErrorIs(t, r.ApplyModuleBonus("fay", 9, 0), ErrInvalidBonus)
	assert.Len(t, r.AvailableBonuses(), 4)
}

func TestAssignFounder(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	require.NoError(t, r.RegisterContributor("gus", ""))

	require.NoError(t, r.AssignFounder("gus"))
	assert.Equal(t, Founder, r.Tier("gus"))
	assert.Equal(t, uint64(5), r.VotingPower("gus"))

	_, err := r.SubmitCompositeScore("gus", perfect())
	require.NoError(t, err)
	assert.Equal(t, Founder, r.Tier("gus"))

	require.ErrorIs(t, r.AssignFounder("nobody"), ErrUnknownContributor)
	require.NoError(t, r.VerifyIntegrity())
}

func TestTopContributorsAndDistribution(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	for _, addr := range []string{"a", "b", "c"} {
		require.NoError(t, r.RegisterContributor(addr, ""))
	}
	require.NoError(t, r.ApplyModuleBonus("b", 3, 300))
	require.NoError(t, r.ApplyModuleBonus("c", 1, 50))

	top := r.TopContributors(2)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].Address)
	assert.Equal(t, "c", top[1].Address)

	dist := r.TierDistribution()
	assert.Equal(t, 2, dist[Recognized])
	assert.Equal(t, 1, dist[Gold])
	assert.Equal(t, 0, dist[Founder])
	assert.Equal(t, []string{"a", "c"}, r.ContributorsInTier(Recognized))
}

func TestAuditTrail(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	require.NoError(t, r.RegisterContributor("hal", ""))
	_, err := r.SubmitCompositeScore("hal", perfect())
	require.NoError(t, err)

	trail := r.AuditTrail("hal")
	require.Len(t, trail, 2)
	assert.Equal(t, "register_contributor", trail[0].Action)
	assert.Equal(t, "submit_composite_score", trail[1].Action)
	assert.Equal(t, uint64(100), trail[1].Points)
	assert.NotEqual(t, trail[0].Ref, trail[1].Ref)
}

func TestParamsValidate(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())

	p.TierThresholds = map[Tier]uint64{Recognized: 0, Silver: 100, Gold: 100, Platinum: 500}
	assert.Error(t, p.Validate())

	p = DefaultParams()
	p.FounderReservePercent = 101
	assert.Error(t, p.Validate())

	_, err := NewRegistry(p, clock.NewManual(epoch), newFakeTreasury(0))
	assert.Error(t, err)
}

func TestParseHelpers(t *testing.T) {
	tier, err := ParseTier("Gold")
	require.NoError(t, err)
	assert.Equal(t, Gold, tier)

	_, err = ParseTier("bronze")
	assert.Error(t, err)

	c, err := ParseCategory("innovation")
	require.NoError(t, err)
	assert.Equal(t, Innovation, c)

	v, err := ParseVoteType("AGAINST")
	require.NoError(t, err)
	assert.Equal(t, VoteAgainst, v)

	assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", ErrAlreadyVoted), ErrAlreadyVoted))
}

func TestMembershipQueries(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	require.NoError(t, r.RegisterContributor("alice", ""))

	assert.True(t, r.IsContributor("alice"))
	assert.False(t, r.IsContributor("bob"))
	assert.Equal(t, uint64(250), r.TierThreshold(Gold))
	assert.Equal(t, uint64(0), r.TierThreshold(Recognized))
}

func TestReservedAddressesCannotRegister(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	for _, addr := range []string{ledger.TreasuryAddress, ledger.MintAddress, ledger.BurnAddress} {
		require.ErrorIs(t, r.RegisterContributor(addr, ""), ErrInvalidAddress, addr)
		assert.False(t, r.IsContributor(addr))
	}
	assert.Zero(t, r.ContributorCount())
}

func TestRewardPoolGoesOnlyToRealContributors(t *testing.T) {
	clk := newTestClock()
	l := ledger.New(ledger.ToUnits(1000), clk)
	r, err := NewRegistry(DefaultParams(), clk, l)
	require.NoError(t, err)

	require.Error(t, r.RegisterContributor(ledger.TreasuryAddress, ""))
	require.NoError(t, r.RegisterContributor("alice", ""))

	report := r.DistributeMonthlyRewards(clk.Now())
	assert.Equal(t, 1, report.Paid)
	assert.Empty(t, report.Failed)
	assert.Equal(t, r.Params().MonthlyPool, l.BalanceOf("alice"))
}
