package scheduler

import (
	"context"
	"testing"
	"time"

	"ucic-governance-go/internal/clock"
	"ucic-governance-go/internal/governance"
	"ucic-governance-go/internal/ledger"
	"ucic-governance-go/internal/models"
	"ucic-governance-go/internal/node"
	"ucic-governance-go/internal/oracle"

	"go.uber.org/goleak"
)

const rewardInterval = 30 * 24 * time.Hour

func newTestNode(t *testing.T) (*node.Node, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	n, err := node.New(context.Background(), node.Config{
		InitialSupply: ledger.ToUnits(1000),
		Governance:    governance.DefaultParams(),
		Oracle:        oracle.DefaultParams(),
		Clock:         clk,
	})
	if err != nil {
		t.Fatalf("node.New: %v", err)
	}
	return n, clk
}

func newTestScheduler(t *testing.T, n *node.Node) *Scheduler {
	t.Helper()
	s, err := New(Config{
		Node:            n,
		PollingInterval: time.Millisecond,
		RewardInterval:  rewardInterval,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func apply(t *testing.T, n *node.Node, ops ...models.Operation) {
	t.Helper()
	if _, err := n.ApplyBatch(context.Background(), ops); err != nil {
		t.Fatalf("ApplyBatch: %v", err)
	}
}

func proposalStatus(n *node.Node, id uint64) governance.ProposalStatus {
	var status governance.ProposalStatus
	n.View(func(_ *ledger.Ledger, r *governance.Registry, _ *oracle.Oracle) {
		p, _ := r.Proposal(id)
		status = p.Status
	})
	return status
}

func TestNewValidatesConfig(t *testing.T) {
	n, _ := newTestNode(t)
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no node", Config{PollingInterval: time.Second, RewardInterval: time.Hour}},
		{"no polling interval", Config{Node: n, RewardInterval: time.Hour}},
		{"no reward interval", Config{Node: n, PollingInterval: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestTickFinalizesExpiredProposals(t *testing.T) {
	n, clk := newTestNode(t)
	s := newTestScheduler(t, n)
	apply(t, n,
		models.Operation{Kind: models.OpRegisterContributor, Account: "alice"},
		models.Operation{Kind: models.OpCreateProposal, Caller: "alice", Title: "Docs", Description: "Fund the docs sprint"},
		models.Operation{Kind: models.OpCastVote, Caller: "alice", ProposalID: 1, Vote: "for"},
	)

	s.Tick(context.Background())
	if got := proposalStatus(n, 1); got != governance.StatusActive {
		t.Fatalf("status before deadline = %s, want active", got)
	}

	clk.Advance(72 * time.Hour)
	s.Tick(context.Background())
	if got := proposalStatus(n, 1); got != governance.StatusPassed {
		t.Fatalf("status after deadline = %s, want passed", got)
	}
}

func TestTickDistributesRewardsOncePerInterval(t *testing.T) {
	n, clk := newTestNode(t)
	s := newTestScheduler(t, n)
	apply(t, n,
		models.Operation{Kind: models.OpRegisterContributor, Account: "alice"},
		models.Operation{Kind: models.OpRecordScore, Caller: node.DefaultAdmin, Account: "alice", Scores: map[string]uint8{
			"code_quality": 100, "documentation": 100, "testing": 100, "innovation": 100, "community": 100,
		}},
	)

	balance := func() uint64 {
		var b uint64
		n.View(func(l *ledger.Ledger, _ *governance.Registry, _ *oracle.Oracle) {
			b = l.BalanceOf("alice")
		})
		return b
	}

	s.Tick(context.Background())
	if got := balance(); got != 0 {
		t.Fatalf("balance before the first interval = %d, want 0", got)
	}

	clk.Advance(rewardInterval)
	s.Tick(context.Background())
	paid := balance()
	if paid == 0 {
		t.Fatal("expected a reward after one interval")
	}

	clk.Advance(time.Hour)
	s.Tick(context.Background())
	if got := balance(); got != paid {
		t.Fatalf("balance = %d, want %d: a second cycle ran inside the interval", got, paid)
	}

	var cycles uint64
	n.View(func(_ *ledger.Ledger, r *governance.Registry, _ *oracle.Oracle) {
		cycles = r.Statistics().RewardCycles
	})
	if cycles != 1 {
		t.Errorf("reward cycles = %d, want 1", cycles)
	}
}

func TestStartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	n, _ := newTestNode(t)
	s := newTestScheduler(t, n)

	s.Start(context.Background())
	time.Sleep(10 * time.Millisecond)
	s.Stop()
}

func TestLoopExitsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	n, _ := newTestNode(t)
	s := newTestScheduler(t, n)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	select {
	case <-s.doneChan:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not exit after cancel")
	}
}
