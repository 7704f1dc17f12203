/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package scheduler

import (
	"context"
	"fmt"
	"time"

	"ucic-governance-go/internal/clock"
	"ucic-governance-go/internal/governance"
	"ucic-governance-go/internal/ledger"
	"ucic-governance-go/internal/models"
	"ucic-governance-go/internal/oracle"

	"go.uber.org/zap"
)

// Node is the part of *node.Node the scheduler drives.
type Node interface {
	Apply(ctx context.Context, op models.Operation) (models.Receipt, error)
	View(fn func(l *ledger.Ledger, r *governance.Registry, o *oracle.Oracle))
	Clock() clock.Clock
}

// Config contains configuration for Scheduler
type Config struct {
	Node            Node
	PollingInterval time.Duration
	RewardInterval  time.Duration
}

// Scheduler finalizes expired proposals and triggers reward cycles on a ticker.
type Scheduler struct {
	node            Node
	clock           clock.Clock
	pollingInterval time.Duration
	rewardInterval  time.Duration

	// startedAt stands in for the last reward cycle until the first one runs
	startedAt time.Time

	// Control channels
	stopChan chan struct{}
	doneChan chan struct{}
}

func New(cfg Config) (*Scheduler, error) {
	if cfg.Node == nil {
		return nil, fmt.Errorf("scheduler requires a node")
	}
	if cfg.PollingInterval <= 0 {
		return nil, fmt.Errorf("polling interval must be positive, got %v", cfg.PollingInterval)
	}
	if cfg.RewardInterval <= 0 {
		return nil, fmt.Errorf("reward interval must be positive, got %v", cfg.RewardInterval)
	}
	return &Scheduler{
		node:            cfg.Node,
		clock:           cfg.Node.Clock(),
		pollingInterval: cfg.PollingInterval,
		rewardInterval:  cfg.RewardInterval,
		startedAt:       cfg.Node.Clock().Now(),
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}, nil
}

// Start runs one tick immediately and then one per polling interval until Stop is
// called or ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	go s.pollLoop(ctx)

	zap.L().Info("Governance scheduler started",
		zap.Duration("polling_interval", s.pollingInterval),
		zap.Duration("reward_interval", s.rewardInterval))
}

// Stop gracefully stops the scheduler and waits for the loop to exit.
func (s *Scheduler) Stop() {
	zap.L().Info("Stopping governance scheduler")
	close(s.stopChan)
	<-s.doneChan
	zap.L().Info("Governance scheduler stopped")
}

func (s *Scheduler) pollLoop(ctx context.Context) {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.pollingInterval)
	defer ticker.Stop()

	s.Tick(ctx)

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Tick finalizes proposals whose deadline has passed and, once the reward interval has
// elapsed since the last cycle, distributes rewards. Nothing is applied when nothing is
// due.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.clock.Now()

	var due int
	var lastReward time.Time
	s.node.View(func(_ *ledger.Ledger, r *governance.Registry, _ *oracle.Oracle) {
		due = r.Statistics().OpenProposals - len(r.ActiveProposals(now))
		lastReward = r.LastRewardDistribution()
	})

	if due > 0 {
		receipt, err := s.node.Apply(ctx, models.Operation{Kind: models.OpFinalizeProposals})
		if err != nil {
			zap.L().Error("Failed to finalize proposals", zap.Error(err))
		} else {
			zap.L().Info("Proposals finalized",
				zap.Uint64("seq", receipt.Seq),
				zap.String("result", receipt.Result))
		}
	}

	if lastReward.IsZero() {
		lastReward = s.startedAt
	}
	if now.Sub(lastReward) < s.rewardInterval {
		return
	}

	receipt, err := s.node.Apply(ctx, models.Operation{Kind: models.OpDistributeRewards})
	if err != nil {
		zap.L().Error("Failed to distribute rewards", zap.Error(err))
		return
	}
	zap.L().Info("Reward cycle triggered",
		zap.Uint64("seq", receipt.Seq),
		zap.Time("previous_cycle", lastReward),
		zap.String("result", receipt.Result))
}
