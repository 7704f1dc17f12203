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

package api

import (
	"fmt"

	"ucic-governance-go/internal/governance"
	"ucic-governance-go/internal/ledger"
	"ucic-governance-go/internal/models"
	"ucic-governance-go/internal/oracle"
)

// GetContributor returns a contributor's standing, balance and oracle submissions
func (s *GovernanceService) GetContributor(address string) (models.ContributorView, error) {
	if address == "" {
		return models.ContributorView{}, fmt.Errorf("address is required")
	}

	var view models.ContributorView
	var found bool
	s.node.View(func(l *ledger.Ledger, r *governance.Registry, o *oracle.Oracle) {
		c, ok := r.Contributor(address)
		if !ok {
			return
		}
		found = true
		view = contributorView(c, l, r)
		view.Submissions = o.SubmissionsFor(address)
	})
	if !found {
		return models.ContributorView{}, fmt.Errorf("contributor %s: %w", address, ErrNotFound)
	}
	return view, nil
}

// GetLeaderboard returns up to n contributors ordered by points earned
func (s *GovernanceService) GetLeaderboard(n int) []models.ContributorView {
	if n <= 0 || n > 100 {
		n = 10
	}

	var result []models.ContributorView
	s.node.View(func(l *ledger.Ledger, r *governance.Registry, _ *oracle.Oracle) {
		for _, c := range r.TopContributors(n) {
			result = append(result, contributorView(c, l, r))
		}
	})
	return result
}

func contributorView(c governance.Contributor, l *ledger.Ledger, r *governance.Registry) models.ContributorView {
	return models.ContributorView{
		Address:         c.Address,
		Tier:            c.Tier.String(),
		Founder:         c.Founder,
		CompositeScore:  c.CompositeScore,
		PointsEarned:    c.PointsEarned,
		VotingPower:     c.Tier.VotingPower(),
		RewardsReceived: models.UnitsToUC(c.RewardsReceived),
		PendingReward:   models.UnitsToUC(r.PendingReward(c.Address)),
		Balance:         models.UnitsToUC(l.BalanceOf(c.Address)),
		JoinedAt:        c.JoinedAt,
	}
}

// GetOracleStats returns the verification oracle's statistics
func (s *GovernanceService) GetOracleStats() models.OracleStats {
	var st oracle.Statistics
	s.node.View(func(_ *ledger.Ledger, _ *governance.Registry, o *oracle.Oracle) {
		st = o.Statistics()
	})
	return models.OracleStats{
		TotalSubmissions:        uint64(st.TotalSubmissions),
		VerifiedSubmissions:     uint64(st.VerifiedSubmissions),
		PendingSubmissions:      uint64(st.PendingSubmissions),
		RejectedSubmissions:     uint64(st.RejectedSubmissions),
		Verifiers:               uint64(st.Verifiers),
		PendingChallenges:       uint64(st.PendingChallenges),
		AcceptanceRate:          st.AcceptanceRate,
		AverageVerificationTime: st.AverageVerificationTime,
	}
}
