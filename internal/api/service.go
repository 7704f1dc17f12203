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
	"context"
	"errors"
	"fmt"

	"ucic-governance-go/internal/governance"
	"ucic-governance-go/internal/ledger"
	"ucic-governance-go/internal/models"
	"ucic-governance-go/internal/node"
	"ucic-governance-go/internal/oracle"
)

var ErrNotFound = errors.New("not found")

const (
	statusOK       = "ok"
	statusDisabled = "disabled"
)

// GovernanceService is the read side of the node. Every call takes the node's read
// lock and returns copies in display form.
type GovernanceService struct {
	node *node.Node
}

func NewGovernanceService(n *node.Node) *GovernanceService {
	return &GovernanceService{
		node: n,
	}
}

// HealthCheck verifies the ledger and registry invariants and, when a journal is
// configured, that it answers.
func (s *GovernanceService) HealthCheck(ctx context.Context) (models.HealthReport, error) {
	report := models.HealthReport{
		Ledger:   statusOK,
		Registry: statusOK,
		Journal:  statusDisabled,
	}

	s.node.View(func(l *ledger.Ledger, r *governance.Registry, _ *oracle.Oracle) {
		if err := l.Reconcile(); err != nil {
			report.Ledger = err.Error()
		}
		if err := r.VerifyIntegrity(); err != nil {
			report.Registry = err.Error()
		}
		report.TotalSupply = models.UnitsToUC(l.TotalSupply())
		report.Treasury = models.UnitsToUC(l.TreasuryBalance())
	})
	report.CheckedAt = s.node.Clock().Now()

	if journal := s.node.Journal(); journal != nil {
		report.Journal = statusOK
		if _, err := journal.GetOperations(ctx, 1, 0); err != nil {
			report.Journal = err.Error()
		}
	}

	report.Healthy = report.Ledger == statusOK && report.Registry == statusOK &&
		(report.Journal == statusOK || report.Journal == statusDisabled)
	if !report.Healthy {
		return report, fmt.Errorf("health check failed: ledger=%s registry=%s journal=%s",
			report.Ledger, report.Registry, report.Journal)
	}
	return report, nil
}
