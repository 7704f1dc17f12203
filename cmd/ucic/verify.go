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

package main

import (
	"context"
	"fmt"

	"ucic-governance-go/internal/common"
	"ucic-governance-go/internal/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func verifyCommitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-commit <repo-url> <commit>",
		Short: "Check that a commit exists in a repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return verifyCommitRun(cmd.Context(), args[0], args[1])
		},
	}
}

func verifyCommitRun(ctx context.Context, repoURL, commitID string) error {
	// Commit checks never write, so skip the journal.
	local := *cfg
	local.Journal.Backend = models.JournalNone

	services, err := common.InitializeServices(ctx, &local, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer services.Close()

	found, err := services.Node.VerifyCommit(ctx, repoURL, commitID)
	if err != nil {
		return err
	}

	zap.L().Info("Commit verification completed",
		zap.String("repo", repoURL),
		zap.String("commit", commitID),
		zap.Bool("found", found))
	if found {
		fmt.Printf("✓ %s@%s exists\n", repoURL, commitID)
	} else {
		fmt.Printf("✗ %s@%s not found\n", repoURL, commitID)
	}
	return nil
}
