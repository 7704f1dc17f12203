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
	"fmt"
	"os"

	"ucic-governance-go/internal/common"
	"ucic-governance-go/internal/config"
	"ucic-governance-go/internal/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const programName = "ucic"

// cfg is loaded once in the root command's PersistentPreRunE.
var cfg *models.Config

func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "UC token ledger, contributor governance and verification oracle",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var journalBackend string
	rootCmd.PersistentFlags().
		StringVar(&journalBackend, "journal", "", "journal backend override (sqlite, formance, none)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if journalBackend != "" {
			loaded.Journal.Backend = journalBackend
		}
		cfg = loaded
		return nil
	}

	// Subcommands
	rootCmd.AddCommand(replayCommand())
	rootCmd.AddCommand(runCommand())
	rootCmd.AddCommand(balancesCommand())
	rootCmd.AddCommand(verifyCommitCommand())

	if err := rootCmd.Execute(); err != nil {
		zap.L().Error("Command failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		loggerCleanup()
		os.Exit(1)
	}
}
