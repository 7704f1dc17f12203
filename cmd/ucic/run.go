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
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ucic-governance-go/internal/api"
	"ucic-governance-go/internal/clock"
	"ucic-governance-go/internal/common"
	"ucic-governance-go/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runCommand() *cobra.Command {
	var scriptFile string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the governance scheduler on the wall clock until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(cmd.Context(), scriptFile)
		},
	}
	cmd.Flags().StringVar(&scriptFile, "script", "", "optional YAML operation script to apply before starting")
	return cmd
}

func runNode(ctx context.Context, scriptFile string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())

	services, err := common.InitializeServices(ctx, cfg, clock.System(), promRegistry)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer services.Close()

	if scriptFile != "" {
		script, err := common.LoadScript(scriptFile)
		if err != nil {
			return err
		}
		stats := applyScript(ctx, services.Node, nil, script.Operations)
		zap.L().Info("Startup script applied",
			zap.String("script", scriptFile),
			zap.Int("applied", stats.applied),
			zap.Int("rejected", stats.rejected))
	}

	report, err := api.NewGovernanceService(services.Node).HealthCheck(ctx)
	if err != nil {
		return err
	}
	zap.L().Info("Health check passed",
		zap.String("total_supply", report.TotalSupply.String()),
		zap.String("treasury", report.Treasury.String()),
		zap.String("journal", report.Journal))

	if cfg.Metrics.Enabled {
		metricsServer := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zap.L().Error("Metrics listener failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("Metrics listener shutdown failed", zap.Error(err))
			}
		}()
		zap.L().Info("Serving prometheus metrics", zap.String("addr", cfg.Metrics.Addr))
	}

	sched, err := scheduler.New(scheduler.Config{
		Node:            services.Node,
		PollingInterval: cfg.Scheduler.PollingInterval,
		RewardInterval:  cfg.Scheduler.RewardInterval,
	})
	if err != nil {
		return err
	}
	sched.Start(ctx)

	zap.L().Info("Press Ctrl+C to stop")
	<-ctx.Done()

	zap.L().Info("Shutdown signal received, stopping scheduler...")
	sched.Stop()
	return nil
}
