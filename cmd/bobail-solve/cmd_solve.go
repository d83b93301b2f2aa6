// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jasondaming/bobail-solver/internal/enginedb"
)

// runSolve drives Engine.Solve to completion, or until SIGINT/SIGTERM.
// A canceled context is how the engine learns to stop cleanly after
// its current batch commits; Solve returning a context error here is
// reported as a clean, resumable stop rather than a failure.
func runSolve(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fatalf(cmd, "loading config: %v", err)
	}
	logger := loggerFromConfig(cfg, "cli-solve")
	defer logger.Close()

	stopMetrics := maybeServeMetrics(cfg, logger)
	defer stopMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, st, err := openEngine(ctx, cfg, logger)
	if err != nil {
		fatalf(cmd, "%v", err)
	}
	defer st.Close()

	eng.SetProgressCallback(func(phase enginedb.Phase, numStates uint32) {
		logger.Info("solve progress", "phase", phase.String(), "num_states", numStates)
	})

	if err := eng.Solve(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Info("solve interrupted, checkpoint saved", "phase_err", err)
			cmd.Println("interrupted: checkpoint saved, re-run solve to resume")
			return
		}
		fatalf(cmd, "solve failed: %v", err)
	}

	phase, err := eng.Phase(ctx)
	if err != nil {
		fatalf(cmd, "reading final phase: %v", err)
	}
	cmd.Printf("solve complete: phase=%s, states=%d\n", phase, eng.NumStates())
}
