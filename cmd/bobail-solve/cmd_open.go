// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"

	"github.com/spf13/cobra"
)

// runOpen creates the data directory (if it doesn't already exist)
// and reports the phase it finds, so an operator can provision a
// fresh database before kicking off a long solve run elsewhere.
func runOpen(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fatalf(cmd, "loading config: %v", err)
	}
	logger := loggerFromConfig(cfg, "cli-open")
	defer logger.Close()

	ctx := context.Background()
	eng, st, err := openEngine(ctx, cfg, logger)
	if err != nil {
		fatalf(cmd, "%v", err)
	}
	defer st.Close()

	phase, err := eng.Phase(ctx)
	if err != nil {
		fatalf(cmd, "reading phase: %v", err)
	}
	cmd.Printf("database ready at %s: phase=%s\n", cfg.DataDir, phase)
}
