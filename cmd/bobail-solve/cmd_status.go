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

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fatalf(cmd, "loading config: %v", err)
	}
	logger := loggerFromConfig(cfg, "cli-status")
	defer logger.Close()

	ctx := context.Background()
	eng, st, err := openEngine(ctx, cfg, logger)
	if err != nil {
		fatalf(cmd, "%v", err)
	}
	defer st.Close()

	status, err := eng.Status(ctx)
	if err != nil {
		fatalf(cmd, "reading status: %v", err)
	}
	cmd.Printf("phase:      %s\n", status.Phase)
	cmd.Printf("states:     %d\n", status.NumStates)
	cmd.Printf("wins:       %d\n", status.NumWins)
	cmd.Printf("losses:     %d\n", status.NumLosses)
	cmd.Printf("draws:      %d\n", status.NumDraws)
}
