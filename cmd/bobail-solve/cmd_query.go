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

func runResult(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fatalf(cmd, "loading config: %v", err)
	}
	logger := loggerFromConfig(cfg, "cli-result")
	defer logger.Close()

	packed, err := parsePacked(packedHex)
	if err != nil {
		fatalf(cmd, "%v", err)
	}

	ctx := context.Background()
	eng, st, err := openEngine(ctx, cfg, logger)
	if err != nil {
		fatalf(cmd, "%v", err)
	}
	defer st.Close()

	result, err := eng.Result(ctx, packed)
	if err != nil {
		fatalf(cmd, "querying result: %v", err)
	}
	cmd.Println(result)
}

func runBestMove(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fatalf(cmd, "loading config: %v", err)
	}
	logger := loggerFromConfig(cfg, "cli-best-move")
	defer logger.Close()

	packed, err := parsePacked(packedHex)
	if err != nil {
		fatalf(cmd, "%v", err)
	}

	ctx := context.Background()
	eng, st, err := openEngine(ctx, cfg, logger)
	if err != nil {
		fatalf(cmd, "%v", err)
	}
	defer st.Close()

	move, ok, err := eng.BestMove(ctx, packed)
	if err != nil {
		fatalf(cmd, "querying best move: %v", err)
	}
	if !ok {
		cmd.Println("no moves available (terminal position)")
		return
	}
	cmd.Printf("%s (leads to %s)\n", move.Description, move.ChildResult)
}
