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

	"github.com/spf13/cobra"

	"github.com/jasondaming/bobail-solver/internal/store"
)

// runImportLegacy populates a fresh store from a pre-KV-store binary
// checkpoint, including the phase the legacy solver had reached.
// Legacy checkpoints never carry predecessor edges, so this command
// is only meaningful against checkpoints captured at or before
// BUILDING_PREDECESSORS.
func runImportLegacy(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fatalf(cmd, "loading config: %v", err)
	}
	logger := loggerFromConfig(cfg, "cli-import-legacy")
	defer logger.Close()

	f, err := os.Open(checkpointFile)
	if err != nil {
		fatalf(cmd, "opening checkpoint file: %v", err)
	}
	defer f.Close()

	ctx := context.Background()
	st, err := openStore(cfg, logger)
	if err != nil {
		fatalf(cmd, "opening store: %v", err)
	}
	defer st.Close()

	if err := store.ImportLegacyCheckpoint(ctx, st, f); err != nil {
		fatalf(cmd, "importing legacy checkpoint: %v", err)
	}
	if err := st.Sync(); err != nil {
		fatalf(cmd, "syncing store: %v", err)
	}
	cmd.Printf("imported %s into %s\n", checkpointFile, cfg.DataDir)
}
