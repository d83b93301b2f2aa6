// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global flag variables, shared across subcommands the way the
// teacher's commands.go hangs every flag off package-level vars. ---
var (
	dbPath             string
	configPath         string
	logLevel           string
	logJSON            bool
	metricsAddr        string
	threads            int
	checkpointInterval int64
	packedHex          string
	checkpointFile     string

	rootCmd = &cobra.Command{
		Use:   "bobail-solve",
		Short: "Out-of-core retrograde solver for 5x5 Bobail",
		Long: `bobail-solve computes a strong solve (WIN/LOSS/DRAW and best move)
for 5x5 Bobail over a persistent, resumable key-value store.`,
	}

	openCmd = &cobra.Command{
		Use:   "open",
		Short: "Create or open the solve database and report its state",
		Run:   runOpen,
	}

	solveCmd = &cobra.Command{
		Use:   "solve",
		Short: "Run the solve to completion, or until interrupted",
		Run:   runSolve,
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Print the persisted phase and counters",
		Run:   runStatus,
	}

	resultCmd = &cobra.Command{
		Use:   "result",
		Short: "Query the solved result of a packed state",
		Run:   runResult,
	}

	bestMoveCmd = &cobra.Command{
		Use:   "best-move",
		Short: "Query the best move from a packed state",
		Run:   runBestMove,
	}

	importLegacyCmd = &cobra.Command{
		Use:   "import-legacy",
		Short: "One-shot import of a pre-KV-store \"BBCK\" checkpoint file",
		Run:   runImportLegacy,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "./bobail-data", "Path to the solve database directory")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (optional; --db and --log-level always override its values, other flags only when set)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit JSON-formatted logs to stderr")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Address to serve Prometheus metrics on (e.g. :9090); empty disables")

	rootCmd.AddCommand(openCmd)

	rootCmd.AddCommand(solveCmd)
	solveCmd.Flags().IntVar(&threads, "threads", 0, "Worker count per phase (0 = use config/NumCPU default)")
	solveCmd.Flags().Int64Var(&checkpointInterval, "checkpoint-interval", 0, "Sets checkpoint_interval_states (0 = use config default); Phase 4 checkpoints every 60s regardless")

	rootCmd.AddCommand(statusCmd)

	rootCmd.AddCommand(resultCmd)
	resultCmd.Flags().StringVar(&packedHex, "packed", "", "Packed state, as hex (required)")
	_ = resultCmd.MarkFlagRequired("packed")

	rootCmd.AddCommand(bestMoveCmd)
	bestMoveCmd.Flags().StringVar(&packedHex, "packed", "", "Packed state, as hex (required)")
	_ = bestMoveCmd.MarkFlagRequired("packed")

	rootCmd.AddCommand(importLegacyCmd)
	importLegacyCmd.Flags().StringVar(&checkpointFile, "checkpoint", "", "Path to a legacy \"BBCK\" checkpoint file (required)")
	_ = importLegacyCmd.MarkFlagRequired("checkpoint")
}
