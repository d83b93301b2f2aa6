// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jasondaming/bobail-solver/internal/bobail"
	"github.com/jasondaming/bobail-solver/internal/config"
	"github.com/jasondaming/bobail-solver/internal/engine"
	"github.com/jasondaming/bobail-solver/internal/obslog"
	"github.com/jasondaming/bobail-solver/internal/store"
)

// loadConfig resolves a run's Config from --config (if given) and
// then applies the CLI's own override flags on top, the same
// precedence order the teacher's PersistentPreRun applies to its
// YAML config plus command-line flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if dbPath != "" {
		cfg.DataDir = dbPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	cfg.LogJSON = cfg.LogJSON || logJSON
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	if threads > 0 {
		cfg.EnumerateWorkers = threads
		cfg.PredecessorWorkers = threads
		cfg.PropagationWorkers = threads
	}
	if checkpointInterval > 0 {
		cfg.CheckpointIntervalStates = checkpointInterval
	}
	return cfg, cfg.Validate()
}

func loggerFromConfig(cfg config.Config, component string) *obslog.Logger {
	level := obslog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = obslog.LevelDebug
	case "warn":
		level = obslog.LevelWarn
	case "error":
		level = obslog.LevelError
	}
	return obslog.New(obslog.Config{
		Level:     level,
		LogDir:    cfg.LogDir,
		Component: component,
		JSON:      cfg.LogJSON,
	})
}

// openStore opens the Badger-backed store cfg describes. Callers are
// responsible for closing the returned store.
func openStore(cfg config.Config, logger *obslog.Logger) (*store.BadgerStore, error) {
	bcfg := store.DefaultBadgerConfig(cfg.DataDir)
	bcfg.InMemory = cfg.InMemory
	bcfg.Logger = logger
	return store.OpenBadgerStore(bcfg)
}

// openEngine wires a Config into a running Engine: opens the store,
// constructs the Bobail adapter, and resumes whatever phase was
// persisted. Callers must Close the returned store once done.
func openEngine(ctx context.Context, cfg config.Config, logger *obslog.Logger) (*engine.Engine, *store.BadgerStore, error) {
	st, err := openStore(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	eng, err := engine.New(ctx, st, bobail.NewAdapter(), cfg, logger)
	if err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("constructing engine: %w", err)
	}
	return eng, st, nil
}

// maybeServeMetrics starts a background /metrics HTTP server if
// cfg.MetricsAddr is set, returning a shutdown func that is a no-op
// when metrics serving is disabled.
func maybeServeMetrics(cfg config.Config, logger *obslog.Logger) func() {
	if cfg.MetricsAddr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	return func() { _ = srv.Close() }
}

// parsePacked parses the --packed flag (a hex string, with or without
// a "0x" prefix) into a packed uint64 state.
func parsePacked(hexVal string) (uint64, error) {
	if len(hexVal) > 2 && hexVal[0] == '0' && (hexVal[1] == 'x' || hexVal[1] == 'X') {
		hexVal = hexVal[2:]
	}
	v, err := strconv.ParseUint(hexVal, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing --packed %q as hex: %w", hexVal, err)
	}
	return v, nil
}

// fatalf reports a command failure on stderr and exits non-zero, the
// CLI's mapping of an Engine/store error onto the process exit code
// described for cmd/bobail-solve.
func fatalf(cmd *cobra.Command, format string, args ...any) {
	cmd.PrintErrln(fmt.Sprintf(format, args...))
	os.Exit(1)
}
