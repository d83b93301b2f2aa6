// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config defines the solver engine's configuration: where its
// data lives, how many workers each phase uses, and the knobs that
// control checkpoint cadence and the bloom filter. Configuration can
// be loaded from YAML and overridden by CLI flags, the way the
// teacher's persistence layer takes a struct with defaults and a
// Validate method.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is the complete, validated configuration for a solver run.
type Config struct {
	// DataDir is the root directory for the Badger store. Default:
	// "./bobail-data".
	DataDir string `yaml:"data_dir"`

	// InMemory runs the store entirely in memory, discarding all data
	// on process exit. Intended for tests and short demos.
	InMemory bool `yaml:"in_memory"`

	// EnumerateWorkers is the worker-pool size for Phase 1 BFS
	// expansion. Default: NumCPU.
	EnumerateWorkers int `yaml:"enumerate_workers"`

	// PredecessorWorkers is the worker-pool size for Phase 2
	// predecessor-edge construction. Default: NumCPU.
	PredecessorWorkers int `yaml:"predecessor_workers"`

	// PropagationWorkers is the worker-pool size for Phase 4 AND/OR
	// wave propagation. Default: NumCPU.
	PropagationWorkers int `yaml:"propagation_workers"`

	// PredecessorShardCount is the number of worker shards a
	// predecessor list is split across on write, trading write
	// parallelism for readback fan-out. Readback always multigets one
	// extra key beyond these shards (enginedb.LegacyShardByte, a
	// reserved shard), so this many shards means a (shardCount+1)-
	// way multiget. Default: 16.
	PredecessorShardCount int `yaml:"predecessor_shard_count"`

	// CheckpointIntervalStates is a count of resolved states, validated
	// as positive and settable with --checkpoint-interval. The engine
	// does not read it: Phase 4 checkpoints on a fixed 60-second tick,
	// not after a number of states. Default: 250000.
	CheckpointIntervalStates int64 `yaml:"checkpoint_interval_states"`

	// BloomFilterBits is the size, in bits, of the in-memory
	// registry-lookup bloom filter. Default: 1<<30 (128 MiB).
	BloomFilterBits uint64 `yaml:"bloom_filter_bits"`

	// BloomFilterHashes is the number of independent probes (k) the
	// bloom filter performs per check. Default: 7.
	BloomFilterHashes int `yaml:"bloom_filter_hashes"`

	// LogLevel is one of "debug", "info", "warn", "error". Default: "info".
	LogLevel string `yaml:"log_level"`

	// LogDir, if set, additionally writes JSON logs to this directory.
	LogDir string `yaml:"log_dir"`

	// LogJSON selects JSON-formatted stderr logging.
	LogJSON bool `yaml:"log_json"`

	// MetricsAddr, if non-empty, serves Prometheus metrics on this
	// address (e.g. ":9090"). Empty disables the metrics server.
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns production defaults: a local data directory sized
// for a single 5x5 Bobail solve on the current machine's core count.
func Default() Config {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	return Config{
		DataDir:                  "./bobail-data",
		EnumerateWorkers:         workers,
		PredecessorWorkers:       workers,
		PropagationWorkers:       workers,
		PredecessorShardCount:    16,
		CheckpointIntervalStates: 250_000,
		BloomFilterBits:          1 << 30,
		BloomFilterHashes:        7,
		LogLevel:                 "info",
		MetricsAddr:              "",
	}
}

// Load reads a YAML config file at path, applying it on top of
// Default. A missing file is not an error: Load falls back to
// defaults so a solver run works without a config file present.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Validate()
		}
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks invariants Load and the CLI both rely on.
func (c *Config) Validate() error {
	if !c.InMemory && c.DataDir == "" {
		return fmt.Errorf("config: data_dir must not be empty unless in_memory is set")
	}
	if c.EnumerateWorkers <= 0 {
		return fmt.Errorf("config: enumerate_workers must be positive, got %d", c.EnumerateWorkers)
	}
	if c.PredecessorWorkers <= 0 {
		return fmt.Errorf("config: predecessor_workers must be positive, got %d", c.PredecessorWorkers)
	}
	if c.PropagationWorkers <= 0 {
		return fmt.Errorf("config: propagation_workers must be positive, got %d", c.PropagationWorkers)
	}
	if c.PredecessorShardCount <= 0 {
		return fmt.Errorf("config: predecessor_shard_count must be positive, got %d", c.PredecessorShardCount)
	}
	if c.CheckpointIntervalStates <= 0 {
		return fmt.Errorf("config: checkpoint_interval_states must be positive, got %d", c.CheckpointIntervalStates)
	}
	if c.BloomFilterBits == 0 {
		return fmt.Errorf("config: bloom_filter_bits must be positive")
	}
	if c.BloomFilterHashes <= 0 {
		return fmt.Errorf("config: bloom_filter_hashes must be positive, got %d", c.BloomFilterHashes)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log_level must be one of debug/info/warn/error, got %q", c.LogLevel)
	}
	return nil
}

// StatePath returns the absolute path of the store's data directory,
// resolving a leading "~" the way a shell would.
func (c *Config) StatePath() (string, error) {
	if c.DataDir == "" {
		return "", nil
	}
	if c.DataDir[0] != '~' {
		return filepath.Abs(c.DataDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolving ~: %w", err)
	}
	return filepath.Join(home, c.DataDir[1:]), nil
}
