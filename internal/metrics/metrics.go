// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package metrics defines the Prometheus collectors the engine exposes
// for each solve phase, the storage layer, and query serving.
//
// All collectors are package-level, promauto-registered globals, the
// same shape as the teacher's backup/restore metrics — a single
// process exposes one /metrics endpoint for its whole lifetime, so
// there is no need to thread a registry through every component.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PhaseDurationSeconds records wall-clock time spent in each solve
	// phase, labeled by phase name and terminal status.
	PhaseDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bobail_solve_phase_duration_seconds",
		Help:    "Time spent in each solve phase",
		Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600, 7200},
	}, []string{"phase", "status"})

	// StatesDiscoveredTotal counts states assigned an ID during
	// enumeration.
	StatesDiscoveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bobail_solve_states_discovered_total",
		Help: "Total distinct states assigned an arena ID during enumeration",
	})

	// QueueDepth reports the current depth of a named work queue. The
	// engine sets it for Phase 1's on-disk frontier ("enumerate").
	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bobail_solve_queue_depth",
		Help: "Current depth of a named work queue",
	}, []string{"queue"})

	// PredecessorEdgesWrittenTotal counts deduplicated predecessor
	// edges persisted by Phase 2 workers.
	PredecessorEdgesWrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bobail_solve_predecessor_edges_written_total",
		Help: "Total predecessor edges flushed to storage, by worker shard",
	}, []string{"shard"})

	// TerminalsMarkedTotal counts states classified as WIN or LOSS
	// during Phase 3.
	TerminalsMarkedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bobail_solve_terminals_marked_total",
		Help: "Total states marked terminal during Phase 3, by result",
	}, []string{"result"})

	// PropagationWaveSize reports the number of Phase 4 queue entries
	// not yet processed (tail - head), sampled at each checkpoint tick.
	PropagationWaveSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bobail_solve_propagation_wave_size",
		Help: "Number of propagation queue entries not yet processed, sampled at each checkpoint tick",
	})

	// StatesResolvedTotal counts states that received a final result
	// during Phase 4 propagation.
	StatesResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bobail_solve_states_resolved_total",
		Help: "Total states resolved to a final result during propagation",
	}, []string{"result"})

	// BloomFilterChecksTotal counts bloom-filter membership checks, by
	// whether the check reported a hit.
	BloomFilterChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bobail_solve_bloom_filter_checks_total",
		Help: "Total bloom filter membership checks performed by the registry",
	}, []string{"hit"})

	// StoreCommitDurationSeconds records how long a storage batch
	// commit took, labeled by column family and status.
	StoreCommitDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bobail_solve_store_commit_duration_seconds",
		Help:    "Time to commit a write batch to the store",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"column_family", "status"})

	// CheckpointsWrittenTotal counts phase checkpoints persisted to the
	// metadata column family.
	CheckpointsWrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bobail_solve_checkpoints_written_total",
		Help: "Total checkpoints written to the metadata column family",
	}, []string{"phase"})

	// QueryDurationSeconds records latency of a served Result lookup
	// (query="result"), labeled by outcome. BestMove and StartingResult
	// are recorded through the Result calls they make.
	QueryDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bobail_solve_query_duration_seconds",
		Help:    "Latency of a served query",
		Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	}, []string{"query", "outcome"})
)
