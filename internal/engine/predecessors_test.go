// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"reflect"
	"testing"

	"github.com/jasondaming/bobail-solver/internal/config"
	"github.com/jasondaming/bobail-solver/internal/enginedb"
	"github.com/jasondaming/bobail-solver/internal/obslog"
	"github.com/jasondaming/bobail-solver/internal/store"
)

func TestDedupeSortedUint32(t *testing.T) {
	cases := []struct {
		name string
		in   []uint32
		want []uint32
	}{
		{"empty", nil, []uint32{}},
		{"no duplicates", []uint32{3, 1, 2}, []uint32{1, 2, 3}},
		{"duplicates", []uint32{5, 5, 1, 1, 1, 2}, []uint32{1, 2, 5}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := dedupeSortedUint32(append([]uint32{}, c.in...))
			if len(got) == 0 {
				got = []uint32{}
			}
			if !reflect.DeepEqual(got, c.want) {
				t.Errorf("dedupeSortedUint32(%v) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}

func TestEngine_FlushPredecessorBufferMergesAcrossFlushes(t *testing.T) {
	st := store.NewMemStore()
	cfg := config.Default()
	cfg.InMemory = true
	e, err := New(context.Background(), st, nimAdapter{start: 4}, cfg, obslog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if err := e.flushPredecessorBuffer(ctx, 0, map[uint32][]uint32{10: {1, 2}}); err != nil {
		t.Fatalf("flushPredecessorBuffer() error = %v", err)
	}
	if err := e.flushPredecessorBuffer(ctx, 0, map[uint32][]uint32{10: {2, 3}}); err != nil {
		t.Fatalf("flushPredecessorBuffer() error = %v", err)
	}

	preds, err := e.getPredecessors(ctx, 10)
	if err != nil {
		t.Fatalf("getPredecessors() error = %v", err)
	}

	want := map[uint32]bool{1: true, 2: true, 3: true}
	if len(preds) != len(want) {
		t.Fatalf("getPredecessors(10) = %v, want exactly %v (dedup across flushes)", preds, want)
	}
	for _, p := range preds {
		if !want[p] {
			t.Errorf("getPredecessors(10) contained unexpected id %d", p)
		}
	}
}

func TestEngine_GetPredecessorsReadsLegacyShard(t *testing.T) {
	st := store.NewMemStore()
	cfg := config.Default()
	cfg.InMemory = true
	e, err := New(context.Background(), st, nimAdapter{start: 4}, cfg, obslog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	legacyKey := enginedb.EncodePredecessorKey(5, enginedb.LegacyShardByte)
	b := st.NewBatch()
	if err := b.Set(store.CFPredecessors, legacyKey, enginedb.EncodeIDList([]uint32{77})); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := b.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	preds, err := e.getPredecessors(ctx, 5)
	if err != nil {
		t.Fatalf("getPredecessors() error = %v", err)
	}
	if len(preds) != 1 || preds[0] != 77 {
		t.Errorf("getPredecessors(5) = %v, want [77] from the legacy shard", preds)
	}
}
