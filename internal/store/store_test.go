// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openers returns the stores under test: MemStore, and a BadgerStore
// running in Badger's own in-memory mode. Every shared-contract test
// runs against both so the two implementations stay interchangeable.
func openers(t *testing.T) map[string]func() Store {
	return map[string]func() Store{
		"mem": func() Store { return NewMemStore() },
		"badger": func() Store {
			s, err := OpenBadgerStore(InMemoryBadgerConfig())
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_GetMissingReturnsErrNotFound(t *testing.T) {
	for name, open := range openers(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()
			_, err := s.Get(context.Background(), CFStates, []byte("absent"))
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_SetThenGet(t *testing.T) {
	for name, open := range openers(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			b := s.NewBatch()
			require.NoError(t, b.Set(CFStates, []byte("k1"), []byte("v1")))
			require.NoError(t, b.Commit(context.Background()))

			got, err := s.Get(context.Background(), CFStates, []byte("k1"))
			require.NoError(t, err)
			assert.Equal(t, []byte("v1"), got)
		})
	}
}

func TestStore_ColumnFamiliesAreIsolated(t *testing.T) {
	for name, open := range openers(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			b := s.NewBatch()
			require.NoError(t, b.Set(CFStates, []byte("k"), []byte("states-value")))
			require.NoError(t, b.Set(CFMetadata, []byte("k"), []byte("metadata-value")))
			require.NoError(t, b.Commit(context.Background()))

			v1, err := s.Get(context.Background(), CFStates, []byte("k"))
			require.NoError(t, err)
			assert.Equal(t, []byte("states-value"), v1)

			v2, err := s.Get(context.Background(), CFMetadata, []byte("k"))
			require.NoError(t, err)
			assert.Equal(t, []byte("metadata-value"), v2)
		})
	}
}

func TestStore_MultiGet(t *testing.T) {
	for name, open := range openers(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			b := s.NewBatch()
			require.NoError(t, b.Set(CFPackedToID, []byte("a"), []byte("1")))
			require.NoError(t, b.Set(CFPackedToID, []byte("c"), []byte("3")))
			require.NoError(t, b.Commit(context.Background()))

			got, err := s.MultiGet(context.Background(), CFPackedToID, [][]byte{
				[]byte("a"), []byte("b"), []byte("c"),
			})
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, []byte("1"), got[0])
			assert.Nil(t, got[1])
			assert.Equal(t, []byte("3"), got[2])
		})
	}
}

func TestStore_BatchAtomicity_DiscardDropsMutations(t *testing.T) {
	for name, open := range openers(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			b := s.NewBatch()
			require.NoError(t, b.Set(CFStates, []byte("ghost"), []byte("v")))
			b.Discard()

			_, err := s.Get(context.Background(), CFStates, []byte("ghost"))
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_IteratorScansPrefixInOrder(t *testing.T) {
	for name, open := range openers(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			b := s.NewBatch()
			for _, k := range []string{"03", "01", "02"} {
				require.NoError(t, b.Set(CFQueue, []byte(k), []byte(k)))
			}
			require.NoError(t, b.Commit(context.Background()))

			it := s.NewIterator(CFQueue, IterOptions{})
			defer it.Close()

			var order []string
			for it.Rewind(); it.Valid(); it.Next() {
				order = append(order, string(it.Key()))
			}
			assert.Equal(t, []string{"01", "02", "03"}, order)
		})
	}
}

func TestStore_IteratorRespectsPrefix(t *testing.T) {
	for name, open := range openers(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			b := s.NewBatch()
			require.NoError(t, b.Set(CFMetadata, []byte("phase:current"), []byte("1")))
			require.NoError(t, b.Set(CFMetadata, []byte("phase:checkpoint"), []byte("2")))
			require.NoError(t, b.Set(CFMetadata, []byte("num_states"), []byte("3")))
			require.NoError(t, b.Commit(context.Background()))

			it := s.NewIterator(CFMetadata, IterOptions{Prefix: []byte("phase:")})
			defer it.Close()

			count := 0
			for it.Rewind(); it.Valid(); it.Next() {
				count++
			}
			assert.Equal(t, 2, count)
		})
	}
}

func TestStore_SyncIsNoErr(t *testing.T) {
	for name, open := range openers(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()
			assert.NoError(t, s.Sync())
		})
	}
}
