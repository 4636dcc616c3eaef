// Copyright (c) 2025 stef4k
// SPDX-License-Identifier: MIT

package kmertrie

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stef4k/dna-sequence-postgres-extension/internal/nucleo"
)

// checkInvariants walks the whole page graph and asserts the
// structural invariants: acyclic downlinks, strictly ascending labels,
// single-page serialized size, and exact key reconstruction along
// every root-to-leaf path.
func checkInvariants(t *testing.T, x *Index) {
	t.Helper()

	seen := map[PageID]bool{}
	var reconstructed []string

	var walk func(id PageID, recon Key)
	walk = func(id PageID, recon Key) {
		require.False(t, seen[id], "page %d reachable twice", id)
		seen[id] = true

		pg, err := x.store.page(id)
		require.NoError(t, err)

		if pg.isLeaf() {
			if !pg.allTheSame {
				require.LessOrEqual(t, leafPageSize(pg.leaves), x.store.pageSize,
					"leaf page %d exceeds page size", id)
			}
			for _, tup := range pg.leaves {
				full := concat(recon, tup.Residual)
				require.LessOrEqual(t, len(full), MaxKeyLen)
				for _, b := range full {
					require.True(t, nucleo.IsNuc(b), "reconstructed byte %q", b)
				}
				reconstructed = append(reconstructed, string(full))
			}
			return
		}

		require.NoError(t, pg.inner.validate(), "inner page %d", id)
		require.LessOrEqual(t, innerPageSize(pg.inner, len(pg.inner.Labels)), x.store.pageSize,
			"inner page %d exceeds page size", id)
		require.LessOrEqual(t, len(pg.inner.Prefix), maxPrefixLen(x.store.pageSize))
		require.NotEmpty(t, pg.inner.Labels, "inner page %d has no children", id)

		base := concat(recon, pg.inner.Prefix)
		for i, l := range pg.inner.Labels {
			child := base
			if l.IsByte() {
				child = append(base[:len(base):len(base)], l.Byte())
			}
			walk(pg.downlinks[i], child)
		}
	}
	walk(x.root, nil)

	// reconstruction along the paths must agree with an unpredicated
	// search, as a multiset
	matches, err := x.Search()
	require.NoError(t, err)
	assert.ElementsMatch(t, reconstructed, matchKeys(matches))
	assert.Len(t, reconstructed, x.Size())
}

func TestInvariantsAfterEveryInsert(t *testing.T) {
	inserts := []string{
		"ACGT", "ACGA", "TTTT", "ACGT", "A", "", "ACGTACGTACGTACGT",
		"T", "TT", "TTT", "GGGG", "GGGG", "GGGG", "GGGG", "GGGG",
	}

	x := New()
	x.store.pageSize = 64
	for _, k := range inserts {
		require.NoError(t, x.Insert(mpk(k), uuid.New()))
		checkInvariants(t, x)
	}
}

func TestInsertIdempotentShape(t *testing.T) {
	// re-inserting an existing key must keep the tree legal and both
	// leaves findable
	x := buildIndex(t, 48, "ACGT", "ACGA", "TTTT", "ACGTT")
	checkInvariants(t, x)

	require.NoError(t, x.Insert(mpk("ACGT"), uuid.New()))
	checkInvariants(t, x)

	matches, err := x.Search(Equal(mpk("ACGT")))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestDumpShowsShape(t *testing.T) {
	x := buildIndex(t, 40, "ACGT", "ACGA", "TTTT")

	s := x.dumpString()
	assert.Contains(t, s, "keys(3)")
	assert.Contains(t, s, "[inner]")
	assert.Contains(t, s, "[leaf]")
}
