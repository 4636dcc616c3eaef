// Copyright (c) 2025 stef4k
// SPDX-License-Identifier: MIT

package kmertrie

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stef4k/dna-sequence-postgres-extension/internal/golden"
)

var mpk = MustParseKmer

// buildIndex inserts the keys with fresh row refs. A zero pageSize
// keeps the default.
func buildIndex(t *testing.T, pageSize int, keys ...string) *Index {
	t.Helper()
	x := New()
	if pageSize > 0 {
		x.store.pageSize = pageSize
	}
	for _, k := range keys {
		require.NoError(t, x.Insert(mpk(k), uuid.New()))
	}
	return x
}

func matchKeys(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Kmer.String()
	}
	return out
}

func TestScenarioS1Exact(t *testing.T) {
	x := buildIndex(t, 0, "ACGT", "ACGTA", "ACGTAA", "TTTT")

	matches, err := x.Search(Equal(mpk("ACGT")))
	require.NoError(t, err)
	assert.Equal(t, []string{"ACGT"}, matchKeys(matches))
}

func TestScenarioS2Prefix(t *testing.T) {
	x := buildIndex(t, 0, "ACGT", "ACGTA", "ACGTAA", "TTTT")

	matches, err := x.Search(HasPrefix(mpk("ACG")))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ACGT", "ACGTA", "ACGTAA"}, matchKeys(matches))
}

func TestScenarioS3PrefixLongerThanKeys(t *testing.T) {
	x := buildIndex(t, 0, "ACGT", "ACGTA", "ACGTAA", "TTTT")

	// a query longer than any indexed key matches nothing; the
	// shorter keys must not surface
	matches, err := x.Search(HasPrefix(mpk("ACGCCCCT")))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestScenarioS4IupacContains(t *testing.T) {
	x := buildIndex(t, 0, "ACGTA", "ACCTA", "TCGTA")

	// A at position 0 rejects TCGTA, N at position 1 covers anything,
	// G at position 2 rejects ACCTA
	matches, err := x.Search(Contains(MustParseQkmer("ANGTA")))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ACGTA"}, matchKeys(matches))
}

func TestScenarioS5IupacLengthMismatch(t *testing.T) {
	x := buildIndex(t, 0, "ACGTA", "ACCTA", "TCGTA")

	matches, err := x.Search(Contains(MustParseQkmer("ANGT")))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestScenarioS6SplitUpward(t *testing.T) {
	// a tiny page forces the picksplit and split-upward machinery
	x := buildIndex(t, 40, "ACGT", "ACGA", "TTTT")

	root, err := x.store.page(x.root)
	require.NoError(t, err)
	require.False(t, root.isLeaf())
	require.GreaterOrEqual(t, len(root.inner.Labels), 2)
	assert.Equal(t, []Label{ByteLabel('A'), ByteLabel('T')}, root.inner.Labels)

	// the 'A' subtree discriminates on 'A' and 'T' after the shared "CG"
	aChild, err := x.store.page(root.downlinks[0])
	require.NoError(t, err)
	require.False(t, aChild.isLeaf())
	assert.Equal(t, Key("CG"), aChild.inner.Prefix)
	assert.Equal(t, []Label{ByteLabel('A'), ByteLabel('T')}, aChild.inner.Labels)

	checkInvariants(t, x)

	for _, k := range []string{"ACGT", "ACGA", "TTTT"} {
		matches, err := x.Search(Equal(mpk(k)))
		require.NoError(t, err)
		assert.Equal(t, []string{k}, matchKeys(matches), "equal(%s)", k)
	}
}

func TestDuplicateKeys(t *testing.T) {
	x := buildIndex(t, 0, "ACGT", "ACGT", "ACGT")
	assert.Equal(t, 3, x.Size())

	matches, err := x.Search(Equal(mpk("ACGT")))
	require.NoError(t, err)
	assert.Len(t, matches, 3)

	// distinct row refs survive
	refs := map[RowRef]bool{}
	for _, m := range matches {
		refs[m.Ref] = true
	}
	assert.Len(t, refs, 3)
}

func TestDuplicateRunForcesAllTheSame(t *testing.T) {
	// enough duplicates to overflow a page cannot be discriminated;
	// the degenerate split must produce an all-the-same node
	x := New()
	x.store.pageSize = 64

	for range 50 {
		require.NoError(t, x.Insert(mpk("ACGTACGT"), uuid.New()))
	}
	checkInvariants(t, x)

	matches, err := x.Search(Equal(mpk("ACGTACGT")))
	require.NoError(t, err)
	assert.Len(t, matches, 50)

	// and a diverging key afterwards restores a legal shape
	require.NoError(t, x.Insert(mpk("ACGTTTTT"), uuid.New()))
	checkInvariants(t, x)

	matches, err = x.Search(Equal(mpk("ACGTTTTT")))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	matches, err = x.Search(Equal(mpk("ACGTACGT")))
	require.NoError(t, err)
	assert.Len(t, matches, 50)
}

func TestEmptyKeyAndProperPrefixKeys(t *testing.T) {
	x := buildIndex(t, 48, "", "A", "AC", "ACG", "ACGT", "ACGT", "")
	checkInvariants(t, x)

	matches, err := x.Search(Equal(mpk("")))
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	matches, err = x.Search(HasPrefix(mpk("")))
	require.NoError(t, err)
	assert.Len(t, matches, 7)

	matches, err = x.Search(HasPrefix(mpk("AC")))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"AC", "ACG", "ACGT", "ACGT"}, matchKeys(matches))
}

func TestSearchEmptyIndex(t *testing.T) {
	x := New()

	matches, err := x.Search(Equal(mpk("ACGT")))
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = x.Search()
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMultiplePredicatesIntersect(t *testing.T) {
	x := buildIndex(t, 0, "ACGTA", "ACCTA", "TCGTA", "ACGT")

	matches, err := x.Search(
		HasPrefix(mpk("AC")),
		Contains(MustParseQkmer("ANGTA")),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"ACGTA"}, matchKeys(matches))
}

func TestAllIterator(t *testing.T) {
	want := []string{"ACGT", "ACGT", "TTTT", "A"}
	x := buildIndex(t, 0, want...)

	var got []string
	for k := range x.All() {
		got = append(got, k.String())
	}
	assert.ElementsMatch(t, want, got)

	// early stop
	count := 0
	for range x.All() {
		if count++; count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestStats(t *testing.T) {
	x := buildIndex(t, 40, "ACGT", "ACGA", "TTTT")

	st := x.Stats()
	assert.Equal(t, 3, st.Keys)
	assert.Positive(t, st.InnerNodes)
	assert.Positive(t, st.LeafPages)
	assert.Equal(t, st.Pages, st.InnerNodes+st.LeafPages)
	assert.GreaterOrEqual(t, st.MaxDepth, 2)
}

// randomKmer returns a random key of length 0..maxLen.
func randomKmer(prng *rand.Rand, maxLen int) string {
	const bases = "ACGT"
	n := prng.IntN(maxLen + 1)
	b := make([]byte, n)
	for i := range b {
		b[i] = bases[prng.IntN(4)]
	}
	return string(b)
}

// randomQkmer returns a random IUPAC pattern of length 0..maxLen.
func randomQkmer(prng *rand.Rand, maxLen int) string {
	const letters = "ACGTRYSWKMBDHVN"
	n := prng.IntN(maxLen + 1)
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[prng.IntN(len(letters))]
	}
	return string(b)
}

func entryKeys(entries []golden.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Kmer
	}
	return out
}

// Index lookups and the golden linear scan must agree as multisets on
// random key batches and random predicate sets.
func TestRandomEquivalenceWithGolden(t *testing.T) {
	for _, seed := range []uint64{1, 42, 1234, 98765} {
		t.Run(fmt.Sprintf("seed_%d", seed), func(t *testing.T) {
			prng := rand.New(rand.NewPCG(seed, 7))

			x := New()
			x.store.pageSize = 128
			var gold golden.Table

			n := 200 + prng.IntN(2000)
			for range n {
				k := randomKmer(prng, 12)
				ref := uuid.New()
				require.NoError(t, x.Insert(mpk(k), ref))
				gold.Insert(k, ref)
			}
			checkInvariants(t, x)

			for range 50 {
				q := randomKmer(prng, 13)
				matches, err := x.Search(Equal(mpk(q)))
				require.NoError(t, err)
				assert.ElementsMatch(t, entryKeys(gold.EqualTo(q)), matchKeys(matches), "equal(%s)", q)

				matches, err = x.Search(HasPrefix(mpk(q)))
				require.NoError(t, err)
				assert.ElementsMatch(t, entryKeys(gold.WithPrefix(q)), matchKeys(matches), "prefix(%s)", q)

				p := randomQkmer(prng, 13)
				matches, err = x.Search(Contains(MustParseQkmer(p)))
				require.NoError(t, err)
				assert.ElementsMatch(t, entryKeys(gold.MatchedBy(p)), matchKeys(matches), "contains(%s)", p)
			}
		})
	}
}

// The query results must not depend on the insertion order.
func TestInsertionOrderIndependence(t *testing.T) {
	prng := rand.New(rand.NewPCG(99, 3))

	base := make([]string, 300)
	for i := range base {
		base[i] = randomKmer(prng, 10)
	}

	want, err := buildIndex(t, 128, base...).Search(HasPrefix(mpk("AC")))
	require.NoError(t, err)

	for range 5 {
		shuffled := append([]string(nil), base...)
		prng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		x := buildIndex(t, 128, shuffled...)
		checkInvariants(t, x)

		got, err := x.Search(HasPrefix(mpk("AC")))
		require.NoError(t, err)
		assert.ElementsMatch(t, matchKeys(want), matchKeys(got))
	}
}

// Every inserted key must be found again by an equal query.
func TestRoundTripAllInserted(t *testing.T) {
	prng := rand.New(rand.NewPCG(5, 5))

	x := New()
	x.store.pageSize = 128
	inserted := make(map[string]int)

	for range 3000 {
		k := randomKmer(prng, MaxKeyLen)
		require.NoError(t, x.Insert(mpk(k), uuid.New()))
		inserted[k]++
	}
	checkInvariants(t, x)

	for k, count := range inserted {
		matches, err := x.Search(Equal(mpk(k)))
		require.NoError(t, err, "equal(%s)", k)
		require.Len(t, matches, count, "equal(%s)", k)
		for _, m := range matches {
			assert.Equal(t, k, m.Kmer.String())
		}
	}
}
