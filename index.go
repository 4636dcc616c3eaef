// Copyright (c) 2025 stef4k
// SPDX-License-Identifier: MIT

package kmertrie

import (
	"iter"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 8192
	minPageSize     = 512

	// maxDescentSteps bounds one insertion walk; a longer walk means
	// a cyclic or degenerate page graph.
	maxDescentSteps = 4096
)

// Index is the reference insertion and scan driver over the in-memory
// page store. It executes the typed commands returned by Choose,
// triggers PickSplit on leaf-page overflow, and walks searches with
// InnerConsistent and LeafConsistent.
//
// Duplicate keys are allowed and surface as distinct matches;
// deduplication is the caller's job.
type Index struct {
	store *store
	root  PageID
	size  int
	log   zerolog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithPageSize sets the page size in bytes, minimum 512.
func WithPageSize(n int) Option {
	return func(x *Index) {
		x.store.pageSize = max(n, minPageSize)
	}
}

// WithLogger sets the logger for insertion and scan tracing. The
// default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(x *Index) { x.log = log }
}

// New returns an empty index.
func New(opts ...Option) *Index {
	x := &Index{
		store: newStore(defaultPageSize),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(x)
	}
	x.root = x.store.alloc()
	return x
}

// Size returns the number of indexed keys, duplicates included.
func (x *Index) Size() int { return x.size }

// Match is one scan result: the reconstructed key and the row
// reference stored at its leaf.
type Match struct {
	Kmer Kmer
	Ref  RowRef
}

// Insert adds one key with its opaque row reference. The insertion is
// all-or-nothing; on error the tree is unchanged.
func (x *Index) Insert(k Kmer, ref RowRef) error {
	key := k.key()
	id := x.root
	level := 0

	for step := 0; ; step++ {
		if step > maxDescentSteps {
			return errors.Wrap(ErrCorruptNode, "insertion descent does not terminate")
		}

		pg, err := x.store.page(id)
		if err != nil {
			return err
		}

		if pg.isLeaf() {
			t := LeafTuple{Residual: suffix(key, level), Ref: ref}
			if x.store.leafFits(pg, t) {
				pg.leaves = append(pg.leaves, t)
				x.size++
				return nil
			}
			if err := x.splitLeaf(id, append(append([]LeafTuple(nil), pg.leaves...), t)); err != nil {
				return err
			}
			x.size++
			return nil
		}

		res, err := Choose(ChooseIn{Key: key, Level: level, Node: pg.inner})
		if err != nil {
			return err
		}

		switch r := res.(type) {
		case MatchNode:
			id = pg.downlinks[r.Slot]
			level += r.LevelAdd

		case AddNode:
			if err := x.addNode(id, pg, r); err != nil {
				return err
			}
			// Reissue on the grown node; the next round descends.

		case SplitTuple:
			if err := x.splitTuple(id, pg, r); err != nil {
				return err
			}
			// Reissue on the new upper node.

		default:
			return errors.Wrap(ErrTreeInvariantViolated, "unknown choose decision")
		}
	}
}

// addNode executes an AddNode command: a fresh leaf page appears as a
// new child slot at the sorted position.
func (x *Index) addNode(id PageID, pg *page, r AddNode) error {
	labels := make([]Label, 0, len(pg.inner.Labels)+1)
	labels = append(labels, pg.inner.Labels[:r.At]...)
	labels = append(labels, r.Label)
	labels = append(labels, pg.inner.Labels[r.At:]...)

	leafID := x.store.alloc()
	downlinks := make([]PageID, 0, len(pg.downlinks)+1)
	downlinks = append(downlinks, pg.downlinks[:r.At]...)
	downlinks = append(downlinks, leafID)
	downlinks = append(downlinks, pg.downlinks[r.At:]...)

	n, err := NewInnerNode(pg.inner.Prefix, labels, false)
	if err != nil {
		return err
	}
	if err := x.store.setInner(id, n, downlinks); err != nil {
		return err
	}

	x.log.Debug().Uint32("page", uint32(id)).Stringer("label", r.Label).
		Msg("added child slot")
	return nil
}

// splitTuple executes a SplitTuple command: the old node moves to a
// fresh page below a new upper node that takes over the current page,
// so the parent downlink stays valid.
func (x *Index) splitTuple(id PageID, pg *page, r SplitTuple) error {
	lower, err := NewInnerNode(r.LowerPrefix, pg.inner.Labels, pg.inner.AllTheSame)
	if err != nil {
		return err
	}
	lowerID := x.store.alloc()
	if err := x.store.setInner(lowerID, lower, pg.downlinks); err != nil {
		return err
	}

	upper, err := NewInnerNode(r.UpperPrefix, []Label{r.UpperLabel}, false)
	if err != nil {
		return err
	}
	if err := x.store.setInner(id, upper, []PageID{lowerID}); err != nil {
		return err
	}

	x.log.Debug().Uint32("page", uint32(id)).Stringer("label", r.UpperLabel).
		Msg("split tuple upward")
	return nil
}

// splitLeaf converts an overflowing batch of leaf tuples into an inner
// node at id with fresh leaf pages below it. A group that still
// overflows is split again; a batch with a single child slot becomes
// an all-the-same node over one capacity-exempt page.
func (x *Index) splitLeaf(id PageID, tuples []LeafTuple) error {
	batch := make([]Key, len(tuples))
	for i := range tuples {
		batch[i] = tuples[i].Residual
	}

	res, err := PickSplit(batch, maxPrefixLen(x.store.pageSize))
	if err != nil {
		return err
	}

	groups := make([][]LeafTuple, len(res.Node.Labels))
	for i, slot := range res.Mapping {
		groups[slot] = append(groups[slot], LeafTuple{
			Residual: res.Residuals[i],
			Ref:      tuples[i].Ref,
		})
	}

	downlinks := make([]PageID, len(groups))
	for slot, group := range groups {
		cid := x.store.alloc()
		downlinks[slot] = cid

		child, _ := x.store.page(cid)
		child.allTheSame = res.Node.AllTheSame
		if !child.allTheSame && leafPageSize(group) > x.store.pageSize {
			if err := x.splitLeaf(cid, group); err != nil {
				return err
			}
			continue
		}
		child.leaves = group
	}

	if err := x.store.setInner(id, res.Node, downlinks); err != nil {
		return err
	}

	x.log.Debug().Uint32("page", uint32(id)).Int("tuples", len(tuples)).
		Int("slots", len(res.Node.Labels)).Bool("allTheSame", res.Node.AllTheSame).
		Msg("split leaf page")
	return nil
}

// Search walks the trie and returns every indexed key satisfying all
// predicates, duplicates as-is. With no predicates it returns the
// whole index.
func (x *Index) Search(preds ...Predicate) ([]Match, error) {
	type frame struct {
		id            PageID
		level         int
		reconstructed Key
	}

	stack := []frame{{id: x.root}}
	visited := 0

	var out []Match
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited++; visited > len(x.store.pages)+1 {
			return nil, errors.Wrap(ErrCorruptNode, "search visits more pages than exist")
		}

		pg, err := x.store.page(f.id)
		if err != nil {
			return nil, err
		}

		if pg.isLeaf() {
			for _, t := range pg.leaves {
				ok, full, err := LeafConsistent(LeafConsistentIn{
					Residual:      t.Residual,
					Level:         f.level,
					Reconstructed: f.reconstructed,
					Predicates:    preds,
				})
				if err != nil {
					return nil, err
				}
				if ok {
					out = append(out, Match{Kmer: kmerFromKey(full), Ref: t.Ref})
				}
			}
			continue
		}

		cands, err := InnerConsistent(InnerConsistentIn{
			Node:          pg.inner,
			Level:         f.level,
			Reconstructed: f.reconstructed,
			Predicates:    preds,
		})
		if err != nil {
			return nil, err
		}
		for _, c := range cands {
			stack = append(stack, frame{
				id:            pg.downlinks[c.Slot],
				level:         f.level + c.LevelAdd,
				reconstructed: c.Reconstructed,
			})
		}
	}

	x.log.Trace().Int("pages", visited).Int("matches", len(out)).Msg("search done")
	return out, nil
}

// All yields every indexed key with its row reference, duplicates
// as-is, in no defined order. Iteration stops early if the underlying
// walk fails.
func (x *Index) All() iter.Seq2[Kmer, RowRef] {
	return func(yield func(Kmer, RowRef) bool) {
		matches, err := x.Search()
		if err != nil {
			return
		}
		for _, m := range matches {
			if !yield(m.Kmer, m.Ref) {
				return
			}
		}
	}
}

// Stats summarizes the page graph.
type Stats struct {
	Keys       int
	Pages      int
	InnerNodes int
	LeafPages  int
	MaxDepth   int
}

// Stats walks the page graph and returns its shape summary.
func (x *Index) Stats() Stats {
	st := Stats{Keys: x.size, Pages: x.store.numPages()}
	x.statsRec(x.root, 1, &st)
	return st
}

func (x *Index) statsRec(id PageID, depth int, st *Stats) {
	pg, err := x.store.page(id)
	if err != nil {
		return
	}
	st.MaxDepth = max(st.MaxDepth, depth)
	if pg.isLeaf() {
		st.LeafPages++
		return
	}
	st.InnerNodes++
	for _, child := range pg.downlinks {
		x.statsRec(child, depth+1, st)
	}
}
