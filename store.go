// Copyright (c) 2025 stef4k
// SPDX-License-Identifier: MIT

package kmertrie

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
)

// page is one live page of the in-memory store, holding either an
// inner node or a list of leaf tuples.
type page struct {
	inner     *InnerNode
	downlinks []PageID

	leaves []LeafTuple

	// allTheSame marks a leaf page referenced by an all-the-same
	// inner node; such a page is exempt from the soft capacity.
	allTheSame bool
}

func (p *page) isLeaf() bool { return p.inner == nil }

// store is the in-memory page-oriented store backing an Index. It
// stands in for the host database's storage manager: fixed-size pages,
// a free-slot bitmap, and serialized-size accounting that enforces the
// single-page invariant.
type store struct {
	pageSize int
	pages    []*page
	free     *bitset.BitSet // set bit = reusable page slot
}

func newStore(pageSize int) *store {
	return &store{
		pageSize: pageSize,
		free:     bitset.New(0),
	}
}

// alloc returns a fresh or recycled page slot holding an empty leaf
// page.
func (s *store) alloc() PageID {
	if slot, ok := s.free.NextSet(0); ok {
		s.free.Clear(slot)
		s.pages[slot] = &page{}
		return PageID(slot)
	}
	s.pages = append(s.pages, &page{})
	return PageID(len(s.pages) - 1)
}

// release frees a page slot for reuse. The slot stays addressable but
// reads of it fail until reallocated.
func (s *store) release(id PageID) {
	s.pages[id] = nil
	s.free.Set(uint(id))
}

// page returns the live page at id.
func (s *store) page(id PageID) (*page, error) {
	if int(id) >= len(s.pages) || s.pages[id] == nil {
		return nil, errors.Wrapf(ErrCorruptNode, "dangling downlink to page %d", id)
	}
	return s.pages[id], nil
}

// setInner replaces the content of the page at id with an inner node.
// The serialized node must fit one page.
func (s *store) setInner(id PageID, n *InnerNode, downlinks []PageID) error {
	if innerPageSize(n, len(n.Labels)) > s.pageSize {
		return errors.Wrapf(ErrTreeInvariantViolated,
			"inner node exceeds page size %d", s.pageSize)
	}
	s.pages[id] = &page{inner: n, downlinks: downlinks}
	return nil
}

// leafFits reports whether the leaf page can take one more tuple
// within the page size. All-the-same pages always fit.
func (s *store) leafFits(p *page, t LeafTuple) bool {
	if p.allTheSame {
		return true
	}
	return leafPageSize(p.leaves)+encodedKeyLen(t.Residual)+16 <= s.pageSize
}

// numPages returns the count of live pages.
func (s *store) numPages() int {
	n := 0
	for _, p := range s.pages {
		if p != nil {
			n++
		}
	}
	return n
}
