// Copyright (c) 2025 stef4k
// SPDX-License-Identifier: MIT

package kmertrie

import (
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// RowRef is the opaque row reference carried by a leaf. The in-memory
// store hands out fresh UUIDs; a host store may assign its own.
type RowRef = uuid.UUID

// InnerNode is the label-bearing trie node: an optional common prefix
// shared by every key reachable through it, plus a sorted array of
// labeled child slots. Downlinks are owned by the page store and kept
// parallel to Labels.
type InnerNode struct {
	// Prefix is the optional common prefix, nil or empty when absent.
	Prefix Key

	// Labels are unique and strictly ascending, with at most one of
	// the sentinels present. Binary search relies on the ordering.
	Labels []Label

	// AllTheSame is set when every child slot carries an identical
	// downlink, the degenerate result of splitting a batch of equal
	// keys.
	AllTheSame bool
}

// NewInnerNode validates and builds an inner node.
func NewInnerNode(prefix Key, labels []Label, allTheSame bool) (*InnerNode, error) {
	n := &InnerNode{Prefix: prefix, Labels: labels, AllTheSame: allTheSame}
	if err := n.validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// validate checks the construction invariants.
func (n *InnerNode) validate() error {
	sentinels := 0
	for i, l := range n.Labels {
		if l < AllTheSame || l > Label(255) {
			return errors.Wrapf(ErrTreeInvariantViolated, "label %d out of range", l)
		}
		if !l.IsByte() {
			sentinels++
		}
		if i > 0 && n.Labels[i-1] >= l {
			return errors.Wrapf(ErrTreeInvariantViolated,
				"labels not strictly ascending at slot %d", i)
		}
	}
	if sentinels > 1 {
		return errors.Wrap(ErrTreeInvariantViolated, "more than one sentinel label")
	}
	return nil
}

// findLabel returns the slot of l, or the slot where it would be
// inserted to keep the array sorted.
func (n *InnerNode) findLabel(l Label) (slot int, ok bool) {
	slot = sort.Search(len(n.Labels), func(i int) bool { return n.Labels[i] >= l })
	return slot, slot < len(n.Labels) && n.Labels[slot] == l
}

// LeafTuple is the terminal trie entry: the residual suffix of one
// indexed key after all prefix and label bytes consumed on the path,
// plus the opaque row reference.
type LeafTuple struct {
	Residual Key
	Ref      RowRef
}
