// Copyright (c) 2025 stef4k
// SPDX-License-Identifier: MIT

package kmertrie

import (
	"slices"

	"github.com/pkg/errors"
)

// PickSplitResult is the outcome of converting a batch of leaves into
// an inner node plus new, shorter leaves.
type PickSplitResult struct {
	// Node is the new inner node. Its AllTheSame flag is set when the
	// batch could not be discriminated (exactly one child slot); the
	// driver must then use a page with the all-the-same flag set.
	Node *InnerNode

	// Mapping assigns each input key to its child slot index.
	Mapping []int

	// Residuals are the input keys stripped of the common prefix and
	// the discriminator byte, in input order. A residual may be nil.
	Residuals []Key
}

// PickSplit builds an inner node from a batch of leaf keys: the
// longest common prefix, capped at maxPrefix, becomes the node prefix;
// the byte after it (or Terminator for keys exhausted by the prefix)
// discriminates the child slots.
//
// A batch with at least two distinct discriminators yields at least
// two child slots.
func PickSplit(batch []Key, maxPrefix int) (*PickSplitResult, error) {
	if len(batch) == 0 {
		return nil, errors.Wrap(ErrTreeInvariantViolated, "picksplit on empty batch")
	}

	common := len(batch[0])
	for _, k := range batch[1:] {
		common = min(common, commonPrefixLen(batch[0], k))
	}
	common = min(common, maxPrefix)

	// Collect the distinct discriminators in ascending label order.
	discr := make([]Label, len(batch))
	labels := make([]Label, 0, 8)
	for i, k := range batch {
		l := Terminator
		if len(k) > common {
			l = ByteLabel(k[common])
		}
		discr[i] = l
		if !slices.Contains(labels, l) {
			labels = append(labels, l)
		}
	}
	slices.Sort(labels)

	node, err := NewInnerNode(append(Key(nil), batch[0][:common]...), labels, len(labels) == 1)
	if err != nil {
		return nil, err
	}

	res := &PickSplitResult{
		Node:      node,
		Mapping:   make([]int, len(batch)),
		Residuals: make([]Key, len(batch)),
	}
	for i, k := range batch {
		slot, ok := node.findLabel(discr[i])
		if !ok {
			return nil, errors.Wrap(ErrTreeInvariantViolated, "picksplit lost a discriminator")
		}
		res.Mapping[i] = slot

		strip := common
		if discr[i].IsByte() {
			strip++
		}
		res.Residuals[i] = suffix(k, strip)
	}
	return res, nil
}
