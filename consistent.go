// Copyright (c) 2025 stef4k
// SPDX-License-Identifier: MIT

package kmertrie

import "github.com/pkg/errors"

// InnerConsistentIn is the descent context of one search step: the
// inner node under consideration, the byte offset consumed so far and
// the key decoded along the parent path.
type InnerConsistentIn struct {
	Node  *InnerNode
	Level int

	// Reconstructed is the partially decoded key of length Level.
	Reconstructed Key

	Predicates []Predicate
}

// InnerCandidate is one child slot that survived pruning.
type InnerCandidate struct {
	// Slot is the child slot index.
	Slot int

	// LevelAdd is the number of key bytes this node contributes for
	// the slot: the prefix length, plus one for a byte label.
	LevelAdd int

	// Reconstructed is the partially decoded key for the child.
	Reconstructed Key
}

// InnerConsistent reconstructs, for each child slot, the decoded key
// so far and keeps only the slots for which every predicate remains
// possible. Sentinel labels contribute no key byte; the all-the-same
// sentinel is always reconstruction-preserving.
func InnerConsistent(in InnerConsistentIn) ([]InnerCandidate, error) {
	if in.Node == nil || in.Level != len(in.Reconstructed) {
		return nil, errors.Wrap(ErrCorruptNode, "bad search descent context")
	}
	if err := in.Node.validate(); err != nil {
		return nil, errors.Wrap(ErrCorruptNode, err.Error())
	}

	base := concat(in.Reconstructed, in.Node.Prefix)

	out := make([]InnerCandidate, 0, len(in.Node.Labels))
slots:
	for slot, label := range in.Node.Labels {
		partial := base
		levelAdd := len(in.Node.Prefix)
		if label.IsByte() {
			partial = append(base[:len(base):len(base)], label.Byte())
			levelAdd++
		}

		for _, pred := range in.Predicates {
			if !pred.ConsistentInner(partial) {
				continue slots
			}
		}

		out = append(out, InnerCandidate{
			Slot:          slot,
			LevelAdd:      levelAdd,
			Reconstructed: partial,
		})
	}
	return out, nil
}

// LeafConsistentIn carries a leaf's residual together with the key
// decoded along the parent path.
type LeafConsistentIn struct {
	Residual      Key
	Level         int
	Reconstructed Key
	Predicates    []Predicate
}

// LeafConsistent reconstructs the full indexed key and applies each
// predicate exactly. The reconstructed key is returned alongside the
// verdict; no rechecking at the heap level is needed.
func LeafConsistent(in LeafConsistentIn) (bool, Key, error) {
	if in.Level != len(in.Reconstructed) {
		return false, nil, errors.Wrap(ErrCorruptNode, "bad leaf descent context")
	}

	full := concat(in.Reconstructed, in.Residual)
	for _, pred := range in.Predicates {
		if !pred.ConsistentLeaf(full) {
			return false, full, nil
		}
	}
	return true, full, nil
}
