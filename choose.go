// Copyright (c) 2025 stef4k
// SPDX-License-Identifier: MIT

package kmertrie

import "github.com/pkg/errors"

// ChooseIn is the descent context of one insertion step: the full key
// being inserted, the byte offset already consumed on the path, and
// the inner node under consideration.
type ChooseIn struct {
	Key   Key
	Level int
	Node  *InnerNode
}

// ChooseResult is the typed command returned by Choose. The external
// driver executes it; Choose itself never touches more than one node.
//
// The three variants are [MatchNode], [AddNode] and [SplitTuple].
type ChooseResult interface {
	isChooseResult()
}

// MatchNode descends into an existing child slot.
type MatchNode struct {
	// Slot is the index of the matching child.
	Slot int

	// LevelAdd is the number of key bytes consumed at this node: the
	// prefix length, plus one for a byte label.
	LevelAdd int

	// Rest is the residual key for the next level.
	Rest Key
}

// AddNode adds a new child slot to the node.
type AddNode struct {
	// Label is the new slot's label.
	Label Label

	// At is the insertion position keeping the label array sorted.
	At int
}

// SplitTuple replaces the node with a fresh upper node holding the
// shared prefix and a single child slot, under which the old node
// continues with its remaining prefix. The incoming key descends no
// further in this call; the caller reissues insertion on the upper
// node.
type SplitTuple struct {
	// UpperPrefix is the shared prefix of the old prefix and the
	// incoming remainder, possibly empty.
	UpperPrefix Key

	// UpperLabel is the upper node's sole label: the first diverging
	// byte of the old prefix, or AllTheSame for the ambiguous variant.
	UpperLabel Label

	// LowerPrefix is the old node's new prefix, possibly empty.
	LowerPrefix Key
}

func (MatchNode) isChooseResult()  {}
func (AddNode) isChooseResult()    {}
func (SplitTuple) isChooseResult() {}

// Choose decides how one inner node accommodates the descending key:
// descend into an existing child, add a sibling slot, or split the
// node upwards because its prefix no longer matches.
func Choose(in ChooseIn) (ChooseResult, error) {
	if in.Node == nil || in.Level < 0 || in.Level > len(in.Key) {
		return nil, errors.Wrap(ErrTreeInvariantViolated, "bad descent context")
	}
	if err := in.Node.validate(); err != nil {
		return nil, err
	}

	rest := Key(in.Key[in.Level:])
	prefix := in.Node.Prefix
	common := commonPrefixLen(rest, prefix)

	if common < len(prefix) {
		// The node's prefix does not match the incoming key. The old
		// node keeps everything after the shared bytes and the label
		// byte.
		return SplitTuple{
			UpperPrefix: append(Key(nil), prefix[:common]...),
			UpperLabel:  ByteLabel(prefix[common]),
			LowerPrefix: suffix(prefix, common+1),
		}, nil
	}

	// Prefix fully consumed, match the next byte against the labels.
	label := Terminator
	if len(rest) > common {
		label = ByteLabel(rest[common])
	}

	if slot, ok := in.Node.findLabel(label); ok {
		levelAdd := common
		if label.IsByte() {
			levelAdd++
		}
		return MatchNode{
			Slot:     slot,
			LevelAdd: levelAdd,
			Rest:     suffix(in.Key, in.Level+levelAdd),
		}, nil
	}

	if label == Terminator && len(in.Node.Labels) > 0 && in.Node.Labels[0] == AllTheSame {
		// Keys ending here live below the all-the-same slot, which
		// consumes the prefix but no label byte.
		return MatchNode{
			Slot:     0,
			LevelAdd: common,
			Rest:     suffix(in.Key, in.Level+common),
		}, nil
	}

	if in.Node.AllTheSame {
		// A new slot cannot be added without breaking the identical
		// downlinks; split instead, keeping the whole prefix above.
		return SplitTuple{
			UpperPrefix: append(Key(nil), prefix...),
			UpperLabel:  AllTheSame,
			LowerPrefix: nil,
		}, nil
	}

	at, _ := in.Node.findLabel(label)
	return AddNode{Label: label, At: at}, nil
}
