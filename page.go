// Copyright (c) 2025 stef4k
// SPDX-License-Identifier: MIT

package kmertrie

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Persisted node-page layout. A page stores, in order:
//
//   - a flag byte (is-leaf, has-prefix, all-the-same),
//   - if has-prefix: the length-prefixed prefix bytes,
//   - if inner: a 16-bit child count, then (16-bit label, 32-bit
//     downlink) pairs in ascending label order,
//   - if leaf: a 16-bit tuple count, then per tuple the
//     length-prefixed residual and the 16-byte row reference.
//
// The downlink format is owned by the in-memory store; a host store
// substitutes its own.
const (
	flagIsLeaf     = 1 << 0
	flagHasPrefix  = 1 << 1
	flagAllTheSame = 1 << 2

	flagKnown = flagIsLeaf | flagHasPrefix | flagAllTheSame
)

// PageID is the in-memory store's downlink: the index of a page slot.
type PageID uint32

// appendInnerPage appends the serialized inner node with its parallel
// downlink array to dst.
func appendInnerPage(dst []byte, n *InnerNode, downlinks []PageID) ([]byte, error) {
	if err := n.validate(); err != nil {
		return nil, err
	}
	if len(downlinks) != len(n.Labels) {
		return nil, errors.Wrapf(ErrTreeInvariantViolated,
			"%d downlinks for %d labels", len(downlinks), len(n.Labels))
	}

	flags := byte(0)
	if n.AllTheSame {
		flags |= flagAllTheSame
	}
	if len(n.Prefix) > 0 {
		flags |= flagHasPrefix
	}
	dst = append(dst, flags)
	if len(n.Prefix) > 0 {
		dst = appendKey(dst, n.Prefix)
	}

	dst = binary.BigEndian.AppendUint16(dst, uint16(len(n.Labels)))
	for i, l := range n.Labels {
		dst = binary.BigEndian.AppendUint16(dst, uint16(l))
		dst = binary.BigEndian.AppendUint32(dst, uint32(downlinks[i]))
	}
	return dst, nil
}

// appendLeafPage appends the serialized leaf tuples to dst.
func appendLeafPage(dst []byte, tuples []LeafTuple, allTheSame bool) []byte {
	flags := byte(flagIsLeaf)
	if allTheSame {
		flags |= flagAllTheSame
	}
	dst = append(dst, flags)

	dst = binary.BigEndian.AppendUint16(dst, uint16(len(tuples)))
	for _, t := range tuples {
		dst = appendKey(dst, t.Residual)
		dst = append(dst, t.Ref[:]...)
	}
	return dst
}

// decodedPage is the parsed form of one page.
type decodedPage struct {
	inner     *InnerNode
	downlinks []PageID

	leaves     []LeafTuple
	allTheSame bool

	isLeaf bool
}

// decodePage parses and structurally validates one serialized page.
func decodePage(b []byte) (*decodedPage, error) {
	if len(b) == 0 {
		return nil, errors.Wrap(ErrCorruptNode, "empty page")
	}
	flags := b[0]
	if flags&^byte(flagKnown) != 0 {
		return nil, errors.Wrapf(ErrCorruptNode, "unknown flag bits %#x", flags)
	}
	b = b[1:]

	if flags&flagIsLeaf != 0 {
		if flags&flagHasPrefix != 0 {
			return nil, errors.Wrap(ErrCorruptNode, "leaf page with prefix flag")
		}
		return decodeLeafBody(b, flags&flagAllTheSame != 0)
	}
	return decodeInnerBody(b, flags)
}

func decodeInnerBody(b []byte, flags byte) (*decodedPage, error) {
	var prefix Key
	if flags&flagHasPrefix != 0 {
		var n int
		var err error
		prefix, n, err = decodeKey(b)
		if err != nil {
			return nil, err
		}
		if len(prefix) == 0 {
			return nil, errors.Wrap(ErrCorruptNode, "prefix flag with empty prefix")
		}
		b = b[n:]
	}

	if len(b) < 2 {
		return nil, errors.Wrap(ErrCorruptNode, "truncated child count")
	}
	count := int(binary.BigEndian.Uint16(b))
	b = b[2:]

	labels := make([]Label, count)
	downlinks := make([]PageID, count)
	for i := range count {
		if len(b) < 6 {
			return nil, errors.Wrap(ErrCorruptNode, "truncated child slot")
		}
		labels[i] = Label(int16(binary.BigEndian.Uint16(b)))
		downlinks[i] = PageID(binary.BigEndian.Uint32(b[2:]))
		b = b[6:]
	}
	if len(b) != 0 {
		return nil, errors.Wrapf(ErrCorruptNode, "%d trailing bytes", len(b))
	}

	inner, err := NewInnerNode(prefix, labels, flags&flagAllTheSame != 0)
	if err != nil {
		return nil, errors.Wrap(ErrCorruptNode, err.Error())
	}
	return &decodedPage{inner: inner, downlinks: downlinks}, nil
}

func decodeLeafBody(b []byte, allTheSame bool) (*decodedPage, error) {
	if len(b) < 2 {
		return nil, errors.Wrap(ErrCorruptNode, "truncated tuple count")
	}
	count := int(binary.BigEndian.Uint16(b))
	b = b[2:]

	tuples := make([]LeafTuple, count)
	for i := range count {
		residual, n, err := decodeKey(b)
		if err != nil {
			return nil, err
		}
		b = b[n:]
		if len(b) < 16 {
			return nil, errors.Wrap(ErrCorruptNode, "truncated row reference")
		}
		var ref RowRef
		copy(ref[:], b[:16])
		b = b[16:]
		tuples[i] = LeafTuple{Residual: residual, Ref: ref}
	}
	if len(b) != 0 {
		return nil, errors.Wrapf(ErrCorruptNode, "%d trailing bytes", len(b))
	}
	return &decodedPage{leaves: tuples, allTheSame: allTheSame, isLeaf: true}, nil
}

// innerPageSize returns the serialized size of an inner page.
func innerPageSize(n *InnerNode, numSlots int) int {
	size := 1 + 2 + 6*numSlots
	if len(n.Prefix) > 0 {
		size += encodedKeyLen(n.Prefix)
	}
	return size
}

// leafPageSize returns the serialized size of a leaf page.
func leafPageSize(tuples []LeafTuple) int {
	size := 1 + 2
	for _, t := range tuples {
		size += encodedKeyLen(t.Residual) + 16
	}
	return size
}
