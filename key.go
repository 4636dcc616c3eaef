// Copyright (c) 2025 stef4k
// SPDX-License-Identifier: MIT

package kmertrie

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Key is a variable-length byte string: an indexed k-mer, a node
// prefix, or a partially decoded value along a descent. Keys are
// ordered byte-wise lexicographically.
type Key []byte

// commonPrefixLen returns the length of the longest shared prefix of a
// and b.
func commonPrefixLen(a, b Key) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// suffix returns an owning copy of k[start:]. A start at or past the
// end yields a nil key.
func suffix(k Key, start int) Key {
	if start >= len(k) {
		return nil
	}
	out := make(Key, len(k)-start)
	copy(out, k[start:])
	return out
}

// concat returns an owning copy of a followed by b.
func concat(a, b Key) Key {
	out := make(Key, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// Short and long header encoding for serialized keys. The short form
// spends one header byte and covers lengths up to shortMax-shortHdr;
// the long form starts with the longMarker byte followed by a 32-bit
// big-endian length. The choice is invisible to callers.
const (
	shortHdr   = 1
	shortMax   = 0x7f
	longMarker = 0xff
	longHdr    = 5
)

// appendKey appends the length-prefixed encoding of k to dst.
func appendKey(dst []byte, k Key) []byte {
	if len(k)+shortHdr <= shortMax {
		dst = append(dst, byte(len(k)))
	} else {
		dst = append(dst, longMarker)
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(k)))
	}
	return append(dst, k...)
}

// decodeKey decodes one length-prefixed key from b and returns the key
// and the number of bytes consumed.
func decodeKey(b []byte) (Key, int, error) {
	if len(b) < shortHdr {
		return nil, 0, errors.Wrap(ErrCorruptNode, "truncated key header")
	}

	var n, hdr int
	switch h := b[0]; {
	case h < shortMax:
		n, hdr = int(h), shortHdr
	case h == longMarker:
		if len(b) < longHdr {
			return nil, 0, errors.Wrap(ErrCorruptNode, "truncated long key header")
		}
		n, hdr = int(binary.BigEndian.Uint32(b[1:])), longHdr
	default:
		return nil, 0, errors.Wrapf(ErrCorruptNode, "bad key header byte %#x", h)
	}

	if len(b) < hdr+n {
		return nil, 0, errors.Wrapf(ErrCorruptNode, "key body truncated, want %d bytes", n)
	}
	if n == 0 {
		return nil, hdr, nil
	}

	out := make(Key, n)
	copy(out, b[hdr:hdr+n])
	return out, hdr + n, nil
}

// encodedKeyLen returns the serialized size of k.
func encodedKeyLen(k Key) int {
	if len(k)+shortHdr <= shortMax {
		return shortHdr + len(k)
	}
	return longHdr + len(k)
}
