// Copyright (c) 2025 stef4k
// SPDX-License-Identifier: MIT

package kmertrie

import (
	"fmt"
	"iter"
	"strings"

	"github.com/stef4k/dna-sequence-postgres-extension/internal/nucleo"
)

// Sequence is a validated DNA string of arbitrary length in canonical
// upper case.
type Sequence struct {
	s string
}

// ParseSequence parses and validates s as a DNA sequence. Input is
// case-insensitive; the result is upper-cased.
func ParseSequence(s string) (Sequence, error) {
	up := strings.ToUpper(s)
	for i := 0; i < len(up); i++ {
		if !nucleo.IsNuc(up[i]) {
			return Sequence{}, nucleo.InvalidNucleotideError(s[i])
		}
	}
	return Sequence{s: up}, nil
}

// MustParseSequence is ParseSequence that panics on error.
func MustParseSequence(s string) Sequence {
	seq, err := ParseSequence(s)
	if err != nil {
		panic(err)
	}
	return seq
}

func (s Sequence) String() string { return s.s }

// Len returns the length in nucleotides.
func (s Sequence) Len() int { return len(s.s) }

// Kmers slides a window of length k over the sequence and yields every
// k-mer, left to right. A sequence shorter than k yields nothing.
func (s Sequence) Kmers(k int) (iter.Seq[Kmer], error) {
	if k < 1 || k > MaxKeyLen {
		return nil, fmt.Errorf("kmertrie: window length %d out of range 1..%d", k, MaxKeyLen)
	}
	return func(yield func(Kmer) bool) {
		for i := 0; i+k <= len(s.s); i++ {
			if !yield(Kmer{s: s.s[i : i+k]}) {
				return
			}
		}
	}, nil
}
