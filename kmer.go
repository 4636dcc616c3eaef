// Copyright (c) 2025 stef4k
// SPDX-License-Identifier: MIT

package kmertrie

import (
	"strings"

	"github.com/stef4k/dna-sequence-postgres-extension/internal/nucleo"
)

// Kmer is a validated DNA string of 0 to 32 nucleotides in canonical
// upper case. The zero value is the empty k-mer.
type Kmer struct {
	s string
}

// ParseKmer parses and validates s as a k-mer. Input is
// case-insensitive; the result is upper-cased.
func ParseKmer(s string) (Kmer, error) {
	if len(s) > MaxKeyLen {
		return Kmer{}, KeyTooLongError(len(s))
	}
	up := strings.ToUpper(s)
	for i := 0; i < len(up); i++ {
		if !nucleo.IsNuc(up[i]) {
			return Kmer{}, nucleo.InvalidNucleotideError(s[i])
		}
	}
	return Kmer{s: up}, nil
}

// MustParseKmer is ParseKmer that panics on error, for tests and
// literals.
func MustParseKmer(s string) Kmer {
	k, err := ParseKmer(s)
	if err != nil {
		panic(err)
	}
	return k
}

// kmerFromKey wraps a reconstructed trie key without revalidation; the
// bytes are valid by construction.
func kmerFromKey(k Key) Kmer { return Kmer{s: string(k)} }

func (k Kmer) String() string { return k.s }

// Len returns the length in nucleotides.
func (k Kmer) Len() int { return len(k.s) }

// Equal reports structural equality.
func (k Kmer) Equal(other Kmer) bool { return k.s == other.s }

// Compare orders k-mers byte-wise lexicographically.
func (k Kmer) Compare(other Kmer) int { return strings.Compare(k.s, other.s) }

// ReverseComplement returns the reverse complement, used to pick the
// canonical representative of a k-mer and its opposite strand.
func (k Kmer) ReverseComplement() Kmer {
	n := len(k.s)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		var c byte
		switch k.s[n-1-i] {
		case 'A':
			c = 'T'
		case 'T':
			c = 'A'
		case 'C':
			c = 'G'
		case 'G':
			c = 'C'
		}
		out[i] = c
	}
	return Kmer{s: string(out)}
}

// Canonical returns the lexicographically smaller of k and its reverse
// complement.
func (k Kmer) Canonical() Kmer {
	if rc := k.ReverseComplement(); rc.Compare(k) < 0 {
		return rc
	}
	return k
}

// key returns the k-mer as a trie key.
func (k Kmer) key() Key { return Key(k.s) }

// Qkmer is a validated IUPAC ambiguity pattern of 0 to 32 letters in
// canonical upper case. Semantically it is a set-valued sequence.
type Qkmer struct {
	s string
}

// ParseQkmer parses and validates s as an IUPAC pattern. Input is
// case-insensitive; the result is upper-cased.
func ParseQkmer(s string) (Qkmer, error) {
	if len(s) > MaxPatternLen {
		return Qkmer{}, KeyTooLongError(len(s))
	}
	up := strings.ToUpper(s)
	for i := 0; i < len(up); i++ {
		if !nucleo.IsIupac(up[i]) {
			return Qkmer{}, nucleo.InvalidIupacError(s[i])
		}
	}
	return Qkmer{s: up}, nil
}

// MustParseQkmer is ParseQkmer that panics on error.
func MustParseQkmer(s string) Qkmer {
	q, err := ParseQkmer(s)
	if err != nil {
		panic(err)
	}
	return q
}

func (q Qkmer) String() string { return q.s }

// Len returns the length in letters.
func (q Qkmer) Len() int { return len(q.s) }

// Matches reports whether q contains k: same length, and at every
// position the k-mer's nucleotide lies in the pattern's allowed set.
func (q Qkmer) Matches(k Kmer) bool {
	if len(q.s) != len(k.s) {
		return false
	}
	for i := 0; i < len(q.s); i++ {
		if !nucleo.PatternMatches(q.s[i], k.s[i]) {
			return false
		}
	}
	return true
}

// key returns the pattern as a trie key.
func (q Qkmer) key() Key { return Key(q.s) }
