// Copyright (c) 2025 stef4k
// SPDX-License-Identifier: MIT

// Package golden implements a deliberately simple linear-scan k-mer
// collection. It is the slow reference the trie is tested against:
// every predicate is spelled out the obvious way, independent of the
// index code paths.
package golden

import (
	"strings"

	"github.com/google/uuid"
)

// Entry is one stored key with its row reference.
type Entry struct {
	Kmer string
	Ref  uuid.UUID
}

// Table is a flat multiset of entries.
type Table []Entry

// Insert appends one entry; duplicates are kept.
func (t *Table) Insert(kmer string, ref uuid.UUID) {
	*t = append(*t, Entry{Kmer: kmer, Ref: ref})
}

// EqualTo returns every entry whose key equals q.
func (t Table) EqualTo(q string) []Entry {
	var out []Entry
	for _, e := range t {
		if e.Kmer == q {
			out = append(out, e)
		}
	}
	return out
}

// WithPrefix returns every entry whose key starts with q.
func (t Table) WithPrefix(q string) []Entry {
	var out []Entry
	for _, e := range t {
		if strings.HasPrefix(e.Kmer, q) {
			out = append(out, e)
		}
	}
	return out
}

// iupac maps each IUPAC letter to the plain nucleotides it covers.
var iupac = map[byte]string{
	'A': "A", 'C': "C", 'G': "G", 'T': "T",
	'R': "AG", 'Y': "CT", 'S': "CG", 'W': "AT", 'K': "GT", 'M': "AC",
	'B': "CGT", 'D': "AGT", 'H': "ACT", 'V': "ACG", 'N': "ACGT",
}

// MatchedBy returns every entry contained in the equal-length IUPAC
// pattern p.
func (t Table) MatchedBy(p string) []Entry {
	var out []Entry
entries:
	for _, e := range t {
		if len(e.Kmer) != len(p) {
			continue
		}
		for i := 0; i < len(p); i++ {
			if !strings.ContainsRune(iupac[p[i]], rune(e.Kmer[i])) {
				continue entries
			}
		}
		out = append(out, e)
	}
	return out
}
