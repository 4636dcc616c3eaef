// Copyright (c) 2025 stef4k
// SPDX-License-Identifier: MIT

package kmertrie

import (
	"bytes"

	"github.com/stef4k/dna-sequence-postgres-extension/internal/nucleo"
)

// Strategy is the small integer by which the external query layer
// addresses a predicate. The numbers are part of the external contract
// and must not change.
type Strategy int16

const (
	StrategyEqual    Strategy = 1 // indexed key = literal key
	StrategyPrefix   Strategy = 2 // indexed key starts with literal prefix
	StrategyContains Strategy = 3 // literal pattern contains indexed key
)

// Predicate is a first-class query predicate carrying both its
// inner-node pruning check and its exact leaf check. New predicates
// can be added without modifying the traversal core.
type Predicate interface {
	// Strategy returns the predicate's external strategy number.
	Strategy() Strategy

	// ConsistentInner reports whether a subtree whose keys all start
	// with partial may still contain a match. It must never prune a
	// subtree holding a matching leaf.
	ConsistentInner(partial Key) bool

	// ConsistentLeaf gives the exact verdict for a fully
	// reconstructed key.
	ConsistentLeaf(full Key) bool
}

// Equal matches keys exactly equal to q.
func Equal(q Kmer) Predicate { return equalPredicate{q: q.key()} }

// HasPrefix matches keys starting with q.
func HasPrefix(q Kmer) Predicate { return prefixPredicate{q: q.key()} }

// Contains matches keys of the same length as the pattern p whose
// nucleotide at every position lies in the pattern's allowed set.
func Contains(p Qkmer) Predicate { return containsPredicate{p: p.key()} }

// PredicateFor builds the predicate for an external strategy number
// and its literal argument.
func PredicateFor(s Strategy, arg string) (Predicate, error) {
	switch s {
	case StrategyEqual:
		q, err := ParseKmer(arg)
		if err != nil {
			return nil, err
		}
		return Equal(q), nil
	case StrategyPrefix:
		q, err := ParseKmer(arg)
		if err != nil {
			return nil, err
		}
		return HasPrefix(q), nil
	case StrategyContains:
		p, err := ParseQkmer(arg)
		if err != nil {
			return nil, err
		}
		return Contains(p), nil
	}
	return nil, UnsupportedStrategyError(s)
}

type equalPredicate struct{ q Key }

func (equalPredicate) Strategy() Strategy { return StrategyEqual }

func (p equalPredicate) ConsistentInner(partial Key) bool {
	return len(partial) <= len(p.q) && bytes.Equal(partial, p.q[:len(partial)])
}

func (p equalPredicate) ConsistentLeaf(full Key) bool {
	return bytes.Equal(full, p.q)
}

type prefixPredicate struct{ q Key }

func (prefixPredicate) Strategy() Strategy { return StrategyPrefix }

func (p prefixPredicate) ConsistentInner(partial Key) bool {
	n := min(len(partial), len(p.q))
	return bytes.Equal(partial[:n], p.q[:n])
}

func (p prefixPredicate) ConsistentLeaf(full Key) bool {
	return len(full) >= len(p.q) && bytes.Equal(full[:len(p.q)], p.q)
}

type containsPredicate struct{ p Key }

func (containsPredicate) Strategy() Strategy { return StrategyContains }

func (c containsPredicate) ConsistentInner(partial Key) bool {
	// The residual can only lengthen the key, so a partial already
	// longer than the pattern can never reach equal length.
	if len(partial) > len(c.p) {
		return false
	}
	for i, b := range partial {
		if !nucleo.PatternMatches(c.p[i], b) {
			return false
		}
	}
	return true
}

func (c containsPredicate) ConsistentLeaf(full Key) bool {
	if len(full) != len(c.p) {
		return false
	}
	for i, b := range full {
		if !nucleo.PatternMatches(c.p[i], b) {
			return false
		}
	}
	return true
}
