// Copyright (c) 2025 stef4k
// SPDX-License-Identifier: MIT

package kmertrie

import (
	"errors"
	"fmt"

	"github.com/stef4k/dna-sequence-postgres-extension/internal/nucleo"
)

var (
	// ErrTreeInvariantViolated reports an internal inconsistency such
	// as unsorted labels, duplicate labels or an oversized prefix.
	// Fatal; the current operation is aborted without mutating the tree.
	ErrTreeInvariantViolated = errors.New("kmertrie: tree invariant violated")

	// ErrCorruptNode reports a node page that fails structural
	// validation at read. Fatal for the current operation.
	ErrCorruptNode = errors.New("kmertrie: corrupt node")
)

// InvalidNucleotideError reports a character outside A,C,G,T in a key.
type InvalidNucleotideError = nucleo.InvalidNucleotideError

// InvalidIupacError reports a character outside the 15-letter IUPAC
// set in a pattern.
type InvalidIupacError = nucleo.InvalidIupacError

// KeyTooLongError reports a key or pattern exceeding the maximum
// length of 32 nucleotides.
type KeyTooLongError int

func (e KeyTooLongError) Error() string {
	return fmt.Sprintf("kmertrie: length %d exceeds maximum of %d", int(e), MaxKeyLen)
}

// UnsupportedStrategyError reports an unrecognized strategy number.
type UnsupportedStrategyError Strategy

func (e UnsupportedStrategyError) Error() string {
	return fmt.Sprintf("kmertrie: unsupported strategy number %d", int16(e))
}
