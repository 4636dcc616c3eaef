// Copyright (c) 2025 stef4k
// SPDX-License-Identifier: MIT

// Package kmertrie provides a space-partitioned radix trie index over
// short DNA k-mers (up to 32 nucleotides from the alphabet A,C,G,T).
//
// The trie accelerates three query predicates:
//
//   - Equal:     exact key equality
//   - HasPrefix: prefix match
//   - Contains:  ambiguity-pattern containment using the 15-letter
//     IUPAC code, evaluated as an equal-length bitwise overlay
//
// The core of the package is the four node-level callbacks of a
// space-partitioned index protocol: Choose and PickSplit on the
// insertion path, InnerConsistent and LeafConsistent on the search
// path. Inner nodes carry an optional common prefix and a sorted array
// of labeled child slots; leaves carry the residual suffix of an
// indexed key. Concatenating prefixes, consumed label bytes and the
// residual along any root-to-leaf path reproduces the indexed key
// exactly.
//
// An in-memory page store and an [Index] driver are included so the
// callbacks can be exercised end-to-end; a real host store may replace
// them and call the callbacks directly.
//
// An Index is not safe for concurrent mutation. Readers may run in
// parallel with each other but must be serialized against writers by
// the caller.
package kmertrie
