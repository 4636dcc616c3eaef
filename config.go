// Copyright (c) 2025 stef4k
// SPDX-License-Identifier: MIT

package kmertrie

const (
	// MaxKeyLen is the maximum k-mer length in nucleotides.
	MaxKeyLen = 32

	// MaxPatternLen is the maximum IUPAC pattern length.
	MaxPatternLen = 32

	// pageBookkeeping is the per-page overhead reserved for the flag
	// byte, headers and child-slot bookkeeping when bounding the
	// common-prefix length.
	pageBookkeeping = 64
)

// ConfigOut advertises the node layout to the host store, the first of
// the index protocol's callbacks.
type ConfigOut struct {
	// LabelBits is the width of the child-slot label type.
	LabelBits int

	// CanReturnData reports that the index reconstructs the full
	// indexed key during a scan.
	CanReturnData bool

	// LongValuesOK reports whether keys longer than a page are
	// accepted. They are not; keys are bounded by MaxKeyLen.
	LongValuesOK bool
}

// Config returns the node-layout contract.
func Config() ConfigOut {
	return ConfigOut{
		LabelBits:     16,
		CanReturnData: true,
		LongValuesOK:  false,
	}
}

// maxPrefixLen bounds the common-prefix length of an inner node so the
// node always fits one page, and never below MaxKeyLen so a full key
// may serve as a prefix.
func maxPrefixLen(pageSize int) int {
	return max(pageSize-pageBookkeeping, MaxKeyLen)
}
