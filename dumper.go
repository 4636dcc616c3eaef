// Copyright (c) 2025 stef4k
// SPDX-License-Identifier: MIT

package kmertrie

import (
	"fmt"
	"io"
	"strings"
)

// ##################################################
//  useful during development, debugging and testing
// ##################################################

// dumpString is just a wrapper for Dump.
func (x *Index) dumpString() string {
	w := new(strings.Builder)
	x.Dump(w)

	return w.String()
}

// Dump writes the page graph to w, one indented block per page.
func (x *Index) Dump(w io.Writer) {
	if x == nil {
		return
	}
	st := x.Stats()
	fmt.Fprintf(w, "### keys(%d), pages(%d), depth(%d)\n", st.Keys, st.Pages, st.MaxDepth)
	x.dumpRec(w, x.root, 0)
}

// dumpRec, rec-descent the page graph.
func (x *Index) dumpRec(w io.Writer, id PageID, depth int) {
	pg, err := x.store.page(id)
	if err != nil {
		fmt.Fprintf(w, "%s!! %v\n", strings.Repeat(".", depth), err)
		return
	}

	indent := strings.Repeat(".", depth)

	if pg.isLeaf() {
		kind := "leaf"
		if pg.allTheSame {
			kind = "leaf/all-the-same"
		}
		fmt.Fprintf(w, "%s[%s] page: %d tuples(#%d):", indent, kind, id, len(pg.leaves))
		for _, t := range pg.leaves {
			fmt.Fprintf(w, " %q", string(t.Residual))
		}
		fmt.Fprintln(w)
		return
	}

	kind := "inner"
	if pg.inner.AllTheSame {
		kind = "inner/all-the-same"
	}
	fmt.Fprintf(w, "%s[%s] page: %d prefix: %q slots(#%d):",
		indent, kind, id, string(pg.inner.Prefix), len(pg.inner.Labels))
	for _, l := range pg.inner.Labels {
		fmt.Fprintf(w, " %s", l)
	}
	fmt.Fprintln(w)

	for _, child := range pg.downlinks {
		x.dumpRec(w, child, depth+1)
	}
}
