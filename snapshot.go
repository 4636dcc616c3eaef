// Copyright (c) 2025 stef4k
// SPDX-License-Identifier: MIT

package kmertrie

import (
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// snapshotVersion is the envelope format version.
const snapshotVersion = 1

// snapshotEnvelope is the CBOR wrapper around the binary page images.
// Each page body stays in the persisted node-page layout; the envelope
// adds the format version, the page size, the key count, which slots
// are live and where the root is.
type snapshotEnvelope struct {
	Version  int               `cbor:"1,keyasint"`
	PageSize int               `cbor:"2,keyasint"`
	Root     uint32            `cbor:"3,keyasint"`
	Size     int               `cbor:"4,keyasint"`
	Pages    map[uint32][]byte `cbor:"5,keyasint"`
}

var (
	snapEncMode cbor.EncMode
	snapDecMode cbor.DecMode
)

func init() {
	var err error
	if snapEncMode, err = cbor.CanonicalEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if snapDecMode, err = cbor.DecOptions{}.DecMode(); err != nil {
		panic(err)
	}
}

// WriteSnapshot serializes the whole index to w: every live page in
// the binary page layout, inside a CBOR envelope.
func (x *Index) WriteSnapshot(w io.Writer) error {
	env := snapshotEnvelope{
		Version:  snapshotVersion,
		PageSize: x.store.pageSize,
		Root:     uint32(x.root),
		Size:     x.size,
		Pages:    make(map[uint32][]byte, len(x.store.pages)),
	}

	for id, pg := range x.store.pages {
		if pg == nil {
			continue
		}
		var body []byte
		var err error
		if pg.isLeaf() {
			body = appendLeafPage(nil, pg.leaves, pg.allTheSame)
		} else {
			body, err = appendInnerPage(nil, pg.inner, pg.downlinks)
			if err != nil {
				return err
			}
		}
		env.Pages[uint32(id)] = body
	}

	buf, err := snapEncMode.Marshal(&env)
	if err != nil {
		return errors.Wrap(err, "encoding snapshot")
	}
	_, err = w.Write(buf)
	return err
}

// ReadSnapshot rebuilds an index from a snapshot. Every page is
// re-validated; a page that fails structural validation surfaces
// ErrCorruptNode.
func ReadSnapshot(r io.Reader) (*Index, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var env snapshotEnvelope
	if err := snapDecMode.Unmarshal(buf, &env); err != nil {
		return nil, errors.Wrap(ErrCorruptNode, err.Error())
	}
	if env.Version != snapshotVersion {
		return nil, errors.Wrapf(ErrCorruptNode, "unknown snapshot version %d", env.Version)
	}
	if env.PageSize <= 0 {
		return nil, errors.Wrapf(ErrCorruptNode, "implausible page size %d", env.PageSize)
	}

	maxID := uint32(0)
	for id := range env.Pages {
		maxID = max(maxID, id)
	}
	if _, ok := env.Pages[env.Root]; !ok {
		return nil, errors.Wrapf(ErrCorruptNode, "root page %d missing", env.Root)
	}

	x := New()
	x.store.pageSize = env.PageSize
	x.root = PageID(env.Root)
	x.size = env.Size
	x.store.pages = make([]*page, maxID+1)

	for id, body := range env.Pages {
		dp, err := decodePage(body)
		if err != nil {
			return nil, errors.Wrapf(err, "page %d", id)
		}
		// All-the-same leaf pages are exempt from the capacity.
		if len(body) > env.PageSize && !(dp.isLeaf && dp.allTheSame) {
			return nil, errors.Wrapf(ErrCorruptNode, "page %d exceeds page size", id)
		}
		if dp.isLeaf {
			x.store.pages[id] = &page{leaves: dp.leaves, allTheSame: dp.allTheSame}
		} else {
			x.store.pages[id] = &page{inner: dp.inner, downlinks: dp.downlinks}
		}
	}

	for id, pg := range x.store.pages {
		if pg == nil {
			x.store.free.Set(uint(id))
		}
	}
	return x, nil
}
