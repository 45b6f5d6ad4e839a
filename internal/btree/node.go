package btree

import (
	"github.com/riverdb/riverdb/internal/bx"
	"github.com/riverdb/riverdb/internal/record"
)

// KeyTypeInt is the only key type this index supports: a single int32
// column.
const KeyTypeInt int32 = 0

// node is the in-memory decoded form of one B+-tree node page. Leaf and
// internal nodes never share field layout: a leaf populates rids/nextLeaf,
// an internal node populates children, and the unused side is left nil.
type node struct {
	isLeaf  bool
	numKeys int
	keys    []int32

	// leaf-only
	rids     []record.RID
	nextLeaf int

	// internal-only
	children []int
}

// newBlankNode allocates one extra scratch slot beyond the persisted
// capacity (n+1 keys/rids for a leaf, n+2 children for an internal node) so
// an insert can temporarily overflow the node by one entry before the split
// path trims it back to the on-disk capacity. encodeNode only ever writes
// the first n (or n+1, for internal children) entries to the page buffer.
func newBlankNode(n int, isLeaf bool) *node {
	nv := &node{isLeaf: isLeaf, keys: make([]int32, n+1)}
	if isLeaf {
		nv.rids = make([]record.RID, n+1)
		nv.nextLeaf = -1
	} else {
		nv.children = make([]int, n+2)
	}
	return nv
}

// nodePageSize returns how many bytes of buf a node of order n occupies.
// Leaf:     1 (isLeaf) + 4 (numKeys) + 4n (keys) + 8n (rids) + 4 (nextLeaf)
// Internal: 1 (isLeaf) + 4 (numKeys) + 4n (keys) + 4(n+1) (children)
func nodePageSize(n int, isLeaf bool) int {
	if isLeaf {
		return 9 + 12*n
	}
	return 9 + 8*n
}

func encodeNode(buf []byte, n int, nv *node) {
	for i := range buf {
		buf[i] = 0
	}
	if nv.isLeaf {
		buf[0] = 1
	}
	bx.PutU32(buf[1:5], uint32(int32(nv.numKeys)))

	off := 5
	for i := 0; i < n; i++ {
		bx.PutU32(buf[off:off+4], uint32(nv.keys[i]))
		off += 4
	}

	if nv.isLeaf {
		for i := 0; i < n; i++ {
			bx.PutU32(buf[off:off+4], uint32(int32(nv.rids[i].Page)))
			bx.PutU32(buf[off+4:off+8], uint32(int32(nv.rids[i].Slot)))
			off += 8
		}
		bx.PutU32(buf[off:off+4], uint32(int32(nv.nextLeaf)))
	} else {
		for i := 0; i < n+1; i++ {
			bx.PutU32(buf[off:off+4], uint32(int32(nv.children[i])))
			off += 4
		}
	}
}

func decodeNode(buf []byte, n int) *node {
	nv := &node{isLeaf: buf[0] == 1}
	nv.numKeys = int(int32(bx.U32(buf[1:5])))

	// Scratch capacity matches newBlankNode: a node read off disk is fed
	// straight into the insert path, which may overflow it by one entry
	// before the split trims it back down.
	nv.keys = make([]int32, n+1)
	off := 5
	for i := 0; i < n; i++ {
		nv.keys[i] = int32(bx.U32(buf[off : off+4]))
		off += 4
	}

	if nv.isLeaf {
		nv.rids = make([]record.RID, n+1)
		for i := 0; i < n; i++ {
			page := int(int32(bx.U32(buf[off : off+4])))
			slot := int(int32(bx.U32(buf[off+4 : off+8])))
			nv.rids[i] = record.RID{Page: page, Slot: slot}
			off += 8
		}
		nv.nextLeaf = int(int32(bx.U32(buf[off : off+4])))
	} else {
		nv.children = make([]int, n+2)
		for i := 0; i < n+1; i++ {
			nv.children[i] = int(int32(bx.U32(buf[off : off+4])))
			off += 4
		}
	}

	return nv
}

// lowerBound returns the first index i in keys[:numKeys] with keys[i] >=
// target, or numKeys if none.
func lowerBound(keys []int32, numKeys int, target int32) int {
	lo, hi := 0, numKeys
	for lo < hi {
		mid := (lo + hi) / 2
		if keys[mid] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
