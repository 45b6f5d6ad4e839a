package btree

import "github.com/riverdb/riverdb/internal/record"

// TreeScan walks the leaf chain in ascending key order, starting from the
// first leaf holding a key >= lowKey (or the first leaf overall if lowKey is
// nil).
type TreeScan struct {
	tree *Tree
	leaf *node
	idx  int
	done bool
}

// OpenTreeScan positions a scan at the first entry with key >= lowKey.
func OpenTreeScan(t *Tree, lowKey *int32) (*TreeScan, error) {
	if err := t.ensureOpen(); err != nil {
		return nil, err
	}

	start := t.root
	if lowKey != nil {
		path, err := t.findPath(*lowKey)
		if err != nil {
			return nil, err
		}
		start = path[len(path)-1]
	} else {
		for {
			nv, err := t.readNode(start)
			if err != nil {
				return nil, err
			}
			if nv.isLeaf {
				break
			}
			start = nv.children[0]
		}
	}

	leaf, err := t.readNode(start)
	if err != nil {
		return nil, err
	}

	idx := 0
	if lowKey != nil {
		idx = lowerBound(leaf.keys, leaf.numKeys, *lowKey)
	}

	sc := &TreeScan{tree: t, leaf: leaf, idx: idx}
	sc.skipToNonEmpty()
	return sc, nil
}

func (sc *TreeScan) skipToNonEmpty() {
	for !sc.done && sc.idx >= sc.leaf.numKeys {
		if sc.leaf.nextLeaf < 0 {
			sc.done = true
			return
		}
		nv, err := sc.tree.readNode(sc.leaf.nextLeaf)
		if err != nil {
			sc.done = true
			return
		}
		sc.leaf = nv
		sc.idx = 0
	}
}

// Next returns the next (key, RID) pair in ascending key order.
func (sc *TreeScan) Next(rid *record.RID) (int32, error) {
	if sc.done {
		return 0, ErrNoMoreTuples
	}
	key := sc.leaf.keys[sc.idx]
	*rid = sc.leaf.rids[sc.idx]
	sc.idx++
	sc.skipToNonEmpty()
	return key, nil
}

// CloseTreeScan releases a scan. Scans hold no pinned pages between calls to
// Next, so this is a no-op kept for interface symmetry with record.CloseScan.
func CloseTreeScan(sc *TreeScan) error {
	return nil
}
