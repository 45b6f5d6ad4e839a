// Package btree implements the persistent order-n B+-tree index over a
// single int32 key column, mapping keys to record.RID values. Every node is
// one page, served through a dedicated buffer pool exactly like the record
// manager's tables.
package btree

import (
	"fmt"

	"go.uber.org/atomic"

	"github.com/riverdb/riverdb/internal/bufferpool"
	"github.com/riverdb/riverdb/internal/pagestore"
)

const headerPage = 0

// Tree is a handle on one open B+-tree index.
type Tree struct {
	name       string
	file       *pagestore.File
	pool       *bufferpool.Pool
	n          int
	keyType    int32
	root       int
	nodeCount  int
	entryCount int
	closed     atomic.Bool
}

// CreateBtree creates name's page file, allocates an empty root leaf and
// writes the page-0 header.
func CreateBtree(name string, n int, frameCount int, policy bufferpool.Policy) (*Tree, error) {
	if n < 2 {
		return nil, ErrOrderTooSmall
	}

	if err := pagestore.CreatePageFile(name); err != nil {
		return nil, err
	}
	file, err := pagestore.OpenPageFile(name)
	if err != nil {
		return nil, err
	}
	pool, err := bufferpool.Init(file, frameCount, policy)
	if err != nil {
		_ = file.ClosePageFile()
		return nil, err
	}

	t := &Tree{
		name:    name,
		file:    file,
		pool:    pool,
		n:       n,
		keyType: KeyTypeInt,
	}

	rootPage, err := t.allocateNode(true)
	if err != nil {
		return nil, err
	}
	t.root = rootPage

	if err := t.writeHeader(); err != nil {
		return nil, err
	}
	return t, nil
}

// OpenBtree opens an existing index's page file and reconstructs its header.
func OpenBtree(name string, frameCount int, policy bufferpool.Policy) (*Tree, error) {
	file, err := pagestore.OpenPageFile(name)
	if err != nil {
		return nil, err
	}
	pool, err := bufferpool.Init(file, frameCount, policy)
	if err != nil {
		_ = file.ClosePageFile()
		return nil, err
	}

	h, err := pool.Pin(headerPage)
	if err != nil {
		_ = file.ClosePageFile()
		return nil, err
	}
	hdr := decodeHeader(h.Data())
	if err := pool.Unpin(h); err != nil {
		_ = file.ClosePageFile()
		return nil, err
	}

	return &Tree{
		name:       name,
		file:       file,
		pool:       pool,
		n:          hdr.N,
		keyType:    hdr.KeyType,
		root:       hdr.Root,
		nodeCount:  hdr.NodeCount,
		entryCount: hdr.EntryCount,
	}, nil
}

// DeleteBtree removes a closed index's page file.
func DeleteBtree(name string) error {
	return pagestore.DestroyPageFile(name)
}

// CloseBtree writes the current header, flushes every dirty frame and shuts
// the tree's buffer pool and file down.
func (t *Tree) CloseBtree() error {
	if t.closed.Swap(true) {
		return nil
	}
	if err := t.writeHeader(); err != nil {
		return err
	}
	if err := t.pool.Shutdown(); err != nil {
		return err
	}
	return t.file.ClosePageFile()
}

func (t *Tree) ensureOpen() error {
	if t.closed.Load() {
		return ErrTreeClosed
	}
	return nil
}

// GetNumNodes returns the current node count.
func (t *Tree) GetNumNodes() int { return t.nodeCount }

// GetNumEntries returns the current (key, RID) entry count.
func (t *Tree) GetNumEntries() int { return t.entryCount }

// GetKeyType returns the tree's key type code (always KeyTypeInt).
func (t *Tree) GetKeyType() int32 { return t.keyType }

func (t *Tree) writeHeader() error {
	h, err := t.pool.Pin(headerPage)
	if err != nil {
		return err
	}
	copy(h.Data(), encodeHeader(header{
		NodeCount:  t.nodeCount,
		EntryCount: t.entryCount,
		KeyType:    t.keyType,
		N:          t.n,
		Root:       t.root,
	}))
	if err := t.pool.MarkDirty(h); err != nil {
		_ = t.pool.Unpin(h)
		return err
	}
	return t.pool.Unpin(h)
}

// allocateNode appends a new zeroed page, writes a blank node of the
// requested kind into it, and returns its page number.
func (t *Tree) allocateNode(isLeaf bool) (int, error) {
	pageNum, err := t.file.AppendEmptyBlock()
	if err != nil {
		return 0, err
	}
	if err := t.writeNode(pageNum, newBlankNode(t.n, isLeaf)); err != nil {
		return 0, err
	}
	t.nodeCount++
	return pageNum, nil
}

func (t *Tree) readNode(pageNum int) (*node, error) {
	h, err := t.pool.Pin(pageNum)
	if err != nil {
		return nil, err
	}
	nv := decodeNode(h.Data(), t.n)
	if err := t.pool.Unpin(h); err != nil {
		return nil, err
	}
	return nv, nil
}

func (t *Tree) writeNode(pageNum int, nv *node) error {
	h, err := t.pool.Pin(pageNum)
	if err != nil {
		return err
	}
	if len(h.Data()) < nodePageSize(t.n, nv.isLeaf) {
		_ = t.pool.Unpin(h)
		return fmt.Errorf("btree: order %d node does not fit in one page", t.n)
	}
	encodeNode(h.Data(), t.n, nv)
	if err := t.pool.MarkDirty(h); err != nil {
		_ = t.pool.Unpin(h)
		return err
	}
	return t.pool.Unpin(h)
}

// findPath descends from the root to the leaf that would hold key, returning
// every page visited (path[0]==root, path[len-1]==leaf).
func (t *Tree) findPath(key int32) ([]int, error) {
	path := []int{t.root}
	cur := t.root
	for {
		nv, err := t.readNode(cur)
		if err != nil {
			return nil, err
		}
		if nv.isLeaf {
			return path, nil
		}
		idx := nv.numKeys
		for i := 0; i < nv.numKeys; i++ {
			if key < nv.keys[i] {
				idx = i
				break
			}
		}
		cur = nv.children[idx]
		path = append(path, cur)
	}
}
