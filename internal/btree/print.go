package btree

import (
	"fmt"
	"strings"
)

// PrintTree renders the tree as a deterministic depth-first pre-order dump,
// one line per node, numbering nodes in visitation order starting at 0.
func (t *Tree) PrintTree() (string, error) {
	if err := t.ensureOpen(); err != nil {
		return "", err
	}
	var b strings.Builder
	counter := 0
	if err := t.printNode(&b, t.root, 0, &counter); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (t *Tree) printNode(b *strings.Builder, pageNum, depth int, counter *int) error {
	nv, err := t.readNode(pageNum)
	if err != nil {
		return err
	}

	num := *counter
	*counter++
	indent := strings.Repeat("  ", depth)

	if nv.isLeaf {
		fmt.Fprintf(b, "%s[%d] leaf page=%d keys=%v next=%d\n", indent, num, pageNum, nv.keys[:nv.numKeys], nv.nextLeaf)
		return nil
	}

	fmt.Fprintf(b, "%s[%d] internal page=%d keys=%v\n", indent, num, pageNum, nv.keys[:nv.numKeys])
	for i := 0; i <= nv.numKeys; i++ {
		if err := t.printNode(b, nv.children[i], depth+1, counter); err != nil {
			return err
		}
	}
	return nil
}
