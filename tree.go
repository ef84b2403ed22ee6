// Package bptree implements a generic B+ tree mapping ordered keys to
// opaque pointers. The algorithmic core in this file - search, insert,
// delete, and the split/merge/redistribute machinery - is shared by two
// interchangeable backends: an in-memory variant (memory.go) where nodes
// live directly in process memory, and a persistent variant (persistent.go)
// that stores each node as an opaque record in an external RecordStore.
//
// The tree is single-threaded cooperative: one public operation runs to
// completion before the next begins. Callers must synchronize external
// access themselves.
package bptree

import "cmp"

// Tree is a B+ tree of order (degree) >= 3, mapping keys of type K to
// opaque pointer values. It is not safe for concurrent use.
type Tree[K cmp.Ordered] struct {
	backend backend[K]
	degree  int
}

// NewInMemory returns a Tree whose nodes live directly in process memory.
func NewInMemory[K cmp.Ordered](degree int) (*Tree[K], error) {
	if degree < 3 {
		return nil, ErrInvalidDegree
	}
	return &Tree[K]{backend: &memoryBackend[K]{}, degree: degree}, nil
}

// NewPersistent returns a Tree whose nodes are stored as opaque records in
// store, namespaced under fileID so multiple trees can share one store.
func NewPersistent[K cmp.Ordered](degree int, store RecordStore, fileID string) (*Tree[K], error) {
	if degree < 3 {
		return nil, ErrInvalidDegree
	}
	return &Tree[K]{backend: &persistentBackend[K]{store: store, fileID: fileID}, degree: degree}, nil
}

// Degree returns the tree's branching factor.
func (t *Tree[K]) Degree() int { return t.degree }

// Root returns the root node, or nil if the tree is empty.
func (t *Tree[K]) Root() (*node[K], error) {
	ptr, err := t.backend.RootPointer()
	if err != nil || ptr == nil {
		return nil, err
	}
	return t.backend.Resolve(ptr)
}

// Child returns the i-th child of an internal node, or nil at an empty slot.
func (t *Tree[K]) Child(n *node[K], i int) (*node[K], error) {
	if n == nil || n.IsLeaf() || i < 0 || i >= n.ChildCount() {
		return nil, nil
	}
	return t.backend.Resolve(n.pointers[i])
}

// traversal tracks, for a single operation, the parent of every node visited
// and the pointer it was resolved from. Both maps are discarded when the
// operation returns; nodes never store parent links of their own.
type traversal[K cmp.Ordered] struct {
	parent  map[*node[K]]*node[K]
	pointer map[*node[K]]any
}

func newTraversal[K cmp.Ordered]() *traversal[K] {
	return &traversal[K]{
		parent:  make(map[*node[K]]*node[K]),
		pointer: make(map[*node[K]]any),
	}
}

// find descends from n to the leaf responsible for key, recording parent and
// pointer information for every node resolved along the way.
func (t *Tree[K]) find(key K, n *node[K], tr *traversal[K]) (*node[K], error) {
	for !n.IsLeaf() {
		childPtr := n.Child(key)
		child, err := t.backend.Resolve(childPtr)
		if err != nil {
			return nil, err
		}
		tr.parent[child] = n
		tr.pointer[child] = childPtr
		n = child
	}
	return n, nil
}

// save persists n through the backend and remembers the pointer it was
// assigned, so a later save of the same node in this operation knows to
// overwrite rather than allocate.
func (t *Tree[K]) save(n *node[K], tr *traversal[K]) error {
	ptr, err := t.backend.Save(n, tr.pointer[n])
	if err != nil {
		return err
	}
	tr.pointer[n] = ptr
	return nil
}

// Insert adds (key, p) to the tree. It fails with ErrInvalidInsertion if key
// is already present, leaving the tree unchanged.
func (t *Tree[K]) Insert(key K, p any) error {
	rootPtr, err := t.backend.RootPointer()
	if err != nil {
		return err
	}
	if rootPtr == nil {
		leaf := newLeaf[K](t.degree)
		leaf.InsertLeaf(key, p)
		newPtr, err := t.backend.Save(leaf, nil)
		if err != nil {
			return err
		}
		return t.backend.SetRoot(newPtr)
	}

	tr := newTraversal[K]()
	root, err := t.backend.Resolve(rootPtr)
	if err != nil {
		return err
	}
	tr.pointer[root] = rootPtr

	leaf, err := t.find(key, root, tr)
	if err != nil {
		return err
	}
	if leaf.Contains(key) {
		return errInvalidInsertion(key)
	}

	if !leaf.IsFull() {
		leaf.InsertLeaf(key, p)
		return t.save(leaf, tr)
	}
	return t.splitLeafAndInsert(leaf, key, p, tr)
}

func (t *Tree[K]) splitLeafAndInsert(l *node[K], key K, p any, tr *traversal[K]) error {
	tmp := newLeaf[K](t.degree + 1)
	for i := 0; i < l.keyCount; i++ {
		tmp.keys[i] = l.keys[i]
		tmp.pointers[i] = l.pointers[i]
	}
	tmp.keyCount = l.keyCount
	tmp.InsertLeaf(key, p)

	lp := newLeaf[K](t.degree)
	lp.successor = l.successor
	l.Clear()

	// m = floor(degree/2) = ceil((degree-1)/2), the leaf minimum occupancy;
	// l keeps m entries, lp takes the rest (always >= m).
	m := t.degree / 2
	for i := 0; i < m; i++ {
		l.keys[i] = tmp.keys[i]
		l.pointers[i] = tmp.pointers[i]
	}
	l.keyCount = m
	for i := m; i < tmp.keyCount; i++ {
		lp.keys[i-m] = tmp.keys[i]
		lp.pointers[i-m] = tmp.pointers[i]
	}
	lp.keyCount = tmp.keyCount - m

	lpPtr, err := t.backend.Save(lp, nil)
	if err != nil {
		return err
	}
	tr.pointer[lp] = lpPtr
	l.successor = lpPtr
	if err := t.save(l, tr); err != nil {
		return err
	}

	return t.insertInParent(l, lp.keys[0], lp, tr)
}

func (t *Tree[K]) insertInParent(n *node[K], key K, np *node[K], tr *traversal[K]) error {
	par := tr.parent[n]
	nPtr := tr.pointer[n]
	npPtr := tr.pointer[np]

	if par == nil {
		root := newInternal[K](t.degree)
		root.pointers[0] = nPtr
		root.keys[0] = key
		root.pointers[1] = npPtr
		root.keyCount = 1
		rootPtr, err := t.backend.Save(root, nil)
		if err != nil {
			return err
		}
		return t.backend.SetRoot(rootPtr)
	}

	if !par.IsFull() {
		par.InsertAfter(key, npPtr, nPtr)
		return t.save(par, tr)
	}

	tmp := newInternal[K](t.degree + 1)
	for i := 0; i < par.keyCount; i++ {
		tmp.keys[i] = par.keys[i]
	}
	for i := 0; i <= par.keyCount; i++ {
		tmp.pointers[i] = par.pointers[i]
	}
	tmp.keyCount = par.keyCount
	tmp.InsertAfter(key, npPtr, nPtr)

	grandparent := tr.parent[par]
	par.Clear()
	pp := newInternal[K](t.degree)
	m := ceilDiv(t.degree+1, 2)
	par.CopyInternal(tmp, 0, m-1)
	pp.CopyInternal(tmp, m, tmp.keyCount)

	ppPtr, err := t.backend.Save(pp, nil)
	if err != nil {
		return err
	}
	tr.pointer[pp] = ppPtr
	tr.parent[pp] = grandparent
	if err := t.save(par, tr); err != nil {
		return err
	}

	promoted := tmp.keys[m-1]
	return t.insertInParent(par, promoted, pp, tr)
}

// Delete removes key from the tree. It fails with ErrInvalidDeletion if key
// is not present, leaving the tree unchanged.
func (t *Tree[K]) Delete(key K) error {
	rootPtr, err := t.backend.RootPointer()
	if err != nil {
		return err
	}
	if rootPtr == nil {
		return errInvalidDeletion(key)
	}

	tr := newTraversal[K]()
	root, err := t.backend.Resolve(rootPtr)
	if err != nil {
		return err
	}
	tr.pointer[root] = rootPtr

	leaf, err := t.find(key, root, tr)
	if err != nil {
		return err
	}
	if !leaf.Contains(key) {
		return errInvalidDeletion(key)
	}
	return t.deleteEntry(leaf, key, tr)
}

func (t *Tree[K]) deleteEntry(n *node[K], key K, tr *traversal[K]) error {
	if n.IsLeaf() {
		n.DeleteKey(key)
	} else {
		n.DeleteSeparator(key)
	}

	par := tr.parent[n]
	if par == nil {
		if !n.IsLeaf() && n.ChildCount() == 1 {
			childPtr := n.pointers[0]
			if err := t.backend.SetRoot(childPtr); err != nil {
				return err
			}
			return t.backend.Dispose(tr.pointer[n])
		}
		return t.save(n, tr)
	}

	if n.IsUnderUtilized() {
		return t.rebalance(n, par, tr)
	}
	return t.save(n, tr)
}

func (t *Tree[K]) rebalance(n, par *node[K], tr *traversal[K]) error {
	nPtr := tr.pointer[n]

	idx := -1
	for i := 0; i <= par.keyCount; i++ {
		if par.pointers[i] == nPtr {
			idx = i
			break
		}
	}
	if idx == -1 {
		panic("bptree: node not found among its parent's children")
	}

	var npPtr any
	var kPrime K
	var leftBiased bool
	var npIdx int
	if idx > 0 {
		npIdx = idx - 1
		npPtr = par.pointers[npIdx]
		kPrime = par.keys[npIdx]
		leftBiased = true
	} else {
		npIdx = idx + 1
		npPtr = par.pointers[npIdx]
		kPrime = par.keys[idx]
		leftBiased = false
	}

	np, err := t.backend.Resolve(npPtr)
	if err != nil {
		return err
	}
	tr.pointer[np] = npPtr
	tr.parent[np] = par

	if n.Mergeable(np) {
		var left, right *node[K]
		var rightPtr any
		if leftBiased {
			left, right, rightPtr = np, n, nPtr
		} else {
			left, right, rightPtr = n, np, npPtr
		}
		if left.IsLeaf() {
			left.MergeLeaf(right)
		} else {
			left.MergeInternal(kPrime, right)
		}
		if err := t.save(left, tr); err != nil {
			return err
		}
		if err := t.backend.Dispose(rightPtr); err != nil {
			return err
		}
		return t.deleteEntry(par, kPrime, tr)
	}

	return t.redistribute(n, np, par, kPrime, leftBiased, idx, npIdx, tr)
}

func (t *Tree[K]) redistribute(n, np, par *node[K], kPrime K, leftBiased bool, idx, npIdx int, tr *traversal[K]) error {
	if n.IsLeaf() {
		if leftBiased {
			key, p := np.PopLast()
			n.ShiftInLeafEntry(key, p)
			par.keys[npIdx] = n.Key(0)
		} else {
			key, p := np.PopFirst()
			n.AppendLeafEntry(key, p)
			par.keys[idx] = np.Key(0)
		}
	} else {
		if leftBiased {
			removedKey, child := np.PopLastChild()
			n.ShiftInChildFront(kPrime, child)
			par.keys[npIdx] = removedKey
		} else {
			removedKey, child := np.PopFirstChild()
			n.AppendChildBack(kPrime, child)
			par.keys[idx] = removedKey
		}
	}

	if err := t.save(n, tr); err != nil {
		return err
	}
	if err := t.save(np, tr); err != nil {
		return err
	}
	return t.save(par, tr)
}
