package bptree

import "cmp"

// node represents a single node in the B+ tree, which can be either an
// internal node or a leaf node.
//
// For leaf nodes:
//   - keys holds the stored keys in ascending order
//   - pointers holds the payload pointer paired with keys[i] at the same index
//   - successor holds the pointer to the next leaf in key order, or nil
//
// For internal nodes:
//   - keys holds the separator keys k0 < k1 < ... < k(n-1)
//   - pointers holds the n+1 child pointers p0, p1, ..., pn
//
// Payload pointers and child pointers are both carried as opaque any values.
// The in-memory backend stores *node[K] directly in these slots; the
// persistent backend stores locations handed out by a RecordStore. Neither
// backend ever needs the tree to know which concrete type it is holding.
type node[K cmp.Ordered] struct {
	leaf      bool
	degree    int
	keys      []K
	keyCount  int
	pointers  []any
	successor any
}

func newLeaf[K cmp.Ordered](degree int) *node[K] {
	return &node[K]{
		leaf:     true,
		degree:   degree,
		keys:     make([]K, degree-1),
		pointers: make([]any, degree-1),
	}
}

func newInternal[K cmp.Ordered](degree int) *node[K] {
	return &node[K]{
		leaf:     false,
		degree:   degree,
		keys:     make([]K, degree-1),
		pointers: make([]any, degree),
	}
}

func (n *node[K]) IsLeaf() bool { return n.leaf }

// KeyCount returns the number of keys currently stored in the node.
func (n *node[K]) KeyCount() int { return n.keyCount }

// ChildCount returns the number of child pointers, which is zero for a leaf.
func (n *node[K]) ChildCount() int {
	if n.leaf {
		return 0
	}
	return n.keyCount + 1
}

func (n *node[K]) Key(i int) K { return n.keys[i] }

// Pointer returns the payload pointer (leaf) or child pointer (internal) at i.
func (n *node[K]) Pointer(i int) any { return n.pointers[i] }

// findKey returns the position of key in the node's key array and whether it
// was found. If not found, the position is where it would be inserted.
func (n *node[K]) findKey(key K) (int, bool) {
	for i := 0; i < n.keyCount; i++ {
		if n.keys[i] == key {
			return i, true
		}
		if n.keys[i] > key {
			return i, false
		}
	}
	return n.keyCount, false
}

// Contains reports whether key is present in a leaf node.
func (n *node[K]) Contains(key K) bool {
	_, found := n.findKey(key)
	return found
}

// IsFull reports whether the node has reached its capacity.
func (n *node[K]) IsFull() bool {
	return n.keyCount == len(n.keys)
}

// IsUnderUtilized reports whether the node holds fewer entries (leaf) or
// children (internal) than the minimum occupancy. A leaf's capacity is
// degree-1 keys, so its minimum is ceil((degree-1)/2); an internal node's
// minimum child count is ceil(degree/2), per spec.
func (n *node[K]) IsUnderUtilized() bool {
	if n.leaf {
		return n.keyCount < ceilDiv(n.degree-1, 2)
	}
	return n.ChildCount() < ceilDiv(n.degree, 2)
}

// Mergeable reports whether this node and other together fit in one node of
// this degree. For internal nodes the capacity check includes the separator
// that the merge re-introduces from the parent.
func (n *node[K]) Mergeable(other *node[K]) bool {
	if n.leaf {
		return n.keyCount+other.keyCount <= n.degree-1
	}
	return n.keyCount+other.keyCount <= n.degree-2
}

// Successor returns the next-leaf pointer and whether one is set.
func (n *node[K]) Successor() (any, bool) {
	return n.successor, n.successor != nil
}

func (n *node[K]) SetSuccessor(p any) { n.successor = p }

// InsertLeaf places (key, p) in sorted order. Precondition: not full, key
// absent; violating either is a programmer error, the tree engine is
// responsible for splitting and de-duplication checks first.
func (n *node[K]) InsertLeaf(key K, p any) {
	if !n.leaf {
		panic("bptree: InsertLeaf called on internal node")
	}
	if n.IsFull() {
		panic("bptree: InsertLeaf called on full node")
	}
	pos, found := n.findKey(key)
	if found {
		panic("bptree: InsertLeaf called with duplicate key")
	}
	for i := n.keyCount; i > pos; i-- {
		n.keys[i] = n.keys[i-1]
		n.pointers[i] = n.pointers[i-1]
	}
	n.keys[pos] = key
	n.pointers[pos] = p
	n.keyCount++
}

// Child returns the child pointer responsible for key: p_i such that
// k(i-1) <= key < k(i). Equality on k(i) routes to p(i+1).
func (n *node[K]) Child(key K) any {
	i := 0
	for i < n.keyCount && n.keys[i] <= key {
		i++
	}
	return n.pointers[i]
}

// InsertAfter inserts separator key and pointer p immediately to the right
// of the existing child pointer after.
func (n *node[K]) InsertAfter(key K, p any, after any) {
	if n.leaf {
		panic("bptree: InsertAfter called on leaf node")
	}
	pos := -1
	for i := 0; i <= n.keyCount; i++ {
		if n.pointers[i] == after {
			pos = i
			break
		}
	}
	if pos == -1 {
		panic("bptree: InsertAfter could not locate the given pointer")
	}
	if n.IsFull() {
		panic("bptree: InsertAfter called on full node")
	}
	for j := n.keyCount + 1; j > pos+1; j-- {
		n.pointers[j] = n.pointers[j-1]
	}
	n.pointers[pos+1] = p
	for j := n.keyCount; j > pos; j-- {
		n.keys[j] = n.keys[j-1]
	}
	n.keys[pos] = key
	n.keyCount++
}

// CopyInternal replaces the node's contents with src's keys [begin, end) and
// the trailing child pointer src.pointers[end].
func (n *node[K]) CopyInternal(src *node[K], begin, end int) {
	n.Clear()
	for i := begin; i < end; i++ {
		n.keys[i-begin] = src.keys[i]
		n.pointers[i-begin] = src.pointers[i]
	}
	n.pointers[end-begin] = src.pointers[end]
	n.keyCount = end - begin
}

// Clear resets the node to empty.
func (n *node[K]) Clear() {
	var zeroKey K
	for i := range n.keys {
		n.keys[i] = zeroKey
	}
	for i := range n.pointers {
		n.pointers[i] = nil
	}
	n.keyCount = 0
	n.successor = nil
}

// DeleteKey removes key and its paired payload pointer from a leaf node.
func (n *node[K]) DeleteKey(key K) bool {
	pos, found := n.findKey(key)
	if !found {
		return false
	}
	for i := pos; i < n.keyCount-1; i++ {
		n.keys[i] = n.keys[i+1]
		n.pointers[i] = n.pointers[i+1]
	}
	var zeroKey K
	n.keys[n.keyCount-1] = zeroKey
	n.pointers[n.keyCount-1] = nil
	n.keyCount--
	return true
}

// DeleteSeparator removes separator key and the child pointer immediately to
// its right from an internal node. This is used when the subtree under that
// right-hand pointer has just been merged into its left sibling.
func (n *node[K]) DeleteSeparator(key K) bool {
	pos, found := n.findKey(key)
	if !found {
		return false
	}
	for i := pos; i < n.keyCount-1; i++ {
		n.keys[i] = n.keys[i+1]
	}
	for i := pos + 1; i < n.keyCount; i++ {
		n.pointers[i] = n.pointers[i+1]
	}
	var zeroKey K
	n.keys[n.keyCount-1] = zeroKey
	n.pointers[n.keyCount] = nil
	n.keyCount--
	return true
}

// MergeLeaf appends all of right's entries onto n and adopts its successor.
func (n *node[K]) MergeLeaf(right *node[K]) {
	for i := 0; i < right.keyCount; i++ {
		n.keys[n.keyCount] = right.keys[i]
		n.pointers[n.keyCount] = right.pointers[i]
		n.keyCount++
	}
	n.successor = right.successor
}

// MergeInternal appends kPrime as the next separator and then right's own
// separators and children.
func (n *node[K]) MergeInternal(kPrime K, right *node[K]) {
	n.keys[n.keyCount] = kPrime
	n.pointers[n.keyCount+1] = right.pointers[0]
	n.keyCount++
	for i := 0; i < right.keyCount; i++ {
		n.keys[n.keyCount] = right.keys[i]
		n.pointers[n.keyCount+1] = right.pointers[i+1]
		n.keyCount++
	}
}

// ShiftInLeafEntry inserts (key, p) at the front of a leaf node.
func (n *node[K]) ShiftInLeafEntry(key K, p any) {
	for i := n.keyCount; i > 0; i-- {
		n.keys[i] = n.keys[i-1]
		n.pointers[i] = n.pointers[i-1]
	}
	n.keys[0] = key
	n.pointers[0] = p
	n.keyCount++
}

// AppendLeafEntry appends (key, p) to the tail of a leaf node.
func (n *node[K]) AppendLeafEntry(key K, p any) {
	n.keys[n.keyCount] = key
	n.pointers[n.keyCount] = p
	n.keyCount++
}

// PopLast removes and returns the last (key, pointer) pair of a leaf node.
func (n *node[K]) PopLast() (K, any) {
	key := n.keys[n.keyCount-1]
	p := n.pointers[n.keyCount-1]
	var zeroKey K
	n.keys[n.keyCount-1] = zeroKey
	n.pointers[n.keyCount-1] = nil
	n.keyCount--
	return key, p
}

// PopFirst removes and returns the first (key, pointer) pair of a leaf node.
func (n *node[K]) PopFirst() (K, any) {
	key := n.keys[0]
	p := n.pointers[0]
	for i := 0; i < n.keyCount-1; i++ {
		n.keys[i] = n.keys[i+1]
		n.pointers[i] = n.pointers[i+1]
	}
	var zeroKey K
	n.keys[n.keyCount-1] = zeroKey
	n.pointers[n.keyCount-1] = nil
	n.keyCount--
	return key, p
}

// ShiftInChildFront inserts separator key at index 0 paired with child as the
// new first child, shifting the rest of an internal node right.
func (n *node[K]) ShiftInChildFront(key K, child any) {
	for i := n.keyCount; i > 0; i-- {
		n.keys[i] = n.keys[i-1]
	}
	for i := n.keyCount + 1; i > 0; i-- {
		n.pointers[i] = n.pointers[i-1]
	}
	n.keys[0] = key
	n.pointers[0] = child
	n.keyCount++
}

// PopLastChild removes and returns the last separator key and last child
// pointer of an internal node.
func (n *node[K]) PopLastChild() (K, any) {
	key := n.keys[n.keyCount-1]
	p := n.pointers[n.keyCount]
	var zeroKey K
	n.keys[n.keyCount-1] = zeroKey
	n.pointers[n.keyCount] = nil
	n.keyCount--
	return key, p
}

// AppendChildBack appends separator key and child as the new last child of
// an internal node.
func (n *node[K]) AppendChildBack(key K, child any) {
	n.keys[n.keyCount] = key
	n.pointers[n.keyCount+1] = child
	n.keyCount++
}

// PopFirstChild removes and returns the first separator key and first child
// pointer of an internal node.
func (n *node[K]) PopFirstChild() (K, any) {
	key := n.keys[0]
	p := n.pointers[0]
	for i := 0; i < n.keyCount-1; i++ {
		n.keys[i] = n.keys[i+1]
	}
	for i := 0; i < n.keyCount; i++ {
		n.pointers[i] = n.pointers[i+1]
	}
	var zeroKey K
	n.keys[n.keyCount-1] = zeroKey
	n.pointers[n.keyCount] = nil
	n.keyCount--
	return key, p
}

func ceilDiv(x, y int) int {
	d := x / y
	if x%y != 0 {
		d++
	}
	return d
}
