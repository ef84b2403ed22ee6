package bptree

import "cmp"

// Iterator walks the leaves of a Tree in ascending key order by following the
// successor chain left to right. It reflects the tree's state at the moment
// of each Next call; mutating the tree mid-iteration has undefined effects
// on keys not yet visited.
type Iterator[K cmp.Ordered] struct {
	tree    *Tree[K]
	current *node[K]
	i       int
	err     error
}

// Iterator returns an Iterator positioned before the first entry.
func (t *Tree[K]) Iterator() (*Iterator[K], error) {
	root, err := t.Root()
	if err != nil {
		return nil, err
	}
	if root == nil {
		return &Iterator[K]{tree: t}, nil
	}
	leaf := root
	for !leaf.IsLeaf() {
		child, err := t.Child(leaf, 0)
		if err != nil {
			return nil, err
		}
		leaf = child
	}
	return &Iterator[K]{tree: t, current: leaf}, nil
}

// HasNext reports whether a call to Next would succeed.
func (it *Iterator[K]) HasNext() bool {
	return it.err == nil && it.current != nil && it.i < it.current.KeyCount()
}

// Next returns the next (key, pointer) pair in ascending order and advances
// the iterator. Err must be checked after iteration ends; it reports any
// failure encountered while following the leaf chain.
func (it *Iterator[K]) Next() (K, any, bool) {
	if !it.HasNext() {
		var zero K
		return zero, nil, false
	}
	key := it.current.Key(it.i)
	p := it.current.Pointer(it.i)
	it.i++

	if it.i >= it.current.KeyCount() {
		succ, ok := it.current.Successor()
		if !ok {
			it.current = nil
		} else {
			next, err := it.tree.backend.Resolve(succ)
			if err != nil {
				it.err = err
				it.current = nil
			} else {
				it.current = next
				it.i = 0
			}
		}
	}
	return key, p, true
}

// Err returns the first error encountered while advancing the iterator.
func (it *Iterator[K]) Err() error {
	return it.err
}

// ForEach visits every (key, pointer) pair in ascending order, stopping early
// if fn returns false. It returns any error encountered resolving leaves.
func (t *Tree[K]) ForEach(fn func(key K, p any) bool) error {
	it, err := t.Iterator()
	if err != nil {
		return err
	}
	for it.HasNext() {
		key, p, ok := it.Next()
		if !ok {
			break
		}
		if !fn(key, p) {
			break
		}
	}
	return it.Err()
}
