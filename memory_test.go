package bptree

import (
	"testing"

	is "github.com/stretchr/testify/require"
)

func TestMemoryBackendRootLifecycle(t *testing.T) {
	b := &memoryBackend[string]{}

	ptr, err := b.RootPointer()
	is.NoError(t, err)
	is.Nil(t, ptr)

	leaf := newLeaf[string](3)
	leaf.InsertLeaf("a", 1)

	saved, err := b.Save(leaf, nil)
	is.NoError(t, err)
	is.Same(t, leaf, saved)

	is.NoError(t, b.SetRoot(saved))

	ptr, err = b.RootPointer()
	is.NoError(t, err)
	resolved, err := b.Resolve(ptr)
	is.NoError(t, err)
	is.Same(t, leaf, resolved)

	is.NoError(t, b.Dispose(ptr))
	is.NoError(t, b.SetRoot(nil))
	ptr, err = b.RootPointer()
	is.NoError(t, err)
	is.Nil(t, ptr)
}
