package bptree

import (
	"bytes"
	"cmp"
	"encoding/gob"
)

// persistentBackend stores every node as an opaque record in an external
// RecordStore addressed by location handles. The root pointer lives at the
// store's reserved first() location. Node bodies are gob-encoded; any
// concrete location type a RecordStore hands out (see pkg/locstore for the
// reference implementation), and any concrete payload type callers pass as a
// leaf pointer, must be registered with encoding/gob by its own package,
// since both travel inside node.pointers as an any.
type persistentBackend[K cmp.Ordered] struct {
	store  RecordStore
	fileID string
}

func (b *persistentBackend[K]) RootPointer() (any, error) {
	data, ok, err := b.store.Get(b.fileID, b.store.First())
	if err != nil {
		return nil, errIO(err)
	}
	if !ok {
		return nil, nil
	}
	ptr, err := decodeLocation(data)
	if err != nil {
		return nil, errIO(err)
	}
	return ptr, nil
}

func (b *persistentBackend[K]) SetRoot(ptr any) error {
	data, err := encodeLocation(ptr)
	if err != nil {
		return errIO(err)
	}
	if _, err := b.store.Put(b.fileID, b.store.First(), data); err != nil {
		return errIO(err)
	}
	return nil
}

func (b *persistentBackend[K]) Resolve(ptr any) (*node[K], error) {
	if ptr == nil {
		return nil, nil
	}
	data, ok, err := b.store.Get(b.fileID, ptr)
	if err != nil {
		return nil, errIO(err)
	}
	if !ok {
		return nil, ErrInvalidLocation
	}
	return decodeNode[K](data)
}

func (b *persistentBackend[K]) Save(n *node[K], known any) (any, error) {
	data, err := encodeNode(n)
	if err != nil {
		return nil, errIO(err)
	}
	if known != nil {
		if _, err := b.store.Put(b.fileID, known, data); err != nil {
			return nil, errIO(err)
		}
		return known, nil
	}
	ptr, err := b.store.Add(b.fileID, data)
	if err != nil {
		return nil, errIO(err)
	}
	return ptr, nil
}

func (b *persistentBackend[K]) Dispose(ptr any) error {
	if ptr == nil {
		return nil
	}
	if _, err := b.store.Remove(b.fileID, ptr); err != nil {
		return errIO(err)
	}
	return nil
}

// nodeWire mirrors node with exported fields; gob only encodes exported
// fields, and node's are kept private to the package's own invariants.
type nodeWire[K cmp.Ordered] struct {
	Leaf      bool
	Degree    int
	Keys      []K
	KeyCount  int
	Pointers  []any
	Successor any
}

func encodeNode[K cmp.Ordered](n *node[K]) ([]byte, error) {
	wire := nodeWire[K]{
		Leaf:      n.leaf,
		Degree:    n.degree,
		Keys:      n.keys,
		KeyCount:  n.keyCount,
		Pointers:  n.pointers,
		Successor: n.successor,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(wire); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeNode[K cmp.Ordered](data []byte) (*node[K], error) {
	var wire nodeWire[K]
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
		return nil, err
	}
	return &node[K]{
		leaf:      wire.Leaf,
		degree:    wire.Degree,
		keys:      wire.Keys,
		keyCount:  wire.KeyCount,
		pointers:  wire.Pointers,
		successor: wire.Successor,
	}, nil
}

func encodeLocation(loc any) ([]byte, error) {
	var buf bytes.Buffer
	// Encode through a pointer so loc travels as an interface value, which
	// is what decodeLocation's any target requires.
	if err := gob.NewEncoder(&buf).Encode(&loc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeLocation(data []byte) (any, error) {
	var loc any
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&loc); err != nil {
		return nil, err
	}
	return loc, nil
}
