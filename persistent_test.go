package bptree

import (
	"encoding/gob"
	"sync"
	"testing"

	is "github.com/stretchr/testify/require"
)

// Concrete types carried inside node.pointers (as child locations or leaf
// payloads) must be registered with gob before a persistentBackend can
// encode or decode a node referencing them.
func init() {
	gob.Register(fakeLocation(0))
	gob.Register("")
}

// fakeLocation is a trivial comparable location type, standing in for the
// KSUID handles a real RecordStore (pkg/locstore) would mint.
type fakeLocation int

// fakeStore is a minimal in-memory RecordStore, used to exercise
// persistentBackend's encode/decode path without pulling in badger.
type fakeStore struct {
	mu   sync.Mutex
	next fakeLocation
	data map[string]map[fakeLocation][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]map[fakeLocation][]byte)}
}

type fakeRoot struct{}

func (s *fakeStore) First() any { return fakeRoot{} }

func (s *fakeStore) Add(fileID string, data []byte) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	loc := s.next
	s.ensure(fileID)[loc] = append([]byte(nil), data...)
	return loc, nil
}

func (s *fakeStore) Get(fileID string, loc any) (data []byte, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, kerr := s.key(loc)
	if kerr != nil {
		return nil, false, kerr
	}
	v, found := s.ensure(fileID)[key]
	if !found {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *fakeStore) Put(fileID string, loc any, data []byte) (prior []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, kerr := s.key(loc)
	if kerr != nil {
		return nil, kerr
	}
	m := s.ensure(fileID)
	prior = m[key]
	m[key] = append([]byte(nil), data...)
	return prior, nil
}

func (s *fakeStore) Remove(fileID string, loc any) (prior []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, kerr := s.key(loc)
	if kerr != nil {
		return nil, kerr
	}
	m := s.ensure(fileID)
	prior = m[key]
	delete(m, key)
	return prior, nil
}

func (s *fakeStore) ensure(fileID string) map[fakeLocation][]byte {
	m, ok := s.data[fileID]
	if !ok {
		m = make(map[fakeLocation][]byte)
		s.data[fileID] = m
	}
	return m
}

func (s *fakeStore) key(loc any) (fakeLocation, error) {
	switch v := loc.(type) {
	case fakeRoot:
		return 0, nil
	case fakeLocation:
		return v, nil
	default:
		return 0, ErrInvalidLocation
	}
}

func TestPersistentBackendRoundTrip(t *testing.T) {
	store := newFakeStore()
	tr, err := NewPersistent[string](3, store, "t1")
	is.NoError(t, err)

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		is.NoError(t, tr.Insert(k, k))
	}

	var keys []string
	is.NoError(t, tr.ForEach(func(k string, _ any) bool {
		keys = append(keys, k)
		return true
	}))
	is.Equal(t, []string{"a", "b", "c", "d", "e"}, keys)

	is.NoError(t, tr.Delete("a"))
	is.NoError(t, tr.Delete("b"))

	keys = nil
	is.NoError(t, tr.ForEach(func(k string, _ any) bool {
		keys = append(keys, k)
		return true
	}))
	is.Equal(t, []string{"c", "d", "e"}, keys)
}

func TestPersistentInvalidLocation(t *testing.T) {
	store := newFakeStore()
	b := &persistentBackend[string]{store: store, fileID: "t1"}

	_, err := b.Resolve(fakeLocation(999))
	is.ErrorIs(t, err, ErrInvalidLocation)
}

// TestBackendEquivalence exercises spec scenario 6: in-memory and persistent
// backends must produce identical leaf-chain sequences for the same script.
func TestBackendEquivalence(t *testing.T) {
	script := []struct {
		op  string
		key string
	}{
		{"insert", "m"}, {"insert", "a"}, {"insert", "z"}, {"insert", "b"},
		{"insert", "y"}, {"delete", "a"}, {"insert", "c"}, {"delete", "m"},
		{"insert", "d"}, {"delete", "z"},
	}

	mem, err := NewInMemory[string](3)
	is.NoError(t, err)
	store := newFakeStore()
	disk, err := NewPersistent[string](3, store, "t1")
	is.NoError(t, err)

	for _, step := range script {
		switch step.op {
		case "insert":
			is.NoError(t, mem.Insert(step.key, step.key))
			is.NoError(t, disk.Insert(step.key, step.key))
		case "delete":
			is.NoError(t, mem.Delete(step.key))
			is.NoError(t, disk.Delete(step.key))
		}

		var memKeys, diskKeys []string
		is.NoError(t, mem.ForEach(func(k string, _ any) bool { memKeys = append(memKeys, k); return true }))
		is.NoError(t, disk.ForEach(func(k string, _ any) bool { diskKeys = append(diskKeys, k); return true }))
		is.Equal(t, memKeys, diskKeys)
	}
}
