package locstore

import (
	"encoding/gob"
	"testing"

	is "github.com/stretchr/testify/require"

	bptree "github.com/Ralphd42/bplus-tree"
)

func init() {
	gob.Register("")
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	is.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAddGetPutRemove(t *testing.T) {
	s := openTestStore(t)

	loc, err := s.Add("t1", []byte("hello"))
	is.NoError(t, err)

	data, ok, err := s.Get("t1", loc)
	is.NoError(t, err)
	is.True(t, ok)
	is.Equal(t, []byte("hello"), data)

	prior, err := s.Put("t1", loc, []byte("world"))
	is.NoError(t, err)
	is.Equal(t, []byte("hello"), prior)

	data, ok, err = s.Get("t1", loc)
	is.NoError(t, err)
	is.True(t, ok)
	is.Equal(t, []byte("world"), data)

	prior, err = s.Remove("t1", loc)
	is.NoError(t, err)
	is.Equal(t, []byte("world"), prior)

	_, ok, err = s.Get("t1", loc)
	is.NoError(t, err)
	is.False(t, ok)
}

func TestRootLocationIsReservedAndNamespaced(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Get("t1", s.First())
	is.NoError(t, err)
	is.False(t, ok)

	_, err = s.Put("t1", s.First(), []byte("root-for-t1"))
	is.NoError(t, err)
	_, err = s.Put("t2", s.First(), []byte("root-for-t2"))
	is.NoError(t, err)

	v1, ok, err := s.Get("t1", s.First())
	is.NoError(t, err)
	is.True(t, ok)
	is.Equal(t, []byte("root-for-t1"), v1)

	v2, ok, err := s.Get("t2", s.First())
	is.NoError(t, err)
	is.True(t, ok)
	is.Equal(t, []byte("root-for-t2"), v2)
}

func TestGetInvalidLocationType(t *testing.T) {
	s := openTestStore(t)

	_, _, err := s.Get("t1", "not-a-location")
	is.ErrorIs(t, err, bptree.ErrInvalidLocation)
}

func TestStoreBacksAPersistentTree(t *testing.T) {
	s := openTestStore(t)

	tr, err := bptree.NewPersistent[string](3, s, "fruits")
	is.NoError(t, err)

	for _, k := range []string{"apple", "banana", "cinnamon"} {
		is.NoError(t, tr.Insert(k, k))
	}
	is.NoError(t, tr.Delete("banana"))

	var keys []string
	is.NoError(t, tr.ForEach(func(k string, _ any) bool {
		keys = append(keys, k)
		return true
	}))
	is.Equal(t, []string{"apple", "cinnamon"}, keys)
}
