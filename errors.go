package bptree

import "github.com/pkg/errors"

// Sentinel errors signaled by the tree engine and the record store contract.
// Callers should use errors.Is against these, since most errors returned
// wrap them with the offending key or the underlying store failure for
// diagnostics.
var (
	// ErrInvalidInsertion is returned when Insert is called with a key
	// already present in the tree. The tree is left unchanged.
	ErrInvalidInsertion = errors.New("bptree: key already exists")

	// ErrInvalidDeletion is returned when Delete is called with a key that
	// is not present in the tree. The tree is left unchanged.
	ErrInvalidDeletion = errors.New("bptree: key not found")

	// ErrInvalidLocation is returned by a RecordStore when asked to operate
	// on a syntactically invalid location.
	ErrInvalidLocation = errors.New("bptree: invalid location")

	// ErrIO wraps any failure surfaced by the underlying RecordStore.
	ErrIO = errors.New("bptree: record store failure")

	// ErrInvalidDegree is returned by NewInMemory and NewPersistent when the
	// requested degree is below
	// the minimum of 3.
	ErrInvalidDegree = errors.New("bptree: degree must be >= 3")
)

func errInvalidInsertion(key any) error {
	return errors.Wrapf(ErrInvalidInsertion, "key %v", key)
}

func errInvalidDeletion(key any) error {
	return errors.Wrapf(ErrInvalidDeletion, "key %v", key)
}

func errIO(cause error) error {
	return errors.Wrap(ErrIO, cause.Error())
}
