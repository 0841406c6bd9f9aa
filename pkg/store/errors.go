package store

import "go.trai.ch/zerr"

var (
	// ErrNodeNotFound is returned when an id does not exist in the store.
	ErrNodeNotFound = zerr.New("node not found")

	// ErrParentNotFolder is returned when a node would be placed under a leaf.
	ErrParentNotFolder = zerr.New("parent is not a folder")

	// ErrCycle is returned when a move would nest a node inside its own subtree.
	ErrCycle = zerr.New("move would create a cycle")

	// ErrInvalidNode is returned when a record fails validation.
	ErrInvalidNode = zerr.New("invalid node")
)

func notFound(op, id string) error {
	return zerr.With(zerr.Wrap(ErrNodeNotFound, op), "node_id", id)
}
