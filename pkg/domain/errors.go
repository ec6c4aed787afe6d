package domain

import "errors"

// Configuration errors. A graph that produces one of these was built from bad
// data and cannot be evaluated safely.
var (
	// ErrMissingChild is returned when a node slot has no child.
	ErrMissingChild = errors.New("missing child")

	// ErrNotLeaf is returned when a slot that requires a leaf receives a composition node.
	ErrNotLeaf = errors.New("node is not a leaf")

	// ErrUnknownNode is returned when a definition references an undefined node.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownKind is returned for node definitions with an unsupported kind.
	ErrUnknownKind = errors.New("unknown node kind")

	// ErrUnknownClip is returned when an animation references a clip the library lacks.
	ErrUnknownClip = errors.New("unknown clip")

	// ErrCycle is returned when node definitions do not form a DAG.
	ErrCycle = errors.New("graph contains a cycle")

	// ErrTrackCount is returned when a pose does not match the tree's track count.
	ErrTrackCount = errors.New("track count mismatch")

	// ErrInvalidHandle is returned for handles outside the tree's arena.
	ErrInvalidHandle = errors.New("invalid node handle")

	// ErrInvalidStamp is returned for the reserved zero tick stamp.
	ErrInvalidStamp = errors.New("tick stamp must be greater than zero")

	// ErrDuplicateNode is returned when two nodes share a name.
	ErrDuplicateNode = errors.New("duplicate node name")

	// ErrWrongKind is returned when a control method targets a node of another kind.
	ErrWrongKind = errors.New("operation not supported by node kind")
)

// ErrRunNotFound is returned when a replay run id has no recorded digests.
var ErrRunNotFound = errors.New("run not found")

// ErrActorNotFound is returned when an actor id is not spawned.
var ErrActorNotFound = errors.New("actor not found")
