package fiber

import "errors"

var (
	// ErrEmptyTree indicates that Convert was given a forest with no nodes.
	ErrEmptyTree = errors.New("empty tree")

	// ErrNotRoot indicates that a walk was started from a fiber that has a parent.
	ErrNotRoot = errors.New("root must have no parent")

	// ErrOutOfRange indicates an ID that names no fiber of the tree.
	ErrOutOfRange = errors.New("fiber id out of range")
)
