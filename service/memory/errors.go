package memory

import "errors"

// Sentinel errors reported by the allocator. Callers detect them with errors.Is.
var (
	// ErrOutOfMemory is returned when a request cannot be satisfied even after compaction.
	ErrOutOfMemory = errors.New("memory: out of memory")

	// ErrAccessViolation is returned when a process frees a block it does not own.
	ErrAccessViolation = errors.New("memory: access violation")

	// ErrAlreadyFree is returned when the owner frees a block it already released.
	ErrAlreadyFree = errors.New("memory: block already free")

	// ErrBlockNotFound is returned when a handle does not name a live block.
	ErrBlockNotFound = errors.New("memory: block not found")

	// ErrInvalidSize is returned for non-positive request sizes.
	ErrInvalidSize = errors.New("memory: invalid size")

	// ErrInvalidOwner is returned for non-positive process ids.
	ErrInvalidOwner = errors.New("memory: invalid owner")
)
