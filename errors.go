package dmheap

import "errors"

// Sentinel errors returned by the public surface. Callers should compare
// with errors.Is rather than on message text.
var (
	// ErrInvalidBuffer is returned by NewContext/Init when the backing
	// buffer is nil, empty, or too small to hold one block header plus a
	// payload byte.
	ErrInvalidBuffer = errors.New("dmheap: invalid buffer")

	// ErrInvalidAlignment is returned when an alignment is not a power
	// of two, or is smaller than the block header's own alignment.
	ErrInvalidAlignment = errors.New("dmheap: alignment must be a power of two")

	// ErrNotInitialized is returned by operations on a Context that has
	// not been through Init, or has been Close'd.
	ErrNotInitialized = errors.New("dmheap: context not initialized")

	// ErrOutOfMemory is returned when no free block is large enough to
	// satisfy a request, including after padding arithmetic for an
	// aligned allocation.
	ErrOutOfMemory = errors.New("dmheap: out of memory")

	// ErrUnknownPointer is returned by Realloc when the given pointer is
	// not present in the used list. Free has no error return but logs the
	// same condition.
	ErrUnknownPointer = errors.New("dmheap: pointer not found in used list")

	// ErrModuleNotRegistered names the unknown-module condition. No
	// Context method returns it: UnregisterModule logs a missing module at
	// warning severity instead.
	ErrModuleNotRegistered = errors.New("dmheap: module not registered")

	// ErrInternalInvariant marks a rejected self-link: an attempt to set
	// a block's next pointer to itself. A corrupted call site fails the
	// one operation instead of taking down the host process.
	ErrInternalInvariant = errors.New("dmheap: internal invariant violated")
)
