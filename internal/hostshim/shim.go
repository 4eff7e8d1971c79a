// Package hostshim publishes dmheap's process-wide default Context under
// the host's canonical generic-allocator entry points: the five call
// targets a module-builtin registration system would bind to. The
// registration machinery itself lives in the host; this package supplies
// only the functions such a system would point at.
package hostshim

import (
	"unsafe"

	"github.com/dmheap/dmheap"
)

// MallocEx allocates size bytes charged to moduleName from the process
// default Context.
func MallocEx(size uintptr, moduleName string) (unsafe.Pointer, error) {
	return dmheap.Default().Malloc(size, moduleName)
}

// ReallocEx resizes ptr to size bytes, charged to moduleName.
func ReallocEx(ptr unsafe.Pointer, size uintptr, moduleName string) (unsafe.Pointer, error) {
	return dmheap.Default().Realloc(ptr, size, moduleName)
}

// AlignedMallocEx allocates size bytes aligned to alignment, charged to
// moduleName. Its argument order is (size, alignment, moduleName), the
// reverse of Context.AlignedAlloc's (alignment, size, moduleName): the
// host's generic aligned-malloc convention puts size first, this
// allocator's native signature puts alignment first.
func AlignedMallocEx(size, alignment uintptr, moduleName string) (unsafe.Pointer, error) {
	return dmheap.Default().AlignedAlloc(alignment, size, moduleName)
}

// FreeEx returns ptr to the process default Context, coalescing adjacent
// free blocks.
func FreeEx(ptr unsafe.Pointer) {
	dmheap.Default().Free(ptr, true)
}

// FreeModule tears down moduleName on the process default Context,
// reclaiming every block it owns.
func FreeModule(moduleName string) {
	dmheap.Default().UnregisterModule(moduleName)
}
