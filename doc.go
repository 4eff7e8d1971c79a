// Package dmheap implements a fixed-buffer heap allocator for environments
// with no backing OS allocator: callers hand it a contiguous byte region at
// Init and every later Malloc, AlignedAlloc, Realloc and Free call carves
// from, returns to, and coalesces inside that same region.
//
// On top of the malloc/realloc/free/aligned_alloc surface, every allocation
// may be charged to a named module. Tearing a module down with
// UnregisterModule reclaims every block it owns in one call, without
// touching blocks charged to other modules or left uncharged.
package dmheap
