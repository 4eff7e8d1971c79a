//go:build !unix

package dmheap

// lockMemory is a no-op on platforms without mlock(2), so WithMemoryLock
// is always safe to set regardless of GOOS.
func lockMemory(region []byte) error { return nil }

// unlockMemory is a no-op on platforms without mlock(2).
func unlockMemory(region []byte) error { return nil }
