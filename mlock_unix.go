//go:build unix

package dmheap

import "golang.org/x/sys/unix"

// lockMemory pins region in physical memory via mlock(2), best-effort.
func lockMemory(region []byte) error {
	if len(region) == 0 {
		return nil
	}

	return unix.Mlock(region)
}

// unlockMemory releases a pin taken by lockMemory.
func unlockMemory(region []byte) error {
	if len(region) == 0 {
		return nil
	}

	return unix.Munlock(region)
}
