package dmheap

import "unsafe"

// Malloc allocates size bytes charged to moduleName (pass "" for an
// uncharged allocation), using the context's default alignment. It is a
// thin wrapper over AlignedAlloc.
func (c *Context) Malloc(size uintptr, moduleName string) (unsafe.Pointer, error) {
	if c == nil || !c.IsInitialized() {
		return nil, ErrNotInitialized
	}

	return c.AlignedAlloc(c.defaultAlignment, size, moduleName)
}

// AlignedAlloc allocates size bytes whose address is a multiple of
// alignment (a power of two), charged to moduleName. A size of 0 returns
// (nil, nil): no allocation, no error.
func (c *Context) AlignedAlloc(alignment, size uintptr, moduleName string) (unsafe.Pointer, error) {
	if c == nil || !c.IsInitialized() {
		return nil, ErrNotInitialized
	}

	if size == 0 {
		return nil, nil
	}

	if !isPowerOfTwo(alignment) {
		return nil, ErrInvalidAlignment
	}

	c.critical.Enter()
	defer c.critical.Exit()

	return c.alignedAllocLocked(alignment, size, moduleName)
}

// alignedAllocLocked is AlignedAlloc's body, run under the critical
// section. Split out so Realloc's grow path can reuse it without taking
// the lock twice.
func (c *Context) alignedAllocLocked(alignment, size uintptr, moduleName string) (unsafe.Pointer, error) {
	sAligned := alignUp(size, c.defaultAlignment)

	block := findSuitableBlock(c.freeList, sAligned, alignment)
	if block == nil {
		c.logger.Errorf("out of memory: no block fits %d bytes at alignment %d", size, alignment)

		return nil, ErrOutOfMemory
	}

	removeBlock(&c.freeList, block)

	working, err := c.prepareAlignedBlock(block, alignment, sAligned)
	if err != nil {
		_ = pushFront(&c.freeList, block)

		c.logger.Errorf("out of memory: %v", err)

		return nil, ErrOutOfMemory
	}

	if working.payloadSize > sAligned+blockHeaderSize+1 {
		if tail := splitBlock(working, sAligned, c.defaultAlignment); tail != nil {
			_ = pushFront(&c.freeList, tail)
		}
	}

	if moduleName != "" {
		module, err := c.getOrCreateModule(moduleName)
		if err != nil {
			_ = pushFront(&c.freeList, working)

			return nil, err
		}

		working.owner = module
	}

	if err := pushFront(&c.usedList, working); err != nil {
		return nil, err
	}

	return working.payloadBase(), nil
}

// prepareAlignedBlock carves a block already known to fit size at alignment
// down to one whose payload begins exactly at the aligned address,
// returning that block (which may be b itself when no padding is needed).
//
// When the padding is at least one header wide, the pad region becomes a
// small free block sitting in front of the usable one. When it is narrower
// than a header, the next aligned position that does have room is tried
// instead; if the block cannot absorb that extra padding the allocation
// fails and b goes back to the free list untouched.
func (c *Context) prepareAlignedBlock(b *blockHeader, alignment, sAligned uintptr) (*blockHeader, error) {
	aligned := alignPointerUp(b.payloadBase(), alignment)
	pad := uintptr(aligned) - uintptr(b.payloadBase())

	if pad == 0 {
		return b, nil
	}

	if pad >= blockHeaderSize {
		splitAt := pad - blockHeaderSize

		usable := splitBlock(b, splitAt, 1)
		if usable == nil {
			return nil, ErrOutOfMemory
		}

		_ = pushFront(&c.freeList, b)

		return usable, nil
	}

	searchStart := unsafe.Pointer(uintptr(b.payloadBase()) + blockHeaderSize)
	nextAligned := alignPointerUp(searchStart, alignment)
	newPad := uintptr(nextAligned) - uintptr(b.payloadBase())

	if newPad >= blockHeaderSize && b.payloadSize >= newPad+sAligned {
		splitAt := newPad - blockHeaderSize

		usable := splitBlock(b, splitAt, 1)
		if usable == nil {
			return nil, ErrOutOfMemory
		}

		_ = pushFront(&c.freeList, b)

		return usable, nil
	}

	return nil, ErrOutOfMemory
}

// Free returns the block at ptr to the free list. A nil ptr is a silent
// no-op. A foreign pointer (one not present in the used list) is a
// recoverable fault: it is logged at error severity and Free otherwise does
// nothing.
func (c *Context) Free(ptr unsafe.Pointer, coalesce bool) {
	if c == nil || !c.IsInitialized() || ptr == nil {
		return
	}

	c.critical.Enter()
	defer c.critical.Exit()

	block := findBlockByAddress(c.usedList, ptr)
	if block == nil {
		c.logger.Errorf("free: unknown pointer %p", ptr)

		return
	}

	removeBlock(&c.usedList, block)
	block.owner = nil
	_ = pushFront(&c.freeList, block)

	// The full all-pairs pass subsumes the pairwise scan against just the
	// freed block, so it is reused here rather than duplicating the
	// adjacency logic.
	if coalesce {
		c.concatenateFreeBlocksLocked()
	}
}

// ConcatenateFreeBlocks performs an all-pairs merge pass over the free
// list, collapsing every run of byte-adjacent free blocks into one. O(n²)
// in free-list length; callers invoke it explicitly when fragmentation
// matters more than latency.
func (c *Context) ConcatenateFreeBlocks() error {
	if c == nil || !c.IsInitialized() {
		return ErrNotInitialized
	}

	c.critical.Enter()
	defer c.critical.Exit()

	c.concatenateFreeBlocksLocked()

	return nil
}

func (c *Context) concatenateFreeBlocksLocked() {
	for current := c.freeList; current != nil; current = current.next {
		next := c.freeList

		for next != nil {
			link := current.next

			if mergeBlocks(current, next) {
				// mergeBlocks relinks current past next, which is only right
				// when next is current's immediate successor; restore the
				// link and unlink next from wherever it sits instead.
				current.next = link
				removeBlock(&c.freeList, next)
				next = c.freeList

				continue
			}

			next = next.next
		}
	}
}

// Realloc resizes the allocation at ptr to newSize bytes. A nil ptr
// behaves as Malloc. Shrinking splits in place and returns ptr unchanged;
// growing allocates fresh, copies the old payload, and frees the old
// block; no attempt is made to extend in place against an adjacent free
// neighbor.
func (c *Context) Realloc(ptr unsafe.Pointer, newSize uintptr, moduleName string) (unsafe.Pointer, error) {
	if c == nil || !c.IsInitialized() {
		return nil, ErrNotInitialized
	}

	if ptr == nil {
		return c.Malloc(newSize, moduleName)
	}

	c.critical.Enter()
	defer c.critical.Exit()

	block := findBlockByAddress(c.usedList, ptr)
	if block == nil {
		c.logger.Errorf("realloc: unknown pointer %p", ptr)

		return nil, ErrUnknownPointer
	}

	newSizeAligned := alignUp(newSize, c.defaultAlignment)

	switch {
	case newSizeAligned == block.payloadSize:
		return ptr, nil

	case newSizeAligned < block.payloadSize:
		// splitBlock links the tail in after block, but block stays on the
		// used list while the tail goes to the free list.
		next := block.next
		if tail := splitBlock(block, newSizeAligned, c.defaultAlignment); tail != nil {
			block.next = next
			tail.owner = nil
			_ = pushFront(&c.freeList, tail)
		}

		return ptr, nil
	}

	// Grow: allocate fresh, copy, reclaim the old block, all inside the
	// one critical section this method already holds. The fresh payload is
	// at least newSizeAligned bytes, which exceeds the old payload here.
	fresh, err := c.alignedAllocLocked(c.defaultAlignment, newSize, moduleName)
	if err != nil {
		return nil, err
	}

	srcSlice := unsafe.Slice((*byte)(ptr), block.payloadSize)
	dstSlice := unsafe.Slice((*byte)(fresh), block.payloadSize)
	copy(dstSlice, srcSlice)

	removeBlock(&c.usedList, block)
	block.owner = nil
	_ = pushFront(&c.freeList, block)

	return fresh, nil
}

// Slice returns a []byte view over an allocation previously returned by
// Malloc/AlignedAlloc/Realloc, for callers that prefer not to juggle raw
// unsafe.Pointer values. It reports false if ptr is not a live allocation.
func (c *Context) Slice(ptr unsafe.Pointer) ([]byte, bool) {
	if c == nil || !c.IsInitialized() || ptr == nil {
		return nil, false
	}

	c.critical.Enter()
	defer c.critical.Exit()

	block := findBlockByAddress(c.usedList, ptr)
	if block == nil {
		return nil, false
	}

	return unsafe.Slice((*byte)(ptr), block.payloadSize), true
}
