package dmheap

import "unsafe"

// blockHeader is the prefix of every block, free or used, embedded directly
// in the managed region rather than kept in a side table: the region
// alternates header/payload/header/payload, so splitting and merging are
// pure pointer arithmetic.
//
// next and owner are ordinary Go pointers, but every blockHeader and every
// moduleRecord is placed inside the single backing buffer a *Context holds
// a slice reference to, so the whole region stays reachable for as long as
// the Context does; nothing here ever points to a separately GC-managed
// object that could be collected out from under it.
type blockHeader struct {
	next        *blockHeader
	payloadSize uintptr
	owner       *moduleRecord
}

// blockHeaderSize is the per-block metadata overhead.
var blockHeaderSize = unsafe.Sizeof(blockHeader{})

// alignUp rounds size up to the nearest multiple of alignment. alignment
// must be a power of two; callers validate this at the public boundary.
func alignUp(size, alignment uintptr) uintptr {
	return (size + alignment - 1) &^ (alignment - 1)
}

// alignPointerUp rounds the address of p up to the nearest multiple of
// alignment.
func alignPointerUp(p unsafe.Pointer, alignment uintptr) unsafe.Pointer {
	return unsafe.Pointer(alignUp(uintptr(p), alignment))
}

// address returns the header's own address, the start of the block.
func (h *blockHeader) address() unsafe.Pointer {
	return unsafe.Pointer(h)
}

// payloadBase is the address immediately following this header: the
// pointer handed to callers.
func (h *blockHeader) payloadBase() unsafe.Pointer {
	return unsafe.Pointer(uintptr(h.address()) + blockHeaderSize)
}

// headerFromPayload recovers a block's header from a payload pointer
// previously handed to a caller. The header always sits directly before the
// payload regardless of alignment padding, so no side table of block
// addresses is kept. Free and Realloc do not use it: they locate a block by
// scanning the used list with findBlockByAddress, so a foreign pointer is
// detected rather than dereferenced.
func headerFromPayload(ptr unsafe.Pointer) *blockHeader {
	return (*blockHeader)(unsafe.Pointer(uintptr(ptr) - blockHeaderSize))
}

// createBlock places a new block header at addr, covering totalSize bytes
// (header included). It does not add the block to any list.
func createBlock(addr unsafe.Pointer, totalSize uintptr) *blockHeader {
	h := (*blockHeader)(addr)
	h.next = nil
	h.payloadSize = totalSize - blockHeaderSize
	h.owner = nil

	return h
}

// setNext assigns b.next, rejecting a self-link. A block pointing at itself
// means a corrupted call site (typically a double-free); the policy here is
// a soft error rather than an abort, so the one operation fails instead of
// the host process.
func setNext(b, next *blockHeader) error {
	if b == nil {
		return nil
	}

	if next == b {
		return ErrInternalInvariant
	}

	b.next = next

	return nil
}

// pushFront prepends b to the list headed by *head.
func pushFront(head **blockHeader, b *blockHeader) error {
	if head == nil || b == nil {
		return nil
	}

	if err := setNext(b, *head); err != nil {
		return err
	}

	*head = b

	return nil
}

// removeBlock unlinks b from the list headed by *head, if present. It
// reports whether b was found.
func removeBlock(head **blockHeader, b *blockHeader) bool {
	if head == nil || *head == nil || b == nil {
		return false
	}

	if *head == b {
		*head = b.next
		b.next = nil

		return true
	}

	current := *head
	for current.next != nil {
		if current.next == b {
			_ = setNext(current, b.next)
			b.next = nil

			return true
		}

		current = current.next
	}

	return false
}

// findSuitableBlock performs a first-fit search: the first free block whose
// payload is large enough to hold size bytes once the alignment padding
// (and, if any, the padding's own header) is accounted for. The strict >
// keeps room for a minimum post-split tail.
func findSuitableBlock(head *blockHeader, size, alignment uintptr) *blockHeader {
	for current := head; current != nil; current = current.next {
		aligned := alignPointerUp(current.payloadBase(), alignment)
		pad := uintptr(aligned) - uintptr(current.payloadBase())

		minSize := size
		if pad > 0 {
			minSize += pad + blockHeaderSize
		}

		if current.payloadSize > minSize {
			return current
		}
	}

	return nil
}

// findBlockByAddress scans a list for the block whose payload base equals
// ptr.
func findBlockByAddress(head *blockHeader, ptr unsafe.Pointer) *blockHeader {
	for current := head; current != nil; current = current.next {
		if current.payloadBase() == ptr {
			return current
		}
	}

	return nil
}

// splitBlock splits b so that its payload becomes exactly
// alignUp(targetSize, defaultAlignment) bytes, returning the newly
// fabricated tail block, or nil if the remainder is too small to host a
// header plus at least one payload byte. The tail is not placed on any
// list; the caller decides.
func splitBlock(b *blockHeader, targetSize, defaultAlignment uintptr) *blockHeader {
	sAligned := alignUp(targetSize, defaultAlignment)

	if b.payloadSize < sAligned+blockHeaderSize+1 {
		return nil
	}

	newAddr := unsafe.Pointer(uintptr(b.payloadBase()) + sAligned)
	remaining := b.payloadSize - sAligned

	newBlock := createBlock(newAddr, remaining)
	newBlock.owner = b.owner
	newBlock.next = b.next

	b.next = newBlock
	b.payloadSize = sAligned

	return newBlock
}

// mergeBlocks absorbs second into first iff they are byte-adjacent in the
// region. It only edits first: it grows first's payload over second and
// relinks first.next to second.next, which leaves the list intact when
// second is first's immediate successor; for any other second the caller
// restores first.next and unlinks second itself. Reports whether the merge
// happened.
func mergeBlocks(first, second *blockHeader) bool {
	if first == nil || second == nil {
		return false
	}

	expected := uintptr(first.payloadBase()) + first.payloadSize
	if uintptr(second.address()) != expected {
		return false
	}

	first.payloadSize += blockHeaderSize + second.payloadSize
	_ = setNext(first, second.next)

	return true
}
