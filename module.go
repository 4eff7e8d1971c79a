package dmheap

import (
	"strings"
	"unsafe"
)

// moduleRecord is the bookkeeping object for a named subsystem. It is
// itself allocated out of the block engine and lives inside the managed
// region: moduleRecord is the fixed-layout header,
// and its name is stored as a variable-length run of bytes immediately
// following the header, inside the same carved block: the same
// header-then-payload shape every other block uses, just with the payload
// interpreted as a name instead of caller data.
type moduleRecord struct {
	next    *moduleRecord
	nameLen uint16
}

var moduleRecordHeaderSize = unsafe.Sizeof(moduleRecord{})

// moduleBlockSize returns the total bytes (header included) a module
// record with room for up to maxName bytes of name needs.
func moduleBlockSize(maxName int) uintptr {
	return moduleRecordHeaderSize + uintptr(maxName)
}

// newModuleRecord places a module record at addr and copies in name,
// truncated to maxName bytes.
func newModuleRecord(addr unsafe.Pointer, name string, maxName int) *moduleRecord {
	if len(name) > maxName {
		name = name[:maxName]
	}

	m := (*moduleRecord)(addr)
	m.next = nil
	m.nameLen = uint16(len(name))

	if len(name) > 0 {
		dst := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr)+moduleRecordHeaderSize)), len(name))
		copy(dst, name)
	}

	return m
}

// name returns the module's stored name.
func (m *moduleRecord) name() string {
	if m.nameLen == 0 {
		return ""
	}

	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(unsafe.Pointer(m))+moduleRecordHeaderSize)), m.nameLen)

	return string(src)
}

// address returns the address at which this record's block was carved,
// the same address findBlockByAddress matches against, since a module
// record's block has payloadBase() == this address.
func (m *moduleRecord) address() unsafe.Pointer {
	return unsafe.Pointer(m)
}

func pushModuleFront(head **moduleRecord, m *moduleRecord) {
	if head == nil || m == nil {
		return
	}

	m.next = *head
	*head = m
}

func removeModule(head **moduleRecord, m *moduleRecord) bool {
	if head == nil || *head == nil || m == nil {
		return false
	}

	if *head == m {
		*head = m.next
		m.next = nil

		return true
	}

	current := *head
	for current.next != nil {
		if current.next == m {
			current.next = m.next
			m.next = nil

			return true
		}

		current = current.next
	}

	return false
}

// findModuleByName compares stored names against name in full; callers
// clamp name to the context's cap first, so a stored (truncated) name and
// an over-long probe of the same prefix compare equal.
func findModuleByName(head *moduleRecord, name string) *moduleRecord {
	for current := head; current != nil; current = current.next {
		if current.name() == name {
			return current
		}
	}

	return nil
}

// clampModuleName truncates name to the context's retained-name cap, so
// lookups and stored names agree on the comparison bound.
func (c *Context) clampModuleName(name string) string {
	if len(name) > c.maxModuleName {
		return name[:c.maxModuleName]
	}

	return name
}

// getOrCreateModule finds the named module record, or carves one out of
// the free list using the same find-fit + split path ordinary allocations
// use.
func (c *Context) getOrCreateModule(name string) (*moduleRecord, error) {
	name = c.clampModuleName(name)

	if m := findModuleByName(c.moduleList, name); m != nil {
		return m, nil
	}

	size := moduleBlockSize(c.maxModuleName)

	block := findSuitableBlock(c.freeList, size, c.defaultAlignment)
	if block == nil {
		return nil, ErrOutOfMemory
	}

	removeBlock(&c.freeList, block)

	if tail := splitBlock(block, size, c.defaultAlignment); tail != nil {
		_ = pushFront(&c.freeList, tail)
	}

	module := newModuleRecord(block.payloadBase(), name, c.maxModuleName)

	if err := pushFront(&c.usedList, block); err != nil {
		return nil, err
	}

	pushModuleFront(&c.moduleList, module)

	return module, nil
}

// RegisterModule creates a module record for name if one does not already
// exist. Registering an existing name is not an error: it is logged at
// warning severity and treated as success.
func (c *Context) RegisterModule(name string) error {
	if c == nil {
		return ErrNotInitialized
	}

	c.critical.Enter()
	defer c.critical.Exit()

	if !c.isInitializedUnlocked() {
		return ErrNotInitialized
	}

	if findModuleByName(c.moduleList, c.clampModuleName(name)) != nil {
		c.logger.Warnf("module %q is already registered", name)

		return nil
	}

	if _, err := c.getOrCreateModule(name); err != nil {
		c.logger.Errorf("failed to register module %q: %v", name, err)

		return err
	}

	c.logger.Infof("module %q registered", name)

	return nil
}

// UnregisterModule reclaims every block owned by name and deletes its
// module record. A missing name is a recoverable fault: a warning is
// logged and nothing is mutated.
//
// The caller's name is copied before any reclamation happens, because it
// may live inside a buffer this very call is about to free back to the
// allocator. Go string immutability already protects against most
// aliasing; strings.Clone closes the remaining unsafe-string case, where
// the string header points into the managed region itself.
func (c *Context) UnregisterModule(name string) {
	if c == nil {
		return
	}

	nameCopy := strings.Clone(name)

	c.critical.Enter()
	defer c.critical.Exit()

	if !c.isInitializedUnlocked() {
		return
	}

	module := findModuleByName(c.moduleList, c.clampModuleName(nameCopy))
	if module == nil {
		c.logger.Warnf("module %q is not registered", nameCopy)

		return
	}

	c.releaseModuleBlocks(module)
	removeModule(&c.moduleList, module)

	if block := findBlockByAddress(c.usedList, module.address()); block != nil {
		removeBlock(&c.usedList, block)
		_ = pushFront(&c.freeList, block)
	}

	c.logger.Infof("module %q unregistered", nameCopy)
}

// releaseModuleBlocks moves every used block owned by module to the free
// list, without coalescing.
func (c *Context) releaseModuleBlocks(module *moduleRecord) {
	var prev *blockHeader

	current := c.usedList

	for current != nil {
		next := current.next

		if current.owner == module {
			if prev == nil {
				c.usedList = next
			} else {
				_ = setNext(prev, next)
			}

			current.owner = nil
			_ = pushFront(&c.freeList, current)
		} else {
			prev = current
		}

		current = next
	}
}
