package dmheap

import (
	"math/rand"
	"testing"
	"unsafe"
)

func newTestContext(t *testing.T, size int, alignment uintptr) *Context {
	t.Helper()

	ctx, err := NewContext(make([]byte, size), WithDefaultAlignment(alignment))
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	return ctx
}

func TestMallocBasic(t *testing.T) {
	ctx := newTestContext(t, 65536, 8)

	t.Run("ZeroSizeReturnsNilNoError", func(t *testing.T) {
		ptr, err := ctx.Malloc(0, "m")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if ptr != nil {
			t.Fatal("expected nil pointer for zero-size allocation")
		}
	})

	t.Run("TwoDistinctAlignedAllocations", func(t *testing.T) {
		a, err := ctx.Malloc(64, "m")
		if err != nil || a == nil {
			t.Fatalf("Malloc a: %v", err)
		}

		b, err := ctx.Malloc(64, "m")
		if err != nil || b == nil {
			t.Fatalf("Malloc b: %v", err)
		}

		if a == b {
			t.Fatal("expected distinct pointers")
		}

		if uintptr(a)%8 != 0 || uintptr(b)%8 != 0 {
			t.Fatal("expected 8-byte aligned pointers")
		}

		ctx.Free(a, false)
		ctx.Free(b, false)

		if err := ctx.ConcatenateFreeBlocks(); err != nil {
			t.Fatalf("ConcatenateFreeBlocks: %v", err)
		}

		large, err := ctx.Malloc(60000, "m")
		if err != nil || large == nil {
			t.Fatalf("Malloc large after concatenate: %v", err)
		}
	})
}

func TestAlignedAllocSmallAlignment(t *testing.T) {
	ctx := newTestContext(t, 65536, 8)

	p, err := ctx.AlignedAlloc(64, 128, "m")
	if err != nil || p == nil {
		t.Fatalf("AlignedAlloc: %v", err)
	}

	if uintptr(p)%64 != 0 {
		t.Fatalf("expected 64-byte aligned pointer, got %p", p)
	}

	data := unsafe.Slice((*byte)(p), 128)
	for i := range data {
		data[i] = 0xAA
	}

	if q, err := ctx.Malloc(64, "m"); err != nil || q == nil {
		t.Fatalf("follow-up Malloc failed: %v", err)
	}

	ctx.Free(p, false)
}

func TestAlignedAllocLargeAlignment(t *testing.T) {
	ctx := newTestContext(t, 65536, 8)

	p, err := ctx.AlignedAlloc(256, 512, "m")
	if err != nil || p == nil {
		t.Fatalf("AlignedAlloc: %v", err)
	}

	if uintptr(p)%256 != 0 {
		t.Fatalf("expected 256-byte aligned pointer, got %p", p)
	}

	data := unsafe.Slice((*byte)(p), 512)
	for i := range data {
		data[i] = 0xBB
	}

	q, err := ctx.Malloc(32, "m")
	if err != nil || q == nil {
		t.Fatalf("follow-up Malloc failed: %v", err)
	}

	ctx.Free(p, false)
	ctx.Free(q, false)
}

func TestFreeUnknownPointerIsRecoverable(t *testing.T) {
	ctx := newTestContext(t, 4096, 8)

	var stray byte

	ctx.Free(nil, false)
	ctx.Free(unsafe.Pointer(&stray), false)

	// The context must still be usable afterwards.
	if p, err := ctx.Malloc(16, "m"); err != nil || p == nil {
		t.Fatalf("Malloc after invalid Free failed: %v", err)
	}
}

func TestReallocPreservesPrefix(t *testing.T) {
	ctx := newTestContext(t, 65536, 8)

	p, err := ctx.Malloc(32, "m")
	if err != nil || p == nil {
		t.Fatalf("Malloc: %v", err)
	}

	src := unsafe.Slice((*byte)(p), 32)
	for i := range src {
		src[i] = byte(i)
	}

	grown, err := ctx.Realloc(p, 128, "m")
	if err != nil || grown == nil {
		t.Fatalf("Realloc grow: %v", err)
	}

	grownData := unsafe.Slice((*byte)(grown), 32)
	for i := range grownData {
		if grownData[i] != byte(i) {
			t.Fatalf("byte %d: expected %d, got %d", i, byte(i), grownData[i])
		}
	}
}

func TestReallocShrinkIsIdempotent(t *testing.T) {
	ctx := newTestContext(t, 65536, 8)

	p, err := ctx.Malloc(128, "m")
	if err != nil || p == nil {
		t.Fatalf("Malloc: %v", err)
	}

	shrunk, err := ctx.Realloc(p, 32, "m")
	if err != nil {
		t.Fatalf("Realloc shrink: %v", err)
	}

	if shrunk != p {
		t.Fatal("expected shrink-in-place to return the original pointer")
	}
}

func TestReallocUnknownPointer(t *testing.T) {
	ctx := newTestContext(t, 4096, 8)

	var stray byte

	_, err := ctx.Realloc(unsafe.Pointer(&stray), 16, "m")
	if err != ErrUnknownPointer {
		t.Fatalf("expected ErrUnknownPointer, got %v", err)
	}
}

func TestRoundTripFreeThenConcatenateRestoresCapacity(t *testing.T) {
	ctx := newTestContext(t, 65536, 8)

	p, err := ctx.Malloc(1024, "m")
	if err != nil || p == nil {
		t.Fatalf("Malloc: %v", err)
	}

	ctx.Free(p, false)

	if err := ctx.ConcatenateFreeBlocks(); err != nil {
		t.Fatalf("ConcatenateFreeBlocks: %v", err)
	}

	big, err := ctx.Malloc(60000, "m")
	if err != nil || big == nil {
		t.Fatalf("expected large allocation to succeed after concatenate: %v", err)
	}
}

func TestAllocateUntilExhaustedThenFreeHalfThenRealloc(t *testing.T) {
	ctx := newTestContext(t, 8192, 8)

	var ptrs []unsafe.Pointer

	for {
		p, err := ctx.Malloc(64, "m")
		if err != nil {
			if err != ErrOutOfMemory {
				t.Fatalf("unexpected error: %v", err)
			}

			break
		}

		if p == nil {
			break
		}

		ptrs = append(ptrs, p)
	}

	if len(ptrs) == 0 {
		t.Fatal("expected at least one successful allocation before exhaustion")
	}

	for i := 0; i < len(ptrs); i += 2 {
		ctx.Free(ptrs[i], true)
	}

	if _, err := ctx.Realloc(ptrs[1], 64, "m"); err != nil {
		t.Fatalf("Realloc on a still-live pointer should succeed: %v", err)
	}
}

// checkInvariants verifies the structural invariants against the live
// state of ctx: every byte of the region is covered by exactly one block,
// no address appears twice, no list node links to itself, and every module
// record has a backing used block.
func checkInvariants(t *testing.T, ctx *Context, regionLen int) {
	t.Helper()

	var coverage uintptr

	seen := make(map[uintptr]bool)

	for _, head := range []*blockHeader{ctx.freeList, ctx.usedList} {
		for current := head; current != nil; current = current.next {
			addr := uintptr(current.address())

			if seen[addr] {
				t.Fatalf("address %#x appears in more than one block", addr)
			}

			seen[addr] = true
			coverage += current.payloadSize + blockHeaderSize

			if current.next == current {
				t.Fatal("list contains a self-link")
			}
		}
	}

	if coverage != uintptr(regionLen) {
		t.Fatalf("coverage = %d, want %d (region size)", coverage, regionLen)
	}

	for current := ctx.moduleList; current != nil; current = current.next {
		if findBlockByAddress(ctx.usedList, current.address()) == nil {
			t.Fatalf("module record %q has no backing used block", current.name())
		}
	}
}

// TestInvariants walks a deterministic sequence of Malloc/Free/Realloc
// calls against a small heap and re-checks the structural invariants after
// every single operation.
func TestInvariants(t *testing.T) {
	const regionLen = 16384

	ctx := newTestContext(t, regionLen, 8)
	checkInvariants(t, ctx, regionLen)

	rng := rand.New(rand.NewSource(1))
	modules := []string{"", "alpha", "beta", "gamma"}

	var live []unsafe.Pointer

	for i := 0; i < 500; i++ {
		switch rng.Intn(3) {
		case 0:
			size := uintptr(1 + rng.Intn(512))
			module := modules[rng.Intn(len(modules))]

			p, err := ctx.Malloc(size, module)
			if err != nil && err != ErrOutOfMemory {
				t.Fatalf("step %d: unexpected Malloc error: %v", i, err)
			}

			if p != nil {
				if uintptr(p)%8 != 0 {
					t.Fatalf("step %d: misaligned pointer %p", i, p)
				}

				live = append(live, p)
			}

		case 1:
			if len(live) == 0 {
				continue
			}

			idx := rng.Intn(len(live))
			ctx.Free(live[idx], rng.Intn(2) == 0)
			live = append(live[:idx], live[idx+1:]...)

		case 2:
			if len(live) == 0 {
				continue
			}

			idx := rng.Intn(len(live))
			newSize := uintptr(1 + rng.Intn(512))

			p, err := ctx.Realloc(live[idx], newSize, modules[rng.Intn(len(modules))])
			if err != nil && err != ErrOutOfMemory {
				t.Fatalf("step %d: unexpected Realloc error: %v", i, err)
			}

			if p != nil {
				live[idx] = p
			}
		}

		checkInvariants(t, ctx, regionLen)
	}
}
