package dmheap

import "testing"

func TestRegisterModule(t *testing.T) {
	ctx := newTestContext(t, 4096, 8)

	t.Run("CreatesNewModule", func(t *testing.T) {
		if err := ctx.RegisterModule("net"); err != nil {
			t.Fatalf("RegisterModule: %v", err)
		}

		if findModuleByName(ctx.moduleList, "net") == nil {
			t.Fatal("expected module record for \"net\"")
		}
	})

	t.Run("DuplicateRegistrationSucceeds", func(t *testing.T) {
		if err := ctx.RegisterModule("net"); err != nil {
			t.Fatalf("expected duplicate registration to succeed, got %v", err)
		}
	})
}

func TestModuleIsolation(t *testing.T) {
	ctx := newTestContext(t, 65536, 8)

	if err := ctx.RegisterModule("a"); err != nil {
		t.Fatalf("RegisterModule a: %v", err)
	}

	if err := ctx.RegisterModule("b"); err != nil {
		t.Fatalf("RegisterModule b: %v", err)
	}

	pa, err := ctx.Malloc(128, "a")
	if err != nil || pa == nil {
		t.Fatalf("Malloc charged to a: %v", err)
	}

	pb, err := ctx.Malloc(128, "b")
	if err != nil || pb == nil {
		t.Fatalf("Malloc charged to b: %v", err)
	}

	ctx.UnregisterModule("a")

	if _, ok := ctx.Slice(pa); ok {
		t.Fatal("expected a's allocation to be reclaimed")
	}

	if _, ok := ctx.Slice(pb); !ok {
		t.Fatal("expected b's allocation to survive a's teardown")
	}

	if findModuleByName(ctx.moduleList, "a") != nil {
		t.Fatal("expected module record \"a\" to be gone")
	}

	if findModuleByName(ctx.moduleList, "b") == nil {
		t.Fatal("expected module record \"b\" to still be registered")
	}
}

func TestUnregisterUnknownModuleIsRecoverable(t *testing.T) {
	ctx := newTestContext(t, 4096, 8)

	ctx.UnregisterModule("ghost")

	if p, err := ctx.Malloc(16, "m"); err != nil || p == nil {
		t.Fatalf("context should remain usable: %v", err)
	}
}

func TestUnchargedAllocationSurvivesUnregister(t *testing.T) {
	ctx := newTestContext(t, 4096, 8)

	if err := ctx.RegisterModule("a"); err != nil {
		t.Fatalf("RegisterModule: %v", err)
	}

	uncharged, err := ctx.Malloc(32, "")
	if err != nil || uncharged == nil {
		t.Fatalf("Malloc uncharged: %v", err)
	}

	ctx.UnregisterModule("a")

	if _, ok := ctx.Slice(uncharged); !ok {
		t.Fatal("expected uncharged allocation to survive module teardown")
	}
}

func TestModuleNameTruncation(t *testing.T) {
	ctx, err := NewContext(make([]byte, 4096), WithMaxModuleName(4))
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	if err := ctx.RegisterModule("networking"); err != nil {
		t.Fatalf("RegisterModule: %v", err)
	}

	m := findModuleByName(ctx.moduleList, "netw")
	if m == nil {
		t.Fatal("expected truncated name \"netw\" to be registered")
	}

	// A second name sharing the same truncated prefix is the same module.
	if err := ctx.RegisterModule("networthy"); err != nil {
		t.Fatalf("RegisterModule: %v", err)
	}

	count := 0
	for cur := ctx.moduleList; cur != nil; cur = cur.next {
		count++
	}

	if count != 1 {
		t.Fatalf("expected a single module record after prefix-equal registrations, got %d", count)
	}
}
