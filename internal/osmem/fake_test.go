package osmem

import "testing"

func TestFakeProviderExtendBreak(t *testing.T) {
	f := NewFakeProvider(64)

	base1, ok := f.ExtendBreak(16)
	if !ok {
		t.Fatal("ExtendBreak(16) failed")
	}

	base2, ok := f.ExtendBreak(16)
	if !ok {
		t.Fatal("second ExtendBreak(16) failed")
	}

	if base2 != base1+16 {
		t.Errorf("expected contiguous bump allocation, got base1=%#x base2=%#x", base1, base2)
	}

	if f.BreakUsed() != 32 {
		t.Errorf("expected 32 bytes used, got %d", f.BreakUsed())
	}
}

func TestFakeProviderExtendBreakExhaustion(t *testing.T) {
	f := NewFakeProvider(16)

	if _, ok := f.ExtendBreak(16); !ok {
		t.Fatal("ExtendBreak within capacity should succeed")
	}

	if _, ok := f.ExtendBreak(1); ok {
		t.Error("ExtendBreak beyond capacity should fail")
	}
}

func TestFakeProviderFailNextExtend(t *testing.T) {
	f := NewFakeProvider(1024)

	f.FailNextExtend()

	if _, ok := f.ExtendBreak(8); ok {
		t.Error("ExtendBreak should fail once after FailNextExtend")
	}

	if _, ok := f.ExtendBreak(8); !ok {
		t.Error("ExtendBreak should succeed again after the forced failure is consumed")
	}
}

func TestFakeProviderMapAndUnmap(t *testing.T) {
	f := NewFakeProvider(64)

	base, ok := f.MapAnon(128)
	if !ok {
		t.Fatal("MapAnon failed")
	}

	if err := f.Unmap(base, 128); err != nil {
		t.Errorf("Unmap of a mapped region should succeed, got %v", err)
	}

	if err := f.Unmap(base, 128); err == nil {
		t.Error("Unmap of an already-unmapped region should fail")
	}
}
