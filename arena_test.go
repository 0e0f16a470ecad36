package nbody

import (
	"errors"
	"testing"
)

func TestArenaAllocAndReset(t *testing.T) {
	a, err := NewArena(4)
	if err != nil {
		t.Fatalf("NewArena: %v", err)
	}
	for i := 0; i < 4; i++ {
		idx, err := a.Alloc()
		if err != nil {
			t.Fatalf("Alloc %d: %v", i, err)
		}
		if idx != int32(i) {
			t.Errorf("Alloc %d: got index %d, want %d", i, idx, i)
		}
	}
	if _, err := a.Alloc(); !errors.Is(err, ErrArenaExhausted) {
		t.Errorf("Alloc on full arena: got %v, want ErrArenaExhausted", err)
	}

	a.Reset()
	if a.Used() != 0 {
		t.Errorf("Used() after Reset = %d, want 0", a.Used())
	}
	if _, err := a.Alloc(); err != nil {
		t.Errorf("Alloc after Reset: %v", err)
	}
}

func TestArenaGrowPreservesContents(t *testing.T) {
	a, err := NewArena(2)
	if err != nil {
		t.Fatalf("NewArena: %v", err)
	}
	idx, _ := a.Alloc()
	a.Node(idx).Mass = 7.5

	a.Grow()
	if a.Capacity() != 4 {
		t.Errorf("Capacity() after Grow = %d, want 4", a.Capacity())
	}
	if got := a.Node(idx).Mass; got != 7.5 {
		t.Errorf("Node(%d).Mass after Grow = %g, want 7.5", idx, got)
	}
}

func TestNewArenaRejectsNonPositiveCapacity(t *testing.T) {
	if _, err := NewArena(0); !errors.Is(err, ErrArgumentInvalid) {
		t.Errorf("NewArena(0): got %v, want ErrArgumentInvalid", err)
	}
	if _, err := NewArena(-1); !errors.Is(err, ErrArgumentInvalid) {
		t.Errorf("NewArena(-1): got %v, want ErrArgumentInvalid", err)
	}
}
