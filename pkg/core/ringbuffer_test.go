package core

import (
	"errors"
	"testing"
)

func TestRingBufferRejectsBadCapacity(t *testing.T) {
	for _, c := range []int{0, -1} {
		if _, err := NewRingBuffer[int](c); !errors.Is(err, ErrInvalidCapacity) {
			t.Fatalf("capacity %d: err = %v, want ErrInvalidCapacity", c, err)
		}
	}
}

func TestRingBufferDetectsWraparound(t *testing.T) {
	b, err := NewRingBuffer[string](4)
	if err != nil {
		t.Fatal(err)
	}
	b.Put(1, "a")
	if v, ok := b.Get(1); !ok || v != "a" {
		t.Fatalf("Get(1) = %q, %v", v, ok)
	}

	b.Put(5, "b") // 与 1 同槽
	if _, ok := b.Get(1); ok {
		t.Fatalf("stale tick 1 still readable after overwrite")
	}
	if v, ok := b.Get(5); !ok || v != "b" {
		t.Fatalf("Get(5) = %q, %v", v, ok)
	}
	if _, ok := b.Get(9); ok {
		t.Fatalf("future tick 9 readable from slot holding 5")
	}
	if _, ok := b.Get(2); ok {
		t.Fatalf("empty slot readable")
	}
}

func TestRingBufferIndexNegativeTick(t *testing.T) {
	b, _ := NewRingBuffer[int](BufferSize)
	if got := b.Index(-1); got != BufferSize-1 {
		t.Fatalf("Index(-1) = %d, want %d", got, BufferSize-1)
	}
	if got := b.Index(BufferSize + 3); got != 3 {
		t.Fatalf("Index(N+3) = %d, want 3", got)
	}
}

func TestRingBufferReset(t *testing.T) {
	b, _ := NewRingBuffer[int](8)
	b.Put(3, 30)
	b.Reset()
	if b.Has(3) {
		t.Fatalf("Has(3) after Reset")
	}
}
