package ingest

import (
	"testing"
)

func TestBuffer_SendReceive(t *testing.T) {
	b := NewBuffer[int](2)

	for i := 1; i <= 5; i++ {
		if !b.Send(i) {
			t.Fatalf("Send(%d) failed", i)
		}
	}
	if b.Len() != 5 {
		t.Errorf("Len() = %d, want 5 (buffer should have grown)", b.Len())
	}

	for i := 1; i <= 5; i++ {
		got, ok := b.TryReceive()
		if !ok || got != i {
			t.Errorf("TryReceive() = %d,%v, want %d (FIFO order)", got, ok, i)
		}
	}
	if _, ok := b.TryReceive(); ok {
		t.Error("TryReceive on empty buffer should fail")
	}
}

func TestBuffer_Drain(t *testing.T) {
	b := NewBuffer[string](4)
	b.Send("a")
	b.Send("b")
	b.Send("c")

	got := b.Drain(2)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Drain(2) = %v", got)
	}

	rest := b.Drain(0)
	if len(rest) != 1 || rest[0] != "c" {
		t.Errorf("Drain(0) = %v, want remaining item", rest)
	}
	if b.Drain(0) != nil {
		t.Error("Drain on empty buffer should return nil")
	}
}

func TestBuffer_Close(t *testing.T) {
	b := NewBuffer[int](2)
	b.Send(1)
	b.Close()

	if b.Send(2) {
		t.Error("Send after Close should fail")
	}
	if got, ok := b.TryReceive(); !ok || got != 1 {
		t.Error("pending items should stay drainable after Close")
	}
}

func TestBuffer_GrowPreservesWrappedOrder(t *testing.T) {
	b := NewBuffer[int](4)

	// Wrap the ring: fill, drain two, refill past the old tail.
	for i := 0; i < 4; i++ {
		b.Send(i)
	}
	b.TryReceive()
	b.TryReceive()
	for i := 4; i < 9; i++ {
		b.Send(i)
	}

	want := []int{2, 3, 4, 5, 6, 7, 8}
	got := b.Drain(0)
	if len(got) != len(want) {
		t.Fatalf("Drain = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Drain[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
