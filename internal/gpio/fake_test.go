package gpio

import (
	"errors"
	"testing"
)

func TestFakeLineLevel(t *testing.T) {
	f := NewFakeLine(true)

	v, err := f.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if !v {
		t.Error("expected initial level high")
	}

	f.SetLevel(false)
	v, err = f.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v {
		t.Error("expected level low after SetLevel(false)")
	}

	if f.Reads() != 2 {
		t.Errorf("Reads: got %d, want 2", f.Reads())
	}
}

func TestFakeLineEdgeDelivery(t *testing.T) {
	f := NewFakeLine(true)

	edges := 0
	f.Edge() // no handler yet: discarded
	f.SetHandler(func() { edges++ })

	f.Edge()
	f.Bounce(3)
	if edges != 4 {
		t.Errorf("edges: got %d, want 4", edges)
	}

	f.SetHandler(nil)
	f.Edge()
	if edges != 4 {
		t.Errorf("edges after handler removed: got %d, want 4", edges)
	}
}

func TestFakeLineReadError(t *testing.T) {
	f := NewFakeLine(true)
	f.ReadError = errors.New("boom")

	if _, err := f.Value(); err == nil {
		t.Error("expected read error")
	}
}

func TestFakeLineClose(t *testing.T) {
	f := NewFakeLine(true)
	edges := 0
	f.SetHandler(func() { edges++ })

	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !f.Closed() {
		t.Error("expected Closed=true")
	}

	f.Edge()
	if edges != 0 {
		t.Error("handler must not fire after Close")
	}
	if _, err := f.Value(); err == nil {
		t.Error("expected error reading a closed line")
	}
}
