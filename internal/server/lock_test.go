package server

import (
	"context"
	"testing"
)

func TestMemoryLockerMutualExclusion(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	release, ok, err := l.Acquire(ctx, "comp-1")
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}

	// Same key is held; a different key is independent.
	_, ok, err = l.Acquire(ctx, "comp-1")
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("second acquire on held key should fail")
	}

	release2, ok, err := l.Acquire(ctx, "comp-2")
	if err != nil || !ok {
		t.Fatalf("acquire on other key: ok=%v err=%v", ok, err)
	}
	release2()

	// After release the key is free again.
	release()
	release3, ok, err := l.Acquire(ctx, "comp-1")
	if err != nil || !ok {
		t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
	}
	release3()
}
