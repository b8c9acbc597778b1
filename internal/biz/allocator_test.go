package biz

import (
	"context"
	"io"
	"strings"
	"testing"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// existsStore answers Exists from a script and rejects everything else.
type existsStore struct {
	script []bool
	calls  int
}

func (s *existsStore) Get(ctx context.Context, key string) (*StoredObject, error) {
	return nil, nil
}

func (s *existsStore) Put(ctx context.Context, obj *StoredObject) error { return nil }

func (s *existsStore) Exists(ctx context.Context, key string) (bool, error) {
	if s.calls < len(s.script) {
		occupied := s.script[s.calls]
		s.calls++
		return occupied, nil
	}
	s.calls++
	return true, nil
}

func testLogger() log.Logger {
	return log.NewStdLogger(io.Discard)
}

func TestAllocateCodeShape(t *testing.T) {
	a := NewCodeAllocator(&existsStore{script: []bool{false}}, testLogger())

	code, err := a.Allocate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(code) != codeLength {
		t.Errorf("expected %d characters, got %q", codeLength, code)
	}
	for _, c := range code {
		if !strings.ContainsRune(codeAlphabet, c) {
			t.Errorf("character %q outside alphabet", c)
		}
	}
}

func TestAllocateRetriesOnCollision(t *testing.T) {
	store := &existsStore{script: []bool{true, true, false}}
	a := NewCodeAllocator(store, testLogger())

	code, err := a.Allocate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code == "" {
		t.Fatal("expected a code")
	}
	if store.calls != 3 {
		t.Errorf("expected 3 existence checks, got %d", store.calls)
	}
}

func TestAllocateExhausted(t *testing.T) {
	a := NewCodeAllocator(&existsStore{}, testLogger())

	_, err := a.Allocate(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if reason := kerrors.Reason(err); reason != ReasonCodeExhausted {
		t.Errorf("expected %s, got %s", ReasonCodeExhausted, reason)
	}
	if code := kerrors.Code(err); code != 500 {
		t.Errorf("expected code 500, got %d", code)
	}
}

func TestAllocateNeverReturnsOccupied(t *testing.T) {
	store := newMemStore()
	a := NewCodeAllocator(store, testLogger())

	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		code, err := a.Allocate(context.Background())
		if err != nil {
			t.Fatalf("allocation %d: %v", i, err)
		}
		if seen[code] {
			t.Fatalf("allocation %d returned occupied code %s", i, code)
		}
		seen[code] = true
		if err := store.Put(context.Background(), &StoredObject{Key: code}); err != nil {
			t.Fatal(err)
		}
	}
}
