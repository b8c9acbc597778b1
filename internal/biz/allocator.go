package biz

import (
	"context"
	"crypto/rand"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	codeAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	codeLength    = 8
	allocAttempts = 10
)

// CodeAllocator hands out short random storage codes, consulting the
// store to avoid collisions. The check-then-put window is left open on
// purpose: with 62^8 codes a concurrent clash is rarer than the cost
// of coordinating allocations.
type CodeAllocator struct {
	store ObjectStore
	log   *log.Helper
}

// NewCodeAllocator creates a CodeAllocator over the given store.
func NewCodeAllocator(store ObjectStore, logger log.Logger) *CodeAllocator {
	return &CodeAllocator{store: store, log: log.NewHelper(logger)}
}

// Allocate returns a code not currently present in the store. It gives
// up after a fixed number of collisions with ErrCodeExhausted.
func (a *CodeAllocator) Allocate(ctx context.Context) (string, error) {
	for i := 0; i < allocAttempts; i++ {
		code, err := randomCode(codeLength)
		if err != nil {
			return "", err
		}
		exists, err := a.store.Exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
		a.log.Warnf("code collision on %s, retrying", code)
	}
	return "", ErrCodeExhausted
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}
	return string(buf), nil
}
