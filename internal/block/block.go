package block

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// CurrentBlock block of t
func CurrentBlock(t time.Time, secondsPerBlock, genesis int64) (int64, error) {
	if secondsPerBlock <= 0 {
		return 0, errors.New("secondsPerBlock should not be less than or equal zero")
	}

	seconds := t.UTC().Unix() - genesis
	if seconds < 0 {
		return 0, errors.New("invalid blocks")
	}

	return seconds / secondsPerBlock, nil
}

// Manual block clock moved by hand, used by simulations and tests
type Manual struct {
	block int64
}

// NewManual manual clock starting at block
func NewManual(block int64) *Manual {
	return &Manual{block: block}
}

// CurrentBlock current block
func (m *Manual) CurrentBlock(ctx context.Context) (int64, error) {
	return atomic.LoadInt64(&m.block), nil
}

// Advance moves the clock n blocks forward
func (m *Manual) Advance(n int64) int64 {
	return atomic.AddInt64(&m.block, n)
}

// Set jumps to block
func (m *Manual) Set(block int64) {
	atomic.StoreInt64(&m.block, block)
}
