package registry

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(b byte) common.Address {
	return common.BytesToAddress([]byte{b})
}

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func TestInsertRejectsNonPositive(t *testing.T) {
	r := New(4)
	assert.ErrorIs(t, r.Insert(addr(1), decimal.Zero), ErrInvalidValue)
	assert.ErrorIs(t, r.Insert(addr(1), d(-1)), ErrInvalidValue)
	assert.Equal(t, 0, r.Len())
}

func TestMaxAndTieBreak(t *testing.T) {
	r := New(0)
	_, _, ok := r.Max()
	assert.False(t, ok)

	require.Nil(t, r.Insert(addr(1), d(10)))
	require.Nil(t, r.Insert(addr(2), d(30)))
	require.Nil(t, r.Insert(addr(3), d(30)))
	require.Nil(t, r.Insert(addr(4), d(5)))

	account, value, ok := r.Max()
	assert.True(t, ok)
	assert.Equal(t, addr(3), account, "ties resolve to the larger address")
	assert.True(t, value.Equal(d(30)))

	account, _, _ = r.Min()
	assert.Equal(t, addr(4), account)

	below, ok := r.Below(Item{Account: addr(3), Value: d(30)})
	assert.True(t, ok)
	assert.Equal(t, addr(2), below.Account)

	below, ok = r.Below(Item{Account: addr(4), Value: d(5)})
	assert.False(t, ok)
	assert.Equal(t, common.Address{}, below.Account)
}

func TestCapAndOverflow(t *testing.T) {
	r := New(2)
	require.Nil(t, r.Insert(addr(1), d(10)))
	require.Nil(t, r.Insert(addr(2), d(20)))

	// not above the live minimum, buffered
	require.Nil(t, r.Insert(addr(3), d(10)))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 1, r.BufferLen())
	assert.False(t, r.IsLive(addr(3)))

	// displaces the minimum
	require.Nil(t, r.Insert(addr(4), d(15)))
	assert.True(t, r.IsLive(addr(4)))
	assert.False(t, r.IsLive(addr(1)))
	assert.Equal(t, 2, r.BufferLen())

	v, ok := r.Get(addr(1))
	assert.True(t, ok)
	assert.True(t, v.Equal(d(10)))

	// removing a live account promotes the oldest buffered one (addr 3)
	r.Update(addr(2), decimal.Zero)
	assert.True(t, r.IsLive(addr(3)))
	assert.False(t, r.IsLive(addr(1)))
	assert.Equal(t, 1, r.BufferLen())

	r.Update(addr(4), decimal.Zero)
	assert.True(t, r.IsLive(addr(1)))
	assert.Equal(t, 0, r.BufferLen())
	assert.Equal(t, 2, r.Len())
}

func TestUpdateInPlace(t *testing.T) {
	r := New(0)
	r.Update(addr(1), d(10))
	r.Update(addr(2), d(20))
	r.Update(addr(1), d(25))

	account, value, _ := r.Max()
	assert.Equal(t, addr(1), account)
	assert.True(t, value.Equal(d(25)))

	// same value, untouched
	r.Update(addr(1), d(25))
	assert.Equal(t, 2, r.Len())

	r.Update(addr(1), decimal.Zero)
	_, ok := r.Get(addr(1))
	assert.False(t, ok)

	// removing twice is fine
	r.Remove(addr(1))
	assert.Equal(t, 1, r.Len())
}

func TestDeterministic(t *testing.T) {
	run := func() []Entry {
		r := New(3)
		for i := 1; i <= 10; i++ {
			r.Update(addr(byte(i)), d(int64((i*7)%5+1)))
		}
		r.Update(addr(2), decimal.Zero)
		r.Update(addr(9), d(100))
		return r.Entries()
	}

	assert.Equal(t, run(), run())
}

func TestCloneIsolation(t *testing.T) {
	r := New(2)
	r.Update(addr(1), d(10))
	r.Update(addr(2), d(20))

	c := r.Clone()
	c.Update(addr(3), d(30))
	c.Update(addr(1), decimal.Zero)

	assert.True(t, r.IsLive(addr(1)))
	assert.False(t, r.IsLive(addr(3)))
	assert.Equal(t, 0, r.BufferLen())
	assert.True(t, c.IsLive(addr(3)))
}

func TestRestore(t *testing.T) {
	r := New(2)
	for i := 1; i <= 5; i++ {
		r.Update(addr(byte(i)), d(int64(i)))
	}

	restored := Restore(2, r.Entries())
	assert.Equal(t, r.Entries(), restored.Entries())

	// buffer order survives the round trip
	r.Update(addr(5), decimal.Zero)
	restored.Update(addr(5), decimal.Zero)
	assert.Equal(t, r.Entries(), restored.Entries())
}

func TestSetMaxSize(t *testing.T) {
	r := New(0)
	for i := 1; i <= 4; i++ {
		r.Update(addr(byte(i)), d(int64(i)))
	}

	r.SetMaxSize(2)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 2, r.BufferLen())
	assert.True(t, r.IsLive(addr(4)))
	assert.True(t, r.IsLive(addr(3)))

	r.SetMaxSize(0)
	assert.Equal(t, 4, r.Len())
	assert.Equal(t, 0, r.BufferLen())
}
