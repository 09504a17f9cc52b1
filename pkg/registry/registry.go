// Package registry ranks the accounts of one market side by balance.
//
// The live set is bounded by a maximum population. When it is full, a new
// balance strictly greater than the live minimum displaces that minimum into a
// FIFO overflow buffer; anything else waits in the buffer. Buffered accounts
// are promoted oldest first as soon as the live set has room again.
package registry

import (
	"bytes"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/btree"
	"github.com/shopspring/decimal"
)

const degree = 16

// ErrInvalidValue a tracked balance must be positive
var ErrInvalidValue = errors.New("registry: value must be positive")

// Item a tracked account and its balance
type Item struct {
	Account common.Address
	Value   decimal.Decimal
}

// Less orders by value, ties broken by account
func (i Item) Less(than Item) bool {
	if c := i.Value.Cmp(than.Value); c != 0 {
		return c < 0
	}

	return bytes.Compare(i.Account[:], than.Account[:]) < 0
}

type buffered struct {
	Item
	seq uint64
}

func (b buffered) less(than buffered) bool {
	return b.seq < than.seq
}

// Registry ordered position registry
type Registry struct {
	maxSize int
	seq     uint64

	live  *btree.BTreeG[Item]
	index map[common.Address]decimal.Decimal

	buffer   *btree.BTreeG[buffered]
	overflow map[common.Address]buffered
}

// New registry holding at most maxSize live accounts, maxSize <= 0 means unbounded
func New(maxSize int) *Registry {
	return &Registry{
		maxSize:  maxSize,
		live:     btree.NewG(degree, Item.Less),
		index:    make(map[common.Address]decimal.Decimal),
		buffer:   btree.NewG(degree, buffered.less),
		overflow: make(map[common.Address]buffered),
	}
}

// Clone copy of the registry, the trees are copied lazily
func (r *Registry) Clone() *Registry {
	c := &Registry{
		maxSize:  r.maxSize,
		seq:      r.seq,
		live:     r.live.Clone(),
		index:    make(map[common.Address]decimal.Decimal, len(r.index)),
		buffer:   r.buffer.Clone(),
		overflow: make(map[common.Address]buffered, len(r.overflow)),
	}

	for k, v := range r.index {
		c.index[k] = v
	}

	for k, v := range r.overflow {
		c.overflow[k] = v
	}

	return c
}

// MaxSize live population cap
func (r *Registry) MaxSize() int {
	return r.maxSize
}

func (r *Registry) full() bool {
	return r.maxSize > 0 && r.live.Len() >= r.maxSize
}

// Len live population
func (r *Registry) Len() int {
	return r.live.Len()
}

// BufferLen overflow population
func (r *Registry) BufferLen() int {
	return r.buffer.Len()
}

// Get tracked balance of account, live or buffered
func (r *Registry) Get(account common.Address) (decimal.Decimal, bool) {
	if v, ok := r.index[account]; ok {
		return v, true
	}

	if b, ok := r.overflow[account]; ok {
		return b.Value, true
	}

	return decimal.Zero, false
}

// IsLive reports whether account is in the live set
func (r *Registry) IsLive(account common.Address) bool {
	_, ok := r.index[account]
	return ok
}

// Insert tracks account with value, replacing any previous entry
func (r *Registry) Insert(account common.Address, value decimal.Decimal) error {
	if !value.IsPositive() {
		return ErrInvalidValue
	}

	r.Remove(account)
	item := Item{Account: account, Value: value}

	if !r.full() {
		r.insertLive(item)
		return nil
	}

	lowest, _ := r.live.Min()
	if value.GreaterThan(lowest.Value) {
		r.removeLive(lowest)
		r.pushBuffer(lowest)
		r.insertLive(item)
		return nil
	}

	r.pushBuffer(item)
	return nil
}

// Remove drops account, removing a non-member is a no-op
func (r *Registry) Remove(account common.Address) {
	if v, ok := r.index[account]; ok {
		r.removeLive(Item{Account: account, Value: v})
		return
	}

	if b, ok := r.overflow[account]; ok {
		r.buffer.Delete(b)
		delete(r.overflow, account)
	}
}

// Update sets the tracked value of account, zero removes it. Afterwards one
// buffered account is promoted if the live set has room.
func (r *Registry) Update(account common.Address, value decimal.Decimal) {
	current, tracked := r.Get(account)
	switch {
	case tracked && current.Equal(value):
	case value.IsPositive():
		_ = r.Insert(account, value)
	default:
		r.Remove(account)
	}

	r.promote()
}

// Max live account with the largest balance
func (r *Registry) Max() (common.Address, decimal.Decimal, bool) {
	item, ok := r.live.Max()
	return item.Account, item.Value, ok
}

// Min live account with the smallest balance
func (r *Registry) Min() (common.Address, decimal.Decimal, bool) {
	item, ok := r.live.Min()
	return item.Account, item.Value, ok
}

// Below largest live item strictly ordered before pivot
func (r *Registry) Below(pivot Item) (Item, bool) {
	var (
		found Item
		ok    bool
	)

	r.live.DescendLessOrEqual(pivot, func(item Item) bool {
		if item.Account == pivot.Account && item.Value.Equal(pivot.Value) {
			return true
		}

		found, ok = item, true
		return false
	})

	return found, ok
}

// Descend walks live items from the largest balance down until fn returns false
func (r *Registry) Descend(fn func(item Item) bool) {
	r.live.Descend(fn)
}

// SetMaxSize changes the population cap, demoting the smallest live items or promoting buffered ones
func (r *Registry) SetMaxSize(maxSize int) {
	r.maxSize = maxSize
	for r.maxSize > 0 && r.live.Len() > r.maxSize {
		lowest, _ := r.live.Min()
		r.removeLive(lowest)
		r.pushBuffer(lowest)
	}

	for !r.full() && r.buffer.Len() > 0 {
		r.promote()
	}
}

// Entry dump row, see Entries
type Entry struct {
	Account  common.Address
	Value    decimal.Decimal
	Buffered bool
	Seq      uint64
}

// Entries live items by descending balance followed by buffered items oldest first
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, 0, r.live.Len()+r.buffer.Len())
	r.live.Descend(func(item Item) bool {
		entries = append(entries, Entry{Account: item.Account, Value: item.Value})
		return true
	})

	r.buffer.Ascend(func(b buffered) bool {
		entries = append(entries, Entry{Account: b.Account, Value: b.Value, Buffered: true, Seq: b.seq})
		return true
	})

	return entries
}

// Restore rebuilds a registry from Entries output
func Restore(maxSize int, entries []Entry) *Registry {
	r := New(maxSize)
	for _, e := range entries {
		if !e.Value.IsPositive() {
			continue
		}

		item := Item{Account: e.Account, Value: e.Value}
		if e.Buffered {
			b := buffered{Item: item, seq: e.Seq}
			r.buffer.ReplaceOrInsert(b)
			r.overflow[e.Account] = b
			if e.Seq >= r.seq {
				r.seq = e.Seq + 1
			}
			continue
		}

		r.insertLive(item)
	}

	return r
}

func (r *Registry) promote() {
	if r.full() {
		return
	}

	b, ok := r.buffer.DeleteMin()
	if !ok {
		return
	}

	delete(r.overflow, b.Account)
	r.insertLive(b.Item)
}

func (r *Registry) insertLive(item Item) {
	r.live.ReplaceOrInsert(item)
	r.index[item.Account] = item.Value
}

func (r *Registry) removeLive(item Item) {
	r.live.Delete(item)
	delete(r.index, item.Account)
}

func (r *Registry) pushBuffer(item Item) {
	b := buffered{Item: item, seq: r.seq}
	r.seq++
	r.buffer.ReplaceOrInsert(b)
	r.overflow[item.Account] = b
}
