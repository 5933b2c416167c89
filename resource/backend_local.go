package resource

import (
	"errors"
	"sync"
)

var (
	ErrClosed            = errors.New("slot table closed")
	ErrInvalidHandle     = errors.New("invalid slot handle")
	ErrTypeMismatch      = errors.New("slot holds a different type")
	ErrOutstandingBorrow = errors.New("cannot drop slot with outstanding borrows")
)

// LocalBackend is an in-process slot store with borrow pinning.
// Freed handles are reused, most recent first.
type LocalBackend struct {
	slots    []slot
	freeList []Handle
	live     int
	mu       sync.RWMutex
	closed   bool
}

type slot struct {
	value   any
	typeID  uint32
	borrows uint32
	valid   bool
}

// NewLocalBackend creates an empty backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		slots:    make([]slot, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// lookup returns the live slot for handle. Callers hold mu.
func (b *LocalBackend) lookup(handle Handle) *slot {
	if handle == 0 || int(handle) > len(b.slots) {
		return nil
	}
	s := &b.slots[handle-1]
	if !s.valid {
		return nil
	}
	return s
}

// Create stores a value and returns its handle.
func (b *LocalBackend) Create(typeID uint32, value any) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	s := slot{typeID: typeID, value: value, valid: true}
	b.live++

	if n := len(b.freeList); n > 0 {
		handle := b.freeList[n-1]
		b.freeList = b.freeList[:n-1]
		b.slots[handle-1] = s
		return handle, nil
	}

	b.slots = append(b.slots, s)
	return Handle(len(b.slots)), nil
}

// Get returns the value and type ID stored under handle.
func (b *LocalBackend) Get(handle Handle) (any, uint32, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := b.lookup(handle)
	if s == nil {
		return nil, 0, false
	}
	return s.value, s.typeID, true
}

// Borrow pins the slot if its type ID matches.
func (b *LocalBackend) Borrow(handle Handle, typeID uint32) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	s := b.lookup(handle)
	if s == nil {
		return nil, ErrInvalidHandle
	}
	if s.typeID != typeID {
		return nil, ErrTypeMismatch
	}
	s.borrows++
	return s.value, nil
}

// ReturnBorrow releases one pin on handle.
func (b *LocalBackend) ReturnBorrow(handle Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.lookup(handle)
	if s == nil || s.borrows == 0 {
		return false
	}
	s.borrows--
	return true
}

// Drop removes an unpinned slot.
func (b *LocalBackend) Drop(handle Handle) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	s := b.lookup(handle)
	if s == nil {
		return nil, ErrInvalidHandle
	}
	if s.borrows > 0 {
		return nil, ErrOutstandingBorrow
	}

	value := s.value
	*s = slot{}
	b.live--
	b.freeList = append(b.freeList, handle)
	return value, nil
}

// Len returns the number of live slots.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.live
}

// Each visits live slots in handle order. fn runs under the read lock and
// must not call back into the backend.
func (b *LocalBackend) Each(fn func(Handle, uint32, any) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, s := range b.slots {
		if s.valid && !fn(Handle(i+1), s.typeID, s.value) {
			return
		}
	}
}

// Close drops every slot, running Dropper values.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for i := range b.slots {
		if !b.slots[i].valid {
			continue
		}
		if d, ok := b.slots[i].value.(Dropper); ok {
			d.Drop()
		}
	}

	b.slots = nil
	b.freeList = nil
	b.live = 0
	return nil
}

var _ Backend = (*LocalBackend)(nil)
