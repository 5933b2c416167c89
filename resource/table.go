package resource

import (
	"sync"
)

// Table owns the Go side of exported instances: one slot per live host
// object. It notifies observers of every lifecycle change.
type Table struct {
	backend   Backend
	observers []Observer
	obsMu     sync.RWMutex
}

// NewTable creates a table over a LocalBackend.
func NewTable() *Table {
	return NewTableWithBackend(NewLocalBackend())
}

// NewTableWithBackend creates a table over an existing backend.
func NewTableWithBackend(b Backend) *Table {
	return &Table{backend: b}
}

// Insert stores value under typeID and returns its handle.
func (t *Table) Insert(typeID uint32, value any) (Handle, error) {
	handle, err := t.backend.Create(typeID, value)
	if err != nil {
		return 0, err
	}

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})
	return handle, nil
}

// Get returns the value stored under handle, whatever its type.
func (t *Table) Get(handle Handle) (any, bool) {
	v, _, ok := t.backend.Get(handle)
	return v, ok
}

// GetTyped returns the value only if it was inserted under typeID.
func (t *Table) GetTyped(handle Handle, typeID uint32) (any, bool) {
	v, id, ok := t.backend.Get(handle)
	if !ok || id != typeID {
		return nil, false
	}
	return v, true
}

// Borrow pins the slot for the duration of a read. Every successful Borrow
// must be paired with Return.
func (t *Table) Borrow(handle Handle, typeID uint32) (any, error) {
	v, err := t.backend.Borrow(handle, typeID)
	if err != nil {
		return nil, err
	}
	t.notify(Event{
		Type:   EventBorrowed,
		Handle: handle,
		TypeID: typeID,
		Value:  v,
	})
	return v, nil
}

// Return releases a pin taken by Borrow.
func (t *Table) Return(handle Handle) {
	if !t.backend.ReturnBorrow(handle) {
		return
	}
	_, typeID, _ := t.backend.Get(handle)
	t.notify(Event{
		Type:   EventBorrowReturned,
		Handle: handle,
		TypeID: typeID,
	})
}

// Remove drops the slot and returns its value. Dropper values are dropped.
func (t *Table) Remove(handle Handle) (any, error) {
	_, typeID, _ := t.backend.Get(handle)
	value, err := t.backend.Drop(handle)
	if err != nil {
		return nil, err
	}

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}

	t.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})
	return value, nil
}

// Take removes the slot and hands its value to the caller. Unlike Remove
// it does not run Dropper, since ownership moves instead of ending.
func (t *Table) Take(handle Handle) (any, error) {
	_, typeID, _ := t.backend.Get(handle)
	value, err := t.backend.Drop(handle)
	if err != nil {
		return nil, err
	}

	t.notify(Event{
		Type:   EventTaken,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})
	return value, nil
}

// Subscribe adds an observer.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer added with Subscribe.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of live slots.
func (t *Table) Len() int {
	return t.backend.Len()
}

// Clear drops every unpinned slot.
func (t *Table) Clear() {
	var handles []Handle
	t.backend.Each(func(h Handle, _ uint32, _ any) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		_, _ = t.Remove(h)
	}
}

// Close drops every slot and rejects further inserts.
func (t *Table) Close() error {
	return t.backend.Close()
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
