// Package resource provides the slot table behind exported host instances.
//
// Every Go value exported to a host runtime lives in a slot. The slot's
// numeric handle is stored on the host object, so the host owns the handle
// while Go owns the value.
//
// # Slot Lifecycle
//
//	Insert - a new host instance was created (EventCreated)
//	Borrow - a non-consuming read is in progress (EventBorrowed)
//	Return - the read finished (EventBorrowReturned)
//	Take   - the value moved back to Go (EventTaken)
//	Remove - the instance was freed (EventDropped)
//
// A pinned slot cannot be removed; Remove returns ErrOutstandingBorrow.
//
// # Type Safety
//
// Slots are tagged with a type ID on insert:
//
//	h, _ := table.Insert(myTypeID, &MyType{})
//
//	v, err := table.Borrow(h, myTypeID)    // ok
//	_, err = table.Borrow(h, otherTypeID)  // ErrTypeMismatch
//	table.Return(h)
//
// # Observers
//
//	table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    log.Printf("slot %d %s", e.Handle, e.Type)
//	}))
//
// Handle 0 is the null pointer. Handles are reused after Remove, so a host
// object whose slot was removed must have its pointer zeroed.
package resource
