package resource

// Handle is the numeric key of a slot. It is the value a host object carries
// in its pointer property. Handle 0 is the null pointer and never valid.
type Handle uint32

// EventType identifies a slot lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventBorrowed
	EventBorrowReturned
	EventTaken
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	case EventBorrowed:
		return "borrowed"
	case EventBorrowReturned:
		return "borrow_returned"
	case EventTaken:
		return "taken"
	default:
		return "unknown"
	}
}

// Event describes one slot lifecycle change.
type Event struct {
	Value  any
	Handle Handle
	TypeID uint32
	Type   EventType
}

// Observer receives slot lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnResourceEvent implements Observer.
func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Backend stores slot values keyed by handle.
type Backend interface {
	// Create stores a value and returns its handle.
	Create(typeID uint32, value any) (Handle, error)

	// Get returns the value and type ID stored under handle.
	Get(handle Handle) (any, uint32, bool)

	// Borrow pins a slot whose type ID matches. A pinned slot cannot be dropped.
	Borrow(handle Handle, typeID uint32) (any, error)

	// ReturnBorrow releases one pin taken by Borrow.
	ReturnBorrow(handle Handle) bool

	// Drop removes an unpinned slot and returns its value.
	Drop(handle Handle) (any, error)

	// Len returns the number of live slots.
	Len() int

	// Each visits live slots in handle order until fn returns false.
	Each(fn func(Handle, uint32, any) bool)

	// Close drops every slot and rejects further operations.
	Close() error
}

// Dropper is optionally implemented by slot values that need cleanup when
// their slot is dropped.
type Dropper interface {
	Drop()
}
