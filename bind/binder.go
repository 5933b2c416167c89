package bind

import (
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/hostbind/errors"
	"github.com/wippyai/hostbind/host"
	"github.com/wippyai/hostbind/resource"
)

// Binder exports Go types into one host runtime and converts values across
// the boundary. A Binder must be used from the goroutine that drives its
// host runtime.
type Binder struct {
	rt      host.Runtime
	log     *zap.Logger
	slots   *resource.Table
	classes map[reflect.Type]*Class
	cfg     Config
	nextID  uint32
	mu      sync.RWMutex
	closed  bool
}

// New creates a Binder over rt.
func New(rt host.Runtime, cfg Config) (*Binder, error) {
	if rt == nil {
		return nil, errors.InvalidInput(errors.PhaseConfig, "host runtime is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	b := &Binder{
		rt:      rt,
		log:     cfg.Logger,
		slots:   resource.NewTable(),
		classes: make(map[reflect.Type]*Class),
		cfg:     cfg,
	}
	b.slots.Subscribe(resource.ObserverFunc(b.logSlotEvent))
	return b, nil
}

// Runtime returns the host runtime the Binder is bound to.
func (b *Binder) Runtime() host.Runtime {
	return b.rt
}

// Config returns the effective configuration.
func (b *Binder) Config() Config {
	return b.cfg
}

// Absent returns the configured absence marker.
func (b *Binder) Absent() host.Value {
	if b.cfg.Absence == AbsenceNull {
		return b.rt.Null()
	}
	return b.rt.Undefined()
}

// IsAbsent reports whether v is the configured absence marker. A nil
// host.Value counts as absent.
func (b *Binder) IsAbsent(v host.Value) bool {
	if v == nil {
		return true
	}
	if b.cfg.Absence == AbsenceNull {
		return v.Kind() == host.KindNull
	}
	return v.Kind() == host.KindUndefined
}

// Live returns the number of exported instances still owned by Go.
func (b *Binder) Live() int {
	return b.slots.Len()
}

// Close frees every live instance. Host objects that still refer to them
// fail with a boundary error afterwards.
func (b *Binder) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.log.Debug("closing binder", zap.Int("live", b.slots.Len()))
	b.slots.Clear()
	return b.slots.Close()
}

func (b *Binder) isClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

// Class returns the class exported for t.
func (b *Binder) Class(t reflect.Type) (*Class, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.classes[t]
	return c, ok
}

func (b *Binder) logSlotEvent(e resource.Event) {
	if ce := b.log.Check(zap.DebugLevel, "slot "+e.Type.String()); ce != nil {
		fields := []zap.Field{zap.Uint32("handle", uint32(e.Handle))}
		if c := b.classByID(e.TypeID); c != nil {
			fields = append(fields, zap.String("class", c.Name))
		}
		ce.Write(fields...)
	}
}

func (b *Binder) classByID(id uint32) *Class {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, c := range b.classes {
		if c.typeID == id {
			return c
		}
	}
	return nil
}
