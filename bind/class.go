package bind

import (
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/hostbind/errors"
	"github.com/wippyai/hostbind/host"
	"github.com/wippyai/hostbind/identity"
)

// Class is a Go struct type exported into a Binder's host runtime.
type Class struct {
	Type reflect.Type
	// Name is the host class name: the identity tag, or the Go type name
	// for classes without one.
	Name string
	// Tag is the identity tag. Empty when the type has no identity.
	Tag string

	proto   host.Value
	methods []string
	typeID  uint32
}

// HasIdentity reports whether instances of the class report an identity
// tag and can be recovered with Downcast.
func (c *Class) HasIdentity() bool {
	return c.Tag != ""
}

// Prototype returns the host object shared by every instance.
func (c *Class) Prototype() host.Value {
	return c.proto
}

// Methods returns the host names of the bound Go methods.
func (c *Class) Methods() []string {
	return append([]string(nil), c.methods...)
}

// methods with a fixed role at the boundary are not exposed to the host.
var hiddenMethods = map[string]bool{
	"HostbindTag": true,
	"Clone":       true,
	"Drop":        true,
}

// Export exports T into b. Exporting a type again returns the same class.
func Export[T any](b *Binder) (*Class, error) {
	return ExportType(b, reflect.TypeFor[T]())
}

// ExportType exports t into b.
func ExportType(b *Binder, t reflect.Type) (*Class, error) {
	if b.isClosed() {
		return nil, errors.Closed(errors.PhaseExport, "binder")
	}
	if err := checkExportable(t); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.classes[t]; ok {
		return c, nil
	}

	tag, err := b.resolveTag(t)
	if err != nil {
		return nil, err
	}

	c := &Class{Type: t, Name: t.Name(), Tag: tag}
	if tag != "" {
		c.Name = tag
	}
	b.nextID++
	c.typeID = b.nextID

	if err := b.buildPrototype(c); err != nil {
		b.nextID--
		return nil, err
	}

	b.classes[t] = c
	b.log.Debug("exported class",
		zap.String("class", c.Name),
		zap.String("type", t.String()),
		zap.Bool("identity", c.HasIdentity()),
		zap.Strings("methods", c.methods))
	return c, nil
}

func checkExportable(t reflect.Type) error {
	if t == nil {
		return errors.InvalidInput(errors.PhaseExport, "type is nil")
	}
	if t.Kind() != reflect.Struct || t.Name() == "" || strings.ContainsRune(t.Name(), '[') {
		return errors.New(errors.PhaseExport, errors.KindUnsupported).
			GoType(t.String()).
			Detail("only named, non-generic struct types can be exported").
			Build()
	}
	return nil
}

// resolveTag finds the identity tag for t. A type carrying a generated
// HostbindTag method is registered on first export if its init did not run
// against this Binder's registry.
func (b *Binder) resolveTag(t reflect.Type) (string, error) {
	reg := b.cfg.Identities
	entry, registered := reg.Lookup(t)
	reported, hasReporter := identity.Reported(t)

	switch {
	case registered && hasReporter && entry.Tag != reported:
		return "", errors.IdentityMismatch(errors.PhaseExport, t.String(), reported, entry.Tag)
	case registered:
		return entry.Tag, nil
	case hasReporter:
		entry, err := reg.Register(t, reported)
		if err != nil {
			return "", errors.Rephase(errors.PhaseExport, err, "register identity of "+t.String())
		}
		return entry.Tag, nil
	}
	return "", nil
}

func (b *Binder) buildPrototype(c *Class) error {
	rt := b.rt
	proto, err := rt.NewObject(nil)
	if err != nil {
		return errors.Rephase(errors.PhaseExport, err, "create prototype for "+c.Name)
	}

	define := func(name string, fn host.Func) error {
		f, err := rt.NewFunction(name, fn)
		if err != nil {
			return errors.Rephase(errors.PhaseExport, err, "create "+name)
		}
		if err := rt.Set(proto, name, f); err != nil {
			return errors.Rephase(errors.PhaseExport, err, "install "+name)
		}
		return nil
	}

	if c.Tag != "" {
		tag := c.Tag
		if err := define(b.cfg.IdentityMethod, func(host.Value, []host.Value) (host.Value, error) {
			return rt.ToValue(tag)
		}); err != nil {
			return err
		}
	}

	if err := define(freeMethod, func(this host.Value, _ []host.Value) (host.Value, error) {
		return rt.Undefined(), b.free(c, this)
	}); err != nil {
		return err
	}

	taken := map[string]string{
		b.cfg.IdentityMethod:  "identity method",
		b.cfg.PointerProperty: "pointer property",
		freeMethod:            "free",
		"constructor":         "constructor",
	}

	ptrType := reflect.PointerTo(c.Type)
	for i := 0; i < ptrType.NumMethod(); i++ {
		m := ptrType.Method(i)
		if !m.IsExported() || hiddenMethods[m.Name] {
			continue
		}

		name := toCamelCase(m.Name)
		if prev, ok := taken[name]; ok {
			return errors.New(errors.PhaseExport, errors.KindConflict).
				GoType(c.Type.String()).
				Detail("method %s maps to host name %q, already used by %s", m.Name, name, prev).
				Build()
		}
		taken[name] = m.Name

		sig, problem := newSignature(m.Func.Type(), 1)
		if problem != "" {
			return errors.New(errors.PhaseExport, errors.KindUnsupported).
				GoType(c.Type.String()).
				Detail("method %s: %s", m.Name, problem).
				Build()
		}
		if err := define(name, b.methodFunc(c, m, sig)); err != nil {
			return err
		}
		c.methods = append(c.methods, name)
	}

	c.proto = proto
	return nil
}
