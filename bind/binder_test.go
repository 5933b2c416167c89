package bind

import (
	"reflect"
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/hostbind"
	"github.com/wippyai/hostbind/errors"
	"github.com/wippyai/hostbind/host"
	"github.com/wippyai/hostbind/host/gojahost"
	"github.com/wippyai/hostbind/identity"
)

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, DefaultConfig()); err == nil {
		t.Error("nil runtime should be rejected")
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		kind   errors.Kind
	}{
		{"bad identity method", func(c *Config) { c.IdentityMethod = "get name" }, errors.KindInvalidInput},
		{"bad pointer", func(c *Config) { c.PointerProperty = "1ptr" }, errors.KindInvalidInput},
		{"shared name", func(c *Config) { c.PointerProperty = c.IdentityMethod }, errors.KindConflict},
		{"reserved", func(c *Config) { c.IdentityMethod = "free" }, errors.KindConflict},
		{"absence", func(c *Config) { c.Absence = 9 }, errors.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(gojahost.New(nil), cfg)
			wantKind(t, err, tt.kind)
		})
	}
}

func TestConfig_Defaults(t *testing.T) {
	b, err := New(gojahost.New(nil), Config{})
	if err != nil {
		t.Fatalf("New with zero config: %v", err)
	}
	defer b.Close()

	cfg := b.Config()
	if cfg.IdentityMethod != hostbind.IdentityMethod || cfg.PointerProperty != hostbind.PointerProperty {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Identities != identity.Default() {
		t.Error("nil registry should default to identity.Default()")
	}
	if cfg.Absence != AbsenceUndefined {
		t.Errorf("absence = %s", cfg.Absence)
	}
}

func TestAbsence(t *testing.T) {
	b, rt := newTestBinder(t)
	if b.Absent().Kind() != host.KindUndefined {
		t.Errorf("default absent = %s", b.Absent().Kind())
	}
	if !b.IsAbsent(rt.Undefined()) || !b.IsAbsent(nil) {
		t.Error("undefined and nil are absent")
	}
	if b.IsAbsent(rt.Null()) {
		t.Error("null is not absent under the undefined marker")
	}

	nb, nrt := newTestBinder(t, func(c *Config) { c.Absence = AbsenceNull })
	if nb.Absent().Kind() != host.KindNull {
		t.Errorf("null absent = %s", nb.Absent().Kind())
	}
	if !nb.IsAbsent(nrt.Null()) || nb.IsAbsent(nrt.Undefined()) {
		t.Error("null marker should match only null")
	}
}

func TestExport(t *testing.T) {
	b, _ := newTestBinder(t)

	c := mustExport[counter](t, b)
	if c.Name != "Counter" || c.Tag != "Counter" || !c.HasIdentity() {
		t.Errorf("class = %+v", c)
	}
	methods := c.Methods()
	slices.Sort(methods)
	if !slices.Equal(methods, []string{"inc", "value"}) {
		t.Errorf("methods = %v", methods)
	}
	if c.Prototype() == nil {
		t.Error("prototype missing")
	}

	again := mustExport[counter](t, b)
	if again != c {
		t.Error("exporting twice should return the same class")
	}
	if got, ok := b.Class(reflect.TypeFor[counter]()); !ok || got != c {
		t.Error("Class lookup failed")
	}

	if entry, ok := b.Config().Identities.Lookup(reflect.TypeFor[counter]()); !ok || entry.Tag != "Counter" {
		t.Errorf("export should register the generated tag, got %+v", entry)
	}

	u := mustExport[untagged](t, b)
	if u.HasIdentity() || u.Name != "untagged" {
		t.Errorf("untagged class = %+v", u)
	}
}

type notStruct int

type clash struct{}

func (clash) HostbindTag() string { return "clash" }
func (clash) Free()               {}

func TestExport_Errors(t *testing.T) {
	b, _ := newTestBinder(t)

	_, err := Export[notStruct](b)
	wantKind(t, err, errors.KindUnsupported)

	_, err = Export[*counter](b)
	wantKind(t, err, errors.KindUnsupported)

	_, err = Export[clash](b)
	wantKind(t, err, errors.KindConflict)

	reg := identity.NewRegistry()
	b2, _ := newTestBinder(t, func(c *Config) { c.Identities = reg })
	// Registered under a tag its HostbindTag does not report.
	if _, err := reg.Register(reflect.TypeFor[untagged](), "Renamed"); err != nil {
		t.Fatal(err)
	}
	if _, err := Export[untagged](b2); err != nil {
		t.Fatalf("registered type without reporter: %v", err)
	}
	if c, _ := b2.Class(reflect.TypeFor[untagged]()); c.Tag != "Renamed" {
		t.Errorf("tag = %q, want Renamed", c.Tag)
	}
}

func TestWrap_PlainValues(t *testing.T) {
	b, rt := newTestBinder(t)

	tests := []struct {
		in   any
		kind host.Kind
		want any
	}{
		{nil, host.KindNull, nil},
		{true, host.KindBoolean, true},
		{7, host.KindNumber, float64(7)},
		{"s", host.KindString, "s"},
		{(*counter)(nil), host.KindUndefined, nil},
	}
	for _, tt := range tests {
		v, err := b.Wrap(tt.in)
		if err != nil {
			t.Fatalf("Wrap(%v): %v", tt.in, err)
		}
		if v.Kind() != tt.kind {
			t.Errorf("Wrap(%v) kind = %s, want %s", tt.in, v.Kind(), tt.kind)
		}
		if got := rt.Export(v); got != tt.want {
			t.Errorf("Wrap(%v) = %v", tt.in, got)
		}
	}

	passthrough := rt.Global()
	if v, _ := b.Wrap(passthrough); v != passthrough {
		t.Error("host values should pass through")
	}

	_, err := b.Wrap(untagged{})
	wantKind(t, err, errors.KindNotExported)
}

func TestWrap_Slices(t *testing.T) {
	b, rt := newTestBinder(t)
	mustExport[counter](t, b)

	arr := mustWrap(t, b, []counter{{N: 1}, {N: 2}})
	if !rt.IsArray(arr) {
		t.Fatal("slice should wrap to an array")
	}
	if b.Live() != 2 {
		t.Errorf("Live = %d, want 2", b.Live())
	}

	setGlobal(t, rt, "arr", arr)
	if got := rt.Export(mustRun(t, rt, "arr[0].value() + arr[1].value()")); got != float64(3) {
		t.Errorf("sum = %v", got)
	}

	_, err := b.Wrap([]any{counter{N: 3}, untagged{}})
	wantKind(t, err, errors.KindElement)
	if b.Live() != 2 {
		t.Errorf("failed wrap must release partial instances, Live = %d", b.Live())
	}

	held := mustWrap(t, b, counter{N: 4})
	_, err = b.Wrap([]any{held, counter{N: 5}, untagged{}})
	wantKind(t, err, errors.KindElement)
	if b.Live() != 3 {
		t.Errorf("Live = %d, want 3", b.Live())
	}
	if got, err := Downcast[counter](b, held); err != nil || got.N != 4 {
		t.Errorf("host value passed to a failed wrap was freed: %+v, %v", got, err)
	}
}

func TestWrap_PointerMovesIntoSlot(t *testing.T) {
	b, _ := newTestBinder(t)
	mustExport[counter](t, b)

	p := &counter{N: 1}
	h := mustWrap(t, b, p)
	p.N = 9

	got, err := Downcast[counter](b, h)
	if err != nil {
		t.Fatal(err)
	}
	if got.N != 9 {
		t.Errorf("pointer should be shared with the slot, got N=%d", got.N)
	}
}

func TestClose(t *testing.T) {
	b, _ := newTestBinder(t)
	mustExport[tracked](t, b)
	mustExport[counter](t, b)

	drops := 0
	mustWrap(t, b, tracked{drops: &drops})
	mustWrap(t, b, &tracked{drops: &drops})
	h := mustWrap(t, b, counter{N: 1})

	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if drops != 2 {
		t.Errorf("drops = %d, want 2", drops)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	_, err := b.Wrap(counter{})
	wantKind(t, err, errors.KindClosed)
	_, err = Downcast[counter](b, h)
	wantKind(t, err, errors.KindClosed)
	_, err = Export[account](b)
	wantKind(t, err, errors.KindClosed)
}

func TestSlotEventsLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	b, _ := newTestBinder(t, func(c *Config) { c.Logger = zap.New(core) })
	mustExport[counter](t, b)

	h := mustWrap(t, b, counter{N: 1})
	if _, err := Downcast[counter](b, h); err != nil {
		t.Fatal(err)
	}
	if err := b.Free(h); err != nil {
		t.Fatal(err)
	}

	if logs.FilterMessage("exported class").Len() != 1 {
		t.Error("missing export log")
	}
	for _, msg := range []string{"slot created", "slot borrowed", "slot borrow_returned", "slot dropped"} {
		entries := logs.FilterMessage(msg).All()
		if len(entries) != 1 {
			t.Errorf("%q logged %d times", msg, len(entries))
			continue
		}
		if entries[0].ContextMap()["class"] != "Counter" {
			t.Errorf("%q fields = %v", msg, entries[0].ContextMap())
		}
	}
}

func TestSetLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	b, _ := newTestBinder(t)
	mustExport[counter](t, b)
	if logs.Len() == 0 {
		t.Error("package logger should be used when Config.Logger is nil")
	}
}
