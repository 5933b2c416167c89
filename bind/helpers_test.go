package bind

import (
	"fmt"
	"testing"

	"github.com/wippyai/hostbind/errors"
	"github.com/wippyai/hostbind/host"
	"github.com/wippyai/hostbind/host/gojahost"
	"github.com/wippyai/hostbind/identity"
)

type counter struct{ N int }

func (counter) HostbindTag() string { return "Counter" }

func (c *counter) Inc(by int) int {
	c.N += by
	return c.N
}

func (c counter) Value() int { return c.N }

// twin has the same shape as counter but a different identity.
type twin struct{ N int }

func (twin) HostbindTag() string { return "twin" }

type untagged struct{ N int }

type account struct{ Balance int }

func (account) HostbindTag() string { return "Account" }

func (a *account) Withdraw(n int) (int, error) {
	if n > a.Balance {
		return a.Balance, fmt.Errorf("insufficient funds: have %d, need %d", a.Balance, n)
	}
	a.Balance -= n
	return a.Balance, nil
}

type bag struct{ Items []string }

func (bag) HostbindTag() string { return "bag" }

var _ Cloner[bag] = bag{}

func (b bag) Clone() bag {
	return bag{Items: append([]string(nil), b.Items...)}
}

type tracked struct{ drops *int }

func (tracked) HostbindTag() string { return "tracked" }

func (t *tracked) Drop() { *t.drops++ }

func newTestBinder(t *testing.T, mutate ...func(*Config)) (*Binder, *gojahost.Runtime) {
	t.Helper()
	rt := gojahost.New(nil)
	cfg := DefaultConfig()
	cfg.Identities = identity.NewRegistry()
	for _, m := range mutate {
		m(&cfg)
	}
	b, err := New(rt, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b, rt
}

func mustExport[T any](t *testing.T, b *Binder) *Class {
	t.Helper()
	c, err := Export[T](b)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	return c
}

func mustWrap(t *testing.T, b *Binder, v any) host.Value {
	t.Helper()
	h, err := b.Wrap(v)
	if err != nil {
		t.Fatalf("Wrap(%v): %v", v, err)
	}
	return h
}

func mustRun(t *testing.T, rt *gojahost.Runtime, src string) host.Value {
	t.Helper()
	v, err := rt.Run(src)
	if err != nil {
		t.Fatalf("run %q: %v", src, err)
	}
	return v
}

func setGlobal(t *testing.T, rt *gojahost.Runtime, name string, v host.Value) {
	t.Helper()
	if err := rt.Set(rt.Global(), name, v); err != nil {
		t.Fatalf("set %s: %v", name, err)
	}
}

// catchJS runs src inside try/catch and returns the thrown message, or ""
// when nothing was thrown.
func catchJS(t *testing.T, rt *gojahost.Runtime, src string) string {
	t.Helper()
	v := mustRun(t, rt, `(function() { try { `+src+`; return ""; } catch (e) { return String(e.message); } })()`)
	s, _ := rt.Export(v).(string)
	return s
}

func wantKind(t *testing.T, err error, kind errors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if k, _ := errors.KindOf(err); k != kind {
		t.Fatalf("kind = %s, want %s (%v)", k, kind, err)
	}
}
