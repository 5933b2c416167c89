package bind

import (
	"fmt"
	"strings"
	"testing"

	"github.com/wippyai/hostbind/errors"
)

func TestMethods_FromJS(t *testing.T) {
	b, rt := newTestBinder(t)
	mustExport[counter](t, b)

	setGlobal(t, rt, "c", mustWrap(t, b, counter{N: 1}))
	if got := rt.Export(mustRun(t, rt, "c.inc(2); c.inc(3); c.value()")); got != float64(6) {
		t.Errorf("c.value() = %v, want 6", got)
	}

	v, err := Downcast[counter](b, mustRun(t, rt, "c"))
	if err != nil {
		t.Fatal(err)
	}
	if v.N != 6 {
		t.Errorf("pointer receiver should mutate the slot, N = %d", v.N)
	}

	if got := rt.Export(mustRun(t, rt, "c.__getClassname()")); got != "Counter" {
		t.Errorf("identity method = %v", got)
	}
	if got := rt.Export(mustRun(t, rt, "typeof c.hostbindTag")); got != "undefined" {
		t.Error("HostbindTag must not be exposed as a method")
	}

	mustRun(t, rt, "c.free()")
	if msg := catchJS(t, rt, "c.value()"); !strings.Contains(msg, "nil_pointer") {
		t.Errorf("method on freed instance threw %q", msg)
	}
}

func TestMethods_ErrorResult(t *testing.T) {
	b, rt := newTestBinder(t)
	mustExport[account](t, b)

	setGlobal(t, rt, "acct", mustWrap(t, b, account{Balance: 100}))
	if got := rt.Export(mustRun(t, rt, "acct.withdraw(30)")); got != float64(70) {
		t.Errorf("withdraw(30) = %v", got)
	}
	if msg := catchJS(t, rt, "acct.withdraw(500)"); msg != "insufficient funds: have 70, need 500" {
		t.Errorf("thrown message = %q", msg)
	}
	if msg := catchJS(t, rt, "acct.withdraw('lots')"); !strings.Contains(msg, "argument 0 of Account.withdraw") {
		t.Errorf("bad argument message = %q", msg)
	}
}

func TestMethods_WrongReceiver(t *testing.T) {
	b, rt := newTestBinder(t)
	mustExport[counter](t, b)
	mustExport[twin](t, b)

	setGlobal(t, rt, "c", mustWrap(t, b, counter{N: 1}))
	setGlobal(t, rt, "tw", mustWrap(t, b, twin{N: 1}))
	if msg := catchJS(t, rt, "c.inc.call(tw, 1)"); !strings.Contains(msg, "receiver of Counter.inc") {
		t.Errorf("foreign receiver threw %q", msg)
	}
	if msg := catchJS(t, rt, "c.inc.call(null, 1)"); msg == "" {
		t.Error("null receiver should throw")
	}
}

func TestExportFunc(t *testing.T) {
	b, rt := newTestBinder(t)
	mustExport[counter](t, b)
	mustExport[twin](t, b)

	funcs := map[string]any{
		"add": func(a, b int) int { return a + b },
		"describe": func(c counter) string {
			return fmt.Sprintf("counter %d", c.N)
		},
		"maybe": func(c *counter) *counter {
			if c == nil {
				return nil
			}
			c.N *= 2
			return c
		},
		"sum": func(cs []counter) int {
			total := 0
			for _, c := range cs {
				total += c.N
			}
			return total
		},
		"range3": func() []counter {
			return []counter{{N: 0}, {N: 1}, {N: 2}}
		},
		"boom": func() error { return fmt.Errorf("boom") },
		"crash": func() { panic("bad state") },
	}
	for name, fn := range funcs {
		if err := ExportFunc(b, name, fn); err != nil {
			t.Fatalf("ExportFunc(%s): %v", name, err)
		}
	}

	setGlobal(t, rt, "c", mustWrap(t, b, counter{N: 5}))
	setGlobal(t, rt, "tw", mustWrap(t, b, twin{N: 5}))

	tests := []struct {
		src  string
		want any
	}{
		{"add(2, 3)", float64(5)},
		{"describe(c)", "counter 5"},
		{"describe(c) + '/' + c.value()", "counter 5/5"},
		{"var d = maybe(c); d.value() + ',' + c.value()", "10,5"},
		{"maybe() === undefined", true},
		{"maybe(undefined) === undefined", true},
		{"sum([c, c, maybe(c)])", float64(20)},
		{"sum([])", float64(0)},
		{"range3().map(function(x) { return x.value(); }).join(',')", "0,1,2"},
	}
	for _, tt := range tests {
		if got := rt.Export(mustRun(t, rt, tt.src)); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.src, got, tt.want)
		}
	}

	throws := []struct {
		src string
		msg string
	}{
		{"describe(tw)", "identity mismatch: got twin, want Counter"},
		{"describe(42)", "value supplied as Counter is not an object"},
		{"describe()", "not an object"},
		{"maybe(null)", "not an object"},
		{"sum('x')", "the argument must be an array"},
		{"sum([c, 1])", "failed to cast item 1"},
		{"add(1.5, 1)", "not an integer"},
		{"boom()", "boom"},
		{"crash()", "crash panicked: bad state"},
	}
	for _, tt := range throws {
		if msg := catchJS(t, rt, tt.src); !strings.Contains(msg, tt.msg) {
			t.Errorf("%s threw %q, want it to contain %q", tt.src, msg, tt.msg)
		}
	}

	if got, err := Downcast[counter](b, mustRun(t, rt, "c")); err != nil || got.N != 5 {
		t.Errorf("c after all calls = %v, %v", got, err)
	}
}

func TestExportFunc_Rejected(t *testing.T) {
	b, _ := newTestBinder(t)

	tests := []struct {
		name string
		fn   any
		kind errors.Kind
	}{
		{"ok", 5, errors.KindTypeMismatch},
		{"ok", (func())(nil), errors.KindTypeMismatch},
		{"bad name", func() {}, errors.KindInvalidInput},
		{"ok", func(xs ...int) {}, errors.KindUnsupported},
		{"ok", func() (int, int) { return 0, 0 }, errors.KindUnsupported},
		{"ok", func() (int, int, error) { return 0, 0, nil }, errors.KindUnsupported},
	}
	for _, tt := range tests {
		err := ExportFunc(b, tt.name, tt.fn)
		wantKind(t, err, tt.kind)
	}
}

func TestBindFunc(t *testing.T) {
	b, rt := newTestBinder(t)

	fn, err := BindFunc(b, "twice", func(n float64) float64 { return n * 2 })
	if err != nil {
		t.Fatal(err)
	}
	res, err := rt.Apply(fn, nil, mustRun(t, rt, "21"))
	if err != nil {
		t.Fatal(err)
	}
	if rt.Export(res) != float64(42) {
		t.Errorf("twice(21) = %v", rt.Export(res))
	}
	if rt.Export(mustRun(t, rt, "typeof twice")) != "undefined" {
		t.Error("BindFunc must not install a global")
	}
}

func TestToCamelCase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"Value", "value"},
		{"GetValue", "getValue"},
		{"ID", "id"},
		{"UserID", "userId"},
		{"GetHTTPServer", "getHttpServer"},
		{"URLFor", "urlFor"},
		{"V2Config", "v2Config"},
		{"X", "x"},
	}
	for _, tt := range tests {
		if got := toCamelCase(tt.in); got != tt.want {
			t.Errorf("toCamelCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
