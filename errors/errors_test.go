package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:    PhaseDowncast,
				Kind:     KindIdentityMismatch,
				Path:     []string{"[2]"},
				GoType:   "MyType",
				HostType: "Other",
				Detail:   "identity mismatch: got Other, want MyType",
			},
			contains: []string{"[downcast]", "identity_mismatch", "at [2]", "Go type MyType", "host type Other", "got Other, want MyType"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindNotArray,
			},
			contains: []string{"[decode]", "not_array"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindElement,
				Detail: "failed to cast item 1",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[decode]", "element", "failed to cast item 1", "caused by", "underlying error"},
		},
		{
			name: "host type only",
			err: &Error{
				Phase:    PhaseDowncast,
				Kind:     KindNotObject,
				HostType: "number",
				Detail:   "not an object",
			},
			contains: []string{"host type number: not an object"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindTypeMismatch,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseDowncast,
		Kind:  KindIdentityMismatch,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseDowncast, Kind: KindIdentityMismatch}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseDecode, Kind: KindIdentityMismatch}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseDowncast, Kind: KindNotObject}) {
		t.Error("Is should not match different kind")
	}

	wrapped := fmt.Errorf("call failed: %w", err)
	if !errors.Is(wrapped, &Error{Phase: PhaseDowncast, Kind: KindIdentityMismatch}) {
		t.Error("errors.Is should match through fmt wrapping")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseDecode, KindElement).
		Path("[3]").
		GoType("MyType").
		HostType("Array").
		Value(3).
		Cause(cause).
		Detail("failed to cast item %d", 3).
		Build()

	if err.Phase != PhaseDecode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseDecode)
	}
	if err.Kind != KindElement {
		t.Errorf("Kind = %v, want %v", err.Kind, KindElement)
	}
	if len(err.Path) != 1 || err.Path[0] != "[3]" {
		t.Errorf("Path = %v, want [[3]]", err.Path)
	}
	if err.GoType != "MyType" {
		t.Errorf("GoType = %v, want 'MyType'", err.GoType)
	}
	if err.HostType != "Array" {
		t.Errorf("HostType = %v, want 'Array'", err.HostType)
	}
	if err.Value != 3 {
		t.Errorf("Value = %v, want 3", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "failed to cast item 3" {
		t.Errorf("Detail = %v, want 'failed to cast item 3'", err.Detail)
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		kind Kind
		want Category
	}{
		{KindNotObject, CategoryShape},
		{KindNotArray, CategoryShape},
		{KindIdentityMissing, CategoryIdentity},
		{KindIdentityInvalid, CategoryIdentity},
		{KindIdentityMismatch, CategoryIdentity},
		{KindElement, CategoryComposite},
		{KindPointer, CategoryBoundary},
		{KindNilPointer, CategoryBoundary},
		{KindOverflow, CategoryOther},
		{KindNotExported, CategoryOther},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.Category(); got != tt.want {
				t.Errorf("Category() = %v, want %v", got, tt.want)
			}
			err := &Error{Phase: PhaseDecode, Kind: tt.kind}
			if got := CategoryOf(fmt.Errorf("outer: %w", err)); got != tt.want {
				t.Errorf("CategoryOf() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := CategoryOf(errors.New("plain")); got != CategoryOther {
		t.Errorf("CategoryOf(plain) = %v, want %v", got, CategoryOther)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("NotObject", func(t *testing.T) {
		err := NotObject(PhaseDowncast, "MyType", "number")
		if err.Kind != KindNotObject {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotObject)
		}
		if !strings.Contains(err.Detail, "MyType is not an object") {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("NotArray", func(t *testing.T) {
		err := NotArray(PhaseDecode, "object")
		if err.Kind != KindNotArray {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotArray)
		}
		if err.Detail != "the argument must be an array" {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("IdentityMismatch", func(t *testing.T) {
		err := IdentityMismatch(PhaseDowncast, "MyType", "Other", "MyType")
		if err.Kind != KindIdentityMismatch {
			t.Errorf("Kind = %v, want %v", err.Kind, KindIdentityMismatch)
		}
		if err.Detail != "identity mismatch: got Other, want MyType" {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("Element", func(t *testing.T) {
		cause := IdentityMismatch(PhaseDowncast, "MyType", "Other", "MyType")
		err := Element(PhaseDecode, 2, cause)
		if err.Kind != KindElement {
			t.Errorf("Kind = %v, want %v", err.Kind, KindElement)
		}
		if err.Value != 2 {
			t.Errorf("Value = %v, want 2", err.Value)
		}
		msg := err.Error()
		for _, s := range []string{"at [2]", "failed to cast item 2", "identity mismatch: got Other, want MyType"} {
			if !strings.Contains(msg, s) {
				t.Errorf("message %q does not contain %q", msg, s)
			}
		}
		if !errors.Is(err, &Error{Phase: PhaseDowncast, Kind: KindIdentityMismatch}) {
			t.Error("element error should expose its cause to errors.Is")
		}
	})

	t.Run("Element encode", func(t *testing.T) {
		err := Element(PhaseEncode, 0, errors.New("boom"))
		if err.Detail != "failed to convert item 0" {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("NilPointer", func(t *testing.T) {
		err := NilPointer(PhaseDowncast, "MyType")
		if err.Kind != KindNilPointer {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNilPointer)
		}
		if err.GoType != "MyType" {
			t.Errorf("GoType = %v, want 'MyType'", err.GoType)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseDecode, nil, 300, "uint8")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if err.Value != 300 {
			t.Errorf("Value = %v, want 300", err.Value)
		}
	})

	t.Run("Rephase keeps kind", func(t *testing.T) {
		cause := NotObject(PhaseDowncast, "MyType", "number")
		err := Rephase(PhaseDecode, cause, "decode optional MyType")
		if err.Kind != KindNotObject {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotObject)
		}
		if err.Phase != PhaseDecode {
			t.Errorf("Phase = %v, want %v", err.Phase, PhaseDecode)
		}
	})

	t.Run("Rephase plain cause", func(t *testing.T) {
		err := Rephase(PhaseDecode, errors.New("boom"), "decode")
		if err.Kind != KindHostException {
			t.Errorf("Kind = %v, want %v", err.Kind, KindHostException)
		}
	})

	t.Run("NotExported", func(t *testing.T) {
		err := NotExported(PhaseDowncast, "MyType")
		if err.Kind != KindNotExported {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotExported)
		}
	})
}

func TestKindOf(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("KindOf should report false for plain errors")
	}
	k, ok := KindOf(fmt.Errorf("wrapped: %w", Conflict(PhaseRegister, "dup")))
	if !ok || k != KindConflict {
		t.Errorf("KindOf = %v, %v; want %v, true", k, ok, KindConflict)
	}
}
