package bind

import (
	"go.uber.org/zap"

	"github.com/wippyai/hostbind"
	"github.com/wippyai/hostbind/errors"
	"github.com/wippyai/hostbind/identity"
)

// Absence selects the host value that stands for a missing optional.
type Absence uint8

const (
	// AbsenceUndefined uses undefined, the default.
	AbsenceUndefined Absence = iota
	// AbsenceNull uses null.
	AbsenceNull
)

func (a Absence) String() string {
	switch a {
	case AbsenceUndefined:
		return "undefined"
	case AbsenceNull:
		return "null"
	default:
		return "unknown"
	}
}

// Config configures a Binder.
type Config struct {
	// Logger overrides the package logger for this Binder.
	Logger *zap.Logger

	// Identities is the registry consulted when exporting types.
	// Nil means identity.Default().
	Identities *identity.Registry

	// IdentityMethod is the name of the identity reporter on exported
	// prototypes. Empty means hostbind.IdentityMethod.
	IdentityMethod string

	// PointerProperty is the name of the slot handle property on exported
	// instances. Empty means hostbind.PointerProperty.
	PointerProperty string

	// Absence is the marker for a missing optional. Decoding is strict: the
	// other nullish value is not treated as absent.
	Absence Absence
}

// DefaultConfig returns a Config with every field set to its default.
func DefaultConfig() Config {
	return Config{
		Identities:      identity.Default(),
		IdentityMethod:  hostbind.IdentityMethod,
		PointerProperty: hostbind.PointerProperty,
		Absence:         AbsenceUndefined,
	}
}

// withDefaults fills empty fields.
func (c Config) withDefaults() Config {
	if c.Identities == nil {
		c.Identities = identity.Default()
	}
	if c.IdentityMethod == "" {
		c.IdentityMethod = hostbind.IdentityMethod
	}
	if c.PointerProperty == "" {
		c.PointerProperty = hostbind.PointerProperty
	}
	if c.Logger == nil {
		c.Logger = Logger()
	}
	return c
}

// Validate checks a Config after defaults are applied.
func (c Config) Validate() error {
	c = c.withDefaults()

	if !identity.ValidTag(c.IdentityMethod) {
		return errors.InvalidInput(errors.PhaseConfig, "identity method name must be an identifier: "+c.IdentityMethod)
	}
	if !identity.ValidTag(c.PointerProperty) {
		return errors.InvalidInput(errors.PhaseConfig, "pointer property name must be an identifier: "+c.PointerProperty)
	}
	if c.IdentityMethod == c.PointerProperty {
		return errors.Conflict(errors.PhaseConfig, "identity method and pointer property share the name "+c.IdentityMethod)
	}
	if reserved(c.IdentityMethod) || reserved(c.PointerProperty) {
		return errors.Conflict(errors.PhaseConfig, "reserved names may not be reused: free, constructor")
	}
	if c.Absence > AbsenceNull {
		return errors.InvalidInput(errors.PhaseConfig, "unknown absence marker "+c.Absence.String())
	}
	return nil
}

// freeMethod releases an instance from the host side.
const freeMethod = "free"

func reserved(name string) bool {
	return name == freeMethod || name == "constructor"
}
