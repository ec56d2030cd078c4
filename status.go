package formsg

import (
	"errors"
	"fmt"
)

// Status is the validation status of a control.
type Status int32

const (
	// StatusValid indicates the control has no validation errors.
	StatusValid Status = iota

	// StatusInvalid indicates the control has at least one validation error.
	StatusInvalid

	// StatusPending indicates asynchronous validation is in flight and the
	// current errors are not yet authoritative.
	StatusPending

	// StatusDisabled indicates the control is exempt from validation.
	StatusDisabled
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusInvalid:
		return "invalid"
	case StatusPending:
		return "pending"
	case StatusDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// When selects which behavioral flag gates message visibility.
type When string

const (
	// WhenTouched shows messages once the control has been touched.
	WhenTouched When = "touched"

	// WhenDirty shows messages once the control's value has been changed.
	WhenDirty When = "dirty"

	// WhenAlways shows messages as soon as errors exist.
	WhenAlways When = "always"
)

// DefaultWhen is the policy used when none is set.
const DefaultWhen = WhenTouched

// ErrUnknownWhen is returned by ParseWhen for unrecognized policies.
var ErrUnknownWhen = errors.New("unknown when policy")

// ParseWhen converts s into a When. The empty string yields DefaultWhen.
func ParseWhen(s string) (When, error) {
	switch w := When(s); w {
	case "":
		return DefaultWhen, nil
	case WhenTouched, WhenDirty, WhenAlways:
		return w, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownWhen, s)
	}
}

// Valid reports whether w is one of the known policies.
func (w When) Valid() bool {
	switch w {
	case WhenTouched, WhenDirty, WhenAlways:
		return true
	default:
		return false
	}
}

// orDefault maps the unset policy to DefaultWhen.
func (w When) orDefault() When {
	if w == "" {
		return DefaultWhen
	}
	return w
}
