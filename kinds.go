package formsg

// ErrorKind names a category of validation failure, such as "required".
type ErrorKind string

// Well-known error kinds. The effective configuration always carries a
// producer for each of these.
const (
	KindEmail     ErrorKind = "email"
	KindMax       ErrorKind = "max"
	KindMaxLength ErrorKind = "maxlength"
	KindMin       ErrorKind = "min"
	KindMinLength ErrorKind = "minlength"
	KindRequired  ErrorKind = "required"
	KindPattern   ErrorKind = "pattern"
)

// WellKnownKinds lists the built-in error kinds in a stable order.
var WellKnownKinds = []ErrorKind{
	KindEmail,
	KindMax,
	KindMaxLength,
	KindMin,
	KindMinLength,
	KindRequired,
	KindPattern,
}

// IsWellKnown reports whether k is one of the built-in error kinds.
func (k ErrorKind) IsWellKnown() bool {
	for _, known := range WellKnownKinds {
		if k == known {
			return true
		}
	}
	return false
}

// MaxPayload is the payload of a max error.
type MaxPayload struct {
	Actual any     `json:"actual" yaml:"actual"`
	Max    float64 `json:"max" yaml:"max"`
}

// MinPayload is the payload of a min error.
type MinPayload struct {
	Actual any     `json:"actual" yaml:"actual"`
	Min    float64 `json:"min" yaml:"min"`
}

// LengthPayload is the payload of maxlength and minlength errors.
type LengthPayload struct {
	ActualLength   int `json:"actualLength" yaml:"actualLength"`
	RequiredLength int `json:"requiredLength" yaml:"requiredLength"`
}

// PatternPayload is the payload of a pattern error.
type PatternPayload struct {
	RequiredPattern string `json:"requiredPattern" yaml:"requiredPattern"`
	ActualValue     string `json:"actualValue" yaml:"actualValue"`
}

// ValidationError is a single entry of a control's error set.
type ValidationError struct {
	Kind    ErrorKind
	Payload any
}

// Errors is a control's validation error set in the order the validation
// layer produced it. A nil or empty set means the control is valid.
type Errors []ValidationError

// Len returns the number of errors.
func (e Errors) Len() int {
	return len(e)
}

// Has reports whether the set contains an error of the given kind.
func (e Errors) Has(kind ErrorKind) bool {
	_, ok := e.Get(kind)
	return ok
}

// Get returns the payload of the first error of the given kind.
func (e Errors) Get(kind ErrorKind) (any, bool) {
	for _, ve := range e {
		if ve.Kind == kind {
			return ve.Payload, true
		}
	}
	return nil, false
}

// First returns the first error in insertion order.
func (e Errors) First() (ValidationError, bool) {
	if len(e) == 0 {
		return ValidationError{}, false
	}
	return e[0], true
}

// Kinds returns the error kinds in insertion order.
func (e Errors) Kinds() []ErrorKind {
	if len(e) == 0 {
		return nil
	}
	kinds := make([]ErrorKind, 0, len(e))
	for _, ve := range e {
		kinds = append(kinds, ve.Kind)
	}
	return kinds
}

// Merge appends other to e. When both sets contain the same kind, the payload
// from other replaces the existing one in place so insertion order is kept.
func (e Errors) Merge(other Errors) Errors {
	if len(other) == 0 {
		return e
	}
	out := make(Errors, len(e), len(e)+len(other))
	copy(out, e)
	for _, ve := range other {
		replaced := false
		for i := range out {
			if out[i].Kind == ve.Kind {
				out[i].Payload = ve.Payload
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, ve)
		}
	}
	return out
}
