package formsg

import (
	"fmt"
	"strconv"
)

// Producer renders the display text for one error occurrence.
type Producer func(payload any) string

// Config maps error kinds to text producers. A caller-supplied Config may be
// partial; see Effective.
type Config map[ErrorKind]Producer

// Text returns a producer that ignores its payload.
func Text(s string) Producer {
	return func(any) string { return s }
}

// Default returns the built-in producer for a well-known kind.
func Default(kind ErrorKind) (Producer, bool) {
	p, ok := defaults[kind]
	return p, ok
}

// Defaults returns a fresh Config holding only the built-in producers.
func Defaults() Config {
	cfg := make(Config, len(defaults))
	for k, p := range defaults {
		cfg[k] = p
	}
	return cfg
}

// Effective fills every well-known kind missing from cfg with its built-in
// producer. Custom kinds pass through unchanged. cfg is not modified.
func Effective(cfg Config) Config {
	out := make(Config, len(cfg)+len(defaults))
	for k, p := range cfg {
		if p != nil {
			out[k] = p
		}
	}
	for _, k := range WellKnownKinds {
		if _, ok := out[k]; !ok {
			out[k] = defaults[k]
		}
	}
	return out
}

var defaults = map[ErrorKind]Producer{
	KindEmail:    Text("Invalid email address"),
	KindRequired: Text("Field is required"),
	KindPattern:  Text("Field is invalid"),
	KindMax: func(payload any) string {
		return "Field must be no greater than " + payloadField(payload, "max")
	},
	KindMin: func(payload any) string {
		return "Field must be no less than " + payloadField(payload, "min")
	},
	KindMaxLength: func(payload any) string {
		return "Field must be no longer than " + payloadField(payload, "requiredLength") + " characters"
	},
	KindMinLength: func(payload any) string {
		return "Field must be longer than " + payloadField(payload, "requiredLength") + " characters"
	},
}

// payloadField extracts a named value from a known payload shape or from a
// decoded map and formats it for display.
func payloadField(payload any, name string) string {
	switch p := payload.(type) {
	case MaxPayload:
		if name == "max" {
			return formatNumber(p.Max)
		}
		return formatValue(p.Actual)
	case *MaxPayload:
		if p != nil {
			return payloadField(*p, name)
		}
	case MinPayload:
		if name == "min" {
			return formatNumber(p.Min)
		}
		return formatValue(p.Actual)
	case *MinPayload:
		if p != nil {
			return payloadField(*p, name)
		}
	case LengthPayload:
		if name == "requiredLength" {
			return strconv.Itoa(p.RequiredLength)
		}
		return strconv.Itoa(p.ActualLength)
	case *LengthPayload:
		if p != nil {
			return payloadField(*p, name)
		}
	case map[string]any:
		return formatValue(p[name])
	}
	return formatValue(nil)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatValue(v any) string {
	switch n := v.(type) {
	case nil:
		return "undefined"
	case float64:
		return formatNumber(n)
	case float32:
		return formatNumber(float64(n))
	case string:
		return n
	default:
		return fmt.Sprint(n)
	}
}
