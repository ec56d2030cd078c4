package formsg

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Compose merges the errors of every validator, in order.
func Compose(validators ...ValidatorFunc) ValidatorFunc {
	return func(value any) Errors {
		var errs Errors
		for _, v := range validators {
			if v != nil {
				errs = errs.Merge(v(value))
			}
		}
		return errs
	}
}

// Required fails for nil, empty strings and empty collections.
func Required() ValidatorFunc {
	return func(value any) Errors {
		if isEmpty(value) {
			return Errors{{Kind: KindRequired, Payload: true}}
		}
		return nil
	}
}

// Email fails for non-empty values that are not an email address.
func Email() ValidatorFunc {
	return func(value any) Errors {
		if isEmpty(value) {
			return nil
		}
		s, ok := value.(string)
		if !ok || validate.Var(s, "email") != nil {
			return Errors{{Kind: KindEmail, Payload: true}}
		}
		return nil
	}
}

// Min fails for numeric values below minimum. Empty and non-numeric values
// pass.
func Min(minimum float64) ValidatorFunc {
	return func(value any) Errors {
		n, ok := toNumber(value)
		if !ok || n >= minimum {
			return nil
		}
		return Errors{{Kind: KindMin, Payload: MinPayload{Actual: value, Min: minimum}}}
	}
}

// Max fails for numeric values above maximum. Empty and non-numeric values
// pass.
func Max(maximum float64) ValidatorFunc {
	return func(value any) Errors {
		n, ok := toNumber(value)
		if !ok || n <= maximum {
			return nil
		}
		return Errors{{Kind: KindMax, Payload: MaxPayload{Actual: value, Max: maximum}}}
	}
}

// MinLength fails for non-empty values shorter than n.
func MinLength(n int) ValidatorFunc {
	return func(value any) Errors {
		length, ok := lengthOf(value)
		if !ok || length == 0 || length >= n {
			return nil
		}
		return Errors{{Kind: KindMinLength, Payload: LengthPayload{ActualLength: length, RequiredLength: n}}}
	}
}

// MaxLength fails for values longer than n.
func MaxLength(n int) ValidatorFunc {
	return func(value any) Errors {
		length, ok := lengthOf(value)
		if !ok || length <= n {
			return nil
		}
		return Errors{{Kind: KindMaxLength, Payload: LengthPayload{ActualLength: length, RequiredLength: n}}}
	}
}

// Pattern fails for non-empty values that do not match expr in full. It
// panics if expr does not compile.
func Pattern(expr string) ValidatorFunc {
	anchored := expr
	if !strings.HasPrefix(anchored, "^") {
		anchored = "^(?:" + anchored
	} else {
		anchored = "^(?:" + anchored[1:]
	}
	if strings.HasSuffix(anchored, "$") && !strings.HasSuffix(anchored, `\$`) {
		anchored = anchored[:len(anchored)-1] + ")$"
	} else {
		anchored += ")$"
	}
	re := regexp.MustCompile(anchored)
	return func(value any) Errors {
		if isEmpty(value) {
			return nil
		}
		s := fmt.Sprint(value)
		if re.MatchString(s) {
			return nil
		}
		return Errors{{Kind: KindPattern, Payload: PatternPayload{RequiredPattern: anchored, ActualValue: s}}}
	}
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer:
		return rv.IsNil()
	}
	return false
}

func lengthOf(value any) (int, bool) {
	if value == nil {
		return 0, false
	}
	if s, ok := value.(string); ok {
		return utf8.RuneCountInString(s), true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len(), true
	}
	return 0, false
}

func toNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case nil:
		return 0, false
	case string:
		if strings.TrimSpace(n) == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}
