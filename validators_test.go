package formsg

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRequired(t *testing.T) {
	tests := []struct {
		value any
		fail  bool
	}{
		{nil, true},
		{"", true},
		{[]string{}, true},
		{map[string]int{}, true},
		{"x", false},
		{0, false},
		{false, false},
		{[]int{1}, false},
	}
	for _, tt := range tests {
		got := Required()(tt.value)
		if tt.fail != got.Has(KindRequired) {
			t.Errorf("Required(%#v): expected fail=%v, got %v", tt.value, tt.fail, got)
		}
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		value any
		fail  bool
	}{
		{"", false},
		{nil, false},
		{"user@example.com", false},
		{"not-an-email", true},
		{"user@", true},
		{42, true},
	}
	for _, tt := range tests {
		got := Email()(tt.value)
		if tt.fail != got.Has(KindEmail) {
			t.Errorf("Email(%#v): expected fail=%v, got %v", tt.value, tt.fail, got)
		}
	}
}

func TestMinMax(t *testing.T) {
	if errs := Max(5)(6); len(errs) != 1 {
		t.Fatalf("expected a max error, got %v", errs)
	} else if diff := cmp.Diff(MaxPayload{Actual: 6, Max: 5}, errs[0].Payload); diff != "" {
		t.Errorf("max payload mismatch (-want +got):\n%s", diff)
	}
	if errs := Max(5)(5); errs != nil {
		t.Errorf("expected boundary to pass, got %v", errs)
	}
	if errs := Max(5)("7.5"); !errs.Has(KindMax) {
		t.Errorf("expected numeric string to be checked, got %v", errs)
	}

	if errs := Min(2)(uint8(1)); len(errs) != 1 {
		t.Fatalf("expected a min error, got %v", errs)
	} else if diff := cmp.Diff(MinPayload{Actual: uint8(1), Min: 2}, errs[0].Payload); diff != "" {
		t.Errorf("min payload mismatch (-want +got):\n%s", diff)
	}
	for _, v := range []any{nil, "", "abc", 2, 3.5} {
		if errs := Min(2)(v); errs != nil {
			t.Errorf("Min(2)(%#v): expected pass, got %v", v, errs)
		}
	}
}

func TestLength(t *testing.T) {
	errs := MinLength(10)("short")
	want := Errors{{Kind: KindMinLength, Payload: LengthPayload{ActualLength: 5, RequiredLength: 10}}}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Errorf("minlength mismatch (-want +got):\n%s", diff)
	}
	if errs := MinLength(10)(""); errs != nil {
		t.Errorf("expected empty value to pass minlength, got %v", errs)
	}
	if errs := MinLength(2)("héllo"); errs != nil {
		t.Errorf("expected runes to be counted, got %v", errs)
	}

	errs = MaxLength(3)([]int{1, 2, 3, 4})
	want = Errors{{Kind: KindMaxLength, Payload: LengthPayload{ActualLength: 4, RequiredLength: 3}}}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Errorf("maxlength mismatch (-want +got):\n%s", diff)
	}
	if errs := MaxLength(3)(12345); errs != nil {
		t.Errorf("expected values without length to pass, got %v", errs)
	}
}

func TestPattern(t *testing.T) {
	v := Pattern("[a-z]+")
	if errs := v("abc"); errs != nil {
		t.Errorf("expected match, got %v", errs)
	}
	if errs := v(""); errs != nil {
		t.Errorf("expected empty value to pass, got %v", errs)
	}

	errs := v("abc1")
	want := Errors{{Kind: KindPattern, Payload: PatternPayload{RequiredPattern: "^(?:[a-z]+)$", ActualValue: "abc1"}}}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Errorf("pattern mismatch (-want +got):\n%s", diff)
	}

	anchored := Pattern("^[0-9]{3}$")
	if errs := anchored("123"); errs != nil {
		t.Errorf("expected anchored match, got %v", errs)
	}
	if errs := anchored("1234"); !errs.Has(KindPattern) {
		t.Errorf("expected anchored mismatch, got %v", errs)
	}
}

func TestCompose(t *testing.T) {
	v := Compose(Required(), MinLength(3), nil, Pattern("[0-9]+"))

	if diff := cmp.Diff([]ErrorKind{KindRequired}, v("").Kinds()); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]ErrorKind{KindMinLength, KindPattern}, v("a").Kinds()); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
	if errs := v("123"); errs != nil {
		t.Errorf("expected valid, got %v", errs)
	}
}
