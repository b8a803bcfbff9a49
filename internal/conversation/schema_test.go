package conversation

import (
	"testing"

	"github.com/m3rciful/estatebot/internal/domain"
)

func TestValidateBathrooms(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2", "2", false},
		{" 3 ", "3", false},
		{"0", "0", false},
		{"abc", "", true},
		{"-1", "", true},
		{"2.5", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := validateBathrooms(tc.in)
		if tc.wantErr {
			if !domain.IsValidation(err) {
				t.Errorf("validateBathrooms(%q): expected validation error, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("validateBathrooms(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("validateBathrooms(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidatePrice(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"125000", "125000", false},
		{"125000.50", "125000.5", false},
		{" 99.9 ", "99.9", false},
		{"0", "", true},
		{"-5", "", true},
		{"cheap", "", true},
		{"NaN", "", true},
		{"nan", "", true},
		{"Inf", "", true},
		{"+Inf", "", true},
		{"-Inf", "", true},
		{"Infinity", "", true},
		{"1e400", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := validatePrice(tc.in)
		if tc.wantErr {
			if !domain.IsValidation(err) {
				t.Errorf("validatePrice(%q): expected validation error, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("validatePrice(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("validatePrice(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidateStatus(t *testing.T) {
	for _, ok := range []string{"available", "sold", "price_changed", "removed", " Sold "} {
		if _, err := validateStatus(ok); err != nil {
			t.Errorf("validateStatus(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"", "archived", "SOLD OUT"} {
		if _, err := validateStatus(bad); !domain.IsValidation(err) {
			t.Errorf("validateStatus(%q): expected validation error", bad)
		}
	}
}

func TestNonEmptyTrims(t *testing.T) {
	v := nonEmpty(FieldLocation)
	got, err := v("  Old Town 5  ")
	if err != nil || got != "Old Town 5" {
		t.Fatalf("nonEmpty = %q, %v", got, err)
	}
	if _, err := v("   "); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for blank input, got %v", err)
	}
}

func TestEveryCreationStepHasASpec(t *testing.T) {
	for _, step := range creationSteps {
		if step == StepMedia || step == StepConfirm {
			continue
		}
		field, ok := stepField[step]
		if !ok {
			t.Errorf("step %v has no field mapping", step)
			continue
		}
		if _, ok := Field(field); !ok {
			t.Errorf("field %q has no spec", field)
		}
	}
}

func TestEditableFieldsHaveSpecsAndLabels(t *testing.T) {
	for _, f := range EditableFields() {
		if !Editable(f) {
			t.Errorf("EditableFields returned non-editable %q", f)
		}
		if _, ok := Field(f); !ok {
			t.Errorf("editable field %q has no spec", f)
		}
		if FieldLabel[f] == "" {
			t.Errorf("editable field %q has no label", f)
		}
	}
	if Editable(FieldMedia) {
		t.Error("media must not be editable field-by-field")
	}
	if Editable("bogus") {
		t.Error("unknown field reported editable")
	}
}
