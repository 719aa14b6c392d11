package validator

import "testing"

func TestPostcodeRule(t *testing.T) {
	val := New()

	valid := []string{"1234AB", "1234 AB", "9999zz", " 1012JS "}
	for _, input := range valid {
		if err := val.Var(input, "postcode"); err != nil {
			t.Errorf("postcode %q should be valid: %v", input, err)
		}
	}

	invalid := []string{"0123AB", "1234", "AB1234", "12345A", "1234ABC", ""}
	for _, input := range invalid {
		if err := val.Var(input, "postcode"); err == nil {
			t.Errorf("postcode %q should be rejected", input)
		}
	}
}

func TestStructValidationUsesPostcodeTag(t *testing.T) {
	type areaInput struct {
		Postcode string `validate:"required,postcode"`
	}

	val := New()

	if err := val.Struct(areaInput{Postcode: "2511CV"}); err != nil {
		t.Fatalf("valid struct rejected: %v", err)
	}
	if err := val.Struct(areaInput{Postcode: "0000XX"}); err == nil {
		t.Fatalf("leading-zero postcode should fail struct validation")
	}
}
