package main

import (
	"testing"

	"github.com/shezi1344/taskflow-cli/internal/errs"
)

func TestValidateSignIn(t *testing.T) {
	if err := validateSignIn("a@b.com", "pw123456"); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	for _, tc := range []struct{ email, pass string }{
		{"", "pw123456"},
		{"not-an-email", "pw123456"},
		{"a@b", "pw123456"},
		{"a@b.com", ""},
	} {
		err := validateSignIn(tc.email, tc.pass)
		if errs.KindOf(err) != errs.KindValidationFailed {
			t.Fatalf("(%q,%q): err=%v, want validation failure", tc.email, tc.pass, err)
		}
	}
}

func TestValidateSignUp(t *testing.T) {
	if err := validateSignUp("a@b.com", "pw123456", "pw123456", "A"); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	// confirmation mismatch stays entirely client-side
	err := validateSignUp("a@b.com", "pw123456", "pw1234567", "A")
	if errs.KindOf(err) != errs.KindValidationFailed {
		t.Fatalf("mismatch: err=%v", err)
	}

	if err := validateSignUp("a@b.com", "short", "short", "A"); errs.KindOf(err) != errs.KindValidationFailed {
		t.Fatalf("short password: err=%v", err)
	}
	if err := validateSignUp("a@b.com", "pw123456", "pw123456", "  "); errs.KindOf(err) != errs.KindValidationFailed {
		t.Fatalf("blank name: err=%v", err)
	}
}
