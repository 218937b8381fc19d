package validators

import (
	"testing"

	pkgerrors "github.com/gardenseed/storefront/pkg/errors"
)

type signupForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Note     string `json:"note" validate:"omitempty,notblank"`
}

func TestStructReportsFieldsByJSONName(t *testing.T) {
	err := Struct(signupForm{Email: "nope", Password: "123"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details %T", typed.Details())
	}
	if details["email"] != "must be a valid email" {
		t.Fatalf("unexpected email detail %q", details["email"])
	}
	if details["password"] != "must be at least 6" {
		t.Fatalf("unexpected password detail %q", details["password"])
	}
}

func TestStructAcceptsValidInput(t *testing.T) {
	if err := Struct(signupForm{Email: "a@b.co", Password: "secret1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVarNotBlank(t *testing.T) {
	err := Var("comment", "   \n\t", "notblank")
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if pkgerrors.As(err).Message() != "comment is required" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
	if err := Var("comment", "hello", "notblank"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
