package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindValidation, http.StatusBadRequest},
		{KindBadRequest, http.StatusBadRequest},
		{KindConflict, http.StatusConflict},
		{KindForbidden, http.StatusForbidden},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindInternal, http.StatusInternalServerError},
		{KindGone, http.StatusGone},
		{KindUnknown, http.StatusBadRequest},
	}

	for _, tc := range cases {
		got := New(tc.kind, "boom").HTTPStatus()
		if got != tc.want {
			t.Errorf("kind %d: HTTPStatus() = %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindInternal, "create assignments", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is should find the wrapped cause")
	}

	var appErr *Error
	if !errors.As(fmt.Errorf("handler: %w", err), &appErr) {
		t.Fatalf("errors.As should unwrap through fmt wrapping")
	}
	if appErr.Kind != KindInternal {
		t.Fatalf("unwrapped kind = %d, want KindInternal", appErr.Kind)
	}
}

func TestErrorMessageIncludesOp(t *testing.T) {
	err := NotFound("assignment not found").WithOp("matching.Respond")
	if got, want := err.Error(), "matching.Respond: assignment not found"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}

	bare := Conflict("offer no longer available")
	if bare.Error() != "offer no longer available" {
		t.Fatalf("Error() without op = %q", bare.Error())
	}
}

func TestConvenienceConstructors(t *testing.T) {
	cases := []struct {
		err  *Error
		kind Kind
	}{
		{NotFound("x"), KindNotFound},
		{Validation("x"), KindValidation},
		{Conflict("x"), KindConflict},
	}

	for _, tc := range cases {
		if tc.err.Kind != tc.kind {
			t.Errorf("constructor produced kind %d, want %d", tc.err.Kind, tc.kind)
		}
	}
}
