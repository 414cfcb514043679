package errors

import (
	goerrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	err := New(CodeVoucherNotFound, "voucher missing")
	if !goerrors.Is(err, New(CodeVoucherNotFound, "other message")) {
		t.Fatal("expected errors with the same code to match")
	}
	if goerrors.Is(err, New(CodeVoucherForbidden, "voucher missing")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestCodeOfWrappedChain(t *testing.T) {
	cause := goerrors.New("disk unavailable")
	err := fmt.Errorf("put voucher: %w", Wrap(CodeStoreFailure, "store put failed", cause))

	if got := CodeOf(err); got != CodeStoreFailure {
		t.Fatalf("expected code %q, got %q", CodeStoreFailure, got)
	}
	if !goerrors.Is(err, cause) {
		t.Fatal("expected cause to remain in the chain")
	}
}

func TestCodeOfPlainError(t *testing.T) {
	if got := CodeOf(goerrors.New("plain")); got != CodeUnknown {
		t.Fatalf("expected %q for plain errors, got %q", CodeUnknown, got)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeVoucherForbidden, http.StatusForbidden},
		{CodeVoucherNotFound, http.StatusNotFound},
		{CodeVoucherAlreadyUsed, http.StatusBadRequest},
		{CodeConfigInvalid, http.StatusInternalServerError},
		{CodeStoreFailure, http.StatusInternalServerError},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Fatalf("code %q: expected status %d, got %d", tc.code, tc.want, got)
		}
	}
}
