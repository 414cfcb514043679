// Package errors provides structured error handling with HTTP status mapping.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Identity errors
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeConfigInvalid   Code = "CONFIG_INVALID"

	// Voucher errors
	CodeVoucherNotFound    Code = "VOUCHER_NOT_FOUND"
	CodeVoucherForbidden   Code = "VOUCHER_FORBIDDEN"
	CodeVoucherAlreadyUsed Code = "VOUCHER_ALREADY_USED"

	// Storage errors
	CodeStoreFailure Code = "STORE_FAILURE"
)

// HTTPStatus maps the error code to an HTTP status code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUnauthenticated, CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeVoucherForbidden:
		return http.StatusForbidden
	case CodeVoucherNotFound:
		return http.StatusNotFound
	case CodeVoucherAlreadyUsed:
		return http.StatusBadRequest
	case CodeConfigInvalid, CodeStoreFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
