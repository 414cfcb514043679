package web

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/louisbranch/voucherbox/internal/identity"
	platformerrors "github.com/louisbranch/voucherbox/internal/platform/errors"
	"github.com/louisbranch/voucherbox/internal/voucher/service"
)

type handler struct {
	resolver *identity.Resolver
	vouchers *service.VoucherService
}

// NewHandler builds the HTTP handler for the voucher service.
func NewHandler(resolver *identity.Resolver, vouchers *service.VoucherService) http.Handler {
	h := &handler{
		resolver: resolver,
		vouchers: vouchers,
	}

	mux := http.NewServeMux()

	// Pages
	mux.HandleFunc(http.MethodGet+" /{$}", h.handleRoot)
	mux.HandleFunc(http.MethodGet+" /issue", h.handleIssuePage)
	mux.HandleFunc(http.MethodGet+" /voucher/{token}", h.handleVoucherPage)
	mux.HandleFunc(http.MethodGet+" /scan", h.handleScanPage)
	mux.HandleFunc(http.MethodGet+" /status", h.handleStatusPage)

	// API
	mux.HandleFunc(http.MethodPost+" /api/issue", h.handleIssueAPI)
	mux.HandleFunc(http.MethodPost+" /api/redeem", h.handleRedeemAPI)
	mux.HandleFunc(http.MethodGet+" /api/status", h.handleStatusAPI)

	return mux
}

func (h *handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/issue", http.StatusFound)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write json response: %v", err)
	}
}

// writeAPIError maps a domain error to its HTTP status and writes the JSON
// error payload. Server-side failures are logged; caller mistakes are not.
func writeAPIError(w http.ResponseWriter, err error) {
	code := platformerrors.CodeOf(err)
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Printf("api error (%s): %v", code, err)
	}
	writeJSON(w, status, errorResponse{Success: false, Error: err.Error()})
}

// writePageError maps a domain error to its HTTP status for page requests.
func writePageError(w http.ResponseWriter, err error) {
	code := platformerrors.CodeOf(err)
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Printf("page error (%s): %v", code, err)
	}
	http.Error(w, err.Error(), status)
}
