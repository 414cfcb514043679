package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/louisbranch/voucherbox/internal/identity"
	platformerrors "github.com/louisbranch/voucherbox/internal/platform/errors"
)

func (h *handler) handleIssueAPI(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolver.ResolveAndAuthorize(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	v, err := h.vouchers.Issue(r.Context(), p)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	voucherURL := redemptionURL(r, v.ID)
	qr, err := qrDataURL(voucherURL)
	if err != nil {
		writeAPIError(w, platformerrors.Wrap(platformerrors.CodeUnknown, "render qr code", err))
		return
	}

	writeJSON(w, http.StatusOK, issueResponse{
		Success:       true,
		Voucher:       v,
		QRCode:        qr,
		VoucherURL:    voucherURL,
		IssuerName:    p.DisplayName(),
		RecipientName: identity.Principal{Email: v.Recipient}.DisplayName(),
	})
}

func (h *handler) handleRedeemAPI(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolver.ResolveAndAuthorize(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Error: "invalid request body"})
		return
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Error: "voucher token is required"})
		return
	}

	v, err := h.vouchers.Redeem(r.Context(), p, token)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, redeemResponse{Success: true, Voucher: v})
}

func (h *handler) handleStatusAPI(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolver.ResolveAndAuthorize(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	stats, err := h.vouchers.Status(r.Context(), p)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Total:            stats.Total,
		Unused:           stats.Unused,
		Used:             stats.Used,
		Vouchers:         nonNil(stats.Vouchers),
		IssuedVouchers:   nonNil(stats.Issued),
		ReceivedVouchers: nonNil(stats.Received),
	})
}
