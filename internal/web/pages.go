package web

import (
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/voucherbox/internal/identity"
	"github.com/louisbranch/voucherbox/internal/voucher"
)

type issuePageView struct {
	IssuerName    string
	RecipientName string
}

type voucherPageView struct {
	ID            string
	IssuerName    string
	RecipientName string
	IssuedAt      string
	RedeemedAt    string
	Used          bool
	CanRedeem     bool
	QRCode        template.URL
}

type scanPageView struct {
	UserName string
}

type voucherRow struct {
	ID            string
	IssuerName    string
	RecipientName string
	IssuedAt      string
	RedeemedAt    string
	Used          bool
}

type statusPageView struct {
	UserName string
	Total    int
	Unused   int
	Used     int
	Issued   []voucherRow
	Received []voucherRow
}

const pageTimeLayout = "2006-01-02 15:04 MST"

// partyName renders a stored issuer/recipient field for display. Email
// fields reduce to their local part; legacy display names pass through.
func partyName(field string) string {
	return identity.Principal{Email: field}.DisplayName()
}

func formatPageTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(pageTimeLayout)
}

func (h *handler) render(w http.ResponseWriter, name string, view any) {
	if err := templates.ExecuteTemplate(w, name, view); err != nil {
		log.Printf("render %s: %v", name, err)
	}
}

func (h *handler) handleIssuePage(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolver.ResolveAndAuthorize(r)
	if err != nil {
		writePageError(w, err)
		return
	}

	recipient, err := h.resolver.Allowlist().Counterparty(p)
	if err != nil {
		writePageError(w, err)
		return
	}

	h.render(w, "issue.html", issuePageView{
		IssuerName:    p.DisplayName(),
		RecipientName: recipient.DisplayName(),
	})
}

func (h *handler) handleVoucherPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolver.ResolveAndAuthorize(r)
	if err != nil {
		writePageError(w, err)
		return
	}

	token := strings.TrimSpace(r.PathValue("token"))
	v, err := h.vouchers.Get(r.Context(), token)
	if err != nil {
		writePageError(w, err)
		return
	}

	qr, err := qrDataURL(redemptionURL(r, v.ID))
	if err != nil {
		log.Printf("render qr for voucher %s: %v", v.ID, err)
	}

	h.render(w, "voucher.html", voucherPageView{
		ID:            v.ID,
		IssuerName:    partyName(v.Issuer),
		RecipientName: partyName(v.Recipient),
		IssuedAt:      formatPageTime(v.IssuedAt),
		RedeemedAt:    formatPageTime(v.RedeemedAt),
		Used:          v.Redeemed(),
		CanRedeem:     !v.Redeemed() && v.RedeemableBy(p.Email),
		// data: URLs are stripped by the template sanitizer unless typed.
		QRCode: template.URL(qr),
	})
}

func (h *handler) handleScanPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolver.ResolveAndAuthorize(r)
	if err != nil {
		writePageError(w, err)
		return
	}

	h.render(w, "scan.html", scanPageView{UserName: p.DisplayName()})
}

func (h *handler) handleStatusPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolver.ResolveAndAuthorize(r)
	if err != nil {
		writePageError(w, err)
		return
	}

	stats, err := h.vouchers.Status(r.Context(), p)
	if err != nil {
		writePageError(w, err)
		return
	}

	view := statusPageView{
		UserName: p.DisplayName(),
		Total:    stats.Total,
		Unused:   stats.Unused,
		Used:     stats.Used,
		Issued:   voucherRows(stats.Issued),
		Received: voucherRows(stats.Received),
	}
	h.render(w, "status.html", view)
}

func voucherRows(vouchers []voucher.Voucher) []voucherRow {
	rows := make([]voucherRow, 0, len(vouchers))
	for _, v := range vouchers {
		rows = append(rows, voucherRow{
			ID:            v.ID,
			IssuerName:    partyName(v.Issuer),
			RecipientName: partyName(v.Recipient),
			IssuedAt:      formatPageTime(v.IssuedAt),
			RedeemedAt:    formatPageTime(v.RedeemedAt),
			Used:          v.Redeemed(),
		})
	}
	return rows
}
