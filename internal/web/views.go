package web

import "github.com/louisbranch/voucherbox/internal/voucher"

// API response shapes. Field names match the payloads the pages and any
// existing clients already consume.

type issueResponse struct {
	Success       bool            `json:"success"`
	Voucher       voucher.Voucher `json:"voucher"`
	QRCode        string          `json:"qrCode"`
	VoucherURL    string          `json:"voucherUrl"`
	IssuerName    string          `json:"issuerName"`
	RecipientName string          `json:"recipientName"`
}

type redeemRequest struct {
	Token string `json:"token"`
}

type redeemResponse struct {
	Success bool            `json:"success"`
	Voucher voucher.Voucher `json:"voucher"`
}

type statusResponse struct {
	Total            int               `json:"total"`
	Unused           int               `json:"unused"`
	Used             int               `json:"used"`
	Vouchers         []voucher.Voucher `json:"vouchers"`
	IssuedVouchers   []voucher.Voucher `json:"issuedVouchers"`
	ReceivedVouchers []voucher.Voucher `json:"receivedVouchers"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// nonNil keeps empty voucher lists rendering as JSON arrays, not null.
func nonNil(vouchers []voucher.Voucher) []voucher.Voucher {
	if vouchers == nil {
		return []voucher.Voucher{}
	}
	return vouchers
}
