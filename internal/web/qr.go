package web

import (
	"encoding/base64"
	"fmt"
	"net/http"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSizePixels = 300

// qrDataURL encodes content as a QR code PNG and returns it as a data URL
// suitable for an img src attribute.
func qrDataURL(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, qrSizePixels)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// redemptionURL builds the absolute URL that redeems the voucher, derived
// from the incoming request's origin. The access proxy terminates TLS, so
// the forwarded proto header wins over the direct connection state.
func redemptionURL(r *http.Request, voucherID string) string {
	scheme := "http"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/voucher/%s", scheme, r.Host, voucherID)
}
