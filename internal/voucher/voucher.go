// Package voucher defines the single-use voucher record and its lifecycle
// rules. A voucher moves through exactly one transition, unused to used, and
// never leaves used.
package voucher

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	platformerrors "github.com/louisbranch/voucherbox/internal/platform/errors"
)

// Status is the redemption state of a voucher.
type Status string

const (
	// StatusUnused is the initial and only entry state.
	StatusUnused Status = "unused"
	// StatusUsed is terminal. No transition leaves it.
	StatusUsed Status = "used"
)

// Format discriminates the two persisted voucher shapes. Vouchers created
// before the email-based identity model carry free-text display names in the
// issuer and recipient fields instead of emails.
type Format int

const (
	// FormatEmail is the current shape: issuer and recipient are emails.
	FormatEmail Format = iota
	// FormatLegacy is the pre-email shape, recognized by the issuer field
	// lacking a domain separator. Legacy vouchers bypass recipient matching
	// on redemption.
	FormatLegacy
)

// DetectFormat classifies a stored issuer field. The discriminator is
// deliberately the same string sniff the existing data was written against;
// records already persisted in this shape must keep resolving the same way.
func DetectFormat(issuer string) Format {
	if strings.Contains(issuer, "@") {
		return FormatEmail
	}
	return FormatLegacy
}

// Voucher is the sole persistent entity. The JSON field names match the
// records already in the store and must not change.
type Voucher struct {
	ID         string    `json:"id"`
	Issuer     string    `json:"issuer"`
	Recipient  string    `json:"recipient"`
	IssuedAt   time.Time `json:"issuedAt"`
	RedeemedAt time.Time `json:"redeemedAt,omitzero"`
	Status     Status    `json:"status"`

	// Format is resolved once when the record is loaded, never persisted.
	Format Format `json:"-"`
}

// Legacy reports whether the voucher predates the email identity model.
func (v Voucher) Legacy() bool {
	return v.Format == FormatLegacy
}

// Redeemed reports whether the voucher has already been used.
func (v Voucher) Redeemed() bool {
	return v.Status == StatusUsed
}

// RedeemableBy reports whether the principal email may redeem this voucher.
// Legacy vouchers carry display names instead of emails, so recipient
// matching is impossible for them; any authenticated principal may redeem.
func (v Voucher) RedeemableBy(email string) bool {
	if v.Legacy() {
		return true
	}
	return v.Recipient == email
}

// Redeem returns a copy of the voucher transitioned to used. The transition
// is refused, never repeated, when the voucher is already used.
func (v Voucher) Redeem(now time.Time) (Voucher, error) {
	if v.Redeemed() {
		return Voucher{}, platformerrors.New(platformerrors.CodeVoucherAlreadyUsed, "voucher has already been redeemed")
	}
	v.Status = StatusUsed
	v.RedeemedAt = now
	return v, nil
}

// CreateInput carries the fields required to mint a voucher.
type CreateInput struct {
	Issuer    string
	Recipient string
}

// Create mints a new unused voucher. Issuer and recipient must be distinct;
// the two configured principals always are, but the invariant is checked here
// so no caller can mint a self-addressed voucher.
func Create(in CreateInput, clock func() time.Time, idGenerator func() (string, error)) (Voucher, error) {
	issuer := strings.TrimSpace(in.Issuer)
	recipient := strings.TrimSpace(in.Recipient)

	if issuer == "" || recipient == "" {
		return Voucher{}, platformerrors.New(platformerrors.CodeConfigInvalid, "voucher issuer and recipient are required")
	}
	if issuer == recipient {
		return Voucher{}, platformerrors.New(platformerrors.CodeConfigInvalid, "voucher issuer and recipient must be distinct")
	}

	id, err := idGenerator()
	if err != nil {
		return Voucher{}, fmt.Errorf("generate voucher id: %w", err)
	}

	return Voucher{
		ID:        id,
		Issuer:    issuer,
		Recipient: recipient,
		IssuedAt:  clock().UTC(),
		Status:    StatusUnused,
		Format:    DetectFormat(issuer),
	}, nil
}

// Encode serializes the voucher for storage.
func Encode(v Voucher) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal voucher: %w", err)
	}
	return payload, nil
}

// Decode deserializes a stored voucher and resolves its format. This is the
// single point where the legacy discriminator runs; everything downstream
// branches on the resolved Format instead of re-sniffing strings.
func Decode(payload []byte) (Voucher, error) {
	var v Voucher
	if err := json.Unmarshal(payload, &v); err != nil {
		return Voucher{}, fmt.Errorf("unmarshal voucher: %w", err)
	}
	if v.Status == "" {
		v.Status = StatusUnused
	}
	v.Format = DetectFormat(v.Issuer)
	return v, nil
}
