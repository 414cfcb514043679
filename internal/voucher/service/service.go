// Package service implements the voucher lifecycle engine: issuing,
// redemption, and per-user statistics over the voucher store.
package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/louisbranch/voucherbox/internal/identity"
	platformerrors "github.com/louisbranch/voucherbox/internal/platform/errors"
	"github.com/louisbranch/voucherbox/internal/storage"
	"github.com/louisbranch/voucherbox/internal/voucher"
)

// VoucherService coordinates voucher operations against the store. It holds
// no voucher state between requests; every operation re-reads the store
// before mutating.
type VoucherService struct {
	store       storage.VoucherStore
	allowlist   identity.Allowlist
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewVoucherService creates a VoucherService with default dependencies.
func NewVoucherService(store storage.VoucherStore, allowlist identity.Allowlist) *VoucherService {
	return &VoucherService{
		store:       store,
		allowlist:   allowlist,
		clock:       time.Now,
		idGenerator: voucher.NewID,
	}
}

// Issue mints a new voucher from the authenticated issuer to the configured
// counterparty and persists it. Every call produces an independent voucher;
// there is no deduplication.
func (s *VoucherService) Issue(ctx context.Context, issuer identity.Principal) (voucher.Voucher, error) {
	recipient, err := s.allowlist.Counterparty(issuer)
	if err != nil {
		return voucher.Voucher{}, err
	}

	v, err := voucher.Create(voucher.CreateInput{
		Issuer:    issuer.Email,
		Recipient: recipient.Email,
	}, s.clock, s.idGenerator)
	if err != nil {
		return voucher.Voucher{}, err
	}

	if err := s.store.Put(ctx, v); err != nil {
		return voucher.Voucher{}, platformerrors.Wrap(platformerrors.CodeStoreFailure, "persist voucher", err)
	}
	return v, nil
}

// Get fetches a voucher by its token for display.
func (s *VoucherService) Get(ctx context.Context, token string) (voucher.Voucher, error) {
	v, err := s.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return voucher.Voucher{}, platformerrors.New(platformerrors.CodeVoucherNotFound, "voucher not found")
		}
		return voucher.Voucher{}, platformerrors.Wrap(platformerrors.CodeStoreFailure, "fetch voucher", err)
	}
	return v, nil
}

// Redeem transitions a voucher from unused to used on behalf of the
// authenticated principal. The checks run in a fixed order so callers see
// stable failure modes: not found, then authorization, then status.
//
// The fetch-check-put sequence is not atomic. Two concurrent redemptions of
// the same token can both observe unused and both write used; the store
// offers no conditional write to close that window, and at two trusted users
// the race is an accepted risk.
func (s *VoucherService) Redeem(ctx context.Context, p identity.Principal, token string) (voucher.Voucher, error) {
	v, err := s.Get(ctx, token)
	if err != nil {
		return voucher.Voucher{}, err
	}

	if !v.RedeemableBy(p.Email) {
		return voucher.Voucher{}, platformerrors.New(platformerrors.CodeVoucherForbidden, "voucher is addressed to another user")
	}

	updated, err := v.Redeem(s.clock().UTC())
	if err != nil {
		return voucher.Voucher{}, err
	}

	if err := s.store.Put(ctx, updated); err != nil {
		return voucher.Voucher{}, platformerrors.Wrap(platformerrors.CodeStoreFailure, "persist redeemed voucher", err)
	}
	return updated, nil
}

// Stats summarizes the vouchers relevant to one principal.
type Stats struct {
	Total  int
	Unused int
	Used   int
	// Vouchers holds every relevant record, newest first.
	Vouchers []voucher.Voucher
	// Issued holds the subset issued by the principal. Legacy records are
	// counted here by convention, never under Received.
	Issued []voucher.Voucher
	// Received holds the subset addressed to the principal.
	Received []voucher.Voucher
}

// Status lists all vouchers and partitions those relevant to the principal.
// Relevance is an exact issuer/recipient match for email-format records;
// legacy records are always included since their parties cannot be matched
// by email. The store is scanned in full on every call.
func (s *VoucherService) Status(ctx context.Context, p identity.Principal) (Stats, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return Stats{}, platformerrors.Wrap(platformerrors.CodeStoreFailure, "list vouchers", err)
	}

	var stats Stats
	for _, v := range all {
		if !v.Legacy() && v.Issuer != p.Email && v.Recipient != p.Email {
			continue
		}
		stats.Vouchers = append(stats.Vouchers, v)
	}

	sort.Slice(stats.Vouchers, func(i, j int) bool {
		return stats.Vouchers[i].IssuedAt.After(stats.Vouchers[j].IssuedAt)
	})

	for _, v := range stats.Vouchers {
		stats.Total++
		if v.Redeemed() {
			stats.Used++
		} else {
			stats.Unused++
		}
		if v.Legacy() || v.Issuer == p.Email {
			stats.Issued = append(stats.Issued, v)
		} else {
			stats.Received = append(stats.Received, v)
		}
	}

	return stats, nil
}
