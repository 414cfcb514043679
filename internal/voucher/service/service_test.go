package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/voucherbox/internal/identity"
	platformerrors "github.com/louisbranch/voucherbox/internal/platform/errors"
	"github.com/louisbranch/voucherbox/internal/storage"
	"github.com/louisbranch/voucherbox/internal/voucher"
)

// memStore is an in-memory VoucherStore for engine tests.
type memStore struct {
	vouchers map[string]voucher.Voucher
	putErr   error
	listErr  error
}

func newMemStore() *memStore {
	return &memStore{vouchers: make(map[string]voucher.Voucher)}
}

func (m *memStore) Get(_ context.Context, id string) (voucher.Voucher, error) {
	v, ok := m.vouchers[id]
	if !ok {
		return voucher.Voucher{}, storage.ErrNotFound
	}
	return v, nil
}

func (m *memStore) Put(_ context.Context, v voucher.Voucher) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.vouchers[v.ID] = v
	return nil
}

func (m *memStore) List(_ context.Context) ([]voucher.Voucher, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var all []voucher.Voucher
	for _, v := range m.vouchers {
		all = append(all, v)
	}
	return all, nil
}

var (
	alice = identity.Principal{Email: "a@x.com"}
	bob   = identity.Principal{Email: "b@x.com"}
	carol = identity.Principal{Email: "c@x.com"}
)

func newTestService(t *testing.T, store storage.VoucherStore) *VoucherService {
	t.Helper()
	allowlist, err := identity.NewAllowlist("a@x.com", "b@x.com")
	if err != nil {
		t.Fatalf("new allowlist: %v", err)
	}
	return NewVoucherService(store, allowlist)
}

func TestIssueCreatesUnusedVoucherForCounterparty(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	v, err := svc.Issue(context.Background(), alice)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if v.Issuer != "a@x.com" {
		t.Fatalf("expected issuer a@x.com, got %q", v.Issuer)
	}
	if v.Recipient != "b@x.com" {
		t.Fatalf("expected recipient b@x.com, got %q", v.Recipient)
	}
	if v.Status != voucher.StatusUnused {
		t.Fatalf("expected status unused, got %q", v.Status)
	}
	if !v.RedeemedAt.IsZero() {
		t.Fatal("expected no redeemedAt on a fresh voucher")
	}

	stored, err := store.Get(context.Background(), v.ID)
	if err != nil {
		t.Fatalf("get stored voucher: %v", err)
	}
	if stored.ID != v.ID {
		t.Fatalf("expected stored id %q, got %q", v.ID, stored.ID)
	}
}

func TestIssueByEitherPrincipal(t *testing.T) {
	svc := newTestService(t, newMemStore())

	v, err := svc.Issue(context.Background(), bob)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if v.Issuer != "b@x.com" || v.Recipient != "a@x.com" {
		t.Fatalf("expected b@x.com -> a@x.com, got %q -> %q", v.Issuer, v.Recipient)
	}
}

func TestIssueRepeatedCallsMintIndependentVouchers(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	first, err := svc.Issue(context.Background(), alice)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, err := svc.Issue(context.Background(), alice)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("expected distinct voucher ids")
	}
	if len(store.vouchers) != 2 {
		t.Fatalf("expected 2 stored vouchers, got %d", len(store.vouchers))
	}
}

func TestIssueNonMemberFails(t *testing.T) {
	svc := newTestService(t, newMemStore())

	_, err := svc.Issue(context.Background(), carol)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestIssueStoreFailure(t *testing.T) {
	store := newMemStore()
	store.putErr = errors.New("disk full")
	svc := newTestService(t, store)

	_, err := svc.Issue(context.Background(), alice)
	if !platformerrors.IsCode(err, platformerrors.CodeStoreFailure) {
		t.Fatalf("expected store failure, got %v", err)
	}
}

func TestRedeemLifecycle(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	v, err := svc.Issue(context.Background(), alice)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// A third party must not redeem before the recipient does.
	_, err = svc.Redeem(context.Background(), carol, v.ID)
	if !platformerrors.IsCode(err, platformerrors.CodeVoucherForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// The issuer is not the recipient either.
	_, err = svc.Redeem(context.Background(), alice, v.ID)
	if !platformerrors.IsCode(err, platformerrors.CodeVoucherForbidden) {
		t.Fatalf("expected forbidden for issuer, got %v", err)
	}

	redeemed, err := svc.Redeem(context.Background(), bob, v.ID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if redeemed.Status != voucher.StatusUsed {
		t.Fatalf("expected status used, got %q", redeemed.Status)
	}
	if redeemed.RedeemedAt.IsZero() {
		t.Fatal("expected redeemedAt to be set")
	}

	// Second attempt fails and the stored record stays unchanged.
	_, err = svc.Redeem(context.Background(), bob, v.ID)
	if !platformerrors.IsCode(err, platformerrors.CodeVoucherAlreadyUsed) {
		t.Fatalf("expected already-used, got %v", err)
	}
	// Authorization is checked before status, so a non-recipient still sees
	// forbidden on a used voucher.
	_, err = svc.Redeem(context.Background(), alice, v.ID)
	if !platformerrors.IsCode(err, platformerrors.CodeVoucherForbidden) {
		t.Fatalf("expected forbidden for non-recipient, got %v", err)
	}

	stored, err := store.Get(context.Background(), v.ID)
	if err != nil {
		t.Fatalf("get stored voucher: %v", err)
	}
	if !stored.RedeemedAt.Equal(redeemed.RedeemedAt) {
		t.Fatalf("stored record changed after refused redeem: %v vs %v", stored.RedeemedAt, redeemed.RedeemedAt)
	}
}

func TestRedeemUnknownToken(t *testing.T) {
	svc := newTestService(t, newMemStore())

	_, err := svc.Redeem(context.Background(), bob, "missing")
	if !platformerrors.IsCode(err, platformerrors.CodeVoucherNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRedeemLegacyVoucherByAnyPrincipal(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	legacy := voucher.Voucher{
		ID:        "vch-legacy",
		Issuer:    "我",
		Recipient: "伴侶",
		IssuedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Status:    voucher.StatusUnused,
		Format:    voucher.FormatLegacy,
	}
	if err := store.Put(context.Background(), legacy); err != nil {
		t.Fatalf("put legacy voucher: %v", err)
	}

	redeemed, err := svc.Redeem(context.Background(), alice, legacy.ID)
	if err != nil {
		t.Fatalf("redeem legacy: %v", err)
	}
	if redeemed.Status != voucher.StatusUsed {
		t.Fatalf("expected status used, got %q", redeemed.Status)
	}

	// Once used, legacy vouchers refuse a second redemption like any other.
	_, err = svc.Redeem(context.Background(), bob, legacy.ID)
	if !platformerrors.IsCode(err, platformerrors.CodeVoucherAlreadyUsed) {
		t.Fatalf("expected already-used, got %v", err)
	}
}

func TestGetUnknownToken(t *testing.T) {
	svc := newTestService(t, newMemStore())

	_, err := svc.Get(context.Background(), "missing")
	if !platformerrors.IsCode(err, platformerrors.CodeVoucherNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStatusPartitionsAndCounts(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	records := []voucher.Voucher{
		{ID: "by-alice", Issuer: "a@x.com", Recipient: "b@x.com", IssuedAt: base, Status: voucher.StatusUnused, Format: voucher.FormatEmail},
		{ID: "by-bob", Issuer: "b@x.com", Recipient: "a@x.com", IssuedAt: base.Add(time.Minute), Status: voucher.StatusUsed, RedeemedAt: base.Add(time.Hour), Format: voucher.FormatEmail},
		{ID: "legacy", Issuer: "我", Recipient: "伴侶", IssuedAt: base.Add(2 * time.Minute), Status: voucher.StatusUnused, Format: voucher.FormatLegacy},
		{ID: "other-pair", Issuer: "c@x.com", Recipient: "d@x.com", IssuedAt: base.Add(3 * time.Minute), Status: voucher.StatusUnused, Format: voucher.FormatEmail},
	}
	for _, v := range records {
		if err := store.Put(context.Background(), v); err != nil {
			t.Fatalf("put voucher %s: %v", v.ID, err)
		}
	}

	stats, err := svc.Status(context.Background(), alice)
	if err != nil {
		t.Fatalf("status: %v", err)
	}

	if stats.Total != 3 {
		t.Fatalf("expected total 3, got %d", stats.Total)
	}
	if stats.Unused != 2 {
		t.Fatalf("expected 2 unused, got %d", stats.Unused)
	}
	if stats.Used != 1 {
		t.Fatalf("expected 1 used, got %d", stats.Used)
	}

	if len(stats.Vouchers) != 3 {
		t.Fatalf("expected 3 vouchers, got %d", len(stats.Vouchers))
	}
	for _, v := range stats.Vouchers {
		if v.ID == "other-pair" {
			t.Fatal("vouchers between other parties must be excluded")
		}
	}

	// Newest first.
	for i := 1; i < len(stats.Vouchers); i++ {
		if stats.Vouchers[i].IssuedAt.After(stats.Vouchers[i-1].IssuedAt) {
			t.Fatal("expected vouchers sorted by issuedAt descending")
		}
	}

	// Legacy records count as issued by convention, never received.
	if len(stats.Issued) != 2 {
		t.Fatalf("expected 2 issued, got %d", len(stats.Issued))
	}
	if len(stats.Received) != 1 {
		t.Fatalf("expected 1 received, got %d", len(stats.Received))
	}
	if stats.Received[0].ID != "by-bob" {
		t.Fatalf("expected received voucher by-bob, got %q", stats.Received[0].ID)
	}

	// Issued and received are disjoint.
	issued := make(map[string]bool)
	for _, v := range stats.Issued {
		issued[v.ID] = true
	}
	for _, v := range stats.Received {
		if issued[v.ID] {
			t.Fatalf("voucher %q appears in both issued and received", v.ID)
		}
	}
}

func TestStatusEmptyStore(t *testing.T) {
	svc := newTestService(t, newMemStore())

	stats, err := svc.Status(context.Background(), alice)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if stats.Total != 0 || stats.Unused != 0 || stats.Used != 0 {
		t.Fatalf("expected zero counts, got %+v", stats)
	}
}

func TestStatusStoreFailure(t *testing.T) {
	store := newMemStore()
	store.listErr = errors.New("scan failed")
	svc := newTestService(t, store)

	_, err := svc.Status(context.Background(), alice)
	if !platformerrors.IsCode(err, platformerrors.CodeStoreFailure) {
		t.Fatalf("expected store failure, got %v", err)
	}
}

// TestTwoPartyScenario walks the documented end-to-end exchange between the
// two configured users.
func TestTwoPartyScenario(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	v, err := svc.Issue(context.Background(), alice)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if v.Issuer != "a@x.com" || v.Recipient != "b@x.com" || v.Status != voucher.StatusUnused {
		t.Fatalf("unexpected issued voucher: %+v", v)
	}

	if _, err := svc.Redeem(context.Background(), carol, v.ID); !platformerrors.IsCode(err, platformerrors.CodeVoucherForbidden) {
		t.Fatalf("expected forbidden for outsider, got %v", err)
	}

	redeemed, err := svc.Redeem(context.Background(), bob, v.ID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if redeemed.Status != voucher.StatusUsed || redeemed.RedeemedAt.IsZero() {
		t.Fatalf("unexpected redeemed voucher: %+v", redeemed)
	}

	if _, err := svc.Redeem(context.Background(), bob, v.ID); !platformerrors.IsCode(err, platformerrors.CodeVoucherAlreadyUsed) {
		t.Fatalf("expected already-used for recipient, got %v", err)
	}
	if _, err := svc.Redeem(context.Background(), alice, v.ID); !platformerrors.IsCode(err, platformerrors.CodeVoucherForbidden) {
		t.Fatalf("expected forbidden for issuer, got %v", err)
	}
}
