// Package storage defines the persistence boundary for voucher records.
//
// The store is a durable key-value map keyed by voucher id. Get, put, and
// list are the only primitives; there is no conditional write and no
// secondary index, so listing is the only way to query. Backends may be
// eventually consistent, which the lifecycle engine treats as an accepted
// risk at two-user scale.
package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/voucherbox/internal/voucher"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// VoucherStore persists voucher records keyed by voucher id.
type VoucherStore interface {
	// Get fetches a voucher by id. Returns ErrNotFound when absent.
	Get(ctx context.Context, id string) (voucher.Voucher, error)
	// Put persists a voucher record under its id, overwriting any
	// previous record.
	Put(ctx context.Context, v voucher.Voucher) error
	// List returns every stored voucher record.
	List(ctx context.Context) ([]voucher.Voucher, error)
}
