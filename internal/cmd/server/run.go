package server

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/louisbranch/voucherbox/internal/identity"
	"github.com/louisbranch/voucherbox/internal/storage"
	storagebbolt "github.com/louisbranch/voucherbox/internal/storage/bbolt"
	storagedynamodb "github.com/louisbranch/voucherbox/internal/storage/dynamodb"
	"github.com/louisbranch/voucherbox/internal/voucher/service"
	"github.com/louisbranch/voucherbox/internal/web"
)

// Run starts the voucher server and blocks until the context ends.
func Run(ctx context.Context, cfg Config) error {
	allowlist, err := identity.NewAllowlist(cfg.User1Email, cfg.User2Email)
	if err != nil {
		return fmt.Errorf("configure allowlist: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	server, err := web.NewServer(web.Config{
		HTTPAddr: cfg.HTTPAddr,
		Resolver: identity.NewResolver(allowlist),
		Vouchers: service.NewVoucherService(store, allowlist),
	})
	if err != nil {
		return fmt.Errorf("init web server: %w", err)
	}

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve web: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg Config) (storage.VoucherStore, func(), error) {
	switch cfg.StorageBackend {
	case BackendBBolt:
		store, err := storagebbolt.Open(cfg.StoragePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open bbolt store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case BackendDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		store, err := storagedynamodb.New(awsdynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable)
		if err != nil {
			return nil, nil, fmt.Errorf("init dynamodb store: %w", err)
		}
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
