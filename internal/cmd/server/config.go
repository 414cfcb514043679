// Package server wires configuration, storage, and the web server for the
// voucher service binary.
package server

import (
	"flag"

	"github.com/louisbranch/voucherbox/internal/platform/config"
)

// Storage backend selectors.
const (
	BackendBBolt    = "bbolt"
	BackendDynamoDB = "dynamodb"
)

// Config holds the server command configuration. The two allowed user emails
// keep the variable names the original deployment used.
type Config struct {
	HTTPAddr       string `env:"VOUCHERBOX_HTTP_ADDR" envDefault:"localhost:8080"`
	User1Email     string `env:"USER1_EMAIL"`
	User2Email     string `env:"USER2_EMAIL"`
	StorageBackend string `env:"VOUCHERBOX_STORAGE" envDefault:"bbolt"`
	StoragePath    string `env:"VOUCHERBOX_STORAGE_PATH" envDefault:"voucherbox.db"`
	DynamoDBTable  string `env:"VOUCHERBOX_DYNAMODB_TABLE" envDefault:"vouchers"`
}

// ParseConfig loads configuration from the environment and applies flag
// overrides.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.StorageBackend, "storage", cfg.StorageBackend, "storage backend (bbolt or dynamodb)")
	fs.StringVar(&cfg.StoragePath, "storage-path", cfg.StoragePath, "bbolt database path")
	fs.StringVar(&cfg.DynamoDBTable, "dynamodb-table", cfg.DynamoDBTable, "DynamoDB table name")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
