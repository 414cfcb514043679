// Package dynamodb provides the DynamoDB-backed voucher store for
// deployments that want a managed, replicated key-value backend. DynamoDB
// reads are eventually consistent by default, which matches the store
// contract: a get or scan shortly after a put may observe stale data.
package dynamodb

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/louisbranch/voucherbox/internal/storage"
	"github.com/louisbranch/voucherbox/internal/voucher"
)

// Client is the subset of the DynamoDB API the store uses.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Store provides a DynamoDB-backed voucher store.
type Store struct {
	client    Client
	tableName string
}

// New builds a store over the provided DynamoDB client and table. The table
// must use the voucher id as its partition key, attribute name "id".
func New(client Client, tableName string) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("dynamodb client is required")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, fmt.Errorf("dynamodb table name is required")
	}
	return &Store{client: client, tableName: tableName}, nil
}

// record is the flat persisted shape. Timestamps are stored as RFC 3339
// strings so records stay readable and compatible with the original layout.
type record struct {
	ID         string `dynamodbav:"id"`
	Issuer     string `dynamodbav:"issuer"`
	Recipient  string `dynamodbav:"recipient"`
	IssuedAt   string `dynamodbav:"issuedAt"`
	RedeemedAt string `dynamodbav:"redeemedAt,omitempty"`
	Status     string `dynamodbav:"status"`
}

func toRecord(v voucher.Voucher) record {
	rec := record{
		ID:        v.ID,
		Issuer:    v.Issuer,
		Recipient: v.Recipient,
		IssuedAt:  v.IssuedAt.UTC().Format(time.RFC3339Nano),
		Status:    string(v.Status),
	}
	if !v.RedeemedAt.IsZero() {
		rec.RedeemedAt = v.RedeemedAt.UTC().Format(time.RFC3339Nano)
	}
	return rec
}

func fromRecord(rec record) (voucher.Voucher, error) {
	issuedAt, err := time.Parse(time.RFC3339Nano, rec.IssuedAt)
	if err != nil {
		return voucher.Voucher{}, fmt.Errorf("parse issuedAt for voucher %q: %w", rec.ID, err)
	}

	v := voucher.Voucher{
		ID:        rec.ID,
		Issuer:    rec.Issuer,
		Recipient: rec.Recipient,
		IssuedAt:  issuedAt,
		Status:    voucher.Status(rec.Status),
		Format:    voucher.DetectFormat(rec.Issuer),
	}
	if v.Status == "" {
		v.Status = voucher.StatusUnused
	}
	if rec.RedeemedAt != "" {
		redeemedAt, err := time.Parse(time.RFC3339Nano, rec.RedeemedAt)
		if err != nil {
			return voucher.Voucher{}, fmt.Errorf("parse redeemedAt for voucher %q: %w", rec.ID, err)
		}
		v.RedeemedAt = redeemedAt
	}
	return v, nil
}

// Put persists a voucher record keyed by its id.
func (s *Store) Put(ctx context.Context, v voucher.Voucher) error {
	if strings.TrimSpace(v.ID) == "" {
		return fmt.Errorf("voucher id is required")
	}

	item, err := attributevalue.MarshalMap(toRecord(v))
	if err != nil {
		return fmt.Errorf("marshal voucher: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put voucher: %w", err)
	}
	return nil
}

// Get fetches a voucher record by id.
func (s *Store) Get(ctx context.Context, id string) (voucher.Voucher, error) {
	if strings.TrimSpace(id) == "" {
		return voucher.Voucher{}, fmt.Errorf("voucher id is required")
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]dynamodbtypes.AttributeValue{
			"id": &dynamodbtypes.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return voucher.Voucher{}, fmt.Errorf("get voucher: %w", err)
	}
	if result.Item == nil {
		return voucher.Voucher{}, storage.ErrNotFound
	}

	var rec record
	if err := attributevalue.UnmarshalMap(result.Item, &rec); err != nil {
		return voucher.Voucher{}, fmt.Errorf("unmarshal voucher: %w", err)
	}
	return fromRecord(rec)
}

// List returns every stored voucher record, scanning the full table.
// Records that no longer decode are logged and skipped so one bad item
// cannot hide the rest.
func (s *Store) List(ctx context.Context) ([]voucher.Voucher, error) {
	var vouchers []voucher.Voucher
	var startKey map[string]dynamodbtypes.AttributeValue

	for {
		result, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan vouchers: %w", err)
		}

		var records []record
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &records); err != nil {
			return nil, fmt.Errorf("unmarshal vouchers: %w", err)
		}
		for _, rec := range records {
			v, err := fromRecord(rec)
			if err != nil {
				log.Printf("skip undecodable voucher record %q: %v", rec.ID, err)
				continue
			}
			vouchers = append(vouchers, v)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	return vouchers, nil
}
