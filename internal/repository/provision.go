package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"avatar-interview/internal/domain"
)

const (
	batchWriteLimit    = 25
	maxBatchAttempts   = 5
	tableActiveTimeout = 2 * time.Minute
)

// adminAPI adds the table management calls used only by operator tooling.
type adminAPI interface {
	dynamodbAPI
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// Provisioner creates the tables and loads dialog records.
type Provisioner struct {
	*Client
	admin adminAPI
	// waitActive blocks until a freshly created table is usable.
	waitActive func(ctx context.Context, table string) error
}

// NewProvisioner wraps api for table management on top of a regular Client.
func NewProvisioner(api adminAPI, dialogsTable, transcriptsTable string) (*Provisioner, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	c, err := New(api, dialogsTable, transcriptsTable)
	if err != nil {
		return nil, err
	}
	p := &Provisioner{Client: c, admin: api}
	p.waitActive = func(ctx context.Context, table string) error {
		w := dynamodb.NewTableExistsWaiter(api)
		return w.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, tableActiveTimeout)
	}
	return p, nil
}

// EnsureTables creates both tables with an "id" string key when missing.
func (p *Provisioner) EnsureTables(ctx context.Context) error {
	for _, table := range []string{p.dialogsTable, p.transcriptsTable} {
		created, err := p.createTable(ctx, table)
		if err != nil {
			return fmt.Errorf("repository: EnsureTables: %w", err)
		}
		if !created {
			continue
		}
		if err := p.waitActive(ctx, table); err != nil {
			return fmt.Errorf("repository: EnsureTables wait for %s: %w", table, err)
		}
	}
	return nil
}

func (p *Provisioner) createTable(ctx context.Context, table string) (bool, error) {
	_, err := p.admin.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrID), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrID), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return false, nil
		}
		return false, fmt.Errorf("create table %s: %w", table, err)
	}
	return true, nil
}

// PutDialogs writes dialogs in batches. Records without an ID are keyed by
// their content, so reseeding the same file overwrites instead of duplicating.
// Repeated keys within one call are written once.
func (p *Provisioner) PutDialogs(ctx context.Context, dialogs []domain.Dialog) error {
	requests := make([]types.WriteRequest, 0, len(dialogs))
	seen := make(map[string]bool, len(dialogs))
	for i, d := range dialogs {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("repository: PutDialogs: dialog %d: %w", i, err)
		}
		if d.ID == "" {
			d.ID = DialogKey(d)
		}
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		item, err := dialogItem(d)
		if err != nil {
			return fmt.Errorf("repository: PutDialogs: dialog %d: %w", i, err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	for start := 0; start < len(requests); start += batchWriteLimit {
		end := min(start+batchWriteLimit, len(requests))
		if err := p.writeBatch(ctx, requests[start:end]); err != nil {
			return fmt.Errorf("repository: PutDialogs: %w", err)
		}
	}
	return nil
}

// DialogKey derives a stable key from a dialog's category and text.
func DialogKey(d domain.Dialog) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(d.Category+"\x00"+d.Text)).String()
}

// writeBatch resubmits unprocessed items a bounded number of times.
func (p *Provisioner) writeBatch(ctx context.Context, batch []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{p.dialogsTable: batch}
	for attempt := 0; attempt < maxBatchAttempts; attempt++ {
		out, err := p.admin.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("batch write: %w", err)
		}
		if out == nil || len(out.UnprocessedItems[p.dialogsTable]) == 0 {
			return nil
		}
		pending = out.UnprocessedItems
	}
	return fmt.Errorf("batch write: %d items still unprocessed after %d attempts",
		len(pending[p.dialogsTable]), maxBatchAttempts)
}
