package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"avatar-interview/internal/domain"
)

const (
	attrID         = "id"
	attrCategory   = "category"
	attrDialog     = "dialog"
	attrTranscript = "transcript"
	attrCreatedAt  = "createdAt"
	attrTTL        = "ttl"

	// TranscriptRetention is how long a transcript stays readable before the
	// store's TTL reaper removes it.
	TranscriptRetention = 24 * time.Hour
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTimeToLive(ctx context.Context, in *dynamodb.DescribeTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTimeToLiveOutput, error)
	UpdateTimeToLive(ctx context.Context, in *dynamodb.UpdateTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error)
}

// Client wraps the dialogs and transcripts tables.
type Client struct {
	api              dynamodbAPI
	dialogsTable     string
	transcriptsTable string
}

// New creates a new repository Client.
func New(api dynamodbAPI, dialogsTable, transcriptsTable string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(dialogsTable) == "" {
		return nil, errors.New("repository: dialogs table name must not be empty")
	}
	if strings.TrimSpace(transcriptsTable) == "" {
		return nil, errors.New("repository: transcripts table name must not be empty")
	}
	return &Client{api: api, dialogsTable: dialogsTable, transcriptsTable: transcriptsTable}, nil
}

// NewDynamoDB builds an SDK client, pointing it at endpoint when one is set
// (DynamoDB Local during development).
func NewDynamoDB(cfg aws.Config, endpoint string) *dynamodb.Client {
	endpoint = strings.TrimSpace(endpoint)
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

var (
	now   = time.Now
	newID = uuid.NewString
)

// FetchIntroduction returns the first dialog whose category is introduction.
// When several exist, which one comes first depends on the table's scan order.
func (c *Client) FetchIntroduction(ctx context.Context) (domain.Dialog, error) {
	var (
		intro domain.Dialog
		found bool
	)
	err := c.scanDialogs(ctx, "#category = :intro", func(d domain.Dialog) bool {
		intro, found = d, true
		return false
	})
	if err != nil {
		return domain.Dialog{}, fmt.Errorf("repository: FetchIntroduction: %w", err)
	}
	if !found {
		return domain.Dialog{}, fmt.Errorf("repository: FetchIntroduction: %w", domain.ErrNotFound)
	}
	return intro, nil
}

// FetchQuestions returns every dialog that is not the introduction.
func (c *Client) FetchQuestions(ctx context.Context) ([]domain.Dialog, error) {
	questions := make([]domain.Dialog, 0)
	err := c.scanDialogs(ctx, "#category <> :intro", func(d domain.Dialog) bool {
		questions = append(questions, d)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("repository: FetchQuestions: %w", err)
	}
	return questions, nil
}

// scanDialogs walks every page of the dialogs table matching filter and hands
// each decoded record to visit until visit returns false.
func (c *Client) scanDialogs(ctx context.Context, filter string, visit func(domain.Dialog) bool) error {
	p := dynamodb.NewScanPaginator(c.api, &dynamodb.ScanInput{
		TableName:                aws.String(c.dialogsTable),
		FilterExpression:         aws.String(filter),
		ExpressionAttributeNames: map[string]string{"#category": attrCategory},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":intro": &types.AttributeValueMemberS{Value: domain.CategoryIntroduction},
		},
	})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("scan %s: %w", c.dialogsTable, err)
		}
		for _, item := range out.Items {
			d, err := itemToDialog(item)
			if err != nil {
				return fmt.Errorf("unmarshal: %w", err)
			}
			if !visit(d) {
				return nil
			}
		}
	}
	return nil
}

// SaveTranscript stores text as a new transcript that expires after
// TranscriptRetention.
func (c *Client) SaveTranscript(ctx context.Context, text string) (domain.Transcript, error) {
	t := NewTranscript(text)
	if err := t.Validate(); err != nil {
		return domain.Transcript{}, fmt.Errorf("repository: SaveTranscript: %w", err)
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.transcriptsTable),
		Item:                transcriptItem(t),
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("repository: SaveTranscript: %w", err)
	}
	return t, nil
}

// GetTranscript reads a transcript by id. Records past their expiry count as
// missing even if the reaper has not removed them yet.
func (c *Client) GetTranscript(ctx context.Context, id string) (domain.Transcript, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.transcriptsTable),
		Key: map[string]types.AttributeValue{
			attrID: &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("repository: GetTranscript get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Transcript{}, fmt.Errorf("repository: GetTranscript: %w", domain.ErrNotFound)
	}

	t, err := itemToTranscript(out.Item)
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("repository: GetTranscript unmarshal: %w", err)
	}
	if t.Expired(now()) {
		return domain.Transcript{}, fmt.Errorf("repository: GetTranscript: %w", domain.ErrNotFound)
	}
	return t, nil
}

// EnsureTranscriptTTL enables DynamoDB Time To Live on the transcripts table's
// ttl attribute. It does nothing when TTL is already on.
func (c *Client) EnsureTranscriptTTL(ctx context.Context) error {
	out, err := c.api.DescribeTimeToLive(ctx, &dynamodb.DescribeTimeToLiveInput{
		TableName: aws.String(c.transcriptsTable),
	})
	if err != nil {
		return fmt.Errorf("repository: EnsureTranscriptTTL describe: %w", err)
	}
	if out != nil && out.TimeToLiveDescription != nil {
		desc := out.TimeToLiveDescription
		switch desc.TimeToLiveStatus {
		case types.TimeToLiveStatusEnabled, types.TimeToLiveStatusEnabling:
			if aws.ToString(desc.AttributeName) == attrTTL {
				return nil
			}
			return fmt.Errorf("repository: EnsureTranscriptTTL: table %s expires on %q, want %q",
				c.transcriptsTable, aws.ToString(desc.AttributeName), attrTTL)
		}
	}

	_, err = c.api.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(c.transcriptsTable),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: aws.String(attrTTL),
			Enabled:       aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("repository: EnsureTranscriptTTL update: %w", err)
	}
	return nil
}

// NewTranscript constructs a Transcript with id, creation time and expiry set
// from the current UTC time.
func NewTranscript(text string) domain.Transcript {
	created := now().UTC()
	return domain.Transcript{
		ID:        newID(),
		Text:      text,
		CreatedAt: created,
		ExpiresAt: created.Add(TranscriptRetention).Unix(),
	}
}

// itemToDialog converts a DynamoDB attribute map to a Dialog. The store key is
// dropped and every attribute other than category and dialog ends up in Extra.
// Any string category is accepted, including the empty string.
func itemToDialog(item map[string]types.AttributeValue) (domain.Dialog, error) {
	category, err := strAttr(item, attrCategory)
	if err != nil {
		return domain.Dialog{}, err
	}

	var doc map[string]any
	if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
		return domain.Dialog{}, fmt.Errorf("repository: decode dialog: %w", err)
	}
	delete(doc, attrID)
	delete(doc, attrCategory)

	d := domain.Dialog{Category: category, Extra: doc}
	if text, ok := doc[attrDialog].(string); ok {
		d.Text, d.HasText = text, true
		delete(doc, attrDialog)
	}
	return d, nil
}

// dialogItem is the inverse of itemToDialog, used when seeding.
func dialogItem(d domain.Dialog) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(d.Extra)
	if err != nil {
		return nil, fmt.Errorf("repository: encode dialog: %w", err)
	}
	if item == nil {
		item = map[string]types.AttributeValue{}
	}
	item[attrID] = &types.AttributeValueMemberS{Value: d.ID}
	item[attrCategory] = &types.AttributeValueMemberS{Value: d.Category}
	if d.Text != "" || d.HasText {
		item[attrDialog] = &types.AttributeValueMemberS{Value: d.Text}
	}
	return item, nil
}

func transcriptItem(t domain.Transcript) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrID:         &types.AttributeValueMemberS{Value: t.ID},
		attrTranscript: &types.AttributeValueMemberS{Value: t.Text},
		attrCreatedAt:  &types.AttributeValueMemberS{Value: t.CreatedAt.UTC().Format(time.RFC3339Nano)},
		attrTTL:        &types.AttributeValueMemberN{Value: strconv.FormatInt(t.ExpiresAt, 10)},
	}
}

func itemToTranscript(item map[string]types.AttributeValue) (domain.Transcript, error) {
	id, err := strAttr(item, attrID)
	if err != nil {
		return domain.Transcript{}, err
	}
	text, err := strAttr(item, attrTranscript)
	if err != nil {
		return domain.Transcript{}, err
	}
	created, err := strAttr(item, attrCreatedAt)
	if err != nil {
		return domain.Transcript{}, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("repository: parse attribute %q: %w", attrCreatedAt, err)
	}
	expiresAt, err := int64Attr(item, attrTTL)
	if err != nil {
		return domain.Transcript{}, err
	}
	return domain.Transcript{
		ID:        id,
		Text:      text,
		CreatedAt: createdAt.UTC(),
		ExpiresAt: expiresAt,
	}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func int64Attr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
