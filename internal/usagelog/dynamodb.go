package usagelog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/airouter/internal/models"
)

// ErrAlreadyLogged is returned when an entry for the request id already exists.
var ErrAlreadyLogged = errors.New("usage log entry already exists")

// Writer persists one usage entry per request.
type Writer interface {
	LogRequest(ctx context.Context, entry models.UsageLogEntry) error
}

// PutItemAPI is the subset of the DynamoDB client used here.
type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type DynamoDBWriter struct {
	client    PutItemAPI
	tableName string
	logger    *slog.Logger
}

func NewDynamoDBWriter(cfg aws.Config, tableName string, logger *slog.Logger) *DynamoDBWriter {
	return NewDynamoDBWriterWithClient(dynamodb.NewFromConfig(cfg), tableName, logger)
}

func NewDynamoDBWriterWithClient(client PutItemAPI, tableName string, logger *slog.Logger) *DynamoDBWriter {
	return &DynamoDBWriter{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// LogRequest writes entry keyed by request_id. Entries are write-once.
func (w *DynamoDBWriter) LogRequest(ctx context.Context, entry models.UsageLogEntry) error {
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal usage log entry: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(w.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#request_id)"),
		ExpressionAttributeNames: map[string]string{
			"#request_id": "request_id",
		},
	}

	_, err = w.client.PutItem(ctx, input)
	if err != nil {
		var conditionErr *types.ConditionalCheckFailedException
		if errors.As(err, &conditionErr) {
			return fmt.Errorf("%w: %s", ErrAlreadyLogged, entry.RequestID)
		}
		return fmt.Errorf("failed to put usage log entry: %w", err)
	}

	w.logger.DebugContext(ctx, "request logged to DynamoDB",
		slog.String("request_id", entry.RequestID),
		slog.String("table", w.tableName),
	)
	return nil
}
