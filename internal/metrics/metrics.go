// Package metrics publishes per-request custom metrics to CloudWatch.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	Namespace = "CloudAIRouter"

	MetricTokensUsed      = "TokensUsed"
	MetricResponseLatency = "ResponseLatency"
	MetricRequestCount    = "RequestCount"
)

type Publisher interface {
	PublishTokenUsage(ctx context.Context, tokens int, modelID string) error
	PublishLatency(ctx context.Context, latency time.Duration, endpoint string) error
	PublishRequestCount(ctx context.Context, success bool, category string) error
}

// PutMetricDataAPI is the subset of the CloudWatch client used here.
type PutMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

type CloudWatchPublisher struct {
	client    PutMetricDataAPI
	namespace string
	now       func() time.Time
}

func NewCloudWatchPublisher(cfg aws.Config) *CloudWatchPublisher {
	return NewCloudWatchPublisherWithClient(cloudwatch.NewFromConfig(cfg), Namespace)
}

func NewCloudWatchPublisherWithClient(client PutMetricDataAPI, namespace string) *CloudWatchPublisher {
	return &CloudWatchPublisher{
		client:    client,
		namespace: namespace,
		now:       time.Now,
	}
}

func (p *CloudWatchPublisher) put(ctx context.Context, datum types.MetricDatum) error {
	datum.Timestamp = aws.Time(p.now().UTC())
	_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(p.namespace),
		MetricData: []types.MetricDatum{datum},
	})
	if err != nil {
		return fmt.Errorf("failed to publish metric %s: %w", aws.ToString(datum.MetricName), err)
	}
	return nil
}

func dimension(name, value string) types.Dimension {
	return types.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

func (p *CloudWatchPublisher) PublishTokenUsage(ctx context.Context, tokens int, modelID string) error {
	return p.put(ctx, types.MetricDatum{
		MetricName: aws.String(MetricTokensUsed),
		Value:      aws.Float64(float64(tokens)),
		Unit:       types.StandardUnitCount,
		Dimensions: []types.Dimension{dimension("ModelId", modelID)},
	})
}

func (p *CloudWatchPublisher) PublishLatency(ctx context.Context, latency time.Duration, endpoint string) error {
	return p.put(ctx, types.MetricDatum{
		MetricName: aws.String(MetricResponseLatency),
		Value:      aws.Float64(float64(latency.Microseconds()) / 1000),
		Unit:       types.StandardUnitMilliseconds,
		Dimensions: []types.Dimension{dimension("Endpoint", endpoint)},
	})
}

func (p *CloudWatchPublisher) PublishRequestCount(ctx context.Context, success bool, category string) error {
	status := "Failure"
	if success {
		status = "Success"
	}
	if category == "" {
		category = "unknown"
	}
	return p.put(ctx, types.MetricDatum{
		MetricName: aws.String(MetricRequestCount),
		Value:      aws.Float64(1),
		Unit:       types.StandardUnitCount,
		Dimensions: []types.Dimension{
			dimension("Status", status),
			dimension("Category", category),
		},
	})
}

// LogPublisher writes metrics to the log instead of CloudWatch. Used in mock mode.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishTokenUsage(ctx context.Context, tokens int, modelID string) error {
	p.logger.DebugContext(ctx, "[MOCK] metric", slog.String("metric", MetricTokensUsed), slog.Int("value", tokens), slog.String("model_id", modelID))
	return nil
}

func (p *LogPublisher) PublishLatency(ctx context.Context, latency time.Duration, endpoint string) error {
	p.logger.DebugContext(ctx, "[MOCK] metric", slog.String("metric", MetricResponseLatency), slog.Duration("value", latency), slog.String("endpoint", endpoint))
	return nil
}

func (p *LogPublisher) PublishRequestCount(ctx context.Context, success bool, category string) error {
	p.logger.DebugContext(ctx, "[MOCK] metric", slog.String("metric", MetricRequestCount), slog.Bool("success", success), slog.String("category", category))
	return nil
}
