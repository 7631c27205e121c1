package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/airouter/internal/api"
	"github.com/airouter/internal/classifier"
	"github.com/airouter/internal/config"
	"github.com/airouter/internal/llm"
	"github.com/airouter/internal/logging"
	"github.com/airouter/internal/metrics"
	"github.com/airouter/internal/orchestrator"
	"github.com/airouter/internal/planner"
	"github.com/airouter/internal/prompts"
	"github.com/airouter/internal/usagelog"
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel)

	o, err := newOrchestrator(context.Background(), cfg, logger)
	if err != nil {
		fmt.Printf("Error initializing plan router: %v\n", err)
		os.Exit(1)
	}
	handler := api.NewHandler(o, logger, cfg.UseMockAWS)

	logger.Info("plan router initialized",
		slog.Bool("mock_mode", cfg.UseMockAWS),
		slog.String("region", cfg.AWSRegion),
		slog.String("bedrock_region", cfg.BedrockRegion),
	)

	lambda.Start(handler.Handle)
}

// newOrchestrator builds the collaborators once per container. Mock mode
// needs no AWS credentials.
func newOrchestrator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*orchestrator.Orchestrator, error) {
	if cfg.UseMockAWS {
		return orchestrator.New(
			classifier.KeywordClassifier{},
			planner.SampleGenerator{},
			usagelog.NewConsoleWriter(logger),
			metrics.NewLogPublisher(logger),
			logger,
		), nil
	}

	catalogue, err := prompts.Load()
	if err != nil {
		return nil, err
	}

	bedrockCfg, err := loadAWSConfig(ctx, cfg.BedrockRegion)
	if err != nil {
		return nil, err
	}
	appCfg, err := loadAWSConfig(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}

	provider := llm.NewBedrockProvider(bedrockCfg)
	return orchestrator.New(
		classifier.NewProviderClassifier(provider, catalogue.Classifier, llm.ModelClaude3Haiku, logger),
		planner.NewProviderGenerator(provider, catalogue, llm.ModelClaude3Sonnet, logger),
		usagelog.NewDynamoDBWriter(appCfg, cfg.DynamoDBTableName, logger),
		metrics.NewCloudWatchPublisher(appCfg),
		logger,
	), nil
}

func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config for %s: %w", region, err)
	}
	return cfg, nil
}
