// Package config loads the router configuration from environment variables.
package config

import (
	"os"
	"strings"
)

type Config struct {
	UseMockAWS        bool
	AWSRegion         string
	BedrockRegion     string
	DynamoDBTableName string
	LogLevel          string
}

// Load reads the environment. Unset variables fall back to defaults.
func Load() *Config {
	return &Config{
		UseMockAWS:        strings.EqualFold(os.Getenv("USE_MOCK_AWS"), "true"),
		AWSRegion:         firstNonEmpty(os.Getenv("APP_AWS_REGION"), os.Getenv("AWS_REGION"), "ap-southeast-2"),
		BedrockRegion:     getEnv("BEDROCK_REGION", "us-east-1"),
		DynamoDBTableName: getEnv("DYNAMODB_TABLE_NAME", "ai-router-usage-logs"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
