package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all pipeline configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string
	ProjectName   string

	// AWS configuration
	AWSRegion     string
	LandingBucket string
	ReviewKey     string
	MetadataKey   string
	DynamoDBTable string
	SNSTopicARN   string

	// Warehouse configuration
	SnowflakeDSN    string
	WarehouseSchema string

	// Pipeline configuration
	LockTTL      time.Duration
	DatasetsFile string

	// Logging and features
	LogLevel      string
	EnableMetrics bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		ProjectName:   getEnv("PROJECT_NAME", "reviewpipe"),

		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		LandingBucket: getEnv("LANDING_BUCKET", ""),
		ReviewKey:     getEnv("REVIEW_JSON_KEY", "flattened/reviews/reviews.json"),
		MetadataKey:   getEnv("META_JSON_KEY", "flattened/meta/meta.json"),
		DynamoDBTable: getEnv("TABLE_NAME", "reviewpipe-runs"),
		SNSTopicARN:   getEnv("SNS_TOPIC_ARN", ""),

		SnowflakeDSN:    getEnv("SNOWFLAKE_DSN", ""),
		WarehouseSchema: getEnv("WAREHOUSE_SCHEMA", "ANALYTICS"),

		LockTTL:      getEnvDuration("RUN_LOCK_TTL", 30*time.Minute),
		DatasetsFile: getEnv("DATASETS_FILE", "datasets.yaml"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.LandingBucket == "" {
			return fmt.Errorf("LANDING_BUCKET is required in production")
		}
		if c.SnowflakeDSN == "" {
			return fmt.Errorf("SNOWFLAKE_DSN is required in production")
		}
		if c.SNSTopicARN == "" {
			return fmt.Errorf("SNS_TOPIC_ARN is required in production")
		}
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("RUN_LOCK_TTL must be positive")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
