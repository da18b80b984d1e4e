package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	// DynamoBootstrap creates missing tables at startup.
	DynamoBootstrap bool

	// PublicBaseURL prefixes approve/reject links. It may only be empty in
	// development, where the base is derived from the incoming request.
	PublicBaseURL string

	// TrustProxy honours X-Forwarded-* headers for client IP and link base.
	// Enable only behind a proxy that overwrites them.
	TrustProxy bool

	S3BucketName string
	PhotoURLTTL  time.Duration

	SNSRegion                  string
	PushPlatformApplicationARN string
	SMSFallbackEnabled         bool

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	PublicRateLimit float64 // requests per second per client IP
	PublicRateBurst int

	AgentEndpointURL string
	AllowedOrigins   []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Residencies     string
	Residents       string
	Units           string
	Blocks          string
	VisitorRequests string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Residencies:     getEnv("DYNAMO_TABLE_RESIDENCIES", "residencies"),
			Residents:       getEnv("DYNAMO_TABLE_RESIDENTS", "residents"),
			Units:           getEnv("DYNAMO_TABLE_UNITS", "units"),
			Blocks:          getEnv("DYNAMO_TABLE_BLOCKS", "blocks"),
			VisitorRequests: getEnv("DYNAMO_TABLE_VISITOR_REQUESTS", "visitor_requests"),
		},
		DynamoBootstrap: getEnvBool("DYNAMO_BOOTSTRAP", true),
		PublicBaseURL:   strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		TrustProxy:      getEnvBool("TRUST_PROXY", false),
		S3BucketName:    getEnv("S3_BUCKET_NAME", ""),
		PhotoURLTTL:     time.Duration(getEnvInt("PHOTO_URL_TTL_MINUTES", 60)) * time.Minute,

		SNSRegion:                  getEnv("SNS_REGION", "us-east-1"),
		PushPlatformApplicationARN: getEnv("PUSH_PLATFORM_APPLICATION_ARN", ""),
		SMSFallbackEnabled:         getEnvBool("SMS_FALLBACK_ENABLED", false),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,

		PublicRateLimit: getEnvFloat("PUBLIC_RATE_LIMIT", 5),
		PublicRateBurst: getEnvInt("PUBLIC_RATE_BURST", 20),

		AgentEndpointURL: getEnv("AGENT_ENDPOINT_URL", ""),
		AllowedOrigins:   strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Validate rejects configurations that are unsafe to serve with.
func (c *Config) Validate() error {
	if c.PublicBaseURL == "" && !c.IsDevelopment() {
		return errors.New("PUBLIC_BASE_URL is required outside development")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
