package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	aws_pkg "github.com/Jojo244-329/server-app/pkg/aws"
	"github.com/joho/godotenv"
)

// CredentialsSecretName is the Secrets Manager entry read when AWS_USE_SECRETS=true.
const CredentialsSecretName = "pix/CREDENTIALS"

// ShippingDefaults fill the gateway's shipping address when the buyer leaves fields blank.
type ShippingDefaults struct {
	Street       string
	StreetNumber string
	ZipCode      string
	Neighborhood string
	City         string
	State        string
	Country      string
}

type Config struct {
	Port   string
	AppEnv string

	GatewayBaseURL      string
	GatewaySecretKey    string
	GatewayAuthPassword string
	GatewayTimeout      time.Duration
	PixExpiresInDays    int
	PostbackURL         string

	MetaGraphBaseURL string
	MetaPixelID      string
	MetaAccessToken  string

	UTMifyBaseURL  string
	UTMifyAPIToken string

	Shipping        ShippingDefaults
	DefaultCountry  string
	DefaultCurrency string

	DispatchTimeout    time.Duration
	DispatchMaxRetries int
	DispatchDLQURL     string
	PaymentSNSTopicARN string

	RedisURL         string
	WebhookDedupeTTL time.Duration

	AllowedOrigins     string
	RateLimitPerMinute int

	CloudWatchEnabled   bool
	CloudWatchNamespace string
	CloudWatchLogGroup  string
	UseSecretsManager   bool
}

// LoadConfig reads the optional .env file and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:   getEnv("PORT", "8080"),
		AppEnv: getEnv("APP_ENV", "development"),

		GatewayBaseURL:      getEnv("GATEWAY_BASE_URL", "https://api.velana.com.br/v1"),
		GatewaySecretKey:    os.Getenv("GATEWAY_SECRET_KEY"),
		GatewayAuthPassword: getEnv("GATEWAY_AUTH_PASSWORD", "x"),
		PostbackURL:         os.Getenv("POSTBACK_URL"),

		MetaGraphBaseURL: getEnv("META_GRAPH_BASE_URL", "https://graph.facebook.com/v18.0"),
		MetaPixelID:      os.Getenv("META_PIXEL_ID"),
		MetaAccessToken:  os.Getenv("META_ACCESS_TOKEN"),

		UTMifyBaseURL:  getEnv("UTMIFY_BASE_URL", "https://api.utmify.com.br/api-credentials"),
		UTMifyAPIToken: os.Getenv("UTMIFY_API_TOKEN"),

		Shipping: ShippingDefaults{
			Street:       getEnv("DEFAULT_STREET", "Rua Desconhecida"),
			StreetNumber: getEnv("DEFAULT_STREET_NUMBER", "SN"),
			ZipCode:      getEnv("DEFAULT_ZIP_CODE", "00000000"),
			Neighborhood: getEnv("DEFAULT_NEIGHBORHOOD", "Centro"),
			City:         getEnv("DEFAULT_CITY", "Cidade"),
			State:        getEnv("DEFAULT_STATE", "SP"),
		},
		DefaultCountry:  getEnv("DEFAULT_COUNTRY", "BR"),
		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "BRL"),

		DispatchDLQURL:     os.Getenv("DISPATCH_DLQ_URL"),
		PaymentSNSTopicARN: os.Getenv("PAYMENT_SNS_TOPIC_ARN"),
		RedisURL:           os.Getenv("REDIS_URL"),
		AllowedOrigins:     getEnv("ALLOWED_ORIGINS", "*"),

		CloudWatchEnabled:   os.Getenv("CLOUDWATCH_ENABLED") == "true",
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", "PixService"),
		CloudWatchLogGroup:  getEnv("CLOUDWATCH_LOG_GROUP", "/pix/service"),
		UseSecretsManager:   os.Getenv("AWS_USE_SECRETS") == "true",
	}
	cfg.Shipping.Country = cfg.DefaultCountry

	var err error
	if cfg.GatewayTimeout, err = getDuration("GATEWAY_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.DispatchTimeout, err = getDuration("DISPATCH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.WebhookDedupeTTL, err = getDuration("WEBHOOK_DEDUPE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.PixExpiresInDays, err = getInt("PIX_EXPIRES_IN_DAYS", 2); err != nil {
		return nil, err
	}
	if cfg.DispatchMaxRetries, err = getInt("DISPATCH_MAX_RETRIES", 2); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = getInt("RATE_LIMIT_PER_MINUTE", 60); err != nil {
		return nil, err
	}

	if cfg.UseSecretsManager {
		awsCfg, err := aws_pkg.LoadAWSConfig(context.Background())
		if err != nil {
			return nil, err
		}
		if err := cfg.ApplySecrets(context.Background(), aws_pkg.NewSecretsClient(awsCfg)); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplySecrets overrides credentials with the values stored in Secrets Manager.
// Keys missing from the secret keep their environment value.
func (c *Config) ApplySecrets(ctx context.Context, sg aws_pkg.SecretGetter) error {
	m, err := aws_pkg.GetSecretMap(ctx, sg, CredentialsSecretName)
	if err != nil {
		return fmt.Errorf("load credentials secret: %w", err)
	}
	if v := m["GATEWAY_SECRET_KEY"]; v != "" {
		c.GatewaySecretKey = v
	}
	if v := m["META_ACCESS_TOKEN"]; v != "" {
		c.MetaAccessToken = v
	}
	if v := m["UTMIFY_API_TOKEN"]; v != "" {
		c.UTMifyAPIToken = v
	}
	return nil
}

// Validate checks that the required configuration is present.
func (c *Config) Validate() error {
	if c.GatewaySecretKey == "" {
		return fmt.Errorf("missing required environment variable GATEWAY_SECRET_KEY")
	}
	if c.GatewayBaseURL == "" {
		return fmt.Errorf("GATEWAY_BASE_URL must not be empty")
	}
	if c.PixExpiresInDays < 1 {
		return fmt.Errorf("PIX_EXPIRES_IN_DAYS must be at least 1")
	}
	if c.DispatchMaxRetries < 0 {
		return fmt.Errorf("DISPATCH_MAX_RETRIES must not be negative")
	}
	if c.RateLimitPerMinute < 1 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be at least 1")
	}
	return nil
}

// TrackingEnabled reports whether conversion events can be sent.
func (c *Config) TrackingEnabled() bool {
	return c.MetaPixelID != "" && c.MetaAccessToken != ""
}

// AttributionEnabled reports whether attribution orders can be sent.
func (c *Config) AttributionEnabled() bool {
	return c.UTMifyAPIToken != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
