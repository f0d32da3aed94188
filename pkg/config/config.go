package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	SQS          SQSConfig
	Queue        QueueConfig
	Consumer     ConsumerConfig
	Dispatch     DispatchConfig
	RateLimit    RateLimitConfig
	Public       PublicConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.validateQueue(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"HOOKRELAY_APP_ENV" required:"true"`
	Port         string `envconfig:"HOOKRELAY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HOOKRELAY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HOOKRELAY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HOOKRELAY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"HOOKRELAY_DB_DSN"`
	Driver string `envconfig:"HOOKRELAY_DB_DRIVER" default:"postgres"`
	// ApplicationName defaults per binary when unset.
	ApplicationName string `envconfig:"HOOKRELAY_DB_APPLICATION_NAME"`

	LegacyHost     string `envconfig:"HOOKRELAY_DB_HOST"`
	LegacyPort     int    `envconfig:"HOOKRELAY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HOOKRELAY_DB_USER"`
	LegacyPassword string `envconfig:"HOOKRELAY_DB_PASSWORD"`
	LegacyName     string `envconfig:"HOOKRELAY_DB_NAME"`
	LegacySSLMode  string `envconfig:"HOOKRELAY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HOOKRELAY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HOOKRELAY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HOOKRELAY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HOOKRELAY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HOOKRELAY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HOOKRELAY_REDIS_ADDR"`
	Password     string        `envconfig:"HOOKRELAY_REDIS_PASSWORD"`
	DB           int           `envconfig:"HOOKRELAY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HOOKRELAY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HOOKRELAY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HOOKRELAY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HOOKRELAY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HOOKRELAY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes the tokens minted by the external auth service.
type JWTConfig struct {
	Secret string `envconfig:"HOOKRELAY_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"HOOKRELAY_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HOOKRELAY_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"HOOKRELAY_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"HOOKRELAY_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	InboundTopic        string `envconfig:"HOOKRELAY_PUBSUB_INBOUND_TOPIC" default:"hookrelay-inbound"`
	InboundSubscription string `envconfig:"HOOKRELAY_PUBSUB_INBOUND_SUBSCRIPTION" default:"hookrelay-inbound-worker"`
}

type SQSConfig struct {
	QueueURL          string `envconfig:"HOOKRELAY_SQS_QUEUE_URL"`
	Region            string `envconfig:"HOOKRELAY_AWS_REGION"`
	AccessKeyID       string `envconfig:"HOOKRELAY_AWS_ACCESS_KEY_ID"`
	SecretAccessKey   string `envconfig:"HOOKRELAY_AWS_SECRET_ACCESS_KEY"`
	VisibilityTimeout int32  `envconfig:"HOOKRELAY_SQS_VISIBILITY_TIMEOUT_SECONDS" default:"60"`
}

type QueueConfig struct {
	Driver string `envconfig:"HOOKRELAY_QUEUE_DRIVER" default:"pubsub"`
}

// ConsumerConfig controls the inbound poll loop.
type ConsumerConfig struct {
	MaxMessages       int           `envconfig:"HOOKRELAY_CONSUMER_MAX_MESSAGES" default:"5"`
	WaitTime          time.Duration `envconfig:"HOOKRELAY_CONSUMER_WAIT_TIME" default:"20s"`
	EmptyPollInterval time.Duration `envconfig:"HOOKRELAY_CONSUMER_EMPTY_POLL_INTERVAL" default:"1s"`
	ErrorBackoff      time.Duration `envconfig:"HOOKRELAY_CONSUMER_ERROR_BACKOFF" default:"1s"`
	DedupTTL          time.Duration `envconfig:"HOOKRELAY_CONSUMER_DEDUP_TTL" default:"0s"`
}

type DispatchConfig struct {
	Timeout             time.Duration `envconfig:"HOOKRELAY_DISPATCH_TIMEOUT" default:"30s"`
	TheMembersBaseURL   string        `envconfig:"HOOKRELAY_THEMEMBERS_BASE_URL" default:"https://registration.themembers.dev.br"`
	UserAgent           string        `envconfig:"HOOKRELAY_DISPATCH_USER_AGENT" default:"hookrelay/1.0"`
	MaxInboundBodyBytes int64         `envconfig:"HOOKRELAY_MAX_INBOUND_BODY_BYTES" default:"1048576"`
}

// RateLimitConfig throttles the public inbound endpoint per url code and client IP.
type RateLimitConfig struct {
	InboundWindow time.Duration `envconfig:"HOOKRELAY_RATE_LIMIT_INBOUND_WINDOW" default:"1m"`
	InboundLimit  int           `envconfig:"HOOKRELAY_RATE_LIMIT_INBOUND_LIMIT" default:"600"`
}

type PublicConfig struct {
	APIURL         string   `envconfig:"HOOKRELAY_PUBLIC_API_URL" default:"http://localhost:8080"`
	AllowedOrigins []string `envconfig:"HOOKRELAY_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// WebhookURL returns the public inbound address for a url code.
// ForService returns a copy tagged with the binary's application name unless one
// was configured explicitly.
func (d DBConfig) ForService(name string) DBConfig {
	if strings.TrimSpace(d.ApplicationName) == "" {
		d.ApplicationName = name
	}
	return d
}

func (p PublicConfig) WebhookURL(urlCode string) string {
	return fmt.Sprintf("%s/v1/webhooks/%s", strings.TrimRight(p.APIURL, "/"), urlCode)
}

func (c *Config) validateQueue() error {
	switch strings.ToLower(strings.TrimSpace(c.Queue.Driver)) {
	case QueueDriverPubSub:
		if strings.TrimSpace(c.GCP.ProjectID) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvGCPProjectID, EnvQueueDriver, QueueDriverPubSub)
		}
	case QueueDriverSQS:
		missing := []string{}
		if strings.TrimSpace(c.SQS.QueueURL) == "" {
			missing = append(missing, EnvSQSQueueURL)
		}
		if strings.TrimSpace(c.SQS.Region) == "" {
			missing = append(missing, EnvAWSRegion)
		}
		if len(missing) > 0 {
			return fmt.Errorf("%s required when %s=%s", strings.Join(missing, ", "), EnvQueueDriver, QueueDriverSQS)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvQueueDriver, c.Queue.Driver)
	}
	c.Queue.Driver = strings.ToLower(strings.TrimSpace(c.Queue.Driver))
	return nil
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
