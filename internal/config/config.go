// Package config loads the settings shared by the gateway, the transaction
// processor and the reconciler. Every setting is addressed by its environment
// variable name, whether it comes from a .env file or the process environment.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config is decoded from a flat key space; each section is squashed so a
// field's tag is the full variable name.
type Config struct {
	Application ApplicationConfig `mapstructure:",squash"`
	Logging     LoggingConfig     `mapstructure:",squash"`
	Server      ServerConfig      `mapstructure:",squash"`
	Kafka       KafkaConfig       `mapstructure:",squash"`
	Postgres    PostgresConfig    `mapstructure:",squash"`
	MongoDB     MongoDBConfig     `mapstructure:",squash"`
	Outbox      OutboxConfig      `mapstructure:",squash"`
	WorkerPool  WorkerPoolConfig  `mapstructure:",squash"`
	Ledger      LedgerConfig      `mapstructure:",squash"`
	Redis       RedisConfig       `mapstructure:",squash"`
	RateLimit   RateLimitConfig   `mapstructure:",squash"`
	CORS        CORSConfig        `mapstructure:",squash"`
	Reconciler  ReconcilerConfig  `mapstructure:",squash"`

	// Source is the config file that was read, empty when only the
	// environment and defaults applied
	Source string `mapstructure:"-"`
}

type ApplicationConfig struct {
	Env  string `mapstructure:"APP_ENV"`
	Name string `mapstructure:"APP_NAME"`
}

type LoggingConfig struct {
	Level string `mapstructure:"LOG_LEVEL"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"SERVER_PORT"`
	ShutdownTimeout time.Duration `mapstructure:"SERVER_SHUTDOWN_TIMEOUT"`
	ReadTimeout     time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `mapstructure:"SERVER_IDLE_TIMEOUT"`
}

type KafkaConfig struct {
	Brokers           string        `mapstructure:"KAFKA_BROKERS"`
	PostingTopic      string        `mapstructure:"KAFKA_POSTING_TOPIC"`      // inbound posting requests
	PostedEventTopic  string        `mapstructure:"KAFKA_POSTED_EVENT_TOPIC"` // outbound posted notifications
	DLQTopic          string        `mapstructure:"KAFKA_DLQ_TOPIC"` // empty disables dead-lettering
	NumPartitions     int           `mapstructure:"KAFKA_NUM_PARTITIONS"`
	ReplicationFactor int           `mapstructure:"KAFKA_REPLICATION_FACTOR"`
	ConsumerGroup     string        `mapstructure:"KAFKA_CONSUMER_GROUP"`
	MinBytes          int           `mapstructure:"KAFKA_CONSUMER_MIN_BYTES"`
	MaxBytes          int           `mapstructure:"KAFKA_CONSUMER_MAX_BYTES"`
	MaxWait           time.Duration `mapstructure:"KAFKA_CONSUMER_MAX_WAIT"`
	StartOffset       int64         `mapstructure:"KAFKA_CONSUMER_START_OFFSET"`
}

type PostgresConfig struct {
	URL             string        `mapstructure:"POSTGRES_URL"`
	MaxConns        int32         `mapstructure:"POSTGRES_MAX_CONNS"`
	MinConns        int32         `mapstructure:"POSTGRES_MIN_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"POSTGRES_MAX_CONN_LIFETIME"`
	ConnMaxIdleTime time.Duration `mapstructure:"POSTGRES_MAX_CONN_IDLE_TIME"`
	MigrationsPath  string        `mapstructure:"POSTGRES_MIGRATIONS_PATH"`
	RunMigrations   bool          `mapstructure:"POSTGRES_RUN_MIGRATIONS"`
}

type MongoDBConfig struct {
	URI             string        `mapstructure:"MONGO_URI"`
	Database        string        `mapstructure:"MONGO_DATABASE"`
	Timeout         time.Duration `mapstructure:"MONGO_TIMEOUT"`
	MaxPoolSize     uint64        `mapstructure:"MONGO_MAX_POOL_SIZE"`
	MinPoolSize     uint64        `mapstructure:"MONGO_MIN_POOL_SIZE"`
	MaxConnIdleTime time.Duration `mapstructure:"MONGO_MAX_CONN_IDLE_TIME"`
}

type OutboxConfig struct {
	PollingInterval  time.Duration `mapstructure:"OUTBOX_POLLING_INTERVAL"`
	BatchSize        int           `mapstructure:"OUTBOX_BATCH_SIZE"`
	MaxRetryAttempts int           `mapstructure:"OUTBOX_MAX_RETRY_ATTEMPTS"`
}

type WorkerPoolConfig struct {
	Size int `mapstructure:"WORKER_POOL_SIZE"`
}

// LedgerConfig holds the posting engine settings
type LedgerConfig struct {
	ControlAccountPrefix   string        `mapstructure:"LEDGER_CONTROL_ACCOUNT_PREFIX"`
	CashControlAccountID   string        `mapstructure:"LEDGER_CASH_CONTROL_ACCOUNT_ID"`
	CustomerClassification string        `mapstructure:"LEDGER_CUSTOMER_CLASSIFICATION"` // given to new non-control accounts
	PostingTimeout         time.Duration `mapstructure:"LEDGER_POSTING_TIMEOUT"`
}

type RedisConfig struct {
	Address     string        `mapstructure:"REDIS_ADDRESS"`
	Password    string        `mapstructure:"REDIS_PASSWORD"`
	DB          int           `mapstructure:"REDIS_DB"`
	PoolSize    int           `mapstructure:"REDIS_POOL_SIZE"`
	DialTimeout time.Duration `mapstructure:"REDIS_DIAL_TIMEOUT"`
	KeyPrefix   string        `mapstructure:"REDIS_KEY_PREFIX"`
}

type RateLimitConfig struct {
	Enabled bool   `mapstructure:"RATE_LIMIT_ENABLED"`
	Rate    string `mapstructure:"RATE_LIMIT_RATE"` // ulule/limiter format, e.g. "100-S"
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"` // empty allows all origins
}

type ReconcilerConfig struct {
	TenantID          string        `mapstructure:"RECONCILER_TENANT_ID"`   // empty checks every tenant
	Environment       string        `mapstructure:"RECONCILER_ENVIRONMENT"` // empty checks every environment
	StalePendingAfter time.Duration `mapstructure:"RECONCILER_STALE_PENDING_AFTER"`
	StalePendingLimit int           `mapstructure:"RECONCILER_STALE_PENDING_LIMIT"`
	LockTTL           time.Duration `mapstructure:"RECONCILER_LOCK_TTL"`
}

type number interface {
	~int | ~int32 | ~int64 | ~uint64
}

// problems collects every invalid setting so one start reports them all
type problems []string

func (p *problems) required(name, value string) {
	if value == "" {
		*p = append(*p, name+" is required")
	}
}

func positive[T number](p *problems, name string, value T) {
	if value <= 0 {
		*p = append(*p, name+" must be greater than 0")
	}
}

func (c *Config) validate() error {
	var p problems

	positive(&p, "SERVER_PORT", c.Server.Port)
	positive(&p, "SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	positive(&p, "SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	positive(&p, "SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	positive(&p, "SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)

	p.required("KAFKA_BROKERS", c.Kafka.Brokers)
	p.required("KAFKA_POSTING_TOPIC", c.Kafka.PostingTopic)
	p.required("KAFKA_POSTED_EVENT_TOPIC", c.Kafka.PostedEventTopic)
	p.required("KAFKA_CONSUMER_GROUP", c.Kafka.ConsumerGroup)
	positive(&p, "KAFKA_CONSUMER_MIN_BYTES", c.Kafka.MinBytes)
	positive(&p, "KAFKA_CONSUMER_MAX_BYTES", c.Kafka.MaxBytes)
	positive(&p, "KAFKA_CONSUMER_MAX_WAIT", c.Kafka.MaxWait)

	p.required("POSTGRES_URL", c.Postgres.URL)
	positive(&p, "POSTGRES_MAX_CONNS", c.Postgres.MaxConns)
	positive(&p, "POSTGRES_MIN_CONNS", c.Postgres.MinConns)
	positive(&p, "POSTGRES_MAX_CONN_LIFETIME", c.Postgres.ConnMaxLifetime)
	positive(&p, "POSTGRES_MAX_CONN_IDLE_TIME", c.Postgres.ConnMaxIdleTime)

	p.required("MONGO_URI", c.MongoDB.URI)
	p.required("MONGO_DATABASE", c.MongoDB.Database)
	positive(&p, "MONGO_TIMEOUT", c.MongoDB.Timeout)
	positive(&p, "MONGO_MAX_POOL_SIZE", c.MongoDB.MaxPoolSize)
	positive(&p, "MONGO_MAX_CONN_IDLE_TIME", c.MongoDB.MaxConnIdleTime)

	positive(&p, "OUTBOX_POLLING_INTERVAL", c.Outbox.PollingInterval)
	positive(&p, "OUTBOX_BATCH_SIZE", c.Outbox.BatchSize)
	positive(&p, "OUTBOX_MAX_RETRY_ATTEMPTS", c.Outbox.MaxRetryAttempts)

	positive(&p, "WORKER_POOL_SIZE", c.WorkerPool.Size)

	p.required("LEDGER_CASH_CONTROL_ACCOUNT_ID", c.Ledger.CashControlAccountID)
	switch c.Ledger.CustomerClassification {
	case "asset", "liability", "equity", "income", "expense":
	default:
		p = append(p, "LEDGER_CUSTOMER_CLASSIFICATION must be one of asset, liability, equity, income, expense")
	}
	positive(&p, "LEDGER_POSTING_TIMEOUT", c.Ledger.PostingTimeout)

	p.required("REDIS_ADDRESS", c.Redis.Address)
	positive(&p, "REDIS_DIAL_TIMEOUT", c.Redis.DialTimeout)

	if c.RateLimit.Enabled && c.RateLimit.Rate == "" {
		p = append(p, "RATE_LIMIT_RATE is required when rate limiting is enabled")
	}

	positive(&p, "RECONCILER_STALE_PENDING_AFTER", c.Reconciler.StalePendingAfter)
	positive(&p, "RECONCILER_STALE_PENDING_LIMIT", c.Reconciler.StalePendingLimit)
	positive(&p, "RECONCILER_LOCK_TTL", c.Reconciler.LockTTL)

	if len(p) > 0 {
		return errors.New(strings.Join(p, ", "))
	}
	return nil
}
