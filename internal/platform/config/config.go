package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	strs "landrec/pkg/platform/strings"
)

// Config is the full runtime configuration of the registry back office.
type Config struct {
	Server       Server
	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Registration RegistrationConfig
	Workflow     WorkflowConfig
	Telemetry    TelemetryConfig
	Log          LogConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	// AdminToken guards recording book management. Empty refuses every book
	// management request.
	AdminToken string
}

// DatabaseConfig selects the persistence backend. An empty URL runs the
// service on in-memory stores.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	TxTimeout    time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	AuditTopic    string
	Partitions    int32
	Replication   int16
	RelayInterval time.Duration
	RelayBatch    int
	// ConsumerGroup is the group the registry archive consumer joins.
	ConsumerGroup string
}

// Lock backends for per-book numbering serialization.
const (
	LockBackendMemory   = "memory"
	LockBackendRedis    = "redis"
	LockBackendPostgres = "postgres"
)

// RegistrationConfig holds office-wide registration settings.
type RegistrationConfig struct {
	OfficeName string
	// ESignEnabled switches land record closing between electronic sealing
	// and operator-entered manual signatures for the whole office.
	ESignEnabled bool
	SealSecret   string
	SignerID     string
	LockBackend  string
	LeaseTTL     time.Duration
	ActTypesFile string
	TxTimeout    time.Duration
}

type WorkflowConfig struct {
	RulesFile string
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.admin_token", "")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.tx_timeout", 5*time.Second)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.audit_topic", "landrec.audit")
	v.SetDefault("kafka.partitions", 3)
	v.SetDefault("kafka.replication", 1)
	v.SetDefault("kafka.relay_interval", time.Second)
	v.SetDefault("kafka.relay_batch", 100)
	v.SetDefault("kafka.consumer_group", "landrec-registry-archive")

	v.SetDefault("registration.office_name", "Recorder Office")
	v.SetDefault("registration.esign_enabled", true)
	v.SetDefault("registration.seal_secret", "dev-seal-secret-change-in-production")
	v.SetDefault("registration.signer_id", "office-seal")
	v.SetDefault("registration.lock_backend", LockBackendMemory)
	v.SetDefault("registration.lease_ttl", 10*time.Second)
	v.SetDefault("registration.act_types_file", "")
	v.SetDefault("registration.tx_timeout", 5*time.Second)

	v.SetDefault("workflow.rules_file", "")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "landrec")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads configuration from an optional YAML file and LANDREC_* environment
// variables. Environment wins over the file; the file wins over defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LANDREC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Server: Server{
			Addr:              v.GetString("server.addr"),
			ReadHeaderTimeout: v.GetDuration("server.read_header_timeout"),
			ShutdownTimeout:   v.GetDuration("server.shutdown_timeout"),
			AdminToken:        v.GetString("server.admin_token"),
		},
		Database: DatabaseConfig{
			URL:          v.GetString("database.url"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
			MaxIdleConns: v.GetInt("database.max_idle_conns"),
			TxTimeout:    v.GetDuration("database.tx_timeout"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("redis.url"),
			PoolSize:     v.GetInt("redis.pool_size"),
			MinIdleConns: v.GetInt("redis.min_idle_conns"),
			DialTimeout:  v.GetDuration("redis.dial_timeout"),
			ReadTimeout:  v.GetDuration("redis.read_timeout"),
			WriteTimeout: v.GetDuration("redis.write_timeout"),
		},
		Kafka: KafkaConfig{
			Brokers:       strs.SplitList(v.GetStringSlice("kafka.brokers"), ","),
			AuditTopic:    v.GetString("kafka.audit_topic"),
			Partitions:    v.GetInt32("kafka.partitions"),
			Replication:   int16(v.GetInt("kafka.replication")),
			RelayInterval: v.GetDuration("kafka.relay_interval"),
			RelayBatch:    v.GetInt("kafka.relay_batch"),
		},
		Registration: RegistrationConfig{
			OfficeName:   v.GetString("registration.office_name"),
			ESignEnabled: v.GetBool("registration.esign_enabled"),
			SealSecret:   v.GetString("registration.seal_secret"),
			SignerID:     v.GetString("registration.signer_id"),
			LockBackend:  v.GetString("registration.lock_backend"),
			LeaseTTL:     v.GetDuration("registration.lease_ttl"),
			ActTypesFile: v.GetString("registration.act_types_file"),
			TxTimeout:    v.GetDuration("registration.tx_timeout"),
		},
		Workflow: WorkflowConfig{
			RulesFile: v.GetString("workflow.rules_file"),
		},
		Telemetry: TelemetryConfig{
			Enabled:      v.GetBool("telemetry.enabled"),
			OTLPEndpoint: v.GetString("telemetry.otlp_endpoint"),
			ServiceName:  v.GetString("telemetry.service_name"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Registration.LockBackend {
	case LockBackendMemory:
	case LockBackendRedis:
		if c.Redis.URL == "" {
			return errors.New("registration.lock_backend=redis requires redis.url")
		}
	case LockBackendPostgres:
		if c.Database.URL == "" {
			return errors.New("registration.lock_backend=postgres requires database.url")
		}
	default:
		return fmt.Errorf("unknown registration.lock_backend %q", c.Registration.LockBackend)
	}
	if c.Registration.ESignEnabled && c.Registration.SealSecret == "" {
		return errors.New("registration.seal_secret is required when esign is enabled")
	}
	return nil
}
