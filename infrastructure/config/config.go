package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Cors     CorsConfig
	Logger   LoggerConfig
	Jaeger   JaegerConfig
	Sentry   SentryConfig
	Auth     AuthConfig
	Webhook  WebhookConfig
	Vendor   VendorConfig
	Sweep    SweepConfig
	Feed     FeedConfig
}

type ServerConfig struct {
	InternalPort string
	ExternalPort string
	RunMode      string
	Domain       string
	FrontEndURL  string
}

type LoggerConfig struct {
	FilePath string
	Encoding string
	Level    string
	Logger   string
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DbName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host               string
	Port               string
	Password           string
	Db                 string
	DialTimeout        time.Duration
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleCheckFrequency time.Duration
	PoolSize           int
	PoolTimeout        time.Duration
}

type CorsConfig struct {
	AllowOrigins string
}

type JaegerConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
}

type SentryConfig struct {
	Dsn            string
	Debug          bool
	SendDefaultPII bool
}

type AuthConfig struct {
	// TokenSecret signs and verifies API bearer tokens; the SSE feed
	// verifies the same token from a query parameter.
	TokenSecret string
}

type WebhookConfig struct {
	// Secret is the shared HMAC secret for inbound tracking webhooks.
	// Empty disables verification (development bypass, logged loudly).
	Secret string
}

type VendorConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// CallsPerSecond paces outbound vendor calls across webhooks and sweeps.
	CallsPerSecond int
}

type SweepConfig struct {
	Interval   time.Duration
	BatchSize  int
	ItemPause  time.Duration
	BatchPause time.Duration
}

type FeedConfig struct {
	TickInterval   time.Duration
	HeartbeatTicks int
	Lookback       time.Duration
	MaxEntries     int
}

func GetConfig() *Config {
	cfgPath := getConfigPath(os.Getenv("APP_ENV"))
	v, err := LoadConfig(cfgPath, "yml")
	if err != nil {
		log.Fatalf("Error in load config %v", err)
	}

	cfg, err := ParseConfig(v)
	if err != nil {
		log.Fatalf("Error in parse config %v", err)
	}

	if envPort := os.Getenv("PORT"); envPort != "" {
		cfg.Server.ExternalPort = envPort
		log.Printf("Set external port from environment -> %s", cfg.Server.ExternalPort)
	} else {
		log.Printf("Using external port from config -> %s", cfg.Server.ExternalPort)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	err := v.Unmarshal(&cfg)
	if err != nil {
		log.Printf("Unable to parse config: %v", err)
		return nil, err
	}
	return &cfg, nil
}

func LoadConfig(filename string, fileType string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(fileType)
	v.SetConfigName(filename)

	v.AddConfigPath(".")                        // Current directory
	v.AddConfigPath("./config")                 // ./config
	v.AddConfigPath("./infrastructure/config")  // ./infrastructure/config
	v.AddConfigPath("../config")                // ../config
	v.AddConfigPath("../infrastructure/config") // ../infrastructure/config (from cmd)
	v.AddConfigPath("../../config")             // ../../config

	if wd, err := os.Getwd(); err == nil {
		v.AddConfigPath(filepath.Join(wd, "config"))
		v.AddConfigPath(filepath.Join(wd, "infrastructure", "config"))
	}

	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		log.Printf("Unable to read config: %v", err)
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}

	log.Printf("Using config file: %s", v.ConfigFileUsed())
	return v, nil
}

func getConfigPath(env string) string {
	switch env {
	case "docker":
		return "config-docker"
	case "production":
		return "config-production"
	default:
		return "config-development"
	}
}

func (c *Config) applyDefaults() {
	if c.Vendor.Timeout == 0 {
		c.Vendor.Timeout = 10 * time.Second
	}
	if c.Vendor.CallsPerSecond == 0 {
		c.Vendor.CallsPerSecond = 8
	}
	if c.Sweep.Interval == 0 {
		c.Sweep.Interval = 30 * time.Minute
	}
	if c.Sweep.BatchSize == 0 {
		c.Sweep.BatchSize = 5
	}
	if c.Sweep.ItemPause == 0 {
		c.Sweep.ItemPause = 200 * time.Millisecond
	}
	if c.Sweep.BatchPause == 0 {
		c.Sweep.BatchPause = 2 * time.Second
	}
	if c.Feed.TickInterval == 0 {
		c.Feed.TickInterval = 2 * time.Second
	}
	if c.Feed.HeartbeatTicks == 0 {
		c.Feed.HeartbeatTicks = 15
	}
	if c.Feed.Lookback == 0 {
		c.Feed.Lookback = time.Minute
	}
	if c.Feed.MaxEntries == 0 {
		c.Feed.MaxEntries = 100
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.InternalPort == "" {
		return errors.New("server.internalPort is required")
	}
	if c.Server.ExternalPort == "" {
		return errors.New("server.externalPort is required")
	}
	if c.Server.Domain == "" {
		return errors.New("server.domain is required")
	}

	if c.Postgres.Host == "" {
		return errors.New("postgres.host is required")
	}
	if c.Postgres.Port == "" {
		return errors.New("postgres.port is required")
	}
	if c.Postgres.DbName == "" {
		return errors.New("postgres.dbName is required")
	}

	if c.Redis.Host == "" {
		return errors.New("redis.host is required")
	}
	if c.Redis.Port == "" {
		return errors.New("redis.port is required")
	}

	if c.Auth.TokenSecret == "" {
		return errors.New("auth.tokenSecret is required")
	}
	if c.Vendor.BaseURL == "" {
		return errors.New("vendor.baseUrl is required")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.RunMode == "debug" || c.Server.RunMode == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.RunMode == "release" || c.Server.RunMode == "production"
}

func (c *Config) GetPostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.User,
		c.Postgres.Password,
		c.Postgres.DbName,
		c.Postgres.SSLMode,
	)
}

func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf(":%s", c.Server.InternalPort)
}

func (c *Config) GetFrontEndURL() string {
	return c.Server.FrontEndURL
}
