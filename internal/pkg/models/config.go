package models

import "time"

// Config represents application configuration
type Config struct {
	App            AppConfig
	Server         ServerConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	NATS           NATSConfig
	NSQ            NSQConfig
	EventBus       EventBusConfig
	JWT            JWTConfig
	RateLimit      RateLimitConfig
	NewRelic       NewRelicConfig
	Logger         LoggerConfig
	PaymentGateway PaymentGatewayConfig
	Billing        BillingConfig
}

// AppConfig contains application-specific configuration
type AppConfig struct {
	Name        string
	Environment string
	Debug       bool
	Version     string
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     int // in seconds
	WriteTimeout    int // in seconds
	ShutdownTimeout int // in seconds
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Driver    string
	Host      string
	Port      int
	Username  string
	Password  string
	Database  string
	SSLMode   string
	MaxConns  int
	IdleConns int
}

// RedisConfig contains Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// NATSConfig contains NATS connection configuration
type NATSConfig struct {
	URL string
}

// NSQConfig contains NSQ producer/consumer configuration
type NSQConfig struct {
	NSQDAddress    string
	LookupdAddress string
	ChannelPrefix  string
	MaxInFlight    int
}

// EventBusConfig selects the broker used for live user events
type EventBusConfig struct {
	Driver string // "nats" or "nsq"
}

// JWTConfig contains JWT authentication configuration
type JWTConfig struct {
	Secret     string
	Expiration int // in minutes
	Issuer     string
	CookieName string
}

// RateLimitConfig bounds deposit creation per user
type RateLimitConfig struct {
	DepositLimit  int
	DepositPeriod time.Duration
}

// NewRelicConfig contains New Relic APM configuration
type NewRelicConfig struct {
	LicenseKey  string
	AppName     string
	Enabled     bool
	ForwardLogs bool
}

// LoggerConfig contains logger configuration
type LoggerConfig struct {
	Level    string
	FilePath string
}

// PaymentGatewayConfig contains the hosted payment gateway credentials
type PaymentGatewayConfig struct {
	BaseURL     string
	ClientID    string
	APIKey      string
	ChecksumKey string
	ReturnURL   string
	CancelURL   string
	Timeout     time.Duration
	LinkExpiry  time.Duration
}

// BillingConfig contains deposit and reconciliation settings
type BillingConfig struct {
	ExchangeRate string // decimal string, currency units per credit
	MinDeposit   int64
	OrderLockTTL time.Duration
	MaxPageSize  int
}
