package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/piresc/vidcredit/internal/pkg/models"
	"github.com/spf13/viper"
)

// InitConfig loads the env file at configPath when running locally, then reads
// the environment into a Config.
func InitConfig(configPath string) *models.Config {
	v := newViper()
	if v.GetString("APP_ENV") == "local" && configPath != "" {
		if err := godotenv.Load(configPath); err != nil {
			log.Println("error loading config from file", err)
		}
	}
	return loadConfig(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "vidcredit-billing")
	v.SetDefault("APP_ENV", "local")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("APP_VERSION", "development")

	v.SetDefault("SERVER_PORT", 9990)
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30)

	v.SetDefault("DB_DRIVER", "pgx")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_POOL_SIZE", 10)

	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("NSQD_ADDRESS", "localhost:4150")
	v.SetDefault("NSQ_LOOKUPD_ADDRESS", "")
	v.SetDefault("NSQ_CHANNEL_PREFIX", "ws")
	v.SetDefault("NSQ_MAX_IN_FLIGHT", 50)
	v.SetDefault("EVENT_BUS", "nats")

	v.SetDefault("JWT_EXPIRATION", 1440)
	v.SetDefault("JWT_ISSUER", "vidcredit")
	v.SetDefault("JWT_COOKIE_NAME", "token")

	v.SetDefault("RATE_LIMIT_DEPOSIT", 10)
	v.SetDefault("RATE_LIMIT_DEPOSIT_PERIOD", "1m")

	v.SetDefault("NEW_RELIC_ENABLED", false)
	v.SetDefault("NEW_RELIC_FORWARD_LOGS", false)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE_PATH", "")

	v.SetDefault("PAYOS_BASE_URL", "https://api-merchant.payos.vn")
	v.SetDefault("PAYOS_TIMEOUT", "10s")
	v.SetDefault("PAYOS_LINK_EXPIRY", "5m")

	v.SetDefault("EXCHANGE_RATE", "1000")
	v.SetDefault("MIN_DEPOSIT", 10000)
	v.SetDefault("ORDER_LOCK_TTL", "30s")
	v.SetDefault("MAX_PAGE_SIZE", 100)
}

func loadConfig(v *viper.Viper) *models.Config {
	configs := &models.Config{}

	// App config
	configs.App.Name = v.GetString("APP_NAME")
	configs.App.Environment = v.GetString("APP_ENV")
	configs.App.Debug = v.GetBool("APP_DEBUG")
	configs.App.Version = v.GetString("APP_VERSION")

	// Server config
	configs.Server.Host = v.GetString("SERVER_HOST")
	configs.Server.Port = v.GetInt("SERVER_PORT")
	configs.Server.ReadTimeout = v.GetInt("SERVER_READ_TIMEOUT")
	configs.Server.WriteTimeout = v.GetInt("SERVER_WRITE_TIMEOUT")
	configs.Server.ShutdownTimeout = v.GetInt("SERVER_SHUTDOWN_TIMEOUT")

	// Database config
	configs.Database.Driver = v.GetString("DB_DRIVER")
	configs.Database.Host = v.GetString("DB_HOST")
	configs.Database.Port = v.GetInt("DB_PORT")
	configs.Database.Username = v.GetString("DB_USERNAME")
	configs.Database.Password = v.GetString("DB_PASSWORD")
	configs.Database.Database = v.GetString("DB_DATABASE")
	configs.Database.SSLMode = v.GetString("DB_SSL_MODE")
	configs.Database.MaxConns = v.GetInt("DB_MAX_CONNS")
	configs.Database.IdleConns = v.GetInt("DB_IDLE_CONNS")

	// Redis config
	configs.Redis.Host = v.GetString("REDIS_HOST")
	configs.Redis.Port = v.GetInt("REDIS_PORT")
	configs.Redis.Password = v.GetString("REDIS_PASSWORD")
	configs.Redis.DB = v.GetInt("REDIS_DB")
	configs.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")

	// Brokers
	configs.NATS.URL = v.GetString("NATS_URL")
	configs.NSQ.NSQDAddress = v.GetString("NSQD_ADDRESS")
	configs.NSQ.LookupdAddress = v.GetString("NSQ_LOOKUPD_ADDRESS")
	configs.NSQ.ChannelPrefix = v.GetString("NSQ_CHANNEL_PREFIX")
	configs.NSQ.MaxInFlight = v.GetInt("NSQ_MAX_IN_FLIGHT")
	configs.EventBus.Driver = strings.ToLower(v.GetString("EVENT_BUS"))

	// JWT config
	configs.JWT.Secret = v.GetString("JWT_SECRET")
	configs.JWT.Expiration = v.GetInt("JWT_EXPIRATION")
	configs.JWT.Issuer = v.GetString("JWT_ISSUER")
	configs.JWT.CookieName = v.GetString("JWT_COOKIE_NAME")

	// Rate limit config
	configs.RateLimit.DepositLimit = v.GetInt("RATE_LIMIT_DEPOSIT")
	configs.RateLimit.DepositPeriod = getDuration(v, "RATE_LIMIT_DEPOSIT_PERIOD", time.Minute)

	// NewRelic config
	configs.NewRelic.LicenseKey = v.GetString("NEW_RELIC_LICENSE_KEY")
	configs.NewRelic.AppName = v.GetString("NEW_RELIC_APP_NAME")
	configs.NewRelic.Enabled = v.GetBool("NEW_RELIC_ENABLED")
	configs.NewRelic.ForwardLogs = v.GetBool("NEW_RELIC_FORWARD_LOGS")

	// Logger config
	configs.Logger.Level = v.GetString("LOG_LEVEL")
	configs.Logger.FilePath = v.GetString("LOG_FILE_PATH")

	// Payment gateway config
	configs.PaymentGateway.BaseURL = strings.TrimRight(v.GetString("PAYOS_BASE_URL"), "/")
	configs.PaymentGateway.ClientID = v.GetString("PAYOS_CLIENT_ID")
	configs.PaymentGateway.APIKey = v.GetString("PAYOS_API_KEY")
	configs.PaymentGateway.ChecksumKey = v.GetString("PAYOS_CHECKSUM_KEY")
	configs.PaymentGateway.ReturnURL = v.GetString("PAYOS_RETURN_URL")
	configs.PaymentGateway.CancelURL = v.GetString("PAYOS_CANCEL_URL")
	configs.PaymentGateway.Timeout = getDuration(v, "PAYOS_TIMEOUT", 10*time.Second)
	configs.PaymentGateway.LinkExpiry = getDuration(v, "PAYOS_LINK_EXPIRY", 5*time.Minute)

	// Billing config
	configs.Billing.ExchangeRate = v.GetString("EXCHANGE_RATE")
	configs.Billing.MinDeposit = v.GetInt64("MIN_DEPOSIT")
	configs.Billing.OrderLockTTL = getDuration(v, "ORDER_LOCK_TTL", 30*time.Second)
	configs.Billing.MaxPageSize = v.GetInt("MAX_PAGE_SIZE")

	return configs
}

// getDuration accepts Go duration strings ("90s") and falls back to def on
// anything unparseable.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := v.GetString(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: Invalid duration value for %s, using default: %s", key, def)
		return def
	}
	return d
}
