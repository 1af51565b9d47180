package config

import (
	"errors"
	"log"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// 服务配置
	ServerPort  string `env:"SERVER_PORT" envDefault:"8888"`
	ServerHost  string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"quizfunnel"`
	ServiceVer  string `env:"SERVICE_VERSION" envDefault:"dev"`

	// 会话配置，cookie 签名和 csrf 共用
	SessionSecret      string `env:"SESSION_SECRET"`
	SessionCookieName  string `env:"SESSION_COOKIE_NAME" envDefault:"quizfunnel"`
	SessionIdleMinutes int    `env:"SESSION_IDLE_MINUTES" envDefault:"30"`
	CSRFEnabled        bool   `env:"CSRF_ENABLED" envDefault:"true"`
	// 前端页面来源，只有列出的来源才允许携带 cookie
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// Airtable 配置，密钥只能来自环境变量
	AirtableAPIKey   string `env:"AIRTABLE_API_KEY"`
	AirtableBaseID   string `env:"AIRTABLE_BASE_ID"`
	AirtableTable    string `env:"AIRTABLE_TABLE" envDefault:"Leads"`
	AirtableEndpoint string `env:"AIRTABLE_ENDPOINT" envDefault:"https://api.airtable.com"`

	// 附件中转（tmpfiles.org）
	TmpfilesUploadURL      string `env:"TMPFILES_UPLOAD_URL" envDefault:"https://tmpfiles.org/api/v1/upload"`
	TmpfilesViewPrefix     string `env:"TMPFILES_VIEW_PREFIX" envDefault:"https://tmpfiles.org/"`
	TmpfilesDownloadPrefix string `env:"TMPFILES_DOWNLOAD_PREFIX" envDefault:"https://tmpfiles.org/dl/"`

	// 地址联想（Google Places）
	PlacesAPIKey   string `env:"GOOGLE_MAPS_API_KEY"`
	PlacesEndpoint string `env:"PLACES_ENDPOINT" envDefault:"https://maps.googleapis.com/maps/api/place"`
	AddressCountry string `env:"ADDRESS_COUNTRY" envDefault:"au"`
	// 连续失败后熔断，避免每次按键都打到故障的上游
	AddressBreakerFailures     int `env:"ADDRESS_BREAKER_FAILURES" envDefault:"5"`
	AddressBreakerResetSeconds int `env:"ADDRESS_BREAKER_RESET_SECONDS" envDefault:"30"`

	// 问卷行为
	DisqualifyDelayMs    int      `env:"DISQUALIFY_DELAY_MS" envDefault:"500"`
	MaxAttachmentBytes   int64    `env:"MAX_ATTACHMENT_BYTES" envDefault:"10485760"`
	AttachmentErrorCodes []string `env:"ATTACHMENT_ERROR_CODES" envSeparator:"," envDefault:"INVALID_ATTACHMENT_OBJECT"`

	// 出站 HTTP
	HTTPClientTimeoutSeconds int `env:"HTTP_CLIENT_TIMEOUT_SECONDS" envDefault:"15"`

	// Redis 配置，只给限流使用
	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"qf"`

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// 链路追踪配置
	OTelEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"0.1"`

	// 速率限制配置，只作用于提交接口
	RateLimitWindowSeconds int `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"60"`
	RateLimitMaxRequests   int `env:"RATE_LIMIT_MAX_REQUESTS" envDefault:"5"`
	RateLimitBlockSeconds  int `env:"RATE_LIMIT_BLOCK_SECONDS" envDefault:"600"`
}

// Init 加载 .env 和环境变量到全局 Cfg，配置不合法直接退出
func Init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	cfg, err := Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	Cfg = cfg
}

// Load 只解析环境变量，不读取 .env
func Load() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.AirtableAPIKey) == "" {
		return errors.New("AIRTABLE_API_KEY is required")
	}
	if strings.TrimSpace(c.AirtableBaseID) == "" {
		return errors.New("AIRTABLE_BASE_ID is required")
	}
	if len(c.SessionSecret) < 16 {
		return errors.New("SESSION_SECRET is required (at least 16 bytes)")
	}
	if c.MaxAttachmentBytes <= 0 {
		return errors.New("MAX_ATTACHMENT_BYTES must be positive")
	}
	if c.DisqualifyDelayMs < 0 {
		return errors.New("DISQUALIFY_DELAY_MS must not be negative")
	}

	if c.PlacesAPIKey == "" {
		log.Printf("WARN: GOOGLE_MAPS_API_KEY is not set, address suggestions will not work")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
