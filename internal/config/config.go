package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	JWT           JWTConfig
	Storage       StorageConfig
	CORS          CORSConfig
	RateLimit     RateLimitConfig
	Redis         RedisConfig
	Email         EmailConfig
	PDF           PDFConfig
	Observability ObservabilityConfig
	Report        ReportConfig
	KeyVault      KeyVaultConfig
	Admin         AdminConfig
}

type AppConfig struct {
	Name        string
	Env         string
	Port        string
	Debug       bool
	FrontendURL string
}

// IsDevelopment reports whether internal error details may be shown to clients.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
	// Path is the database file when Driver is sqlite.
	Path         string
	MaxIdleConns int
	MaxOpenConns int
}

type JWTConfig struct {
	Secret             string
	ExpiryHours        time.Duration
	RefreshExpiryHours time.Duration
}

type StorageConfig struct {
	// Mode is "local" or "azure".
	Mode          string
	Path          string
	PublicURL     string
	UploadMaxSize int64

	AzureConnectionString string
	AzureAccountName      string
	AzureContainer        string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
	// AuthPerMinute bounds unauthenticated auth requests per client IP.
	AuthPerMinute int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
}

type PDFConfig struct {
	GotenbergURL string
	Timeout      time.Duration
}

type ObservabilityConfig struct {
	LogLevel     string
	OTLPEndpoint string
	ServiceName  string
}

type ReportConfig struct {
	// SalesTarget is the revenue target shown next to each sales rep.
	SalesTarget float64
}

type KeyVaultConfig struct {
	Name string
}

type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

func Load() *Config {
	// .env values become process env so viper.AutomaticEnv sees them too.
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not loaded, using environment variables: %v", err)
	}
	viper.AutomaticEnv()

	viper.SetDefault("APP_NAME", "crm-backend")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "crm")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "UTC")
	viper.SetDefault("DB_PATH", "crm.db")
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("DB_MAX_OPEN_CONNS", 100)
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("JWT_REFRESH_EXPIRY_HOURS", 168)
	viper.SetDefault("STORAGE_MODE", "local")
	viper.SetDefault("STORAGE_PATH", "./uploads")
	viper.SetDefault("STORAGE_PUBLIC_URL", "/files")
	viper.SetDefault("UPLOAD_MAX_SIZE", 5242880)
	viper.SetDefault("AZURE_STORAGE_CONTAINER", "crm-files")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("RATE_LIMIT_AUTH_PER_MINUTE", 20)
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REPORT_CACHE_TTL_SECONDS", 300)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_FROM_NAME", "CRM")
	viper.SetDefault("PDF_TIMEOUT_SECONDS", 30)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("OTEL_SERVICE_NAME", "crm-backend")
	viper.SetDefault("SALES_TARGET", 50000)

	return &Config{
		App: AppConfig{
			Name:        viper.GetString("APP_NAME"),
			Env:         viper.GetString("APP_ENV"),
			Port:        viper.GetString("APP_PORT"),
			Debug:       viper.GetBool("APP_DEBUG"),
			FrontendURL: viper.GetString("FRONTEND_URL"),
		},
		Database: DatabaseConfig{
			Driver:       viper.GetString("DB_DRIVER"),
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetString("DB_PORT"),
			Name:         viper.GetString("DB_NAME"),
			User:         viper.GetString("DB_USER"),
			Password:     viper.GetString("DB_PASSWORD"),
			SSLMode:      viper.GetString("DB_SSL_MODE"),
			Timezone:     viper.GetString("DB_TIMEZONE"),
			Path:         viper.GetString("DB_PATH"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
		},
		JWT: JWTConfig{
			Secret:             viper.GetString("JWT_SECRET"),
			ExpiryHours:        time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
			RefreshExpiryHours: time.Duration(viper.GetInt("JWT_REFRESH_EXPIRY_HOURS")) * time.Hour,
		},
		Storage: StorageConfig{
			Mode:                  viper.GetString("STORAGE_MODE"),
			Path:                  viper.GetString("STORAGE_PATH"),
			PublicURL:             viper.GetString("STORAGE_PUBLIC_URL"),
			UploadMaxSize:         viper.GetInt64("UPLOAD_MAX_SIZE"),
			AzureConnectionString: viper.GetString("AZURE_STORAGE_CONNECTION_STRING"),
			AzureAccountName:      viper.GetString("AZURE_STORAGE_ACCOUNT"),
			AzureContainer:        viper.GetString("AZURE_STORAGE_CONTAINER"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests:      viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration:      viper.GetInt("RATE_LIMIT_DURATION"),
			AuthPerMinute: viper.GetInt("RATE_LIMIT_AUTH_PER_MINUTE"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			CacheTTL: time.Duration(viper.GetInt("REPORT_CACHE_TTL_SECONDS")) * time.Second,
		},
		Email: EmailConfig{
			SMTPHost:     viper.GetString("SMTP_HOST"),
			SMTPPort:     viper.GetInt("SMTP_PORT"),
			SMTPUsername: viper.GetString("SMTP_USERNAME"),
			SMTPPassword: viper.GetString("SMTP_PASSWORD"),
			FromName:     viper.GetString("SMTP_FROM_NAME"),
			FromEmail:    viper.GetString("SMTP_FROM_EMAIL"),
		},
		PDF: PDFConfig{
			GotenbergURL: viper.GetString("GOTENBERG_URL"),
			Timeout:      time.Duration(viper.GetInt("PDF_TIMEOUT_SECONDS")) * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:     viper.GetString("LOG_LEVEL"),
			OTLPEndpoint: viper.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName:  viper.GetString("OTEL_SERVICE_NAME"),
		},
		Report: ReportConfig{
			SalesTarget: viper.GetFloat64("SALES_TARGET"),
		},
		KeyVault: KeyVaultConfig{
			Name: viper.GetString("AZURE_KEYVAULT_NAME"),
		},
		Admin: AdminConfig{
			Email:    viper.GetString("ADMIN_EMAIL"),
			Password: viper.GetString("ADMIN_PASSWORD"),
			Name:     viper.GetString("ADMIN_NAME"),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

// Validate checks settings that would otherwise fail late at first use.
func (c *Config) Validate() error {
	if c.App.Env == "production" && c.JWT.Secret == "change-this-secret-in-production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Storage.Mode {
	case "local":
	case "azure":
		if c.Storage.AzureConnectionString == "" && c.Storage.AzureAccountName == "" {
			return fmt.Errorf("azure storage needs AZURE_STORAGE_CONNECTION_STRING or AZURE_STORAGE_ACCOUNT")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_MODE %q", c.Storage.Mode)
	}
	return nil
}
