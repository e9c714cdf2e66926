package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(LevelForEnvironment(GetEnvWithDefault("APP_ENV", "development")))
}

// LevelForEnvironment maps APP_ENV to a logrus level.
func LevelForEnvironment(environment string) logrus.Level {
	switch environment {
	case "development":
		return logrus.DebugLevel
	case "production":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Config used for the application configuration, loading the input from environment variables
type Config struct {
	// Server Configuration
	Port        int    `json:"port"`
	Host        string `json:"host"`
	Environment string `json:"environment"`

	// Database configuration
	DBDriver    string `json:"db_driver"`
	DBPath      string `json:"db_path"`
	DBHost      string `json:"db_host"`
	DBPort      string `json:"db_port"`
	DBName      string `json:"db_name"`
	DBUser      string `json:"db_user"`
	DBPassword  string `json:"db_password"`
	DBSSLMode   string `json:"db_sslmode"`
	DatabaseURL string `json:"database_url"`

	// Logging configuration
	LogLevel string `json:"log_level"`

	// Security Configuration
	JWTSecret string `json:"jwt_secret"`

	OLX    OLXConfig    `json:"olx"`
	Photos PhotosConfig `json:"photos"`
}

// OLXConfig holds the marketplace integration settings.
type OLXConfig struct {
	ClientID      string          `json:"client_id"`
	ClientSecret  string          `json:"client_secret"`
	APIBaseURL    string          `json:"api_base_url"`
	TokenURL      string          `json:"token_url"`
	AuthorizeURL  string          `json:"authorize_url"`
	RedirectURI   string          `json:"redirect_uri"`
	UserAgent     string          `json:"user_agent"`
	CategoryID    int             `json:"category_id"`
	CityID        int             `json:"city_id"`
	ContactName   string          `json:"contact_name"`
	ContactPhone  string          `json:"contact_phone"`
	VATMultiplier decimal.Decimal `json:"vat_multiplier"`
	RateLimitRPS  float64         `json:"rate_limit_rps"`
	SubmitTimeout time.Duration   `json:"submit_timeout"`
	CheckTimeout  time.Duration   `json:"check_timeout"`
}

// PhotosConfig tells where unit photos are served from and staged.
type PhotosConfig struct {
	BaseURL    string `json:"base_url"`
	StagingDir string `json:"staging_dir"`
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %d, Host: %s, Environment: %s, DBDriver: %s, DBPath: %s, DBHost: %s, DBName: %s, DBUser: %s, DBPassword: [REDACTED], DatabaseURL: %s, LogLevel: %s, JWTSecret: [REDACTED], OLX: {ClientID: %s, ClientSecret: [REDACTED], APIBaseURL: %s, CategoryID: %d, CityID: %d, VAT: %s}, Photos: {BaseURL: %s, StagingDir: %s}}",
		c.Port, c.Host, c.Environment, c.DBDriver, c.DBPath, c.DBHost, c.DBName, c.DBUser, maskDatabaseURL(c.DatabaseURL), c.LogLevel,
		c.OLX.ClientID, c.OLX.APIBaseURL, c.OLX.CategoryID, c.OLX.CityID, c.OLX.VATMultiplier.String(),
		c.Photos.BaseURL, c.Photos.StagingDir)
}

// maskDatabaseURL masks password in database URL
func maskDatabaseURL(dbURL string) string {
	if dbURL == "" {
		return ""
	}

	parsed, err := url.Parse(dbURL)
	if err != nil {
		return "[REDACTED_INVALID_URL]"
	}

	if parsed.User != nil {
		// Replace password with [REDACTED]
		parsed.User = url.UserPassword(parsed.User.Username(), "[REDACTED]")
	}

	return parsed.String()
}

// LoadConfig read the proper configuration from environment variables and returns a Config struct
// It validates the port, database settings and the VAT multiplier.
// Returns an error if any required environment variable is missing or invalid
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")
	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	dbURL := GetEnvWithDefault("DATABASE_URL", "")
	if dbURL != "" {
		if _, err := url.ParseRequestURI(dbURL); err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL format: %w", err)
		}
	}

	vat, err := decimal.NewFromString(GetEnvWithDefault("OLX_VAT_MULTIPLIER", "1.23"))
	if err != nil {
		return nil, fmt.Errorf("invalid OLX_VAT_MULTIPLIER: %w", err)
	}
	if vat.LessThan(decimal.NewFromInt(1)) {
		return nil, errors.New("OLX_VAT_MULTIPLIER must be at least 1")
	}

	host := GetEnvWithDefault("APP_HOST", "localhost")

	config := &Config{
		Port:        port,
		Host:        host,
		Environment: GetEnvWithDefault("APP_ENV", "development"),
		DBDriver:    strings.ToLower(GetEnvWithDefault("DB_DRIVER", "sqlite")),
		DBPath:      GetEnvWithDefault("DB_PATH", "partstock.sqlite"),
		DBHost:      GetEnvWithDefault("DB_HOST", ""),
		DBPort:      GetEnvWithDefault("DB_PORT", "5432"),
		DBName:      GetEnvWithDefault("DB_NAME", ""),
		DBUser:      GetEnvWithDefault("DB_USER", ""),
		DBPassword:  GetEnvWithDefault("DB_PASSWORD", ""),
		DBSSLMode:   GetEnvWithDefault("DB_SSLMODE", "disable"),
		DatabaseURL: dbURL,
		LogLevel:    GetEnvWithDefault("LOG_LEVEL", "info"),
		JWTSecret:   GetEnvWithDefault("JWT_SECRET", "secret"),
		OLX: OLXConfig{
			ClientID:      GetEnvWithDefault("OLX_CLIENT_ID", ""),
			ClientSecret:  GetEnvWithDefault("OLX_CLIENT_SECRET", ""),
			APIBaseURL:    GetEnvWithDefault("OLX_API_BASE_URL", "https://www.olx.pt/api/partner"),
			TokenURL:      GetEnvWithDefault("OLX_TOKEN_URL", "https://www.olx.pt/api/open/oauth/token"),
			AuthorizeURL:  GetEnvWithDefault("OLX_AUTHORIZE_URL", "https://www.olx.pt/oauth/authorize"),
			RedirectURI:   GetEnvWithDefault("OLX_REDIRECT_URI", "http://localhost:8080/api/v1/olx/auth/callback"),
			UserAgent:     GetEnvWithDefault("OLX_USER_AGENT", "PartStock/1.0"),
			CategoryID:    GetEnvAsType("OLX_CATEGORY_ID", 377),
			CityID:        GetEnvAsType("OLX_CITY_ID", 1063945),
			ContactName:   GetEnvWithDefault("OLX_CONTACT_NAME", "PartStock"),
			ContactPhone:  GetEnvWithDefault("OLX_CONTACT_PHONE", ""),
			VATMultiplier: vat,
			RateLimitRPS:  GetEnvAsType("OLX_RATE_LIMIT_RPS", 5.0),
			SubmitTimeout: GetEnvAsType("OLX_SUBMIT_TIMEOUT", 30*time.Second),
			CheckTimeout:  GetEnvAsType("OLX_CHECK_TIMEOUT", 10*time.Second),
		},
		Photos: PhotosConfig{
			// served by the /photos route of this process
			BaseURL:    GetEnvWithDefault("PHOTO_BASE_URL", fmt.Sprintf("http://%s:%d/photos", host, port)),
			StagingDir: GetEnvWithDefault("PHOTO_STAGING_DIR", "photos/staging"),
		},
	}

	if config.DBDriver == "postgres" && config.DatabaseURL == "" {
		if config.DBHost == "" || config.DBUser == "" || config.DBName == "" {
			return nil, errors.New("postgres requires DATABASE_URL or DB_HOST, DB_USER and DB_NAME")
		}
	}

	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Debugf("Environment variable %s not set, using default value", key)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return any(intValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return any(boolValue).(T)
	case float64:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return defaultValue
		}
		return any(floatValue).(T)
	case time.Duration:
		durationValue, err := time.ParseDuration(value)
		if err != nil {
			return defaultValue
		}
		return any(durationValue).(T)
	default:
		return defaultValue // Fallback for unsupported types
	}
}
