package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string `yaml:"port" env:"SERVER_PORT"`
		Mode            string `yaml:"mode" env:"SERVER_MODE"`
		ShutdownTimeout string `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	} `yaml:"server"`

	Storage struct {
		// Driver selects the document store: "postgres" or "memory".
		Driver string `yaml:"driver" env:"STORAGE_DRIVER"`
	} `yaml:"storage"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
	} `yaml:"redis"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Session struct {
		// Backend for persisted session state such as the active academic year:
		// "file", "redis" or "memory".
		Backend  string `yaml:"backend" env:"SESSION_BACKEND"`
		FilePath string `yaml:"file_path" env:"SESSION_FILE_PATH"`
	} `yaml:"session"`

	ChangeFeed struct {
		// Backend is "memory" for a single instance or "redis" to fan out across instances.
		Backend string `yaml:"backend" env:"CHANGEFEED_BACKEND"`
		Channel string `yaml:"channel" env:"CHANGEFEED_CHANNEL"`
	} `yaml:"changefeed"`

	RateLimit struct {
		LoginPerMinute int `yaml:"login_per_minute" env:"RATELIMIT_LOGIN_PER_MINUTE"`
		LoginBurst     int `yaml:"login_burst" env:"RATELIMIT_LOGIN_BURST"`
	} `yaml:"ratelimit"`

	Seed struct {
		AdminEmail    string `yaml:"admin_email" env:"SEED_ADMIN_EMAIL"`
		AdminPassword string `yaml:"admin_password" env:"SEED_ADMIN_PASSWORD"`
		AcademicYear  string `yaml:"academic_year" env:"SEED_ACADEMIC_YEAR"`
	} `yaml:"seed"`

	Logging struct {
		Level        string `yaml:"level" env:"LOG_LEVEL"`
		Format       string `yaml:"format" env:"LOG_FORMAT"`
		RollbarToken string `yaml:"rollbar_token" env:"ROLLBAR_TOKEN"`
		Environment  string `yaml:"environment" env:"APP_ENV"`
	} `yaml:"logging"`
}

var academicYearPattern = regexp.MustCompile(`^\d{4}/\d{4}$`)

// LoadConfig loads configuration from a file, an optional .env file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ShutdownTimeout = "10s"

	config.Storage.Driver = "postgres"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "schoolrecords"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	config.Redis.Addr = "localhost:6379"

	config.JWT.AccessTokenExpiration = "12h"
	config.JWT.Issuer = "schoolrecords.app"

	config.Session.Backend = "file"
	config.Session.FilePath = "data/session.json"

	config.ChangeFeed.Backend = "memory"
	config.ChangeFeed.Channel = "schoolrecords:changes"

	config.RateLimit.LoginPerMinute = 10
	config.RateLimit.LoginBurst = 5

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Environment = "development"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch config.Storage.Driver {
	case "postgres":
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
	}

	switch config.Session.Backend {
	case "file":
		if config.Session.FilePath == "" {
			return fmt.Errorf("session file path is required for the file backend")
		}
	case "redis", "memory":
	default:
		return fmt.Errorf("unsupported session backend %q", config.Session.Backend)
	}

	switch config.ChangeFeed.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported changefeed backend %q", config.ChangeFeed.Backend)
	}

	if config.UsesRedis() && config.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if _, err := time.ParseDuration(config.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid server shutdown timeout format: %w", err)
	}

	if config.Seed.AcademicYear != "" && !academicYearPattern.MatchString(config.Seed.AcademicYear) {
		return fmt.Errorf("seed academic year must look like 2024/2025")
	}

	return nil
}

// UsesRedis reports whether any component is configured against Redis.
func (c *Config) UsesRedis() bool {
	return c.Session.Backend == "redis" || c.ChangeFeed.Backend == "redis"
}

// AccessTokenTTL returns the parsed access token lifetime.
func (c *Config) AccessTokenTTL() time.Duration {
	d, _ := time.ParseDuration(c.JWT.AccessTokenExpiration)
	return d
}

// ShutdownTimeout returns the parsed graceful shutdown window.
func (c *Config) ShutdownTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.ShutdownTimeout)
	return d
}

// GetPostgresConnectionString returns the pgx connection URL for Database.
// Credentials are escaped so passwords may contain URL metacharacters.
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     net.JoinHostPort(c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.DBName,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}
