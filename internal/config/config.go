package config

import (
	"errors" // For required-value errors
	"fmt"    // For DSN formatting
	"time"   // For token lifetime

	"github.com/joho/godotenv" // For loading .env files
	"github.com/spf13/viper"   // For typed environment lookups with defaults
)

// Config holds the application configuration
type Config struct {
	AppPort     string        // Application port
	DBDriver    string        // Database driver: mysql or sqlite
	DBUser      string        // Database user
	DBPassword  string        // Database password
	DBHost      string        // Database host
	DBPort      string        // Database port
	DBName      string        // Database name
	DBPath      string        // SQLite database file
	DBLog       bool          // Log every SQL statement
	SecretKey   string        // JWT signing key
	Algorithm   string        // JWT signing algorithm
	TokenExpiry time.Duration // Access token lifetime
	RedisAddr   string        // Redis server address, empty disables the generation lock
	RedisPass   string        // Redis password
	RedisDB     int           // Redis database number
	IsProd      bool          // Is production environment
}

// LoadConfig loads configuration from the environment, after applying an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("APP_PORT", "8000")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_PATH", "finance.db")
	v.SetDefault("ALGORITHM", "HS256")
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 90)
	v.SetDefault("REDIS_DB", 0)

	cfg := &Config{
		AppPort:     v.GetString("APP_PORT"),
		DBDriver:    v.GetString("DB_DRIVER"),
		DBUser:      v.GetString("DB_USER"),
		DBPassword:  v.GetString("DB_PASSWORD"),
		DBHost:      v.GetString("DB_HOST"),
		DBPort:      v.GetString("DB_PORT"),
		DBName:      v.GetString("DB_NAME"),
		DBPath:      v.GetString("DB_PATH"),
		DBLog:       v.GetBool("DB_LOG"),
		SecretKey:   v.GetString("SECRET_KEY"),
		Algorithm:   v.GetString("ALGORITHM"),
		TokenExpiry: time.Duration(v.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES")) * time.Minute,
		RedisAddr:   v.GetString("REDIS_ADDR"),
		RedisPass:   v.GetString("REDIS_PASS"),
		RedisDB:     v.GetInt("REDIS_DB"),
		IsProd:      v.GetBool("IS_PROD"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	if c.DBDriver != "mysql" && c.DBDriver != "sqlite" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBDriver == "mysql" && c.DBName == "" {
		return errors.New("DB_NAME is required for mysql")
	}
	if c.TokenExpiry <= 0 {
		return errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	return nil
}

// MySQLDSN builds the Data Source Name for the MySQL driver
func (c *Config) MySQLDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}
