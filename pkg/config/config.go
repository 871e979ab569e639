package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv reads the given .env files (default ".env") into the process
// environment. Missing files are not an error; real env vars always win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// HTTP captures listener settings for a service.
type HTTP struct {
	Addr string
}

func (c *HTTP) LoadFromEnv(prefix string) {
	if port := os.Getenv(prefix + "_PORT"); port != "" {
		c.Addr = ":" + strings.TrimPrefix(port, ":")
	}
}

// Log selects the zap level and encoder.
type Log struct {
	Level  string
	Format string
}

func (c *Log) LoadFromEnv(prefix string) {
	c.Level = stringEnv(prefix+"_LEVEL", c.Level)
	c.Format = stringEnv(prefix+"_FORMAT", c.Format)
}

// Mongo is the document store holding residents and letter requests.
type Mongo struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	URI      string
}

func (c *Mongo) LoadFromEnv(prefix string) {
	c.Host = stringEnv(prefix+"_HOST", c.Host)
	c.Port = stringEnv(prefix+"_PORT", c.Port)
	c.User = stringEnv(prefix+"_USER", c.User)
	c.Password = stringEnv(prefix+"_PASSWORD", c.Password)
	c.Database = stringEnv(prefix+"_DATABASE", c.Database)
	c.URI = stringEnv(prefix+"_URI", c.URI)
}

// ConnectionURI prefers an explicit URI over the host parts.
func (c Mongo) ConnectionURI() string {
	if c.URI != "" {
		return c.URI
	}
	if c.User == "" {
		return fmt.Sprintf("mongodb://%s:%s", c.Host, c.Port)
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:%s", c.User, c.Password, c.Host, c.Port)
}

// RabbitMQ carries registry events to downstream consumers.
type RabbitMQ struct {
	Host     string
	Port     string
	User     string
	Password string
	URL      string
	Exchange string
}

func (c *RabbitMQ) LoadFromEnv(prefix string) {
	c.Host = stringEnv(prefix+"_HOST", c.Host)
	c.Port = stringEnv(prefix+"_PORT", c.Port)
	c.User = stringEnv(prefix+"_USER", c.User)
	c.Password = stringEnv(prefix+"_PASS", c.Password)
	c.URL = stringEnv(prefix+"_URL", c.URL)
	c.Exchange = stringEnv(prefix+"_EXCHANGE", c.Exchange)
}

func (c RabbitMQ) ConnectionURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.User, c.Password, c.Host, c.Port)
}

// MinIO is the blob store for resident photos.
type MinIO struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

func (c *MinIO) LoadFromEnv(prefix string) {
	c.Endpoint = stringEnv(prefix+"_ENDPOINT", c.Endpoint)
	c.AccessKey = stringEnv(prefix+"_ACCESS_KEY", c.AccessKey)
	c.SecretKey = stringEnv(prefix+"_SECRET_KEY", c.SecretKey)
	c.Bucket = stringEnv(prefix+"_BUCKET", c.Bucket)
	c.UseSSL = boolEnv(prefix+"_USE_SSL", c.UseSSL)
	c.PublicURL = stringEnv(prefix+"_PUBLIC_URL", c.PublicURL)
}

// Postgres backs the identity provider's account table.
type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

func (c *Postgres) LoadFromEnv(prefix string) {
	c.Host = stringEnv(prefix+"_HOST", c.Host)
	c.Port = stringEnv(prefix+"_PORT", c.Port)
	c.User = stringEnv(prefix+"_USER", c.User)
	c.Password = stringEnv(prefix+"_PASSWORD", c.Password)
	c.Database = stringEnv(prefix+"_DB", c.Database)
	c.SSLMode = stringEnv(prefix+"_SSLMODE", c.SSLMode)
}

func (c Postgres) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.Database, c.Port, c.SSLMode)
}

// Redis holds revoked tokens.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

func (c *Redis) LoadFromEnv(prefix string) {
	c.Addr = stringEnv(prefix+"_ADDR", c.Addr)
	c.Password = stringEnv(prefix+"_PASSWORD", c.Password)
	if db := os.Getenv(prefix + "_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			c.DB = n
		}
	}
}

// JWT configures token signing shared by every service.
type JWT struct {
	Secret string
	TTL    time.Duration
}

func (c *JWT) LoadFromEnv(prefix string) {
	c.Secret = strings.TrimSpace(stringEnv(prefix+"_SECRET", c.Secret))
	if ttl := os.Getenv(prefix + "_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			c.TTL = d
		}
	}
}

// DefaultJWT mirrors the development fallback every service used to hardcode.
func DefaultJWT() JWT {
	return JWT{Secret: "SUPER_SECRET_KEY_CHANGE_ME", TTL: 24 * time.Hour}
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
