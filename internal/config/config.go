// Package config loads runtime configuration from a YAML file with
// environment-variable overrides. Backend selection happens here once, at
// startup; business code receives the chosen implementations and never
// branches on a mode flag.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where the server looks for its config file.
const DefaultConfigPath = "config.yaml"

// Storage mode selectors.
const (
	RecordModeFile  = "file"
	RecordModeMongo = "mongo"

	ObjectModeLocal = "local"
	ObjectModeS3    = "s3"
)

// AppConfig is the full runtime configuration.
type AppConfig struct {
	Port int    `yaml:"port"`
	Env  string `yaml:"env"` // "development" | "production"

	// PublicBaseURL prefixes registration links handed to attendees.
	PublicBaseURL string `yaml:"public_base_url"`

	RecordMode string `yaml:"record_mode"` // file | mongo
	ObjectMode string `yaml:"object_mode"` // local | s3

	DataDir   string `yaml:"data_dir"`   // file record backend
	UploadDir string `yaml:"upload_dir"` // local object backend

	MongoURI string `yaml:"mongo_uri"`
	MongoDB  string `yaml:"mongo_db"`

	S3 S3Config `yaml:"s3"`

	RedisURL  string `yaml:"redis_url"`
	JWTSecret string `yaml:"jwt_secret"`

	TokenExpiryDays   int    `yaml:"token_expiry_days"`
	MaxSignatureBytes int    `yaml:"max_signature_bytes"`
	Timezone          string `yaml:"timezone"` // business reporting zone

	AllowedOrigins []string `yaml:"allowed_origins"`
}

// S3Config addresses the asset bucket.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Endpoint        string `yaml:"endpoint"`
	PathStyleAccess bool   `yaml:"path_style_access"`
}

// Load reads the YAML file at path (missing file is fine, defaults apply),
// layers environment overrides on top, and validates the result.
func Load(path string) (*AppConfig, error) {
	cfg := defaults()

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Env-only deployment.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *AppConfig {
	return &AppConfig{
		Port:              8000,
		Env:               "production",
		PublicBaseURL:     "http://localhost:8000",
		RecordMode:        RecordModeFile,
		ObjectMode:        ObjectModeLocal,
		DataDir:           "./data",
		UploadDir:         "./uploads",
		MongoDB:           "asistio",
		TokenExpiryDays:   30,
		MaxSignatureBytes: 1 << 20,
		Timezone:          "America/Bogota",
	}
}

func applyEnv(cfg *AppConfig) {
	setStr := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setInt(&cfg.Port, "ASISTIO_PORT")
	setStr(&cfg.Env, "ASISTIO_ENV")
	setStr(&cfg.PublicBaseURL, "ASISTIO_PUBLIC_BASE_URL")
	setStr(&cfg.RecordMode, "ASISTIO_RECORD_MODE")
	setStr(&cfg.ObjectMode, "ASISTIO_OBJECT_MODE")
	setStr(&cfg.DataDir, "ASISTIO_DATA_DIR")
	setStr(&cfg.UploadDir, "ASISTIO_UPLOAD_DIR")
	setStr(&cfg.MongoURI, "ASISTIO_MONGO_URI")
	setStr(&cfg.MongoDB, "ASISTIO_MONGO_DB")
	setStr(&cfg.RedisURL, "ASISTIO_REDIS_URL")
	setStr(&cfg.JWTSecret, "ASISTIO_JWT_SECRET")
	setInt(&cfg.TokenExpiryDays, "ASISTIO_TOKEN_EXPIRY_DAYS")
	setInt(&cfg.MaxSignatureBytes, "ASISTIO_MAX_SIGNATURE_BYTES")
	setStr(&cfg.Timezone, "ASISTIO_TIMEZONE")
	setStr(&cfg.S3.Bucket, "ASISTIO_S3_BUCKET")
	setStr(&cfg.S3.Region, "ASISTIO_S3_REGION")
	setStr(&cfg.S3.AccessKeyID, "ASISTIO_S3_ACCESS_KEY_ID")
	setStr(&cfg.S3.SecretAccessKey, "ASISTIO_S3_SECRET_ACCESS_KEY")
	setStr(&cfg.S3.Endpoint, "ASISTIO_S3_ENDPOINT")
}

func (c *AppConfig) validate() error {
	switch c.RecordMode {
	case RecordModeFile, RecordModeMongo:
	default:
		return fmt.Errorf("invalid record_mode %q (want %s or %s)", c.RecordMode, RecordModeFile, RecordModeMongo)
	}
	switch c.ObjectMode {
	case ObjectModeLocal, ObjectModeS3:
	default:
		return fmt.Errorf("invalid object_mode %q (want %s or %s)", c.ObjectMode, ObjectModeLocal, ObjectModeS3)
	}
	if c.RecordMode == RecordModeMongo && strings.TrimSpace(c.MongoURI) == "" {
		return fmt.Errorf("mongo_uri is required when record_mode is %s", RecordModeMongo)
	}
	if c.TokenExpiryDays <= 0 {
		return fmt.Errorf("token_expiry_days must be positive")
	}
	if c.MaxSignatureBytes <= 0 {
		return fmt.Errorf("max_signature_bytes must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool { return strings.EqualFold(c.Env, "development") }

// TokenExpiry returns the token validity window as a duration.
func (c *AppConfig) TokenExpiry() time.Duration {
	return time.Duration(c.TokenExpiryDays) * 24 * time.Hour
}

// Location resolves the business reporting time zone. validate guarantees it
// loads.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
