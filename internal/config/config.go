package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr    string
		BaseURL string
	}
	Database struct {
		Path string
	}
	Session struct {
		Secret     string
		TTLMinutes int
		Secure     bool
	}
	Auth struct {
		AdminCode string
	}
	Upload struct {
		MaxBytes int64
	}
	Media struct {
		Driver    string
		Bucket    string
		Region    string
		Endpoint  string
		PublicURL string
		KeyPrefix string
		AccessKey string
		SecretKey string
		UseSSL    bool
	}
	AWS struct {
		Profile string
	}
	Mail struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
		Timeout  time.Duration
	}
	Log struct {
		Level string
	}
}

// SessionTTL is the configured session lifetime.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Session.Secret) == "" {
		errs = append(errs, errors.New("session.secret is required"))
	}
	switch c.Media.Driver {
	case "s3", "minio":
	default:
		errs = append(errs, fmt.Errorf("media.driver must be s3 or minio, got %q", c.Media.Driver))
	}
	if c.Media.Driver == "minio" && c.Media.Endpoint == "" {
		errs = append(errs, errors.New("media.endpoint is required for the minio driver"))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("upload.maxbytes must be positive"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables and optional config files.
// Values in a local .env file never override variables already set.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("YELPCAMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:3000")
	v.SetDefault("server.baseurl", "http://localhost:3000")
	v.SetDefault("database.path", "data/yelpcamp.db")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttlminutes", 24*60)
	v.SetDefault("session.secure", false)
	v.SetDefault("auth.admincode", "")
	v.SetDefault("upload.maxbytes", 10<<20)
	v.SetDefault("media.driver", "s3")
	v.SetDefault("media.bucket", "")
	v.SetDefault("media.region", "us-east-1")
	v.SetDefault("media.endpoint", "")
	v.SetDefault("media.publicurl", "")
	v.SetDefault("media.keyprefix", "yelpcamp")
	v.SetDefault("media.accesskey", "")
	v.SetDefault("media.secretkey", "")
	v.SetDefault("media.usessl", true)
	v.SetDefault("aws.profile", "")
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "YelpCamp <noreply@yelpcamp.local>")
	v.SetDefault("mail.timeout", "30s")
	v.SetDefault("log.level", "info")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Media.Driver = strings.ToLower(strings.TrimSpace(cfg.Media.Driver))

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
