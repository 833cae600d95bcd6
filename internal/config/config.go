// Package config loads server options from defaults, an optional config file,
// LOANCALC_* environment variables and command-line flags, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// LOANCALC_DATABASE_DSN for database.dsn.
const EnvPrefix = "LOANCALC"

// Options holds the configuration values for the application.
type Options struct {
	// Config is the path to the config file. A missing file is not an error.
	Config string `mapstructure:"config"`

	Server    ServerOptions    `mapstructure:"server"`
	Database  DatabaseOptions  `mapstructure:"database"`
	Auth      AuthOptions      `mapstructure:"auth"`
	Seed      SeedOptions      `mapstructure:"seed"`
	Redis     RedisOptions     `mapstructure:"redis"`
	SMTP      SMTPOptions      `mapstructure:"smtp"`
	RateLimit RateLimitOptions `mapstructure:"ratelimit"`
	Logging   LoggingOptions   `mapstructure:"logging"`
}

// ServerOptions configures the HTTP listener.
type ServerOptions struct {
	// Address is the listening address (ip:port).
	Address      string        `mapstructure:"address" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `mapstructure:"tls_cert" validate:"required_with=TLSKey"`
	TLSKey  string `mapstructure:"tls_key" validate:"required_with=TLSCert"`
}

// TLS reports whether the server should listen with TLS.
func (s ServerOptions) TLS() bool {
	return s.TLSCert != "" && s.TLSKey != ""
}

type DatabaseOptions struct {
	// DSN is the PostgreSQL connection string.
	DSN string `mapstructure:"dsn" validate:"required"`
	// AuditInterval is how often duplicate active calculators are reported.
	// Zero disables the periodic audit; it still runs once at startup.
	AuditInterval time.Duration `mapstructure:"audit_interval" validate:"gte=0"`
}

type AuthOptions struct {
	// JWTSecret signs session tokens.
	JWTSecret string        `mapstructure:"jwt_secret" validate:"required"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
}

// SeedOptions describes the administrator created on first boot.
type SeedOptions struct {
	AdminEmail    string `mapstructure:"admin_email" validate:"required,email"`
	AdminPassword string `mapstructure:"admin_password" validate:"required,min=6"`
}

// RedisOptions selects the configuration cache. An empty Addr keeps the cache
// in process memory. TTL bounds the age of cached entries in either store.
type RedisOptions struct {
	Addr string        `mapstructure:"addr"`
	TTL  time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// SMTPOptions configures outgoing mail. An empty Host logs messages instead of
// sending them.
type SMTPOptions struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"gt=0,lte=65535"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from" validate:"required,email"`
}

// RateLimitOptions bounds email requests per client IP: Capacity requests per
// Window.
type RateLimitOptions struct {
	Capacity int           `mapstructure:"capacity" validate:"gt=0"`
	Window   time.Duration `mapstructure:"window" validate:"gt=0"`
}

type LoggingOptions struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error Debug Info Warn Error"`
}

var defaults = map[string]any{
	"config":                  "config.json",
	"server.address":          "localhost:8080",
	"server.read_timeout":     10 * time.Second,
	"server.write_timeout":    30 * time.Second,
	"server.tls_cert":         "",
	"server.tls_key":          "",
	"database.dsn":            "",
	"database.audit_interval": time.Hour,
	"auth.jwt_secret":         "",
	"auth.token_ttl":          24 * time.Hour,
	"seed.admin_email":        "admin@example.com",
	"seed.admin_password":     "admin123",
	"redis.addr":              "",
	"redis.ttl":               5 * time.Minute,
	"smtp.host":               "",
	"smtp.port":               587,
	"smtp.username":           "",
	"smtp.password":           "",
	"smtp.from":               "noreply@example.com",
	"ratelimit.capacity":      5,
	"ratelimit.window":        time.Minute,
	"logging.level":           "info",
}

// legacyEnv maps keys to the unprefixed variables older deployments set.
var legacyEnv = map[string]string{
	"config":         "CONFIG",
	"server.address": "SERVER_ADDRESS",
}

// New returns a viper instance with defaults and environment lookup wired.
func New() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, legacy)
	}
	return v
}

// RegisterFlags adds the command-line flags to fs and binds them to v.
func RegisterFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.StringP("config", "c", "", "path to config file (json, yaml or toml)")
	fs.StringP("address", "a", "", "run on ip:port server")
	fs.StringP("database-dsn", "d", "", "PostgreSQL connection string")
	fs.String("log-level", "", "log level (debug, info, warn, error)")

	binds := map[string]string{
		"config":         "config",
		"server.address": "address",
		"database.dsn":   "database-dsn",
		"logging.level":  "log-level",
	}
	for key, flag := range binds {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load reads the config file, if present, and decodes every key into Options.
func Load(v *viper.Viper) (*Options, error) {
	if path := v.GetString("config"); path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config file: %w", err)
		}
	}

	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &opts, nil
}

// Validate checks the options required to serve requests.
func (o *Options) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(o); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
