package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "CHARADES"

var (
	ErrMissingAllowedOrigins = errors.New("missing-allowed-origins")
	ErrMissingPostgresURL    = errors.New("missing-postgres-url")
	ErrMissingJWTKey         = errors.New("missing-jwt-key")
	ErrInvalidExtensions     = errors.New("invalid-time-extension-settings")
	ErrInvalidLogFormat      = errors.New("invalid-log-format")
)

type Config struct {
	HTTP        HTTPConf        `mapstructure:"http"`
	Postgres    PostgresConf    `mapstructure:"postgres"`
	Entitlement EntitlementConf `mapstructure:"entitlement"`
	Log         LogConf         `mapstructure:"log"`
	Session     SessionConf     `mapstructure:"session"`
	Wordbank    WordbankConf    `mapstructure:"wordbank"`
}

type HTTPConf struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type PostgresConf struct {
	URL string `mapstructure:"url"`
}

type EntitlementConf struct {
	JWTKey   string        `mapstructure:"jwt_key"`
	TokenAge time.Duration `mapstructure:"token_age"`
}

type LogConf struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SessionConf struct {
	IdleTTL          time.Duration `mapstructure:"idle_ttl"`
	FreeExtensions   int           `mapstructure:"free_extensions"`
	ExtensionSeconds int           `mapstructure:"extension_seconds"`
}

type WordbankConf struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":5000")
	v.SetDefault("http.allowed_origins", []string{})
	v.SetDefault("postgres.url", "")
	v.SetDefault("entitlement.jwt_key", "")
	v.SetDefault("entitlement.token_age", 30*24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("session.idle_ttl", 30*time.Minute)
	v.SetDefault("session.free_extensions", 1)
	v.SetDefault("session.extension_seconds", 30)
	v.SetDefault("wordbank.cache_ttl", 5*time.Minute)
}

// Load reads configFile when given, then lets CHARADES_* environment
// variables override it (CHARADES_POSTGRES_URL for postgres.url).
func Load(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.HTTP.AllowedOrigins = trimAll(cfg.HTTP.AllowedOrigins)
	return cfg, nil
}

// Validate reports every setting the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if len(c.HTTP.AllowedOrigins) == 0 {
		errs = append(errs, ErrMissingAllowedOrigins)
	}
	if c.Postgres.URL == "" {
		errs = append(errs, ErrMissingPostgresURL)
	}
	if c.Entitlement.JWTKey == "" {
		errs = append(errs, ErrMissingJWTKey)
	}
	if c.Session.FreeExtensions < 0 || c.Session.ExtensionSeconds <= 0 {
		errs = append(errs, ErrInvalidExtensions)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, ErrInvalidLogFormat)
	}
	return errors.Join(errs...)
}

func trimAll(values []string) []string {
	res := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			res = append(res, v)
		}
	}
	return res
}
