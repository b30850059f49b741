// Package config loads and validates the service configuration once at startup.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/movesmart/service-route/internal/domain/route"
	"github.com/movesmart/service-route/internal/platform/database"
)

// EnvPrefix prefixes every environment variable, e.g. MOVESMART_MAPS_API_KEY.
const EnvPrefix = "MOVESMART"

// ServiceConfig holds all configuration for the route service.
type ServiceConfig struct {
	ServiceName string
	Port        string
	AppEnv      string
	CORSOrigins []string
	AdminUsers  []string
	Storage     string
	DBConfig    database.PostgresConfig
	JWTConfig   JWTConfig
	KafkaConfig KafkaConfig
	MapsConfig  MapsConfig
	Congestion  route.Thresholds
}

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// JWTConfig configures session and API tokens.
type JWTConfig struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

// KafkaConfig configures event publishing and consumption. No brokers means
// events are disabled.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// MapsConfig configures the Distance Matrix client.
type MapsConfig struct {
	APIKey        string
	BaseURL       string
	RateLimit     float64
	Timeout       time.Duration
	UseTraffic    bool
	RetryAttempts int
	// LookupBudget bounds one lookup across all attempts. It must stay below
	// HTTPWriteTimeout so callers can still answer with a fallback.
	LookupBudget  time.Duration
}

// HTTPWriteTimeout is the server's write timeout.
const HTTPWriteTimeout = 30 * time.Second

// IsDevelopment reports whether the service runs in development mode.
func (c *ServiceConfig) IsDevelopment() bool { return c.AppEnv == "development" }

// Load reads configuration from an optional config file and the environment,
// then validates it.
func Load() (*ServiceConfig, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read loads configuration without validating it. Commands that need only a
// subset of the settings validate what they use.
func Read() (*ServiceConfig, error) {
	v := newViper()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	return fromViper(v), nil
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/movesmart")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("service_name", "service-route")
	v.SetDefault("service_port", "8080")
	v.SetDefault("app_env", "production")
	v.SetDefault("cors_origins", "")
	v.SetDefault("admin_users", "")
	v.SetDefault("storage.driver", StoragePostgres)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "movesmart")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "movesmart")
	v.SetDefault("jwt.token_ttl", "24h")

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.group_prefix", "movesmart-")

	v.SetDefault("maps.api_key", "")
	v.SetDefault("maps.base_url", "https://maps.googleapis.com/maps/api")
	v.SetDefault("maps.rate_limit", 10.0)
	v.SetDefault("maps.timeout", "10s")
	v.SetDefault("maps.use_traffic", false)
	v.SetDefault("maps.retry_attempts", 3)
	v.SetDefault("maps.lookup_budget", "20s")

	defaults := route.DefaultThresholds()
	v.SetDefault("congestion.high", defaults.High)
	v.SetDefault("congestion.moderate", defaults.Moderate)
	v.SetDefault("congestion.epsilon", defaults.Epsilon)

	return v
}

func fromViper(v *viper.Viper) *ServiceConfig {
	appEnv := v.GetString("app_env")

	jwtSecret := v.GetString("jwt.secret")
	if jwtSecret == "" && appEnv == "development" {
		jwtSecret = "development-only-secret"
	}

	return &ServiceConfig{
		ServiceName: v.GetString("service_name"),
		Port:        normalizePort(v.GetString("service_port")),
		AppEnv:      appEnv,
		CORSOrigins: splitList(v.GetString("cors_origins")),
		AdminUsers:  splitList(v.GetString("admin_users")),
		Storage:     strings.ToLower(v.GetString("storage.driver")),
		DBConfig: database.PostgresConfig{
			Host:            v.GetString("db.host"),
			Port:            v.GetString("db.port"),
			User:            v.GetString("db.user"),
			Password:        v.GetString("db.password"),
			DBName:          v.GetString("db.name"),
			SSLMode:         v.GetString("db.sslmode"),
			MaxOpenConns:    v.GetInt("db.max_open_conns"),
			MaxIdleConns:    v.GetInt("db.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
		},
		JWTConfig: JWTConfig{
			Secret:   jwtSecret,
			Issuer:   v.GetString("jwt.issuer"),
			TokenTTL: v.GetDuration("jwt.token_ttl"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     splitList(v.GetString("kafka.brokers")),
			GroupPrefix: v.GetString("kafka.group_prefix"),
		},
		MapsConfig: MapsConfig{
			APIKey:        v.GetString("maps.api_key"),
			BaseURL:       v.GetString("maps.base_url"),
			RateLimit:     v.GetFloat64("maps.rate_limit"),
			Timeout:       v.GetDuration("maps.timeout"),
			UseTraffic:    v.GetBool("maps.use_traffic"),
			RetryAttempts: v.GetInt("maps.retry_attempts"),
			LookupBudget:  v.GetDuration("maps.lookup_budget"),
		},
		Congestion: route.Thresholds{
			High:     v.GetFloat64("congestion.high"),
			Moderate: v.GetFloat64("congestion.moderate"),
			Epsilon:  v.GetFloat64("congestion.epsilon"),
		},
	}
}

// Validate fails fast on missing secrets and inconsistent settings.
func (c *ServiceConfig) Validate() error {
	var errs []error
	if c.MapsConfig.APIKey == "" {
		errs = append(errs, fmt.Errorf("%s_MAPS_API_KEY is required", EnvPrefix))
	}
	if c.JWTConfig.Secret == "" {
		errs = append(errs, fmt.Errorf("%s_JWT_SECRET is required outside development", EnvPrefix))
	}
	if c.Storage != StoragePostgres && c.Storage != StorageMemory {
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage))
	}
	if c.JWTConfig.TokenTTL <= 0 {
		errs = append(errs, errors.New("jwt token ttl must be positive"))
	}
	if c.MapsConfig.RateLimit <= 0 {
		errs = append(errs, errors.New("maps rate limit must be positive"))
	}
	if c.MapsConfig.Timeout <= 0 {
		errs = append(errs, errors.New("maps timeout must be positive"))
	}
	if c.MapsConfig.LookupBudget <= 0 || c.MapsConfig.LookupBudget >= HTTPWriteTimeout {
		errs = append(errs, fmt.Errorf("maps lookup budget must be positive and below %s", HTTPWriteTimeout))
	}
	if err := c.Congestion.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// IsAdminUser reports whether username is promoted to admin on registration.
func (c *ServiceConfig) IsAdminUser(username string) bool {
	for _, u := range c.AdminUsers {
		if strings.EqualFold(u, username) {
			return true
		}
	}
	return false
}

func normalizePort(p string) string {
	if p == "" || strings.Contains(p, ":") {
		return p
	}
	return ":" + p
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
