package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BradenHooton/novatech/internal/security"
	pkgauth "github.com/BradenHooton/novatech/pkg/auth"
	"github.com/joho/godotenv"
)

// Fallback master passphrases used outside production when none are configured
const (
	DefaultMasterPassword1 = "change-me-master-one"
	DefaultMasterPassword2 = "change-me-master-two"
)

type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Notify    NotifyConfig
	Admin     AdminConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type AuthConfig struct {
	JWTSecret string
	// JWTSecretGenerated is set when no secret was configured; tokens do not survive a restart
	JWTSecretGenerated bool
	TokenTTL           time.Duration
	MasterLoginEnabled bool
	MasterPassword1    string
	MasterPassword2    string
}

type RateLimitConfig struct {
	DefaultLimit   int
	Window         time.Duration
	MaxAttempts    int
	BlockDuration  time.Duration
	SweepInterval  time.Duration
	IdleTTL        time.Duration
	UserWriteLimit int
}

// Policies returns the per-route-class budgets with the configured default
// limit and window applied
func (c RateLimitConfig) Policies() map[string]security.RoutePolicy {
	policies := security.DefaultPolicies()
	for class, p := range policies {
		p.Window = c.Window
		if class == security.ClassDefault {
			p.Limit = c.DefaultLimit
		}
		policies[class] = p
	}
	return policies
}

type NotifyConfig struct {
	EmailFrom string
	EmailTo   string
	AWSRegion string
}

// Enabled reports whether submission notifications should be sent
func (c NotifyConfig) Enabled() bool {
	return c.EmailFrom != "" && c.EmailTo != ""
}

type AdminConfig struct {
	Email    string
	Password string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "novatech"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			TokenTTL: getEnvAsDuration("TOKEN_TTL", 8*time.Hour),
		},
		RateLimit: RateLimitConfig{
			DefaultLimit:   getEnvAsInt("RATE_LIMIT_DEFAULT", 100),
			Window:         getEnvAsDuration("RATE_LIMIT_WINDOW", security.DefaultWindow),
			MaxAttempts:    getEnvAsInt("LOGIN_MAX_ATTEMPTS", security.DefaultMaxAttempts),
			BlockDuration:  getEnvAsDuration("BLACKLIST_DURATION", security.DefaultBlockDuration),
			SweepInterval:  getEnvAsDuration("LIMITER_SWEEP_INTERVAL", 5*time.Minute),
			IdleTTL:        getEnvAsDuration("LIMITER_IDLE_TTL", 30*time.Minute),
			UserWriteLimit: getEnvAsInt("RATE_LIMIT_USER_WRITES", 30),
		},
		Notify: NotifyConfig{
			EmailFrom: getEnv("NOTIFY_EMAIL_FROM", ""),
			EmailTo:   getEnv("NOTIFY_EMAIL_TO", ""),
			AWSRegion: getEnv("AWS_REGION", "eu-west-1"),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := loadSigningSecret(&cfg.Auth, env); err != nil {
		return nil, err
	}
	loadMasterLogin(&cfg.Auth, env)

	if cfg.RateLimit.DefaultLimit <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_DEFAULT must be positive, got %d", cfg.RateLimit.DefaultLimit)
	}
	if cfg.RateLimit.Window <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", cfg.RateLimit.Window)
	}
	if cfg.RateLimit.MaxAttempts <= 0 {
		return nil, fmt.Errorf("LOGIN_MAX_ATTEMPTS must be positive, got %d", cfg.RateLimit.MaxAttempts)
	}

	if cfg.RateLimit.IdleTTL < cfg.RateLimit.Window {
		return nil, fmt.Errorf("LIMITER_IDLE_TTL (%s) must not be shorter than RATE_LIMIT_WINDOW (%s)",
			cfg.RateLimit.IdleTTL, cfg.RateLimit.Window)
	}

	return cfg, nil
}

// loadSigningSecret reads JWT_SECRET or generates a random one when it is unset
func loadSigningSecret(auth *AuthConfig, env string) error {
	secret := getEnv("JWT_SECRET", "")
	if secret == "" {
		generated, err := pkgauth.GenerateSecret(pkgauth.SigningKeyBytes)
		if err != nil {
			return fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		auth.JWTSecret = generated
		auth.JWTSecretGenerated = true
		return nil
	}

	if err := validateJWTSecret(secret, env); err != nil {
		return err
	}
	auth.JWTSecret = secret
	return nil
}

// loadMasterLogin resolves the master passphrases. Production never runs on the
// fallback passphrases: master login stays off unless both are set.
func loadMasterLogin(auth *AuthConfig, env string) {
	p1 := os.Getenv("MASTER_PASSWORD_1")
	p2 := os.Getenv("MASTER_PASSWORD_2")

	auth.MasterLoginEnabled = getEnvAsBool("MASTER_LOGIN_ENABLED", true)
	auth.MasterPassword1 = p1
	auth.MasterPassword2 = p2

	if p1 == "" || p2 == "" {
		if env == "production" {
			auth.MasterLoginEnabled = false
			return
		}
		if p1 == "" {
			auth.MasterPassword1 = DefaultMasterPassword1
		}
		if p2 == "" {
			auth.MasterPassword2 = DefaultMasterPassword2
		}
	}
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if strings.Trim(secretLower, "0123456789!") == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseAllowedOrigins(env string) []string {
	if origins := getEnvAsList("ALLOWED_ORIGINS"); len(origins) > 0 {
		return origins
	}
	if env == "production" {
		return []string{}
	}

	// Development: allow local front end dev servers
	return []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
}
