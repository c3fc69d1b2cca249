package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Gateway backends.
const (
	GatewayDatabase = "database"
	GatewaySupabase = "supabase"
)

// Budget alert policies.
const (
	AlertPolicyEdge  = "edge"
	AlertPolicyEvery = "every"
)

// Config holds application configuration
type Config struct {
	// Server
	Env         string
	Port        string
	CORSOrigins []string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Session tokens issued by the database gateway
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Remote data gateway
	GatewayBackend  string
	SupabaseURL     string
	SupabaseAnonKey string
	GatewayTimeout  time.Duration

	// Workspaces
	WorkspaceCacheSize int
	WorkspaceTTL       time.Duration
	RedisAddr          string

	// Notifications
	AMQPURL            string
	AMQPExchange       string
	NotificationBuffer int
	BudgetAlertPolicy  string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		CORSOrigins: getList("CORS_ORIGINS"),

		// Database
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "expenses"),
		DBPassword: getEnv("DB_PASSWORD", "expenses"),
		DBName:     getEnv("DB_NAME", "expenses"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "expenses.db"),

		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		GatewayBackend:  getEnv("GATEWAY_BACKEND", GatewayDatabase),
		SupabaseURL:     getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey: getEnv("SUPABASE_ANON_KEY", ""),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		AMQPURL:           getEnv("AMQP_URL", ""),
		AMQPExchange:      getEnv("AMQP_EXCHANGE", "expense-events"),
		BudgetAlertPolicy: getEnv("BUDGET_ALERT_POLICY", AlertPolicyEdge),
	}

	config.JWTExpirationDur = getDuration("JWT_EXPIRES_IN", 24*time.Hour)
	config.GatewayTimeout = getDuration("GATEWAY_TIMEOUT", 10*time.Second)
	config.WorkspaceTTL = getDuration("WORKSPACE_TTL", 30*time.Minute)
	config.WorkspaceCacheSize = getInt("WORKSPACE_CACHE_SIZE", 1024)
	config.NotificationBuffer = getInt("NOTIFICATION_BUFFER", 50)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Validate rejects unknown enum values and incomplete backend settings.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (use postgres or sqlite)", c.DBDriver)
	}

	switch c.GatewayBackend {
	case GatewayDatabase:
	case GatewaySupabase:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY are required when GATEWAY_BACKEND=supabase")
		}
	default:
		return fmt.Errorf("unsupported GATEWAY_BACKEND %q (use database or supabase)", c.GatewayBackend)
	}

	switch c.BudgetAlertPolicy {
	case AlertPolicyEdge, AlertPolicyEvery:
	default:
		return fmt.Errorf("unsupported BUDGET_ALERT_POLICY %q (use edge or every)", c.BudgetAlertPolicy)
	}

	if c.WorkspaceCacheSize <= 0 {
		return fmt.Errorf("WORKSPACE_CACHE_SIZE must be positive")
	}
	return nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

// getList splits a comma separated variable, dropping empty entries.
func getList(key string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
