package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values.  Each field maps to
// one environment variable.  DB_* variables are only required when the
// store driver is "mysql"; the in-memory driver needs none of them.
type Config struct {
	Env             string        // application environment (e.g. "dev", "prod")
	Port            string        // HTTP port to listen on
	StoreDriver     string        // "mysql" or "memory"
	DBUser          string        // database username
	DBPass          string        // database password (optional)
	DBHost          string        // database host address
	DBPort          string        // database port number
	DBName          string        // database name
	JWTSecret       string        // secret used to sign JWTs
	AccessTTLMin    int           // access token time-to-live in minutes
	BcryptCost      int           // bcrypt cost for password hashing
	OpTimeout       time.Duration // per-operation deadline for check-in/check-out
	ReserveAttempts int           // retry budget for lost reservation races
	AMQPURL         string        // RabbitMQ URL; empty disables event publishing
}

// Load reads configuration from environment variables and returns a
// Config.  Missing required variables cause a fatal log message.
func Load() Config {
	cfg := Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		StoreDriver:     envStr("STORE_DRIVER", "mysql"),
		JWTSecret:       must("JWT_SECRET"),
		AccessTTLMin:    envInt("ACCESS_TOKEN_TTL_MIN", 30),
		BcryptCost:      envInt("BCRYPT_COST", 10),
		OpTimeout:       envDur("OP_TIMEOUT", 5*time.Second),
		ReserveAttempts: envInt("RESERVE_ATTEMPTS", 3),
		AMQPURL:         os.Getenv("AMQP_URL"),
	}
	if cfg.StoreDriver == "mysql" {
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}
