package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DevJWTSecret is used when JWT_SECRET is unset. The server logs a warning
// when it runs with it.
const DevJWTSecret = "dev-jwt-secret"

type Config struct {
	Addr            string
	DBConnect       string
	DBName          string
	Token           Token
	BcryptCost      int
	CORSOrigin      string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

type Token struct {
	Alg        string
	Secret     string
	SigningKey string
	TTL        time.Duration
	Issuer     string
}

type StoreKind string

const (
	StoreSQLite   StoreKind = "sqlite"
	StoreMongo    StoreKind = "mongo"
	StorePostgres StoreKind = "postgres"
)

func Load() Config {
	addr := envString("SOCIALFEED_ADDR", "")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":3002"
		}
	}
	return Config{
		Addr:      addr,
		DBConnect: envString("DB_CONNECT", "socialfeed.db"),
		DBName:    envString("DB_NAME", "socialfeed"),
		Token: Token{
			Alg:        strings.ToUpper(envString("TOKEN_ALG", "HS256")),
			Secret:     envString("JWT_SECRET", DevJWTSecret),
			SigningKey: envString("TOKEN_SIGNING_KEY", ""),
			TTL:        envDuration("TOKEN_TTL", 24*time.Hour),
			Issuer:     envString("TOKEN_ISSUER", "socialfeed"),
		},
		BcryptCost:      envInt("BCRYPT_COST", 10),
		CORSOrigin:      envString("CORS_ORIGIN", "*"),
		LogLevel:        envString("LOG_LEVEL", "info"),
		LogFormat:       envString("LOG_FORMAT", "json"),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if c.DBConnect == "" {
		errs = append(errs, errors.New("DB_CONNECT is empty"))
	}
	switch c.Token.Alg {
	case "HS256":
		if c.Token.Secret == "" {
			errs = append(errs, errors.New("JWT_SECRET is empty"))
		}
	case "ES256K":
		if c.Token.SigningKey == "" {
			errs = append(errs, errors.New("TOKEN_SIGNING_KEY is required for ES256K"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported TOKEN_ALG %q", c.Token.Alg))
	}
	if c.Token.TTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	// bcrypt accepts costs 4..31.
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST %d out of range 4..31", c.BcryptCost))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("unsupported LOG_FORMAT %q", c.LogFormat))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// StoreKind picks the backend from the DB_CONNECT scheme.
func (c Config) StoreKind() StoreKind {
	switch {
	case strings.HasPrefix(c.DBConnect, "mongodb://"), strings.HasPrefix(c.DBConnect, "mongodb+srv://"):
		return StoreMongo
	case strings.HasPrefix(c.DBConnect, "postgres://"), strings.HasPrefix(c.DBConnect, "postgresql://"):
		return StorePostgres
	default:
		return StoreSQLite
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
