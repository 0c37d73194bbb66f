package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The types reflect how the values are used in the
// application: strings for identifiers and secrets, ints for durations and
// costs.
type Config struct {
	Env                string // application environment (e.g. "dev", "prod")
	Port               string // HTTP port to listen on
	DBUser             string // database username
	DBPass             string // database password (optional)
	DBHost             string // database host address
	DBPort             string // database port number
	DBName             string // database name
	RefreshTokenSecret string // symmetric secret signing refresh tokens
	PrivateKeyPEM      string // inline RS256 private key PEM (wins over the path)
	PrivateKeyPath     string // path to the RS256 private key PEM
	JWKSURI            string // key discovery endpoint used by the verifier
	JWTKeyID           string // kid published in the JWKS (generated when empty)
	Issuer             string // iss claim on every issued token
	CookieDomain       string // domain attribute on auth cookies
	AccessTTLMin       int    // access token time-to-live in minutes
	RefreshTTLDays     int    // refresh token time-to-live in days
	BcryptCost         int    // bcrypt cost for password hashing
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values cause
// the program to exit with a fatal log message. Token TTLs, issuer and
// bcrypt cost have sensible defaults and may be omitted.
func Load() Config {
	cfg := Config{
		Env:                must("APP_ENV"),
		Port:               must("APP_PORT"),
		DBUser:             must("DB_USER"),
		DBPass:             os.Getenv("DB_PASS"), // empty allowed
		DBHost:             must("DB_HOST"),
		DBPort:             must("DB_PORT"),
		DBName:             must("DB_NAME"),
		RefreshTokenSecret: must("REFRESH_TOKEN_SECRET"),
		PrivateKeyPEM:      os.Getenv("PRIVATE_KEY_PEM"),
		PrivateKeyPath:     os.Getenv("PRIVATE_KEY_PATH"),
		JWKSURI:            must("JWKS_URI"),
		JWTKeyID:           os.Getenv("JWT_KEY_ID"),
		Issuer:             envStr("JWT_ISSUER", "auth-service"),
		CookieDomain:       envStr("COOKIE_DOMAIN", "localhost"),
		AccessTTLMin:       envInt("ACCESS_TOKEN_TTL_MIN", 60),
		RefreshTTLDays:     envInt("REFRESH_TOKEN_TTL_DAYS", 365),
		BcryptCost:         envInt("BCRYPT_COST", 10),
	}
	if cfg.PrivateKeyPEM == "" && cfg.PrivateKeyPath == "" {
		log.Fatal("missing required env var: PRIVATE_KEY_PEM or PRIVATE_KEY_PATH")
	}
	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
