// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable. The struct is built once at startup and passed down
// by value; nothing mutates it afterwards.
type Config struct {
	Env               string // application environment (e.g. "dev", "prod")
	Port              string // HTTP port to listen on
	DBUser            string // database username
	DBPass            string // database password (optional)
	DBHost            string // database host address
	DBPort            string // database port number
	DBName            string // database name
	AccessSecret      string // secret used to sign access tokens
	AccessExpiresSec  int    // access token time-to-live in seconds
	RefreshSecret     string // secret used to sign refresh tokens
	RefreshExpiresSec int    // refresh token time-to-live in seconds
	BcryptCost        int    // bcrypt cost for password hashing
	FilesDir          string // directory for uploaded files
}

// Load reads configuration from the environment. Required variables are
// enforced by must() and missing values cause the program to exit. The two
// JWT secrets are independent on purpose: a leaked access secret cannot be
// used to forge refresh tokens and vice versa.
func Load() Config {
	return Config{
		Env:               must("APP_ENV"),
		Port:              must("APP_PORT"),
		DBUser:            must("DB_USER"),
		DBPass:            os.Getenv("DB_PASS"),
		DBHost:            must("DB_HOST"),
		DBPort:            must("DB_PORT"),
		DBName:            must("DB_NAME"),
		AccessSecret:      must("JWT_SECRET"),
		AccessExpiresSec:  intOr("JWT_SECRET_EXPIRES", 60),
		RefreshSecret:     must("JWT_REFRESH_SECRET"),
		RefreshExpiresSec: mustInt("JWT_REFRESH_SECRET_EXPIRES"),
		BcryptCost:        intOr("BCRYPT_COST", 10),
		FilesDir:          envOr("FILES_DIR", "files"),
	}
}

// must retrieves a required environment variable or exits the process.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the value to an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
