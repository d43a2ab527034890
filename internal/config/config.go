package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable; required variables abort startup when
// missing so a misconfigured service never comes up half-working.
type Config struct {
	Env            string        // application environment (e.g. "dev", "prod")
	Port           string        // HTTP port to listen on
	DBUser         string        // database username
	DBPass         string        // database password (optional)
	DBHost         string        // database host address
	DBPort         string        // database port number
	DBName         string        // database name
	JWTSecret      string        // secret used to sign JWTs
	AccessTTLMin   int           // access token time-to-live in minutes
	RefreshTTLDays int           // refresh token time-to-live in days
	BcryptCost     int           // bcrypt cost for password hashing
	TTSHost        string        // base URL of the speech synthesis endpoint
	TTSTimeout     time.Duration // per-word budget for synthesis plus storage
	UploadsDir     string        // directory pronunciation audio is written to
	UploadsPrefix  string        // public URL prefix the audio is served under
}

// Load reads configuration from the environment. Database and JWT
// settings are required; audio settings fall back to sensible defaults
// so a dev instance works without any TTS configuration.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		TTSHost:        getenv("TTS_HOST", "https://translate.google.com"),
		TTSTimeout:     parseDur(getenv("TTS_TIMEOUT", "15s")),
		UploadsDir:     getenv("UPLOADS_DIR", "uploads"),
		UploadsPrefix:  getenv("UPLOADS_PREFIX", "/uploads"),
	}
}

// must retrieves a required environment variable or exits.
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
