package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config is the process configuration read from the environment.
type Config struct {
	Addr     string
	LogFile  string
	LogLevel string

	DBDriver    string // sqlite or postgres
	DBPath      string
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DBTimezone  string

	LocationIQEndpoint string
	LocationIQAPIKey   string

	JWTSecret          string
	AuthPassphraseHash string
}

// Load reads .env (if present) and the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found – relying on env vars")
	}

	return Config{
		Addr:     getEnv("LISTEN_ADDR", "0.0.0.0:8080"),
		LogFile:  getEnv("LOG_FILE", "./logs/app.log"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		DBDriver:    getEnv("DB_DRIVER", "sqlite"),
		DBPath:      getEnv("DB_PATH", "./data/locamark.db"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "password"),
		DBName:      getEnv("DB_NAME", "locamark"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		DBTimezone:  getEnv("DB_TIMEZONE", "UTC"),

		LocationIQEndpoint: getEnv("LOCATIONIQ_ENDPOINT", "https://us1.locationiq.com/v1/reverse"),
		LocationIQAPIKey:   getEnv("LOCATIONIQ_API_KEY", ""),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		AuthPassphraseHash: getEnv("AUTH_PASSPHRASE_HASH", ""),
	}
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}
