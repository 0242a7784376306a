package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// TxMode controls how the unit-of-work capability is decided at startup.
// "auto" probes the store, "on"/"off" force the decision (e.g. a pgbouncer
// pool in statement mode cannot hold multi-statement transactions).
const (
	TxModeAuto = "auto"
	TxModeOn   = "on"
	TxModeOff  = "off"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string
	RedisAddr  string
	JWTSecret  string
	TxMode     string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    os.Getenv("APP_PORT"),
		AppEnv:     os.Getenv("APP_ENV"),
		RedisAddr:  os.Getenv("REDIS_ADDR"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		TxMode:     os.Getenv("TX_MODE"),
	}

	if cfg.TxMode == "" {
		cfg.TxMode = TxModeAuto
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}
