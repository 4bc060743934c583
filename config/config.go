package config

import (
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the server needs at boot. It is built once
// in main and handed to the components that need it.
type Config struct {
	Port      string
	MongoURI  string
	MongoDB   string
	JWTSecret string
	TokenTTL  time.Duration
	GinMode   string
}

// Load reads configuration from a .env file (if present) and the
// environment. JWT_SECRET has no fallback on purpose: a forum running
// with a well-known signing secret is worse than one that refuses to
// start.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment only")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "3000")
	v.SetDefault("MONGODB_URI", "mongodb://127.0.0.1:27017")
	v.SetDefault("MONGODB_DB", "tetra")
	v.SetDefault("TOKEN_TTL", 7*24*time.Hour)

	cfg := &Config{
		Port:      v.GetString("PORT"),
		MongoURI:  v.GetString("MONGODB_URI"),
		MongoDB:   v.GetString("MONGODB_DB"),
		JWTSecret: v.GetString("JWT_SECRET"),
		TokenTTL:  v.GetDuration("TOKEN_TTL"),
		GinMode:   v.GetString("GIN_MODE"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}

	return cfg, nil
}
