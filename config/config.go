package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	MongoURI           string
	DBName             string
	JWTSecret          string
	CorsAllowedOrigins []string
	VapidPublicKey     string
	VapidPrivateKey    string
	VapidSubscriber    string
}

func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		MongoURI:           getEnv("MONGODB_URI", "mongodb://127.0.0.1:27017"),
		DBName:             getEnv("DB_NAME", "mindcanvus"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		CorsAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		VapidPublicKey:     getEnv("VAPID_PUBLIC_KEY", ""),
		VapidPrivateKey:    getEnv("VAPID_PRIVATE_KEY", ""),
		VapidSubscriber:    getEnv("VAPID_SUBSCRIBER", "mailto:admin@mindcanvus.app"),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
