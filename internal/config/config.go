package config

import (
	"fmt"     // For building the DSN
	"os"      // For environment variables
	"strconv" // For string to int conversion

	"github.com/joho/godotenv"   // For loading .env files
	"github.com/sirupsen/logrus" // For logger setup
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	RedisAddr  string // Redis server address
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number
	IsProd     bool   // Is production environment
	LogLevel   string // logrus level name

	SessionSecret         string // HS256 key of identity session tokens
	SessionPublicKey      string // Optional PEM key for RS256 session tokens
	SignInURL             string // Where anonymous visitors are redirected
	IdentityWebhookSecret string // whsec_ secret of identity webhooks

	MidtransServerKey       string // Midtrans server key
	MidtransIsProduction    bool   // Use the production Midtrans API
	MidtransVerifySignature bool   // Check signature_key on notifications

	WhatsAppGatewayURL string // WhatsApp messages endpoint
	WhatsAppAPIKey     string // Bearer key of the WhatsApp gateway
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:    getenv("APP_PORT", "8080"),     // Application port
		DBUser:     os.Getenv("DB_USER"),           // Database user
		DBPassword: os.Getenv("DB_PASSWORD"),       // Database password
		DBHost:     getenv("DB_HOST", "127.0.0.1"), // Database host
		DBPort:     getenv("DB_PORT", "3306"),      // Database port
		DBName:     os.Getenv("DB_NAME"),           // Database name
		RedisAddr:  os.Getenv("REDIS_ADDR"),        // Redis server address
		RedisPass:  os.Getenv("REDIS_PASS"),        // Redis password
		RedisDB:    redisDB,                        // Redis database number
		IsProd:     os.Getenv("IS_PROD") == "true", // Is production environment
		LogLevel:   getenv("LOG_LEVEL", "info"),

		SessionSecret:         os.Getenv("SESSION_SECRET"),
		SessionPublicKey:      os.Getenv("SESSION_PUBLIC_KEY"),
		SignInURL:             getenv("SIGN_IN_URL", "/sign-in"),
		IdentityWebhookSecret: os.Getenv("IDENTITY_WEBHOOK_SECRET"),

		MidtransServerKey:       os.Getenv("MIDTRANS_SERVER_KEY"),
		MidtransIsProduction:    os.Getenv("MIDTRANS_IS_PRODUCTION") == "true",
		MidtransVerifySignature: os.Getenv("MIDTRANS_VERIFY_SIGNATURE") != "false", // on unless disabled

		WhatsAppGatewayURL: os.Getenv("WHATSAPP_GATEWAY_URL"),
		WhatsAppAPIKey:     os.Getenv("WHATSAPP_API_KEY"),
	}
}

// DSN builds the MySQL data source name
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// ConfigureLogger applies format and level to the global logrus logger
func (c *Config) ConfigureLogger() {
	if c.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.WithField("level", c.LogLevel).Warn("Unknown LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
