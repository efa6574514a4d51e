package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageFirestore = "firestore"
	StorageSQLite    = "sqlite"

	AuthFirebase = "firebase"
	AuthJWT      = "jwt"

	DefaultJWTSecret = "your-secret-key"
)

type Config struct {
	ServerPort      string
	Environment     string
	FirebaseProject string
	// Service account credentials, JSON content wins over the file path.
	FirebaseCredentialsJSON string
	FirebaseCredentialsPath string

	StorageDriver  string
	SQLitePath     string
	StorageTimeout time.Duration

	AuthProvider string
	JWTSecret    string
	JWTExpiry    int64

	ShutdownTimeout time.Duration
	WSSendBuffer    int
	AllowedOrigins  []string
}

func Load() (*Config, error) {
	// .env is optional; real environment variables still apply.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		ServerPort:              v.GetString("SERVER_PORT"),
		Environment:             v.GetString("ENVIRONMENT"),
		FirebaseProject:         v.GetString("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsJSON: v.GetString("FIREBASE_SERVICE_ACCOUNT_JSON"),
		FirebaseCredentialsPath: v.GetString("FIREBASE_SERVICE_ACCOUNT_PATH"),
		StorageDriver:           strings.ToLower(v.GetString("STORAGE_DRIVER")),
		SQLitePath:              v.GetString("SQLITE_PATH"),
		StorageTimeout:          v.GetDuration("STORAGE_TIMEOUT"),
		AuthProvider:            strings.ToLower(v.GetString("AUTH_PROVIDER")),
		JWTSecret:               v.GetString("JWT_SECRET"),
		JWTExpiry:               v.GetInt64("JWT_EXPIRY"),
		ShutdownTimeout:         v.GetDuration("SHUTDOWN_TIMEOUT"),
		WSSendBuffer:            v.GetInt("WS_SEND_BUFFER"),
		AllowedOrigins:          splitList(v.GetString("ALLOWED_ORIGINS")),
	}

	if cfg.StorageTimeout <= 0 {
		cfg.StorageTimeout = 5 * time.Second
	}
	if cfg.WSSendBuffer <= 0 {
		cfg.WSSendBuffer = 256
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("STORAGE_DRIVER", StorageSQLite)
	v.SetDefault("SQLITE_PATH", "taskmeet.db")
	v.SetDefault("STORAGE_TIMEOUT", "5s")
	v.SetDefault("AUTH_PROVIDER", AuthJWT)
	v.SetDefault("JWT_SECRET", DefaultJWTSecret)
	v.SetDefault("JWT_EXPIRY", 24*60*60) // 24 hours
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("WS_SEND_BUFFER", 256)
	v.SetDefault("ALLOWED_ORIGINS", "*")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
