package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "ENVIRONMENT", "STORAGE_DRIVER", "AUTH_PROVIDER", "STORAGE_TIMEOUT", "WS_SEND_BUFFER", "ALLOWED_ORIGINS", "JWT_SECRET", "JWT_EXPIRY"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, StorageSQLite, cfg.StorageDriver)
	assert.Equal(t, AuthJWT, cfg.AuthProvider)
	assert.Equal(t, 5*time.Second, cfg.StorageTimeout)
	assert.Equal(t, 256, cfg.WSSendBuffer)
	assert.Equal(t, int64(24*60*60), cfg.JWTExpiry)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("STORAGE_DRIVER", "Firestore")
	t.Setenv("AUTH_PROVIDER", "FIREBASE")
	t.Setenv("STORAGE_TIMEOUT", "750ms")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("WS_SEND_BUFFER", "32")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, StorageFirestore, cfg.StorageDriver)
	assert.Equal(t, AuthFirebase, cfg.AuthProvider)
	assert.Equal(t, 750*time.Millisecond, cfg.StorageTimeout)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 32, cfg.WSSendBuffer)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.AllowedOrigins)
}
