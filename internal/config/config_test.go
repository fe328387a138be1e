package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	t.Setenv("MONGODB_DATABASE", "hashdoc_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_SECRET", "testsecret123456789012345678901234")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "mongodb://localhost:27017/testdb", cfg.MongoDB.URI)
	require.Equal(t, "hashdoc_test", cfg.MongoDB.Database)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
	require.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	require.Equal(t, int64(5*1024*1024), cfg.Upload.MaxBytes)
	require.Contains(t, cfg.Upload.AllowedTypes, "application/pdf")
	require.True(t, cfg.Seed.Demo)
}

func TestLoadConfig_DevSecretFallback(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SERVER_ENVIRONMENT", "development")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, devJWTSecret, cfg.JWT.Secret)
}

func TestLoadConfig_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SERVER_ENVIRONMENT", "production")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfig_AllowedTypesFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("SERVER_ENVIRONMENT", "development")
	t.Setenv("UPLOAD_ALLOWED_TYPES", "application/pdf, Image/PNG")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, []string{"application/pdf", "image/png"}, cfg.Upload.AllowedTypes)
}

func TestKeycloakIssuer(t *testing.T) {
	k := KeycloakConfig{URL: "http://kc:8080/", Realm: "uni"}
	require.Equal(t, "http://kc:8080/realms/uni", k.Issuer())
	require.Equal(t, "http://kc:8080/", KeycloakConfig{URL: "http://kc:8080/"}.Issuer())
}
