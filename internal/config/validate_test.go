package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.DB.Port = 5432
	cfg.DB.Password = "secret"
	cfg.Redis.Port = 6379
	cfg.JWT.AccessSecret = strings.Repeat("a", 32)
	cfg.Embedding.Provider = "gemini"
	cfg.Embedding.GeminiProject = "tutoring-prod"
	cfg.Embedding.Dimensions = 768
	cfg.Search.AcceleratedTimeout = 1
	cfg.Search.VectorTimeout = 1
	cfg.Search.TextTimeout = 1
	cfg.Search.DefaultThreshold = 0.6
	return cfg
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_ShortJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.AccessSecret = "short"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_ACCESS_SECRET")
}

func TestValidate_MissingDBPassword(t *testing.T) {
	cfg := validConfig()
	cfg.DB.Password = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}

func TestValidate_GeminiRequiresProject(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.GeminiProject = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMBEDDING_GEMINI_PROJECT")
}

func TestValidate_HashProviderNeedsNoProject(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Provider = "hash"
	cfg.Embedding.GeminiProject = ""
	require.NoError(t, cfg.Validate())
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Provider = "word2vec"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMBEDDING_PROVIDER")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.AccessSecret = ""
	cfg.DB.Password = ""
	cfg.Server.Port = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_ACCESS_SECRET")
	assert.Contains(t, err.Error(), "DB_PASSWORD")
	assert.Contains(t, err.Error(), "SERVER_PORT")
}

func TestValidate_ThresholdRange(t *testing.T) {
	cfg := validConfig()
	cfg.Search.DefaultThreshold = 1.5
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEARCH_DEFAULT_THRESHOLD")
}

func TestSearchConfig_Ceiling(t *testing.T) {
	cfg := SearchConfig{AcceleratedTimeout: 2, VectorTimeout: 5, TextTimeout: 5}
	assert.Equal(t, cfg.AcceleratedTimeout+cfg.VectorTimeout+cfg.TextTimeout, cfg.Ceiling())
}
