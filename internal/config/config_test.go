package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadQueryEngineRequiresBucket(t *testing.T) {
	t.Setenv("GCS_BUCKET_NAME", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/db")
	_, err := LoadQueryEngine()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GCS_BUCKET_NAME")
}

func TestLoadQueryEngineRequiresDatabaseURL(t *testing.T) {
	t.Setenv("GCS_BUCKET_NAME", "datasets-bucket")
	t.Setenv("DATABASE_URL", "")
	_, err := LoadQueryEngine()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadQueryEngineDefaults(t *testing.T) {
	t.Setenv("GCS_BUCKET_NAME", "datasets-bucket")
	t.Setenv("DATABASE_URL", "postgres://localhost/db")
	t.Setenv("GRPC_PORT", "")

	cfg, err := LoadQueryEngine()
	require.NoError(t, err)
	assert.Equal(t, DefaultGRPCPort, cfg.GRPCPort)
	assert.Equal(t, "datasets-bucket", cfg.GCSBucketName)
}

func TestLoadQueryEngineInvalidPort(t *testing.T) {
	t.Setenv("GCS_BUCKET_NAME", "datasets-bucket")
	t.Setenv("DATABASE_URL", "postgres://localhost/db")
	t.Setenv("GRPC_PORT", "not-a-port")

	_, err := LoadQueryEngine()
	require.Error(t, err)
}

func TestLoadToolHostDefaults(t *testing.T) {
	t.Setenv("MCP_PORT", "")
	t.Setenv("PORT", "")
	t.Setenv("QUERY_ENGINE_ENDPOINT", "")

	cfg, err := LoadToolHost()
	require.NoError(t, err)
	assert.Equal(t, DefaultMCPPort, cfg.Port)
	assert.Equal(t, "localhost:50051", cfg.QueryEngineEndpoint)
}

func TestLoadToolHostPortFallsBackToPORT(t *testing.T) {
	t.Setenv("MCP_PORT", "")
	t.Setenv("PORT", "9090")

	cfg, err := LoadToolHost()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
}
