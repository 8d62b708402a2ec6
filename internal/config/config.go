// Package config loads the environment-variable configuration surface
// described in spec.md §6 for both the query-engine and tool-host
// binaries. It keeps the teacher's default-then-override shape
// (internal/config/config.go's getDefaultConfig + Load) but swaps the
// YAML-file source for environment variables, since the external
// contract here is a set of env vars rather than a mapped-alias file.
package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	DefaultGRPCPort = 50051
	DefaultMCPPort  = 8080
)

// QueryEngineConfig is the configuration for the RPC-surface binary.
type QueryEngineConfig struct {
	GRPCPort                     int
	GCSBucketName                string
	DatabaseURL                  string
	GoogleApplicationCredentials string
	Verbose                      bool
}

// ToolHostConfig is the configuration for the JSON-RPC façade binary.
type ToolHostConfig struct {
	Port                int
	QueryEngineEndpoint string
	Verbose             bool
}

// LoadQueryEngine reads GRPC_PORT (optional, default 50051),
// GCS_BUCKET_NAME (required), DATABASE_URL (required), and
// GOOGLE_APPLICATION_CREDENTIALS (optional), failing fast the way the
// Rust original's main.rs panics on a missing required env var.
func LoadQueryEngine() (*QueryEngineConfig, error) {
	cfg := &QueryEngineConfig{
		GRPCPort: DefaultGRPCPort,
		Verbose:  boolEnv("VERBOSE"),
	}

	if raw := os.Getenv("GRPC_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid GRPC_PORT %q: %w", raw, err)
		}
		cfg.GRPCPort = port
	}

	cfg.GCSBucketName = os.Getenv("GCS_BUCKET_NAME")
	if cfg.GCSBucketName == "" {
		return nil, fmt.Errorf("GCS_BUCKET_NAME is required")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	cfg.GoogleApplicationCredentials = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")

	return cfg, nil
}

// LoadToolHost reads PORT/MCP_PORT (optional, default 8080) and
// QUERY_ENGINE_ENDPOINT (optional, default localhost:50051).
func LoadToolHost() (*ToolHostConfig, error) {
	cfg := &ToolHostConfig{
		Port:                DefaultMCPPort,
		QueryEngineEndpoint: fmt.Sprintf("localhost:%d", DefaultGRPCPort),
		Verbose:             boolEnv("VERBOSE"),
	}

	raw := os.Getenv("MCP_PORT")
	if raw == "" {
		raw = os.Getenv("PORT")
	}
	if raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid MCP_PORT/PORT %q: %w", raw, err)
		}
		cfg.Port = port
	}

	if endpoint := os.Getenv("QUERY_ENGINE_ENDPOINT"); endpoint != "" {
		cfg.QueryEngineEndpoint = endpoint
	}

	return cfg, nil
}

func boolEnv(name string) bool {
	v, err := strconv.ParseBool(os.Getenv(name))
	if err != nil {
		return false
	}
	return v
}
