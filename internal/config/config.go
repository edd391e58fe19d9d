// Package config holds the small, env/flag-driven configuration structs
// for each process role the CLI exposes (run, serve, coordinator,
// worker). Grounded on internal/infrastructure/config.Config in the
// teacher: a handful of getEnv-with-fallback fields, no config file
// format, no validation framework.
package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// RunConfig configures a single local workflow execution (`flowdag run`).
type RunConfig struct {
	LogLevel       string
	MaxConcurrency int
}

func LoadRunConfig() *RunConfig {
	return &RunConfig{
		LogLevel:       getEnv("FLOWDAG_LOG_LEVEL", "info"),
		MaxConcurrency: getEnvInt("FLOWDAG_MAX_CONCURRENCY", 10),
	}
}

// ServeConfig configures the webhook-triggered server (`flowdag serve`).
type ServeConfig struct {
	Port           string
	LogLevel       string
	MaxConcurrency int
}

func LoadServeConfig() *ServeConfig {
	return &ServeConfig{
		Port:           getEnv("FLOWDAG_PORT", "8080"),
		LogLevel:       getEnv("FLOWDAG_LOG_LEVEL", "info"),
		MaxConcurrency: getEnvInt("FLOWDAG_MAX_CONCURRENCY", 10),
	}
}

// CoordinatorConfig configures the distributed coordinator (`flowdag coordinator`).
type CoordinatorConfig struct {
	Port                string
	LogLevel            string
	HeartbeatIntervalMS int
	MissedHeartbeats    int
	MaxRetries          int
	DatabaseDSN         string
}

func LoadCoordinatorConfig() *CoordinatorConfig {
	return &CoordinatorConfig{
		Port:                getEnv("FLOWDAG_PORT", "7070"),
		LogLevel:            getEnv("FLOWDAG_LOG_LEVEL", "info"),
		HeartbeatIntervalMS: getEnvInt("FLOWDAG_HEARTBEAT_INTERVAL_MS", 5000),
		MissedHeartbeats:    getEnvInt("FLOWDAG_MISSED_HEARTBEATS", 3),
		MaxRetries:          getEnvInt("FLOWDAG_MAX_RETRIES", 2),
		DatabaseDSN:         getEnv("DATABASE_DSN", ""),
	}
}

// WorkerConfig configures a distributed worker (`flowdag worker`).
type WorkerConfig struct {
	ID                  string
	Port                string
	CoordinatorURL      string
	LogLevel            string
	HeartbeatIntervalMS int
}

func LoadWorkerConfig() *WorkerConfig {
	return &WorkerConfig{
		ID:                  getEnv("FLOWDAG_WORKER_ID", ""),
		Port:                getEnv("FLOWDAG_PORT", "7071"),
		CoordinatorURL:      getEnv("FLOWDAG_COORDINATOR_URL", "http://localhost:7070"),
		LogLevel:            getEnv("FLOWDAG_LOG_LEVEL", "info"),
		HeartbeatIntervalMS: getEnvInt("FLOWDAG_HEARTBEAT_INTERVAL_MS", 5000),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

// LoadDotEnv reads a simple KEY=VALUE file (surrounding quote characters
// are stripped from values, no escapes, no multi-line values, `#` prefix
// for comments) and applies each entry via
// os.Setenv, skipping keys already set in the process environment.
// Workflow loading (§4.9) calls this against a `.env` file alongside the
// workflow document, if present.
func LoadDotEnv(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		os.Setenv(key, value)
	}
	return scanner.Err()
}
