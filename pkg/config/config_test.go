package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAndTypedGetters(t *testing.T) {
	cfg, err := New(WithDefaults(map[string]any{
		"client.timeout":        "15s",
		"client.retry.attempts": 5,
		"client.tracing":        true,
	}))
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.GetDurationD("client.timeout", time.Second))
	assert.Equal(t, 5, cfg.GetIntD("client.retry.attempts", 1))
	assert.True(t, cfg.GetBoolD("client.tracing", false))

	assert.Equal(t, "fallback", cfg.GetStringD("missing.key", "fallback"))
	assert.Equal(t, 7, cfg.GetIntD("missing.key", 7))
	assert.False(t, cfg.GetBoolD("missing.key", false))
	assert.Equal(t, time.Minute, cfg.GetDurationD("missing.key", time.Minute))
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("APP_CLIENT_TIMEOUT", "45s")

	cfg, err := New(
		WithDefaults(map[string]any{"client.timeout": "10s"}),
		WithEnv("APP"),
	)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.GetDuration("client.timeout"))
}

func TestWithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client:\n  timeout: 20s\njobs:\n  export: \"08:00;17:30\"\n"), 0o600))

	cfg, err := New(WithFile(path))
	require.NoError(t, err)

	assert.Equal(t, 20*time.Second, cfg.GetDuration("client.timeout"))
	assert.Equal(t, "08:00;17:30", cfg.GetString("jobs.export"))
}

func TestWithFileMissingIsError(t *testing.T) {
	_, err := New(WithFile(filepath.Join(t.TempDir(), "nope.yaml")))
	require.Error(t, err)
}

func TestValidateRequired(t *testing.T) {
	cfg, err := New(WithDefaults(map[string]any{"present": "yes"}))
	require.NoError(t, err)

	assert.NoError(t, cfg.ValidateRequired("present"))

	err = cfg.ValidateRequired("present", "absent.one", "absent.two")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.one")
	assert.Contains(t, err.Error(), "absent.two")
}

func TestWithDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CLIENT_BREAKER=upstream\n"), 0o600))

	cfg, err := New(WithDotEnv(path))
	require.NoError(t, err)

	assert.Equal(t, "upstream", cfg.GetString("client_breaker"))
}
