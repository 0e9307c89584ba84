package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func env(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFrom(env(map[string]string{"AUTH_SECRET": "0123456789abcdef"}))
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.HTTP.Port)
	require.Equal(t, "memory", cfg.Storage.Backend)
	require.Equal(t, 5*time.Minute, cfg.Mail.PollInterval)
	require.Equal(t, 10, cfg.Mail.BatchSize)
	require.Equal(t, 24*time.Hour, cfg.Push.NotifyInterval)
	require.Equal(t, "America/Sao_Paulo", cfg.Push.Location.String())
	require.False(t, cfg.Itinerary.RejectPast)
	require.False(t, cfg.Mail.Enabled())
}

func TestLoadFrom_EnvOverridesFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "roteiro.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: "9000"
mail:
  pollInterval: 2m
  batchSize: 25
push:
  timezone: UTC
`), 0o600))

	cfg, err := LoadFrom(env(map[string]string{
		"CONFIG_FILE":        path,
		"AUTH_MODE":          "dev",
		"MAIL_POLL_INTERVAL": "30s",
	}))
	require.NoError(t, err)
	require.Equal(t, "9000", cfg.HTTP.Port)
	require.Equal(t, 30*time.Second, cfg.Mail.PollInterval)
	require.Equal(t, 25, cfg.Mail.BatchSize)
	require.Equal(t, "UTC", cfg.Push.Location.String())
}

func TestLoadFrom_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"jwt needs secret", map[string]string{}, "AUTH_SECRET"},
		{"postgres needs url", map[string]string{"AUTH_MODE": "dev", "STORAGE_BACKEND": "postgres"}, "DATABASE_URL"},
		{"bad duration", map[string]string{"AUTH_MODE": "dev", "NOTIFY_INTERVAL": "daily"}, "NOTIFY_INTERVAL"},
		{"bad timezone", map[string]string{"AUTH_MODE": "dev", "NOTIFY_TIMEZONE": "Mars/Olympus"}, "NOTIFY_TIMEZONE"},
		{"bad bool", map[string]string{"AUTH_MODE": "dev", "ITINERARY_REJECT_PAST": "sometimes"}, "ITINERARY_REJECT_PAST"},
		{"unknown backend", map[string]string{"AUTH_MODE": "dev", "STORAGE_BACKEND": "firestore"}, "STORAGE_BACKEND"},
	}
	for _, tc := range cases {
		_, err := LoadFrom(env(tc.env))
		require.ErrorContains(t, err, tc.want, tc.name)
	}
}

func TestLoadFrom_UnknownYAMLField(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  prot: \"1\"\n"), 0o600))
	_, err := LoadFrom(env(map[string]string{"CONFIG_FILE": path, "AUTH_MODE": "dev"}))
	require.ErrorContains(t, err, "CONFIG_FILE")
}
