package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := Bind(fs)
	require.NoError(t, fs.Parse(args))
	return flags.Config()
}

func TestDefaults(t *testing.T) {
	cfg, err := parse(t, "--token-secret", "s3cr3t")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:80", cfg.Addr)
	assert.Equal(t, "qform.sqlite", cfg.DBUrl)
	assert.Equal(t, 120*time.Second, cfg.TokenTTL)
	assert.Empty(t, cfg.RedisUrl)
	assert.False(t, cfg.LogJSON)
	assert.Equal(t, "http://localhost:80", cfg.PublicBaseURL)
	assert.Equal(t, "http://localhost:80/f/abc123", cfg.ShareLink("abc123"))
}

func TestMissingSecret(t *testing.T) {
	_, err := parse(t)
	assert.ErrorContains(t, err, "--token-secret")
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("QF_PORT", "8080")
	t.Setenv("QF_TOKEN_SECRET", "from-env")
	t.Setenv("QF_TOKEN_TTL", "5m")
	t.Setenv("QF_PUBLIC_URL", "https://forms.example.com/")

	cfg, err := parse(t, "--host", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
	assert.Equal(t, "from-env", cfg.TokenSecret)
	assert.Equal(t, 5*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "https://forms.example.com/f/x", cfg.ShareLink("x"))

	// flags win over the environment
	cfg, err = parse(t, "--port", "9000")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("QF_TEST_ONLY_DB_URL=from-file.sqlite\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("QF_TEST_ONLY_DB_URL") })

	require.NoError(t, LoadEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-file.sqlite", os.Getenv("QF_TEST_ONLY_DB_URL"))
}
