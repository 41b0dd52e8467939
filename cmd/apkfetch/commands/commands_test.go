package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"apkfetch/internal/scrapers/playapi"
	"apkfetch/pkg/configutil"

	"github.com/stretchr/testify/require"
)

func TestReadPackageList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packages.txt")
	err := os.WriteFile(path, []byte("com.rovio.angrybirds\n\n# games\n  com.example.app  \n"), 0644)
	require.NoError(t, err)

	packages, err := readPackageList(path)
	require.NoError(t, err)
	require.Equal(t, []string{"com.rovio.angrybirds", "com.example.app"}, packages)
}

func TestLoginPolicy(t *testing.T) {
	require.Equal(t, playapi.DefaultLoginPolicy, AccountConfig{}.LoginPolicy())
	require.Equal(t, playapi.LoginPolicy{
		MaxAttempts: 5,
		Cooldown:    time.Second,
	}, AccountConfig{MaxAttempts: 5, CooldownSeconds: 1}.LoginPolicy())
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	err := os.WriteFile(path, []byte(`{
		// defaults
		account: { email: "a@example.com", password: "pw", device_id: "3f1d", max_attempts: 3 },
		gateway: { base_url: "http://localhost:8080" },
		database: { driver: "sqlite", file: "<dev_state>/apkfetch.db" },
	}`), 0644)
	require.NoError(t, err)
	err = os.WriteFile(configutil.LocalPath(path), []byte(`{
		account: { password: "local" },
		database: { driver: "postgres", host: "localhost:5432", name: "apkfetch" },
	}`), 0644)
	require.NoError(t, err)

	configPath = &path
	cfg, err := readConfig()
	require.NoError(t, err)
	require.Equal(t, "a@example.com", cfg.Account.Email)
	require.Equal(t, "local", cfg.Account.Password)
	require.Equal(t, "3f1d", cfg.Account.DeviceId)
	require.Equal(t, "http://localhost:8080", cfg.Gateway.BaseUrl)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "postgres://localhost:5432/apkfetch", cfg.Database.PostgresDSN())

	missing := filepath.Join(dir, "missing.json5")
	configPath = &missing
	_, err = readConfig()
	require.ErrorIs(t, err, os.ErrNotExist)
}
