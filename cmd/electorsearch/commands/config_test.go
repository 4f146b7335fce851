package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := loadConfig(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)
	require.Equal(t, 8080, config.Server.Port)
	require.Equal(t, "electorsearch.db", config.Database.File)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	err := os.WriteFile(path, []byte(`{
		portal: { base_url: "http://localhost:3000", requests_per_second: 2 },
		database: { url: "libsql://electors.example.com" },
	}`), 0600)
	require.NoError(t, err)

	t.Setenv("ELECTORSEARCH_PORT", "9090")
	t.Setenv("ELECTORSEARCH_PORTAL_CONCURRENCY", "4")

	config, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:3000", config.Portal.BaseUrl)
	require.Equal(t, 2.0, config.Portal.RequestsPerSecond)
	require.Equal(t, 4, config.Portal.Concurrency)
	require.Equal(t, 9090, config.Server.Port)
	require.Equal(t, "libsql://electors.example.com", config.Database.Url)
	require.Empty(t, config.Database.File)
}
