package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name    string `json:"name" env:"NAME"`
	Port    int    `json:"port" env:"PORT"`
	Enabled bool   `json:"enabled"`
	Nested  struct {
		Url string `json:"url" env:"NESTED_URL"`
	} `json:"nested"`
}

func writeFile(t *testing.T, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0600)
	require.NoError(t, err)
}

func TestSplitExt(t *testing.T) {
	name, ext := splitExt("config.json5")
	require.Equal(t, "config", name)
	require.Equal(t, "json5", ext)

	name, ext = splitExt("config")
	require.Equal(t, "config", name)
	require.Equal(t, "", ext)
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{
		// comments are allowed
		name: "base",
		port: 8080,
		nested: { url: "https://erms.gujarat.gov.in" },
	}`)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "base", config.Name)
	require.Equal(t, 8080, config.Port)
	require.Equal(t, "https://erms.gujarat.gov.in", config.Nested.Url)

	writeFile(t, filepath.Join(dir, "config.local.json5"), `{ port: 9000, enabled: true }`)

	config, err = ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "base", config.Name)
	require.Equal(t, 9000, config.Port)
	require.True(t, config.Enabled)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{ name: `)

	_, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.Error(t, err)
	require.NotErrorIs(t, err, os.ErrNotExist)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "config.json5"), `{ name: "root" }`)
	child := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(child, 0700))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(child))
	t.Cleanup(func() { os.Chdir(wd) })

	config, err := ReadRecursively[testConfig]("config.json5")
	require.NoError(t, err)
	require.Equal(t, "root", config.Name)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("ELECTORSEARCH_NAME", "from-env")
	t.Setenv("ELECTORSEARCH_NESTED_URL", "http://localhost:3000")
	t.Setenv("NAME", "unprefixed")

	config := testConfig{Name: "file", Port: 8080}
	err := ApplyEnv(&config, "ELECTORSEARCH_")
	require.NoError(t, err)
	require.Equal(t, "from-env", config.Name)
	require.Equal(t, 8080, config.Port)
	require.Equal(t, "http://localhost:3000", config.Nested.Url)
}

func TestApplyEnvInvalid(t *testing.T) {
	t.Setenv("ELECTORSEARCH_PORT", "not a number")

	config := testConfig{}
	err := ApplyEnv(&config, "ELECTORSEARCH_")
	require.Error(t, err)
}
