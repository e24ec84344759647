package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type nested struct {
	Concurrency int      `json:"concurrency"`
	Flaky       []string `json:"flaky"`
}

type testConfig struct {
	Name   string `json:"name"`
	Debug  bool   `json:"debug"`
	Nested nested `json:"nested"`
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// comments are allowed
		name: "base",
		nested: {concurrency: 2, flaky: ["hoyolab"]},
	}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		nested: {concurrency: 8},
	}`), 0o644))

	config, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, testConfig{
		Name:   "base",
		Nested: nested{Concurrency: 8, Flaky: []string{"hoyolab"}},
	}, config)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigWithDefaults(t *testing.T) {
	defaults := testConfig{
		Name:   "default",
		Nested: nested{Concurrency: 4, Flaky: []string{"hoyolab"}},
	}

	config, err := ReadConfigWithDefaults(filepath.Join(t.TempDir(), "config.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, config)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{nested: {concurrency: 1}}`), 0o644))
	config, err = ReadConfigWithDefaults(path, defaults)
	require.NoError(t, err)
	require.Equal(t, testConfig{
		Name:   "default",
		Nested: nested{Concurrency: 1, Flaky: []string{"hoyolab"}},
	}, config)
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, filepath.Join("etc", "config.local.json5"), LocalPath(filepath.Join("etc", "config.json5")))
}
