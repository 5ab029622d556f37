package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv points the config path at a temp dir and clears the
// override variables so the host environment cannot leak into tests.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("LESSON_BUILDER_OLLAMA_URL", "")
	t.Setenv("LESSON_BUILDER_MODEL", "")
	t.Setenv("LESSON_BUILDER_DATA_DIR", "")
	t.Setenv("LESSON_BUILDER_LOG_LEVEL", "")
	t.Setenv("OLLAMA_HOST", "")
	return dir
}

func TestGetConfigPathHonorsXDG(t *testing.T) {
	dir := isolateEnv(t)
	assert.Equal(t, filepath.Join(dir, "lesson-builder", "config.yaml"), GetConfigPath())
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	isolateEnv(t)

	cfg := DefaultConfig()
	cfg.Model.Name = "qwen2.5"
	cfg.UI.Theme = "light"
	require.NoError(t, cfg.Save())

	info, err := os.Stat(GetConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5", loaded.Model.Name)
	assert.Equal(t, "light", loaded.UI.Theme)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, cfg.Model.Name)
	assert.Equal(t, DefaultOllamaBaseURL, cfg.API.OllamaBaseURL)
}

func TestEnvOverridesFile(t *testing.T) {
	isolateEnv(t)

	cfg := DefaultConfig()
	cfg.Model.Name = "from-file"
	require.NoError(t, cfg.Save())

	t.Setenv("LESSON_BUILDER_MODEL", "from-env")

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", loaded.Model.Name)
}
