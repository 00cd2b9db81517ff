package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cfgFile = ""
	t.Cleanup(func() { cfgFile = "" })

	cmd := &cobra.Command{Use: "codai-scan"}
	InitFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestLoadConfigs_Defaults(t *testing.T) {
	cfg, err := LoadConfigs(newCommand(t), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, "openai", cfg.Provider.Name)
	assert.Equal(t, 3, cfg.Scan.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Stagger())
	assert.Equal(t, 120*time.Second, cfg.ProviderTimeout())
	assert.True(t, cfg.Scan.EnableCache)
	assert.Equal(t, "text", cfg.Output)
	assert.Empty(t, cfg.ModelTiers())
}

func TestLoadConfigs_FileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	yml := `model: gpt-4.1
provider:
  name: ollama
  base_url: http://localhost:11434/api
scan:
  batch_size: 5
  stagger_ms: 0
  strategy: fingerprint
models:
  - name: gpt-4.1
    input_token_limit: 12000
  - name: llama3.1
    tier: local
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName+".yml"), []byte(yml), 0644))

	cfg, err := LoadConfigs(newCommand(t), dir)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1", cfg.Model)
	assert.Equal(t, "ollama", cfg.Provider.Name)
	assert.Equal(t, 5, cfg.Scan.BatchSize)
	assert.Zero(t, cfg.Stagger())
	assert.Equal(t, "fingerprint", cfg.Scan.Strategy)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.Len(t, cfg.Models, 2)
	assert.Equal(t, ModelConfig{Name: "gpt-4.1", InputTokenLimit: 12000}, cfg.Models[0])
	assert.Equal(t, map[string]string{"llama3.1": "local"}, cfg.ModelTiers())

	t.Setenv("MODEL", "o4-mini")
	cfg, err = LoadConfigs(newCommand(t), dir)
	require.NoError(t, err)
	assert.Equal(t, "o4-mini", cfg.Model)

	cfg, err = LoadConfigs(newCommand(t, "--model", "gpt-4o-mini", "-o", "json"), dir)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, 5, cfg.Scan.BatchSize)
}

func TestLoadConfigs_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"model":"gpt-4.1-nano","scan":{"enable_cache":false}}`), 0644))

	cmd := newCommand(t)
	cfgFile = path
	cfg, err := LoadConfigs(cmd, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1-nano", cfg.Model)
	assert.False(t, cfg.Scan.EnableCache)

	cfgFile = filepath.Join(dir, "missing.yml")
	_, err = LoadConfigs(cmd, dir)
	assert.Error(t, err)

	cfgFile = filepath.Join(dir, "config.toml")
	_, err = LoadConfigs(cmd, dir)
	assert.ErrorContains(t, err, "unsupported config file type")
}

func TestLoadConfigs_Invalid(t *testing.T) {
	_, err := LoadConfigs(newCommand(t, "-o", "xml"), t.TempDir())
	assert.ErrorContains(t, err, "invalid output format")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName+".yml"), []byte("scan:\n  strategy: shallow\n"), 0644))
	_, err = LoadConfigs(newCommand(t), dir)
	assert.ErrorContains(t, err, "invalid scan strategy")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName+".yml"), []byte("scan:\n  batch_size: 0\n"), 0644))
	_, err = LoadConfigs(newCommand(t), dir)
	assert.ErrorContains(t, err, "batch_size")
}

func TestGetConfigFileType(t *testing.T) {
	assert.Equal(t, "json", GetConfigFileType("a.json"))
	assert.Equal(t, "yaml", GetConfigFileType("a.yml"))
	assert.Equal(t, "yaml", GetConfigFileType("a.yaml"))
	assert.Empty(t, GetConfigFileType("a.toml"))
}
