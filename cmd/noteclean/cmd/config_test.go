package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/noteclean/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestConfigShow_ReflectsSources(t *testing.T) {
	isolate(t)
	cfgFile := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, cfgFile, "filter:\n  c_value: 4\nbatch:\n  suffix: _bw\n")
	t.Setenv("NOTECLEAN_LOG_LEVEL", "warn")

	out, _, err := execute(t, nil, "--config", cfgFile, "--block-size", "15", "config", "show")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, 15, cfg.Filter.BlockSize, "flag")
	assert.Equal(t, 4, cfg.Filter.CValue, "file")
	assert.Equal(t, "_bw", cfg.Batch.Suffix, "file")
	assert.Equal(t, "warn", cfg.LogLevel, "env")
}

func TestConfigInit(t *testing.T) {
	isolate(t)
	target := filepath.Join(t.TempDir(), "noteclean.yaml")

	out, _, err := execute(t, nil, "config", "init", target)
	require.NoError(t, err)
	assert.Equal(t, target, strings.TrimSpace(out))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "block_size: 21")

	_, _, err = execute(t, nil, "config", "init", target)
	assert.Error(t, err, "init refuses to overwrite")
}

func TestConfigInit_DefaultName(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, nil, "config", "init")
	require.NoError(t, err)
	assert.FileExists(t, "noteclean.yaml")
}
