package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limitedeportes/panel/cli/helpers"
	"github.com/limitedeportes/panel/pkg/config"
	"github.com/limitedeportes/panel/pkg/logger"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "panel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSetupGlobalConfig(t *testing.T) {
	t.Run("Should inject YAML overrides into the context", func(t *testing.T) {
		path := writeConfigFile(t, "list:\n  page_size: 12\napi:\n  base_url: http://example.test\n")
		cmd := RootCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--env-file", ""}))

		require.NoError(t, SetupGlobalConfig(cmd))

		cfg := config.FromContext(cmd.Context())
		assert.Equal(t, 12, cfg.List.PageSize)
		assert.Equal(t, "http://example.test", cfg.API.BaseURL)
		assert.NotNil(t, logger.FromContext(cmd.Context()))
	})

	t.Run("Should let environment beat YAML and flags beat both", func(t *testing.T) {
		path := writeConfigFile(t, "list:\n  page_size: 12\n")
		t.Setenv("PANEL_LIST_PAGE_SIZE", "20")

		envOnly := RootCmd()
		require.NoError(t, envOnly.ParseFlags([]string{"--config", path, "--env-file", ""}))
		require.NoError(t, SetupGlobalConfig(envOnly))
		assert.Equal(t, 20, config.FromContext(envOnly.Context()).List.PageSize)

		withFlag := RootCmd()
		require.NoError(t, withFlag.ParseFlags([]string{"--config", path, "--env-file", "", "--page-size", "7"}))
		require.NoError(t, SetupGlobalConfig(withFlag))
		assert.Equal(t, 7, config.FromContext(withFlag.Context()).List.PageSize)
	})

	t.Run("Should reject invalid configuration as a usage error", func(t *testing.T) {
		path := writeConfigFile(t, "list:\n  page_size: 0\n")
		cmd := RootCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--env-file", ""}))

		err := SetupGlobalConfig(cmd)

		require.Error(t, err)
		assert.Equal(t, helpers.ExitUsage, helpers.ExitCode(err))
	})
}

func TestConfigShow(t *testing.T) {
	t.Run("Should redact secrets and report sources", func(t *testing.T) {
		path := writeConfigFile(t, "api:\n  api_key: super-secret\n")
		cmd := RootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{
			"config", "show", "-o", "json", "--sources",
			"--config", path, "--env-file", "", "--page-size", "9",
		})

		require.NoError(t, cmd.ExecuteContext(t.Context()))

		var doc struct {
			Config  map[string]string `json:"config"`
			Sources map[string]string `json:"sources"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
		assert.Equal(t, "[REDACTED]", doc.Config["api.api_key"])
		assert.Equal(t, "9", doc.Config["list.page_size"])
		assert.Equal(t, "cli", doc.Sources["list.page_size"])
		assert.Equal(t, "yaml", doc.Sources["api.api_key"])
		assert.Equal(t, "default", doc.Sources["mutation.timeout"])
	})

	t.Run("Should reject an unknown output format", func(t *testing.T) {
		cmd := RootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"config", "show", "-o", "xml", "--config", "", "--env-file", ""})

		err := cmd.ExecuteContext(t.Context())

		require.Error(t, err)
		assert.Equal(t, helpers.ExitUsage, helpers.ExitCode(err))
	})
}

func TestIsPathWithinDirectory(t *testing.T) {
	t.Run("Should accept nested paths and reject escapes", func(t *testing.T) {
		dir := t.TempDir()
		assert.True(t, isPathWithinDirectory(filepath.Join(dir, "a", ".env"), dir))
		assert.True(t, isPathWithinDirectory(dir, dir))
		assert.False(t, isPathWithinDirectory(filepath.Join(dir, "..", "other", ".env"), dir))
	})
}
