package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
flowtrace:
  log:
    level: debug
  metrics:
    enabled: true
    listen: ":9999"
  engine:
    buffer_size: 4096
  pipelines:
    - id: front
      mode: tcp
      filters:
        - trace random-parsing hexdump
    - id: api
      mode: message
      filters:
        - trace name edge random-forwarding
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9999", cfg.Metrics.Listen)
	assert.Equal(t, 4096, cfg.Engine.BufferSize)

	require.Len(t, cfg.Pipelines, 2)
	assert.Equal(t, "front", cfg.Pipelines[0].ID)
	assert.Equal(t, []string{"trace random-parsing hexdump"}, cfg.Pipelines[0].Filters)
	assert.Equal(t, "message", cfg.Pipelines[1].Mode)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
flowtrace:
  pipelines:
    - id: front
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9091", cfg.Metrics.Listen)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, 16384, cfg.Engine.BufferSize)
}

func TestLoadRejectsBadLevel(t *testing.T) {
	path := writeConfig(t, `
flowtrace:
  log:
    level: loud
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestValidatePipelines(t *testing.T) {
	cases := []struct {
		name      string
		pipelines []PipelineConfig
		wantErr   string
	}{
		{
			name:      "ok",
			pipelines: []PipelineConfig{{ID: "a", Mode: "tcp"}, {ID: "b", Mode: "message"}},
		},
		{
			name:      "empty mode defaults",
			pipelines: []PipelineConfig{{ID: "a"}},
		},
		{
			name:      "missing id",
			pipelines: []PipelineConfig{{Mode: "tcp"}},
			wantErr:   "has no id",
		},
		{
			name:      "duplicate id",
			pipelines: []PipelineConfig{{ID: "a"}, {ID: "a"}},
			wantErr:   "duplicate pipeline id",
		},
		{
			name:      "bad mode",
			pipelines: []PipelineConfig{{ID: "a", Mode: "http"}},
			wantErr:   "invalid mode",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePipelines(tc.pipelines)
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestLoadPipelinesStandalone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipelines.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
pipelines:
  - id: replayed
    mode: tcp
    filters:
      - trace hexdump
`), 0o644))

	pipelines, err := LoadPipelines(path)
	require.NoError(t, err)
	require.Len(t, pipelines, 1)
	assert.Equal(t, "replayed", pipelines[0].ID)
}

func TestLoadPipelinesEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipelines.yml")
	require.NoError(t, os.WriteFile(path, []byte("pipelines: []\n"), 0o644))

	_, err := LoadPipelines(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declares no pipelines")
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"trace", "name", "edge"}, Tokens("  trace   name edge "))
	assert.Empty(t, Tokens("   "))
}
