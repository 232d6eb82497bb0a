// 配置加载器与默认配置测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/docflow/types"
)

// validConfig 返回一份可通过校验的配置
func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Credentials = []CredentialConfig{
		{Endpoint: "https://a.example/", APIKey: types.NewSecret("key-a")},
	}
	return cfg
}

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "prebuilt-layout", cfg.Analysis.ModelID)
	assert.Equal(t, 15, cfg.Analysis.MaxRPS)
	assert.Empty(t, cfg.Credentials)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "docflow.yaml")

	yamlContent := `
credentials:
  - endpoint: "https://a.example/"
    api_key: "key-a"
  - endpoint: "https://b.example/"
    api_key_env: "DOCFLOW_TEST_KEY_B"

analysis:
  model_id: "prebuilt-read"
  features: ["ocrHighResolution", "formulas"]
  output_format: "markdown"
  max_rps: 5
  poll_interval: 2s
  pace_requests: true

http:
  max_idle_conns_per_host: 8

metrics:
  enabled: true
  addr: ":9999"

log:
  level: "debug"
  format: "console"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	require.Len(t, cfg.Credentials, 2)
	assert.Equal(t, "https://a.example/", cfg.Credentials[0].Endpoint)
	assert.Equal(t, "key-a", cfg.Credentials[0].APIKey.Expose())
	assert.Equal(t, "DOCFLOW_TEST_KEY_B", cfg.Credentials[1].APIKeyEnv)

	assert.Equal(t, "prebuilt-read", cfg.Analysis.ModelID)
	assert.Equal(t, []string{"ocrHighResolution", "formulas"}, cfg.Analysis.Features)
	assert.Equal(t, "markdown", cfg.Analysis.OutputFormat)
	assert.Equal(t, 5, cfg.Analysis.MaxRPS)
	assert.Equal(t, 2*time.Second, cfg.Analysis.PollInterval)
	assert.True(t, cfg.Analysis.PaceRequests)

	assert.Equal(t, 8, cfg.HTTP.MaxIdleConnsPerHost)
	assert.Equal(t, 100, cfg.HTTP.MaxIdleConns)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9999", cfg.Metrics.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("DOCFLOW_ANALYSIS_MODEL_ID", "prebuilt-invoice")
	t.Setenv("DOCFLOW_ANALYSIS_MAX_RPS", "3")
	t.Setenv("DOCFLOW_ANALYSIS_POLL_INTERVAL", "250ms")
	t.Setenv("DOCFLOW_ANALYSIS_FEATURES", "barcodes, languages")
	t.Setenv("DOCFLOW_ANALYSIS_PACE_REQUESTS", "true")
	t.Setenv("DOCFLOW_TELEMETRY_SAMPLE_RATE", "0.5")
	t.Setenv("DOCFLOW_ENDPOINTS", "https://a.example/, https://b.example/")
	t.Setenv("DOCFLOW_API_KEYS", "key-a,key-b")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "prebuilt-invoice", cfg.Analysis.ModelID)
	assert.Equal(t, 3, cfg.Analysis.MaxRPS)
	assert.Equal(t, 250*time.Millisecond, cfg.Analysis.PollInterval)
	assert.Equal(t, []string{"barcodes", "languages"}, cfg.Analysis.Features)
	assert.True(t, cfg.Analysis.PaceRequests)
	assert.Equal(t, 0.5, cfg.Telemetry.SampleRate)

	require.Len(t, cfg.Credentials, 2)
	assert.Equal(t, "https://b.example/", cfg.Credentials[1].Endpoint)
	assert.Equal(t, "key-b", cfg.Credentials[1].APIKey.Expose())
}

func TestLoader_EnvCredentialsMismatch(t *testing.T) {
	t.Setenv("DOCFLOW_ENDPOINTS", "https://a.example/,https://b.example/")
	t.Setenv("DOCFLOW_API_KEYS", "key-a")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOCFLOW_ENDPOINTS")
	assert.NotContains(t, err.Error(), "key-a")
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "docflow.yaml")

	yamlContent := `
analysis:
  max_rps: 5
  model_id: "prebuilt-read"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))
	t.Setenv("DOCFLOW_ANALYSIS_MAX_RPS", "9")

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Analysis.MaxRPS)
	assert.Equal(t, "prebuilt-read", cfg.Analysis.ModelID)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_ANALYSIS_MODEL_ID", "custom-model")

	cfg, err := NewLoader().WithEnvPrefix("MYAPP").Load()
	require.NoError(t, err)
	assert.Equal(t, "custom-model", cfg.Analysis.ModelID)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	t.Setenv("DOCFLOW_ANALYSIS_MAX_RPS", "many")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOCFLOW_ANALYSIS_MAX_RPS")
}

func TestLoader_WithValidator(t *testing.T) {
	_, err := NewLoader().
		WithValidator(func(c *Config) error { return c.Validate() }).
		Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one credential")
}

func TestLoader_NonExistentFile(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/docflow.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Analysis.MaxRPS)
}

func TestLoader_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("analysis: [yaml"), 0644))

	_, err := NewLoader().WithConfigPath(configPath).Load()
	assert.Error(t, err)
}

// --- Config 方法测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid config", modify: func(c *Config) {}},
		{
			name:    "no credentials",
			modify:  func(c *Config) { c.Credentials = nil },
			wantErr: "at least one credential",
		},
		{
			name:    "relative endpoint",
			modify:  func(c *Config) { c.Credentials[0].Endpoint = "a.example" },
			wantErr: "credentials[0]: endpoint",
		},
		{
			name:    "missing key",
			modify:  func(c *Config) { c.Credentials[0].APIKey = types.Secret{} },
			wantErr: "credentials[0]: api_key",
		},
		{
			name: "key from env is enough",
			modify: func(c *Config) {
				c.Credentials[0].APIKey = types.Secret{}
				c.Credentials[0].APIKeyEnv = "SOME_ENV"
			},
		},
		{
			name:    "zero max rps",
			modify:  func(c *Config) { c.Analysis.MaxRPS = 0 },
			wantErr: "max_rps",
		},
		{
			name:    "blank model",
			modify:  func(c *Config) { c.Analysis.ModelID = " " },
			wantErr: "model_id",
		},
		{
			name:    "bad output format",
			modify:  func(c *Config) { c.Analysis.OutputFormat = "html" },
			wantErr: "output_format",
		},
		{
			name:    "bad log level",
			modify:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: "log level",
		},
		{
			name:    "sample rate out of range",
			modify:  func(c *Config) { c.Telemetry.SampleRate = 2 },
			wantErr: "sample_rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateAggregates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Analysis.MaxRPS = -1
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one credential")
	assert.Contains(t, err.Error(), "max_rps")
	assert.Contains(t, err.Error(), "log format")
}

func TestConfig_ResolveCredentials(t *testing.T) {
	t.Setenv("DOCFLOW_TEST_KEY_B", "key-b")

	cfg := validConfig()
	cfg.Credentials = append(cfg.Credentials, CredentialConfig{
		Endpoint:  "https://b.example/",
		APIKeyEnv: "DOCFLOW_TEST_KEY_B",
	})

	creds, err := cfg.ResolveCredentials()
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, "key-a", creds[0].APIKey.Expose())
	assert.Equal(t, "https://b.example/", creds[1].Endpoint)
	assert.Equal(t, "key-b", creds[1].APIKey.Expose())
}

func TestConfig_ResolveCredentialsMissingEnv(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Credentials = []CredentialConfig{{Endpoint: "https://a.example/", APIKeyEnv: "DOCFLOW_TEST_UNSET_KEY"}}

	_, err := cfg.ResolveCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOCFLOW_TEST_UNSET_KEY")

	_, err = DefaultConfig().ResolveCredentials()
	assert.Error(t, err)
}

// --- MustLoad 测试 ---

func TestMustLoad_Success(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "docflow.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("analysis:\n  max_rps: 4\n"), 0644))

	assert.NotPanics(t, func() {
		cfg := MustLoad(configPath)
		assert.Equal(t, 4, cfg.Analysis.MaxRPS)
	})
}

func TestMustLoad_InvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("invalid: [yaml"), 0644))

	assert.Panics(t, func() {
		MustLoad(configPath)
	})
}

func TestLoadFromEnv_Function(t *testing.T) {
	t.Setenv("DOCFLOW_ANALYSIS_OUTPUT_FORMAT", "markdown")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "markdown", cfg.Analysis.OutputFormat)
}
