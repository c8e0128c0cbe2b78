package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a temporary config file for testing
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	filePath := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(filePath, []byte(content), 0644)
	require.NoError(t, err, "Failed to create temporary config file")
	return filePath
}

func TestLoadConfig_ValidCases(t *testing.T) {
	t.Run("Minimal Valid Config", func(t *testing.T) {
		validYAML := `
credentials:
  pdfapihubApi: { api_key: "${PDFAPIHUB_API_KEY}" }
providers:
  pdfapihub: { credential: pdfapihubApi }
`
		cfg, err := LoadConfig(createTempConfigFile(t, validYAML))
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, 1, cfg.Retry.MaxAttempts)
		assert.Equal(t, 1, cfg.Retry.BackoffSeconds())
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, FailurePolicyStop, cfg.Batch.FailurePolicy)
		assert.Equal(t, 1, cfg.Batch.Concurrency)

		p := cfg.Providers["pdfapihub"]
		assert.Equal(t, "pdfapihub", p.Kind, "kind defaults to the provider name")
		assert.Equal(t, "client_api_key", p.AuthType)
		assert.Empty(t, p.BaseURL, "base URL is resolved from the provider kind later")
		assert.Nil(t, cfg.Output)
	})

	t.Run("Zero Backoff Kept", func(t *testing.T) {
		validYAML := `
retry: { max_attempts: 3, backoff_seconds: 0 }
credentials: { c: { api_key: k } }
providers: { p: { kind: pdfapihub, credential: c } }
`
		cfg, err := LoadConfig(createTempConfigFile(t, validYAML))
		require.NoError(t, err)
		require.NotNil(t, cfg.Retry.Backoff)
		assert.Equal(t, 0, cfg.Retry.BackoffSeconds(), "an explicit zero means retry immediately")
	})

	t.Run("Full Config", func(t *testing.T) {
		validYAML := `
retry: { max_attempts: 3, backoff_seconds: 2, exclude_errors: [501] }
logging: { level: debug, json: true }
batch: { failure_policy: continue, concurrency: 4 }
credentials:
  hub: { api_key: abc }
  munk: { api_key: "%MUNK_KEY%" }
providers:
  main:
    kind: pdfapihub
    base_url: https://pdfapihub.com
    credential: hub
    timeout_seconds: 10
  alt:
    kind: pdfmunk
    credential: munk
    auth_type: bearer
  local:
    kind: pdfapihub
    base_url: http://localhost:8080
    auth_type: none
output: { file: "out/{{.RunID}}.json", jq: ".[].json" }
`
		cfg, err := LoadConfig(createTempConfigFile(t, validYAML))
		require.NoError(t, err)
		assert.Equal(t, []int{501}, cfg.Retry.ExcludeErrors)
		assert.Equal(t, 2, cfg.Retry.BackoffSeconds())
		assert.True(t, cfg.Logging.JSON)
		assert.Equal(t, FailurePolicyContinue, cfg.Batch.FailurePolicy)
		assert.Equal(t, 4, cfg.Batch.Concurrency)
		assert.Len(t, cfg.Providers, 3)
		assert.Equal(t, "bearer", cfg.Providers["alt"].AuthType)
		assert.Equal(t, 10, cfg.Providers["main"].TimeoutSeconds)
		require.NotNil(t, cfg.Output)
		assert.Equal(t, ".[].json", cfg.Output.Jq)
	})
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("File Not Found", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("Invalid YAML", func(t *testing.T) {
		_, err := LoadConfig(createTempConfigFile(t, "providers: [unclosed"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse YAML")
	})

	tests := []struct {
		name           string
		yaml           string
		expectedErrors []string
	}{
		{
			name:           "No Providers",
			yaml:           `logging: { level: info }`,
			expectedErrors: []string{"- Config.Providers: at least one provider definition is required"},
		},
		{
			name: "Bad Enums",
			yaml: `
logging: { level: loud }
batch: { failure_policy: retry }
credentials: { c: { api_key: k } }
providers:
  p: { kind: ilovepdf, credential: c, auth_type: digest }
`,
			expectedErrors: []string{
				"- Config.Logging.Level: invalid log level 'loud'",
				"- Config.Batch.FailurePolicy: invalid policy 'retry'",
				"- Config.Providers[p].Kind: invalid provider kind 'ilovepdf'",
				"- Config.Providers[p].AuthType: invalid auth type 'digest'",
			},
		},
		{
			name: "Credential References",
			yaml: `
credentials: { empty: { api_key: "" } }
providers:
  a: { kind: pdfapihub }
  b: { kind: pdfapihub, credential: ghost }
`,
			expectedErrors: []string{
				"- Config.Credentials[empty].APIKey: is required",
				"- Config.Providers[a].Credential: is required for auth type 'client_api_key'",
				"- Config.Providers[b].Credential: references credential 'ghost' which is not defined",
			},
		},
		{
			name: "Bad URL And Timeout",
			yaml: `
credentials: { c: { api_key: k } }
providers:
  p: { kind: pdfapihub, credential: c, base_url: "ftp://files.example.com", timeout_seconds: -1 }
`,
			expectedErrors: []string{
				"- Config.Providers[p].BaseURL: invalid URL scheme 'ftp'",
				"- Config.Providers[p].TimeoutSeconds: cannot be negative",
			},
		},
		{
			name: "Retry Exclude Not 5xx",
			yaml: `
retry: { exclude_errors: [404] }
credentials: { c: { api_key: k } }
providers: { p: { kind: pdfapihub, credential: c } }
`,
			expectedErrors: []string{"- Config.Retry.ExcludeErrors: 404 is not a 5xx status"},
		},
		{
			name: "Negative Backoff",
			yaml: `
retry: { backoff_seconds: -2 }
credentials: { c: { api_key: k } }
providers: { p: { kind: pdfapihub, credential: c } }
`,
			expectedErrors: []string{"- Config.Retry.Backoff: cannot be negative"},
		},
		{
			name: "Empty Output",
			yaml: `
credentials: { c: { api_key: k } }
providers: { p: { kind: pdfapihub, credential: c } }
output: {}
`,
			expectedErrors: []string{"- Config.Output: requires 'file' or 'jq' when present"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(createTempConfigFile(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "configuration validation failed")
			for _, expected := range tt.expectedErrors {
				assert.Contains(t, err.Error(), expected)
			}
		})
	}
}
