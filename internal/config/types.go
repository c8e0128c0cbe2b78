package config

// Config holds the batch settings, named credentials and provider endpoints.
type Config struct {
	Retry       RetryConfig                 `yaml:"retry"`
	Logging     LoggingConfig               `yaml:"logging"`
	Batch       BatchConfig                 `yaml:"batch"`
	Credentials map[string]CredentialConfig `yaml:"credentials"`
	Providers   map[string]ProviderConfig   `yaml:"providers"`
	Output      *OutputConfig               `yaml:"output,omitempty"`
}

// RetryConfig holds settings for retry logic.
type RetryConfig struct {
	MaxAttempts   int   `yaml:"max_attempts"`
	Backoff       *int  `yaml:"backoff_seconds"` // nil means DefaultBackoffSeconds; 0 retries immediately
	ExcludeErrors []int `yaml:"exclude_errors"`
}

// DefaultBackoffSeconds is the wait between attempts when backoff_seconds is unset.
const DefaultBackoffSeconds = 1

// BackoffSeconds returns the configured wait between attempts.
func (r RetryConfig) BackoffSeconds() int {
	if r.Backoff == nil {
		return DefaultBackoffSeconds
	}
	return *r.Backoff
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json,omitempty"`
}

// Failure policies.
const (
	FailurePolicyStop     = "stop"
	FailurePolicyContinue = "continue"
)

// BatchConfig controls how items are processed.
type BatchConfig struct {
	FailurePolicy string `yaml:"failure_policy"`
	Concurrency   int    `yaml:"concurrency"`
}

// CredentialConfig is one named credential. APIKey may reference
// environment variables ($VAR, ${VAR}, %VAR%).
type CredentialConfig struct {
	APIKey string `yaml:"api_key"`
}

// ProviderConfig describes one remote PDF API.
type ProviderConfig struct {
	Kind           string `yaml:"kind"`
	BaseURL        string `yaml:"base_url,omitempty"`
	Credential     string `yaml:"credential"`
	AuthType       string `yaml:"auth_type,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
	TlsSkipVerify  bool   `yaml:"tls_skip_verify,omitempty"`
}

// OutputConfig defines where and how results are written after a run.
type OutputConfig struct {
	File string `yaml:"file,omitempty"` // Path template, rendered with the run data
	Jq   string `yaml:"jq,omitempty"`   // Optional projection of the result document
}
