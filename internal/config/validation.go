package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"pdfbatch/internal/pdfapi"
)

// --- Known values definitions ---
var (
	knownLogLevels       = []string{"none", "error", "warn", "warning", "info", "debug"}
	knownAuthTypes       = []string{"client_api_key", "bearer", "none"}
	knownFailurePolicies = []string{FailurePolicyStop, FailurePolicyContinue}
)

// isValidEnumValue checks case-insensitively if a value is in allowedValues.
func isValidEnumValue(value string, allowedValues []string) bool {
	for _, allowed := range allowedValues {
		if strings.EqualFold(value, allowed) {
			return true
		}
	}
	return false
}

// ValidateConfigManually performs comprehensive validation of the loaded configuration.
// All problems are reported together, one "- Prefix.Field: message" line each.
func ValidateConfigManually(cfg *Config) error {
	var allErrors []string
	allErrors = append(allErrors, validateRetryConfig("Config.Retry", &cfg.Retry)...)
	allErrors = append(allErrors, validateLoggingConfig("Config.Logging", &cfg.Logging)...)
	allErrors = append(allErrors, validateBatchConfig("Config.Batch", &cfg.Batch)...)

	for _, name := range sortedKeys(cfg.Credentials) {
		if strings.TrimSpace(cfg.Credentials[name].APIKey) == "" {
			allErrors = append(allErrors, fmt.Sprintf("- Config.Credentials[%s].APIKey: is required", name))
		}
	}

	if len(cfg.Providers) < 1 {
		allErrors = append(allErrors, "- Config.Providers: at least one provider definition is required")
	}
	for _, name := range sortedKeys(cfg.Providers) {
		p := cfg.Providers[name]
		allErrors = append(allErrors, validateProviderConfig(fmt.Sprintf("Config.Providers[%s]", name), &p, cfg.Credentials)...)
	}

	if cfg.Output != nil && cfg.Output.File == "" && cfg.Output.Jq == "" {
		allErrors = append(allErrors, "- Config.Output: requires 'file' or 'jq' when present")
	}

	if len(allErrors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(allErrors, "\n"))
	}
	return nil
}

func validateRetryConfig(prefix string, cfg *RetryConfig) []string {
	var errs []string
	if cfg.MaxAttempts < 1 {
		errs = append(errs, fmt.Sprintf("- %s.MaxAttempts: must be at least 1", prefix))
	}
	if cfg.BackoffSeconds() < 0 {
		errs = append(errs, fmt.Sprintf("- %s.Backoff: cannot be negative", prefix))
	}
	for _, code := range cfg.ExcludeErrors {
		if code < 500 || code > 599 {
			errs = append(errs, fmt.Sprintf("- %s.ExcludeErrors: %d is not a 5xx status; only 5xx responses are retried", prefix, code))
		}
	}
	return errs
}

func validateLoggingConfig(prefix string, cfg *LoggingConfig) []string {
	if !isValidEnumValue(cfg.Level, knownLogLevels) {
		return []string{fmt.Sprintf("- %s.Level: invalid log level '%s', must be one of %v", prefix, cfg.Level, knownLogLevels)}
	}
	return nil
}

func validateBatchConfig(prefix string, cfg *BatchConfig) []string {
	var errs []string
	if !isValidEnumValue(cfg.FailurePolicy, knownFailurePolicies) {
		errs = append(errs, fmt.Sprintf("- %s.FailurePolicy: invalid policy '%s', must be one of %v", prefix, cfg.FailurePolicy, knownFailurePolicies))
	}
	if cfg.Concurrency < 1 {
		errs = append(errs, fmt.Sprintf("- %s.Concurrency: must be at least 1", prefix))
	}
	return errs
}

func validateProviderConfig(prefix string, cfg *ProviderConfig, creds map[string]CredentialConfig) []string {
	var errs []string
	if _, err := pdfapi.LookupProvider(cfg.Kind); err != nil {
		errs = append(errs, fmt.Sprintf("- %s.Kind: invalid provider kind '%s', must be one of %v", prefix, cfg.Kind, pdfapi.ProviderKinds()))
	}
	if cfg.BaseURL != "" {
		parsedURL, err := url.ParseRequestURI(cfg.BaseURL)
		if err != nil {
			errs = append(errs, fmt.Sprintf("- %s.BaseURL: invalid URL format: %v", prefix, err))
		} else if scheme := strings.ToLower(parsedURL.Scheme); scheme != "http" && scheme != "https" {
			errs = append(errs, fmt.Sprintf("- %s.BaseURL: invalid URL scheme '%s', must be http or https", prefix, parsedURL.Scheme))
		}
	}
	if cfg.AuthType != "" && !isValidEnumValue(cfg.AuthType, knownAuthTypes) {
		errs = append(errs, fmt.Sprintf("- %s.AuthType: invalid auth type '%s', must be one of %v", prefix, cfg.AuthType, knownAuthTypes))
	}
	if !strings.EqualFold(cfg.AuthType, "none") {
		if cfg.Credential == "" {
			errs = append(errs, fmt.Sprintf("- %s.Credential: is required for auth type '%s'", prefix, cfg.AuthType))
		} else if _, ok := creds[cfg.Credential]; !ok {
			errs = append(errs, fmt.Sprintf("- %s.Credential: references credential '%s' which is not defined", prefix, cfg.Credential))
		}
	}
	if cfg.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Sprintf("- %s.TimeoutSeconds: cannot be negative", prefix))
	}
	return errs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
