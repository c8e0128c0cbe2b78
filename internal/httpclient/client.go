package httpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"pdfbatch/internal/config"
	"pdfbatch/internal/logging"
	"pdfbatch/internal/pdfapi"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 30 * time.Second

// BackoffUnit scales RetryConfig.Backoff. Tests shorten it.
var BackoffUnit = time.Second

// NewClient creates a resty client for one provider: base URL, TLS verification,
// timeout and the retry policy (5xx not in exclude_errors, and transport errors).
func NewClient(providerCfg *config.ProviderConfig, retryCfg config.RetryConfig) (*resty.Client, error) {
	provider, err := pdfapi.LookupProvider(providerCfg.Kind)
	if err != nil {
		return nil, err
	}
	baseURL := strings.TrimRight(providerCfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = provider.DefaultBaseURL()
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: providerCfg.TlsSkipVerify,
		},
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if providerCfg.TlsSkipVerify {
		logging.Logf(logging.Info, "TLS certificate verification is DISABLED for provider base URL: %s", baseURL)
	}

	timeout := DefaultTimeout
	if providerCfg.TimeoutSeconds > 0 {
		timeout = time.Duration(providerCfg.TimeoutSeconds) * time.Second
	}

	maxAttempts := retryCfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	backoff := time.Duration(retryCfg.BackoffSeconds()) * BackoffUnit

	client := resty.New().
		SetTransport(transport).
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetLogger(restyLogger{}).
		SetHeader("Accept", "application/json").
		SetRetryCount(maxAttempts - 1).
		SetRetryWaitTime(backoff).
		SetRetryMaxWaitTime(backoff).
		AddRetryCondition(RetryCondition(retryCfg.ExcludeErrors)).
		AddRetryHook(func(resp *resty.Response, err error) {
			if err != nil {
				logging.Logf(logging.Info, "Request to %s failed, retrying: %v", baseURL, err)
				return
			}
			logging.Logf(logging.Info, "Request to %s returned retryable status %d, retrying", baseURL, resp.StatusCode())
		})

	logging.Logf(logging.Debug, "Created client for provider '%s': base=%s timeout=%v attempts=%d", provider.Name(), baseURL, timeout, maxAttempts)
	return client, nil
}

// RetryCondition reports whether a finished attempt should be retried.
// Context cancellation is never retried.
func RetryCondition(excludeErrors []int) resty.RetryConditionFunc {
	return func(resp *resty.Response, err error) bool {
		if err != nil {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}
		if resp == nil {
			return false
		}
		code := resp.StatusCode()
		if code < 500 || code > 599 {
			return false
		}
		for _, excluded := range excludeErrors {
			if code == excluded {
				return false
			}
		}
		return true
	}
}

// restyLogger routes resty's internal messages through the package logger.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) {
	logging.Logf(logging.Error, "resty: %s", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (restyLogger) Warnf(format string, v ...interface{}) {
	logging.Logf(logging.Warning, "resty: %s", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (restyLogger) Debugf(format string, v ...interface{}) {
	logging.Logf(logging.Debug, "resty: %s", strings.TrimSpace(fmt.Sprintf(format, v...)))
}
