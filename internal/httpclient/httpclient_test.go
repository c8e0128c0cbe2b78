package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"pdfbatch/internal/config"
	"pdfbatch/internal/logging"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackoff(t *testing.T) {
	t.Helper()
	orig := BackoffUnit
	BackoffUnit = time.Millisecond
	t.Cleanup(func() { BackoffUnit = orig })
}

func TestNewClient(t *testing.T) {
	logging.SetLevel(logging.None)
	t.Cleanup(func() { logging.SetLevel(logging.Info) })

	tests := []struct {
		name           string
		provider       config.ProviderConfig
		retry          config.RetryConfig
		expectError    bool
		expectBaseURL  string
		expectTimeout  time.Duration
		expectSkipTLS  bool
		expectRetryCnt int
	}{
		{
			name:           "Defaults From Provider Kind",
			provider:       config.ProviderConfig{Kind: "pdfapihub"},
			expectBaseURL:  "https://pdfapihub.com",
			expectTimeout:  DefaultTimeout,
			expectRetryCnt: 0,
		},
		{
			name:          "PDFMunk Default URL",
			provider:      config.ProviderConfig{Kind: "pdfmunk"},
			expectBaseURL: "https://pdfmunk.com",
			expectTimeout: DefaultTimeout,
		},
		{
			name:           "Explicit Settings",
			provider:       config.ProviderConfig{Kind: "pdfapihub", BaseURL: "http://localhost:9000/", TimeoutSeconds: 5, TlsSkipVerify: true},
			retry:          config.RetryConfig{MaxAttempts: 3},
			expectBaseURL:  "http://localhost:9000",
			expectTimeout:  5 * time.Second,
			expectSkipTLS:  true,
			expectRetryCnt: 2,
		},
		{
			name:        "Unknown Kind",
			provider:    config.ProviderConfig{Kind: "ilovepdf"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(&tt.provider, tt.retry)
			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, client)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectBaseURL, client.BaseURL)
			assert.Equal(t, tt.expectTimeout, client.GetClient().Timeout)
			assert.Equal(t, tt.expectRetryCnt, client.RetryCount)

			transport, ok := client.GetClient().Transport.(*http.Transport)
			require.True(t, ok, "expected *http.Transport")
			require.NotNil(t, transport.TLSClientConfig)
			assert.Equal(t, tt.expectSkipTLS, transport.TLSClientConfig.InsecureSkipVerify)
		})
	}
}

func TestNewClient_BackoffWait(t *testing.T) {
	zero := 0
	client, err := NewClient(&config.ProviderConfig{Kind: "pdfapihub"}, config.RetryConfig{MaxAttempts: 2, Backoff: &zero})
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), client.RetryWaitTime)
	assert.Equal(t, time.Duration(0), client.RetryMaxWaitTime)

	client, err = NewClient(&config.ProviderConfig{Kind: "pdfapihub"}, config.RetryConfig{MaxAttempts: 2})
	require.NoError(t, err)
	assert.Equal(t, BackoffUnit, client.RetryWaitTime, "unset backoff waits one unit")
}

func TestNewClient_RetriesServerErrors(t *testing.T) {
	fastBackoff(t)
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client, err := NewClient(&config.ProviderConfig{Kind: "pdfapihub", BaseURL: server.URL}, config.RetryConfig{MaxAttempts: 3})
	require.NoError(t, err)

	resp, err := client.R().SetBody([]byte(`{}`)).Post("/api/v1/pdf/merge")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, int32(3), calls.Load())
}

func TestNewClient_ExcludedAndClientErrorsNotRetried(t *testing.T) {
	fastBackoff(t)
	for _, status := range []int{http.StatusNotImplemented, http.StatusBadRequest, http.StatusUnauthorized} {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(status)
		}))

		client, err := NewClient(&config.ProviderConfig{Kind: "pdfapihub", BaseURL: server.URL},
			config.RetryConfig{MaxAttempts: 3, ExcludeErrors: []int{501}})
		require.NoError(t, err)

		resp, err := client.R().Post("/api/v1/pdf/split")
		require.NoError(t, err)
		assert.Equal(t, status, resp.StatusCode())
		assert.Equal(t, int32(1), calls.Load(), "status %d must not be retried", status)
		server.Close()
	}
}

func TestRetryCondition(t *testing.T) {
	cond := RetryCondition([]int{502})
	assert.True(t, cond(nil, errors.New("connection reset")))
	assert.False(t, cond(nil, context.Canceled))
	assert.False(t, cond(nil, context.DeadlineExceeded))
	assert.False(t, cond(nil, nil))

	withStatus := func(code int) *resty.Response {
		return &resty.Response{RawResponse: &http.Response{StatusCode: code}}
	}
	assert.True(t, cond(withStatus(500), nil))
	assert.True(t, cond(withStatus(503), nil))
	assert.False(t, cond(withStatus(502), nil), "excluded")
	assert.False(t, cond(withStatus(200), nil))
	assert.False(t, cond(withStatus(404), nil))
}
