package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"pdfbatch/internal/auth"
	"pdfbatch/internal/credentials"
	"pdfbatch/internal/logging"
	"pdfbatch/internal/pdfapi"
	"pdfbatch/internal/util"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// CredentialResolver looks up a credential by name.
type CredentialResolver interface {
	Resolve(name string) (credentials.Credential, error)
}

// Executor sends built requests to one provider.
type Executor struct {
	client   *resty.Client
	creds    CredentialResolver
	authType string
}

// New creates an Executor. The client carries the base URL and retry policy.
func New(client *resty.Client, creds CredentialResolver, authType string) *Executor {
	return &Executor{client: client, creds: creds, authType: authType}
}

// upstream fields that carry a human readable error, in order of preference
var messageFields = []string{"message", "error", "detail", "error.message"}

// Execute authenticates and POSTs spec to {baseURL}{endpoint}. On 2xx the body
// is returned verbatim. Everything else is an *HTTPError.
func (e *Executor) Execute(ctx context.Context, credentialName string, spec pdfapi.RequestSpec) (json.RawMessage, error) {
	body, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body for %s: %w", spec.Endpoint(), err)
	}

	req := e.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)

	if auth.NeedsCredential(e.authType) {
		cred, err := e.creds.Resolve(credentialName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve credential: %w", err)
		}
		if err := auth.ApplyAuthHeaders(req.Header, e.authType, cred); err != nil {
			return nil, err
		}
		logging.Logf(logging.Debug, "Using credential %s", cred)
	}

	logging.Logf(logging.Debug, "POST %s%s body=%s", e.client.BaseURL, spec.Endpoint(), util.Snippet(body))
	resp, err := req.Post(spec.Endpoint())
	if err != nil {
		cause := errors.WithMessage(err, "POST "+spec.Endpoint())
		return nil, &HTTPError{Message: cause.Error(), Err: cause}
	}

	respBody := resp.Body()
	logging.Logf(logging.Debug, "Response %d from %s: %s", resp.StatusCode(), spec.Endpoint(), util.Snippet(respBody))

	if !resp.IsSuccess() {
		return nil, &HTTPError{StatusCode: resp.StatusCode(), Message: upstreamMessage(resp.StatusCode(), respBody)}
	}
	if !gjson.ValidBytes(respBody) {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode(),
			Message:    fmt.Sprintf("response body is not valid JSON: %q", util.Snippet(respBody)),
		}
	}
	return json.RawMessage(respBody), nil
}

// upstreamMessage picks the provider's error text out of a failure body.
func upstreamMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		for _, field := range messageFields {
			if v := gjson.GetBytes(body, field); v.Exists() && v.Type == gjson.String && v.String() != "" {
				return v.String()
			}
		}
	}
	if s := strings.TrimSpace(util.Snippet(body)); s != "" {
		return s
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "unexpected status"
}
