package auth

import (
	"fmt"
	"net/http"
	"strings"

	"pdfbatch/internal/credentials"
)

// Supported auth types.
const (
	TypeClientAPIKey = "client_api_key"
	TypeBearer       = "bearer"
	TypeNone         = "none"
)

// HeaderClientAPIKey carries the API key for the PDF providers.
const HeaderClientAPIKey = "CLIENT-API-KEY"

// ApplyAuthHeaders sets the credential-derived headers for the given auth type.
// An empty auth type means client_api_key.
func ApplyAuthHeaders(header http.Header, authType string, cred credentials.Credential) error {
	switch strings.ToLower(authType) {
	case TypeNone:
		return nil
	case "", TypeClientAPIKey:
		if cred.APIKey == "" {
			return fmt.Errorf("client_api_key authentication selected, but credential '%s' has no api_key", cred.Name)
		}
		header.Set(HeaderClientAPIKey, cred.APIKey)
	case TypeBearer:
		if cred.APIKey == "" {
			return fmt.Errorf("bearer authentication selected, but credential '%s' has no api_key", cred.Name)
		}
		header.Set("Authorization", "Bearer "+cred.APIKey)
	default:
		return fmt.Errorf("unsupported authentication type configured: %s", authType)
	}
	return nil
}

// NeedsCredential reports whether an auth type reads a credential.
func NeedsCredential(authType string) bool {
	return !strings.EqualFold(authType, TypeNone)
}
