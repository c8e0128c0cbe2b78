package util

import (
	"os"
	"regexp"
	"strings"
)

var windowsVarPattern = regexp.MustCompile(`%([A-Za-z0-9_]+)%`)

// ExpandEnvUniversal expands Unix-style ($VAR, ${VAR}) and then Windows-style
// (%VAR%) environment variables. Unset variables expand to "".
func ExpandEnvUniversal(s string) string {
	expanded := os.ExpandEnv(s)
	return windowsVarPattern.ReplaceAllStringFunc(expanded, func(match string) string {
		return os.Getenv(match[1 : len(match)-1])
	})
}

// Snippet returns a short prefix of a byte slice, useful for logging.
func Snippet(b []byte) string {
	const maxLen = 200
	runes := []rune(string(b))
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return string(runes)
}

// MaskSecret keeps the last four characters of a secret for log and preview
// output. Short secrets are fully masked.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
