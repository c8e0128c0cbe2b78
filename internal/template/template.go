package template

import (
	"bytes"
	"fmt"
	"text/template"

	"pdfbatch/internal/logging"
)

// Render evaluates a Go template string with the provided data map.
// A key referenced by the template but missing from data is an error.
func Render(templateName, tmplStr string, data map[string]any) (string, error) {
	if tmplStr == "" {
		return "", nil
	}

	tmpl, err := template.New(templateName).Option("missingkey=error").Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", templateName, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		logging.Logf(logging.Debug, "Template '%s' data keys: %v", templateName, keys)
		return "", fmt.Errorf("failed to execute template '%s': %w", templateName, err)
	}
	return buf.String(), nil
}
