package jq

import (
	"encoding/json"
	"fmt"
	"strings"

	"pdfbatch/internal/logging"
	"pdfbatch/internal/util"

	"github.com/itchyny/gojq"
)

// RunFilter applies a jq filter to a JSON document. Each emitted value goes on
// its own line: strings raw (like jq -r), everything else as indented JSON.
func RunFilter(input []byte, jqFilter string) (string, error) {
	query, err := gojq.Parse(jqFilter)
	if err != nil {
		return "", fmt.Errorf("invalid jq filter '%s': %w", jqFilter, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return "", fmt.Errorf("failed to compile jq filter '%s': %w", jqFilter, err)
	}

	var doc any
	if err := json.Unmarshal(input, &doc); err != nil {
		return "", fmt.Errorf("jq input is not valid JSON (input snippet: '%s'): %w", util.Snippet(input), err)
	}

	logging.Logf(logging.Debug, "Executing jq filter: '%s'", jqFilter)

	var lines []string
	iter := code.Run(doc)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return "", fmt.Errorf("jq filter '%s' failed: %w", jqFilter, err)
		}
		if s, isString := v.(string); isString {
			lines = append(lines, s)
			continue
		}
		encoded, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode jq result: %w", err)
		}
		lines = append(lines, string(encoded))
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
