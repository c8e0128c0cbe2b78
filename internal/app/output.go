package app

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"pdfbatch/internal/batch"
	"pdfbatch/internal/config"
	"pdfbatch/internal/jq"
	"pdfbatch/internal/logging"
	"pdfbatch/internal/template"
	"pdfbatch/internal/util"
)

// now is replaced in tests.
var now = time.Now

// writeOutput renders the report (optionally through jq) to the configured
// file, or to w when no file is configured.
func (a *AppRunner) writeOutput(w io.Writer, report *batch.Report, providerName string, out config.OutputConfig) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	result := string(data)
	if out.Jq != "" {
		result, err = jq.RunFilter(data, out.Jq)
		if err != nil {
			return fmt.Errorf("failed to apply output jq filter: %w", err)
		}
	}

	if out.File == "" {
		fmt.Fprintln(w, result)
		return nil
	}

	filePath, err := template.Render("outputFile", out.File, map[string]any{
		"RunID":     report.RunID,
		"Provider":  providerName,
		"Succeeded": report.Succeeded(),
		"Failed":    report.Failed(),
		"Timestamp": now().UTC().Format("20060102T150405Z"),
	})
	if err != nil {
		return fmt.Errorf("failed to render output file path template '%s': %w", out.File, err)
	}
	filePath = util.ExpandEnvUniversal(filePath)

	if err := a.fileWriter.WriteFile(filePath, []byte(result+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write output file '%s': %w", filePath, err)
	}
	logging.Logf(logging.Info, "Wrote %d result(s) for run %s to '%s'", len(report.Results), report.RunID, filePath)
	return nil
}
