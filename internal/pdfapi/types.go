// Package pdfapi maps typed merge/split parameters onto requests for the
// remote PDF APIs. Building a request is pure: no I/O, no credentials.
package pdfapi

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"
)

// Operation is the top-level action requested for an item.
type Operation string

const (
	MergePdf Operation = "mergePdf"
	SplitPdf Operation = "splitPdf"
)

// ParseOperation accepts the operation names used in item parameters.
func ParseOperation(s string) (Operation, error) {
	switch Operation(strings.TrimSpace(s)) {
	case MergePdf:
		return MergePdf, nil
	case SplitPdf:
		return SplitPdf, nil
	}
	return "", &UnsupportedOperationError{Kind: "operation", Value: s}
}

// OutputFormat selects how the remote API returns the processed PDF.
type OutputFormat string

const (
	OutputURL    OutputFormat = "url"
	OutputFile   OutputFormat = "file"
	OutputBase64 OutputFormat = "base64"
)

// DefaultOutput is used when an item does not choose a format.
const DefaultOutput = OutputURL

// ParseOutputFormat maps a parameter value to an OutputFormat. Empty means DefaultOutput.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultOutput, nil
	case OutputURL:
		return OutputURL, nil
	case OutputFile:
		return OutputFile, nil
	case OutputBase64:
		return OutputBase64, nil
	}
	return "", &UnsupportedOperationError{Kind: "output format", Value: s}
}

// SplitStrategy is one of Pages, EachPage or Chunks.
type SplitStrategy interface {
	splitType() string
}

// Pages extracts the pages named by an opaque range expression such as "1-3,5".
type Pages struct{ Spec string }

// EachPage splits every page into its own document.
type EachPage struct{}

// Chunks splits the document into Count parts. Count is not validated locally.
type Chunks struct{ Count int }

func (Pages) splitType() string    { return "pages" }
func (EachPage) splitType() string { return "each" }
func (Chunks) splitType() string   { return "chunks" }

// SplitTypeName returns the parameter value that selects s.
func SplitTypeName(s SplitStrategy) string {
	if s == nil {
		return ""
	}
	return s.splitType()
}

// Params is the resolved, typed parameter set of one item. The concrete
// type determines the operation: MergeParams or SplitParams.
type Params interface {
	Operation() Operation
}

// MergeParams are the inputs of a merge. URLs are merged in slice order.
type MergeParams struct {
	URLs   []string
	Output OutputFormat
}

// SplitParams are the inputs of a split.
type SplitParams struct {
	URL      string
	Strategy SplitStrategy
	Output   OutputFormat
}

func (MergeParams) Operation() Operation { return MergePdf }
func (SplitParams) Operation() Operation { return SplitPdf }

// RequestSpec is a fully resolved request, ready to be sent. It is immutable:
// accessors hand out copies.
type RequestSpec struct {
	endpoint string
	body     map[string]any
}

// NewRequestSpec copies body so later changes by the caller do not leak in.
func NewRequestSpec(endpoint string, body map[string]any) RequestSpec {
	return RequestSpec{endpoint: endpoint, body: cloneBody(body)}
}

// Endpoint is the path relative to the provider base URL.
func (r RequestSpec) Endpoint() string { return r.endpoint }

// Body returns a copy of the JSON body fields.
func (r RequestSpec) Body() map[string]any { return cloneBody(r.body) }

// Has reports whether the body carries field.
func (r RequestSpec) Has(field string) bool {
	_, ok := r.body[field]
	return ok
}

// MarshalJSON encodes the body only; the endpoint travels in the URL.
func (r RequestSpec) MarshalJSON() ([]byte, error) {
	if r.body == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.body)
}

func cloneBody(body map[string]any) map[string]any {
	if body == nil {
		return nil
	}
	out := maps.Clone(body)
	for k, v := range out {
		if s, ok := v.([]string); ok {
			out[k] = slices.Clone(s)
		}
	}
	return out
}
