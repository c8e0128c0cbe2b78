package pdfapi

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Merge(t *testing.T) {
	urls := []string{"https://x/a.pdf", "https://x/b.pdf"}
	spec, err := Build(MergePdf, MergeParams{URLs: urls, Output: OutputURL})
	require.NoError(t, err)

	assert.Equal(t, MergeEndpoint, spec.Endpoint())
	assert.Equal(t, map[string]any{"urls": urls, "output": "url"}, spec.Body())

	raw, err := json.Marshal(spec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"urls":["https://x/a.pdf","https://x/b.pdf"],"output":"url"}`, string(raw))
}

func TestBuild_MergePreservesOrderAndDefaultsOutput(t *testing.T) {
	urls := []string{"c.pdf", "a.pdf", "b.pdf", "a.pdf"}
	spec, err := Build(MergePdf, MergeParams{URLs: urls})
	require.NoError(t, err)

	body := spec.Body()
	assert.Equal(t, urls, body["urls"], "merge order must follow the caller's order")
	assert.Equal(t, "url", body["output"])
}

func TestBuild_MergeEmptyURLs(t *testing.T) {
	_, err := Build(MergePdf, MergeParams{})
	require.Error(t, err)
	var missing *MissingParameterError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "urls", missing.Name)
	assert.ErrorIs(t, err, ErrMissingParameter)
}

func TestBuild_SplitStrategies(t *testing.T) {
	tests := []struct {
		name     string
		params   SplitParams
		expected map[string]any
	}{
		{
			name:     "Pages",
			params:   SplitParams{URL: "https://x/a.pdf", Strategy: Pages{Spec: "1-3,5"}},
			expected: map[string]any{"url": "https://x/a.pdf", "output": "url", "pages": "1-3,5"},
		},
		{
			name:     "Each Page",
			params:   SplitParams{URL: "https://x/a.pdf", Strategy: EachPage{}, Output: OutputBase64},
			expected: map[string]any{"url": "https://x/a.pdf", "output": "base64", "mode": "each"},
		},
		{
			name:     "Chunks",
			params:   SplitParams{URL: "https://x/a.pdf", Strategy: Chunks{Count: 3}, Output: OutputFile},
			expected: map[string]any{"url": "https://x/a.pdf", "output": "file", "chunks": 3},
		},
		{
			// Not validated locally; the remote API rejects it.
			name:     "Zero Chunks Passed Through",
			params:   SplitParams{URL: "u", Strategy: Chunks{Count: 0}},
			expected: map[string]any{"url": "u", "output": "url", "chunks": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Build(SplitPdf, tt.params)
			require.NoError(t, err)
			assert.Equal(t, SplitEndpoint, spec.Endpoint())
			assert.Equal(t, tt.expected, spec.Body())

			present := 0
			for _, f := range []string{"pages", "mode", "chunks"} {
				if spec.Has(f) {
					present++
				}
			}
			assert.Equal(t, 1, present, "exactly one strategy field expected")
		})
	}
}

func TestBuild_SplitMissingPages(t *testing.T) {
	_, err := Build(SplitPdf, SplitParams{URL: "https://x/a.pdf", Strategy: Pages{}})
	var missing *MissingParameterError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "pages", missing.Name)
}

func TestBuild_SplitMissingURL(t *testing.T) {
	_, err := Build(SplitPdf, SplitParams{Strategy: EachPage{}})
	assert.ErrorIs(t, err, ErrMissingParameter)
}

func TestBuild_Unsupported(t *testing.T) {
	tests := []struct {
		name   string
		op     Operation
		params Params
	}{
		{"Unknown Operation", Operation("compressPdf"), MergeParams{URLs: []string{"a"}}},
		{"Empty Operation", Operation(""), MergeParams{URLs: []string{"a"}}},
		{"Merge With Split Params", MergePdf, SplitParams{URL: "a", Strategy: EachPage{}}},
		{"Split With Merge Params", SplitPdf, MergeParams{URLs: []string{"a"}}},
		{"Nil Params", SplitPdf, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Build(tt.op, tt.params)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedOperation)
			assert.Empty(t, spec.Endpoint(), "no request may be produced on error")
		})
	}
}

func TestRequestSpec_Immutable(t *testing.T) {
	urls := []string{"a.pdf", "b.pdf"}
	spec, err := Build(MergePdf, MergeParams{URLs: urls})
	require.NoError(t, err)

	urls[0] = "mutated.pdf"
	body := spec.Body()
	body["output"] = "file"
	body["urls"].([]string)[1] = "mutated.pdf"

	assert.Equal(t, map[string]any{"urls": []string{"a.pdf", "b.pdf"}, "output": "url"}, spec.Body())
}

func TestPDFMunk_Build(t *testing.T) {
	p := PDFMunk{}

	spec, err := p.Build(MergePdf, MergeParams{URLs: []string{"a", "b"}, Output: OutputBase64})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"urls": []string{"a", "b"}}, spec.Body(), "pdfmunk takes no output field")

	spec, err = p.Build(SplitPdf, SplitParams{URL: "a", Strategy: Pages{Spec: "2-4"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"url": "a", "mode": "2-4"}, spec.Body())

	spec, err = p.Build(SplitPdf, SplitParams{URL: "a", Strategy: EachPage{}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"url": "a", "mode": "each"}, spec.Body())

	_, err = p.Build(SplitPdf, SplitParams{URL: "a", Strategy: Chunks{Count: 2}})
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
}

func TestLookupProvider(t *testing.T) {
	p, err := LookupProvider("")
	require.NoError(t, err)
	assert.Equal(t, "pdfapihub", p.Name())

	p, err = LookupProvider(" PDFMunk ")
	require.NoError(t, err)
	assert.Equal(t, "pdfmunk", p.Name())
	assert.Equal(t, "https://pdfmunk.com", p.DefaultBaseURL())

	_, err = LookupProvider("ilovepdf")
	assert.ErrorIs(t, err, ErrUnsupportedOperation)

	assert.Equal(t, []string{"pdfapihub", "pdfmunk"}, ProviderKinds())
}

func TestParseEnums(t *testing.T) {
	op, err := ParseOperation("splitPdf")
	require.NoError(t, err)
	assert.Equal(t, SplitPdf, op)
	_, err = ParseOperation("SPLIT")
	assert.ErrorIs(t, err, ErrUnsupportedOperation)

	out, err := ParseOutputFormat("")
	require.NoError(t, err)
	assert.Equal(t, OutputURL, out)
	out, err = ParseOutputFormat("Base64")
	require.NoError(t, err)
	assert.Equal(t, OutputBase64, out)
	_, err = ParseOutputFormat("zip")
	var unsupported *UnsupportedOperationError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "output format", unsupported.Kind)
}

func TestTestRequest(t *testing.T) {
	spec := PDFAPIHub{}.TestRequest()
	assert.Equal(t, MergeEndpoint, spec.Endpoint())
	assert.Len(t, spec.Body()["urls"], 2)
	assert.False(t, PDFMunk{}.TestRequest().Has("output"))
}
