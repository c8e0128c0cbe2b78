package pdfapi

import (
	"fmt"
	"sort"
	"strings"
)

// Endpoint paths shared by the supported providers.
const (
	MergeEndpoint = "/api/v1/pdf/merge"
	SplitEndpoint = "/api/v1/pdf/split"
)

// Provider turns typed parameters into a request for one remote PDF API.
// Providers differ in which body fields they accept.
type Provider interface {
	// Name is the provider kind used in configuration.
	Name() string
	// DefaultBaseURL is used when the configuration leaves base_url empty.
	DefaultBaseURL() string
	// Build maps an operation and its parameters to a request.
	Build(op Operation, params Params) (RequestSpec, error)
	// TestRequest is the request used to check that a credential works.
	TestRequest() RequestSpec
}

// Build constructs the request for op using the default PDF API Hub provider.
func Build(op Operation, params Params) (RequestSpec, error) {
	return PDFAPIHub{}.Build(op, params)
}

// PDFAPIHub supports output format selection and all three split strategies.
type PDFAPIHub struct{}

func (PDFAPIHub) Name() string           { return "pdfapihub" }
func (PDFAPIHub) DefaultBaseURL() string { return "https://pdfapihub.com" }

func (PDFAPIHub) Build(op Operation, params Params) (RequestSpec, error) {
	switch op {
	case MergePdf:
		p, err := mergeParams(op, params)
		if err != nil {
			return RequestSpec{}, err
		}
		return NewRequestSpec(MergeEndpoint, map[string]any{
			"urls":   p.URLs,
			"output": string(outputOrDefault(p.Output)),
		}), nil

	case SplitPdf:
		p, err := splitParams(op, params)
		if err != nil {
			return RequestSpec{}, err
		}
		body := map[string]any{
			"url":    p.URL,
			"output": string(outputOrDefault(p.Output)),
		}
		switch s := p.Strategy.(type) {
		case Pages:
			if s.Spec == "" {
				return RequestSpec{}, &MissingParameterError{Name: "pages"}
			}
			body["pages"] = s.Spec
		case EachPage:
			body["mode"] = "each"
		case Chunks:
			body["chunks"] = s.Count
		default:
			return RequestSpec{}, &UnsupportedOperationError{Kind: "split type", Value: fmt.Sprintf("%T", p.Strategy)}
		}
		return NewRequestSpec(SplitEndpoint, body), nil
	}
	return RequestSpec{}, &UnsupportedOperationError{Kind: "operation", Value: string(op)}
}

func (PDFAPIHub) TestRequest() RequestSpec {
	return NewRequestSpec(MergeEndpoint, map[string]any{
		"urls":   []string{"https://pdfapihub.com/sample1.pdf", "https://pdfapihub.com/sample1.pdf"},
		"output": string(OutputURL),
	})
}

// PDFMunk has no output format choice and a single free-text split mode.
// Pages maps to the range expression itself and EachPage to "each".
type PDFMunk struct{}

func (PDFMunk) Name() string           { return "pdfmunk" }
func (PDFMunk) DefaultBaseURL() string { return "https://pdfmunk.com" }

func (PDFMunk) Build(op Operation, params Params) (RequestSpec, error) {
	switch op {
	case MergePdf:
		p, err := mergeParams(op, params)
		if err != nil {
			return RequestSpec{}, err
		}
		return NewRequestSpec(MergeEndpoint, map[string]any{"urls": p.URLs}), nil

	case SplitPdf:
		p, err := splitParams(op, params)
		if err != nil {
			return RequestSpec{}, err
		}
		var mode string
		switch s := p.Strategy.(type) {
		case Pages:
			if s.Spec == "" {
				return RequestSpec{}, &MissingParameterError{Name: "pages"}
			}
			mode = s.Spec
		case EachPage:
			mode = "each"
		default:
			return RequestSpec{}, &UnsupportedOperationError{Kind: "split type", Value: SplitTypeName(p.Strategy) + " (pdfmunk)"}
		}
		return NewRequestSpec(SplitEndpoint, map[string]any{"url": p.URL, "mode": mode}), nil
	}
	return RequestSpec{}, &UnsupportedOperationError{Kind: "operation", Value: string(op)}
}

func (PDFMunk) TestRequest() RequestSpec {
	return NewRequestSpec(MergeEndpoint, map[string]any{
		"urls": []string{"https://example.com/a.pdf", "https://example.com/b.pdf"},
	})
}

var providers = map[string]Provider{
	PDFAPIHub{}.Name(): PDFAPIHub{},
	PDFMunk{}.Name():   PDFMunk{},
}

// LookupProvider finds a provider by kind. Empty selects pdfapihub.
func LookupProvider(kind string) (Provider, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		return PDFAPIHub{}, nil
	}
	p, ok := providers[kind]
	if !ok {
		return nil, &UnsupportedOperationError{Kind: "provider", Value: kind}
	}
	return p, nil
}

// ProviderKinds lists the known provider kinds, sorted.
func ProviderKinds() []string {
	kinds := make([]string, 0, len(providers))
	for k := range providers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func mergeParams(op Operation, params Params) (MergeParams, error) {
	var p MergeParams
	switch v := params.(type) {
	case MergeParams:
		p = v
	case *MergeParams:
		if v != nil {
			p = *v
		}
	default:
		return p, mismatch(op, params)
	}
	if len(p.URLs) == 0 {
		return p, &MissingParameterError{Name: "urls", Reason: "at least one URL is required"}
	}
	return p, nil
}

func splitParams(op Operation, params Params) (SplitParams, error) {
	var p SplitParams
	switch v := params.(type) {
	case SplitParams:
		p = v
	case *SplitParams:
		if v != nil {
			p = *v
		}
	default:
		return p, mismatch(op, params)
	}
	if p.URL == "" {
		return p, &MissingParameterError{Name: "url"}
	}
	if p.Strategy == nil {
		return p, &MissingParameterError{Name: "splitType"}
	}
	return p, nil
}

func mismatch(op Operation, params Params) error {
	return &UnsupportedOperationError{Kind: "operation", Value: fmt.Sprintf("%s with %T", op, params)}
}

func outputOrDefault(o OutputFormat) OutputFormat {
	if o == "" {
		return DefaultOutput
	}
	return o
}
