// Package params resolves the loosely typed parameters of a work item into
// the typed pdfapi.Params union.
package params

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"pdfbatch/internal/pdfapi"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Parameter names read from each item. Nested names use gjson path syntax.
const (
	ParamOperation = "operation"
	ParamURLs      = "urls"
	ParamURL       = "url"
	ParamSplitType = "splitType"
	ParamPages     = "pages"
	ParamChunks    = "chunks"
	ParamOutput    = "additionalOptions.output"
)

// Defaults applied when an item leaves an optional parameter unset.
const (
	DefaultSplitType = "pages"
	DefaultChunks    = 2
)

// WorkItem is one indexed unit of a batch. Params holds the item's raw
// parameter object; lookups are scoped to it.
type WorkItem struct {
	Index  int
	Params gjson.Result
}

// NewWorkItem encodes params as JSON and wraps them for lookup.
func NewWorkItem(index int, params map[string]any) (WorkItem, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return WorkItem{}, fmt.Errorf("item %d: failed to encode parameters: %w", index, err)
	}
	return WorkItem{Index: index, Params: gjson.ParseBytes(raw)}, nil
}

// Lookup returns the named parameter. Missing and JSON null both report false.
func (w WorkItem) Lookup(name string) (gjson.Result, bool) {
	r := w.Params.Get(name)
	if !r.Exists() || r.Type == gjson.Null {
		return r, false
	}
	return r, true
}

// LoadItems decodes a YAML or JSON document holding either a list of
// parameter objects or a mapping with an "items" list.
func LoadItems(data []byte) ([]WorkItem, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse items: %w", err)
	}

	var list []any
	switch v := doc.(type) {
	case nil:
		return nil, nil
	case []any:
		list = v
	case map[string]any:
		raw, ok := v["items"]
		if !ok {
			return nil, fmt.Errorf("items document is a mapping without an 'items' list")
		}
		if list, ok = raw.([]any); !ok && raw != nil {
			return nil, fmt.Errorf("'items' must be a list, got %T", raw)
		}
	default:
		return nil, fmt.Errorf("items document must be a list or a mapping, got %T", doc)
	}

	items := make([]WorkItem, 0, len(list))
	for i, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("item %d: parameters must be a mapping, got %T", i, entry)
		}
		item, err := NewWorkItem(i, m)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Resolve reads one parameter of item. If it is absent, the first default is
// returned; without a default the result is a *pdfapi.MissingParameterError.
func Resolve(item WorkItem, name string, defaultValue ...any) (gjson.Result, error) {
	if r, ok := item.Lookup(name); ok {
		return r, nil
	}
	if len(defaultValue) == 0 {
		return gjson.Result{}, &pdfapi.MissingParameterError{Name: name}
	}
	raw, err := json.Marshal(defaultValue[0])
	if err != nil {
		return gjson.Result{}, fmt.Errorf("invalid default for parameter '%s': %w", name, err)
	}
	return gjson.ParseBytes(raw), nil
}

// ResolveParams reads the operation first and then only the parameters
// that operation uses.
func ResolveParams(item WorkItem) (pdfapi.Params, error) {
	opRes, err := Resolve(item, ParamOperation)
	if err != nil {
		return nil, err
	}
	op, err := pdfapi.ParseOperation(opRes.String())
	if err != nil {
		return nil, err
	}

	outRes, err := Resolve(item, ParamOutput, string(pdfapi.DefaultOutput))
	if err != nil {
		return nil, err
	}
	output, err := pdfapi.ParseOutputFormat(outRes.String())
	if err != nil {
		return nil, err
	}

	switch op {
	case pdfapi.MergePdf:
		urlsRes, err := Resolve(item, ParamURLs)
		if err != nil {
			return nil, err
		}
		urls, err := stringList(ParamURLs, urlsRes)
		if err != nil {
			return nil, err
		}
		if len(urls) == 0 {
			return nil, &pdfapi.MissingParameterError{Name: ParamURLs, Reason: "at least one URL is required"}
		}
		return pdfapi.MergeParams{URLs: urls, Output: output}, nil

	case pdfapi.SplitPdf:
		urlRes, err := Resolve(item, ParamURL)
		if err != nil {
			return nil, err
		}
		pdfURL := strings.TrimSpace(urlRes.String())
		if pdfURL == "" {
			return nil, &pdfapi.MissingParameterError{Name: ParamURL, Reason: "must not be empty"}
		}
		strategy, err := resolveStrategy(item)
		if err != nil {
			return nil, err
		}
		return pdfapi.SplitParams{URL: pdfURL, Strategy: strategy, Output: output}, nil
	}
	return nil, &pdfapi.UnsupportedOperationError{Kind: "operation", Value: string(op)}
}

func resolveStrategy(item WorkItem) (pdfapi.SplitStrategy, error) {
	typeRes, err := Resolve(item, ParamSplitType, DefaultSplitType)
	if err != nil {
		return nil, err
	}
	switch splitType := strings.TrimSpace(typeRes.String()); splitType {
	case "pages":
		// No default: an unset range is a caller error, not "all pages".
		pagesRes, err := Resolve(item, ParamPages)
		if err != nil {
			return nil, err
		}
		spec := strings.TrimSpace(pagesRes.String())
		if spec == "" {
			return nil, &pdfapi.MissingParameterError{Name: ParamPages, Reason: "must not be empty"}
		}
		return pdfapi.Pages{Spec: spec}, nil
	case "each":
		return pdfapi.EachPage{}, nil
	case "chunks":
		chunksRes, err := Resolve(item, ParamChunks, DefaultChunks)
		if err != nil {
			return nil, err
		}
		// Range checks are left to the remote API; only the type is enforced here.
		if chunksRes.Type != gjson.Number || chunksRes.Num != math.Trunc(chunksRes.Num) {
			return nil, &pdfapi.MissingParameterError{Name: ParamChunks, Reason: fmt.Sprintf("must be an integer, got %s", chunksRes.Raw)}
		}
		return pdfapi.Chunks{Count: int(chunksRes.Int())}, nil
	default:
		return nil, &pdfapi.UnsupportedOperationError{Kind: "split type", Value: splitType}
	}
}

// stringList accepts an array of strings or a single string. Elements of any
// other type are rejected rather than coerced.
func stringList(name string, r gjson.Result) ([]string, error) {
	if !r.IsArray() {
		if r.Type != gjson.String {
			return nil, &pdfapi.MissingParameterError{Name: name, Reason: fmt.Sprintf("must be a string or a list of strings, got %s", r.Raw)}
		}
		if s := strings.TrimSpace(r.Str); s != "" {
			return []string{s}, nil
		}
		return nil, nil
	}
	elems := r.Array()
	out := make([]string, 0, len(elems))
	for i, e := range elems {
		s := strings.TrimSpace(e.Str)
		if e.Type != gjson.String || s == "" {
			return nil, &pdfapi.MissingParameterError{Name: name, Reason: fmt.Sprintf("element %d must be a non-empty string, got %s", i, e.Raw)}
		}
		out = append(out, s)
	}
	return out, nil
}
