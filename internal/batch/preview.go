package batch

import (
	"encoding/json"

	"pdfbatch/internal/params"
	"pdfbatch/internal/pdfapi"
)

// Preview is the request an item would send, or the reason it cannot be built.
type Preview struct {
	Index    int
	Endpoint string
	Body     map[string]any
	Err      error
}

// MarshalJSON renders {"item": i, "endpoint": ..., "body": ...} or {"item": i, "error": msg}.
func (p Preview) MarshalJSON() ([]byte, error) {
	if p.Err != nil {
		return json.Marshal(struct {
			Item  int    `json:"item"`
			Error string `json:"error"`
		}{p.Index, p.Err.Error()})
	}
	return json.Marshal(struct {
		Item     int            `json:"item"`
		Endpoint string         `json:"endpoint"`
		Body     map[string]any `json:"body"`
	}{p.Index, p.Endpoint, p.Body})
}

// PreviewItems resolves and builds every item without sending anything.
// Failures are reported per item; all items are always previewed.
func PreviewItems(provider pdfapi.Provider, items []params.WorkItem) []Preview {
	if provider == nil {
		provider = pdfapi.PDFAPIHub{}
	}
	previews := make([]Preview, 0, len(items))
	for _, item := range items {
		pv := Preview{Index: item.Index}
		p, err := params.ResolveParams(item)
		if err == nil {
			var spec pdfapi.RequestSpec
			spec, err = provider.Build(p.Operation(), p)
			pv.Endpoint = spec.Endpoint()
			pv.Body = spec.Body()
		}
		pv.Err = err
		previews = append(previews, pv)
	}
	return previews
}
