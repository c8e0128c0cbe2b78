package batch

import (
	"encoding/json"
	"fmt"
)

// ItemState tracks one work item through a run.
type ItemState int

const (
	Pending ItemState = iota
	Building
	Executing
	Succeeded
	Failed
)

func (s ItemState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Building:
		return "building"
	case Executing:
		return "executing"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("ItemState(%d)", int(s))
}

// ItemResult is the outcome of one item. Response is set when State is
// Succeeded, Err when it is Failed.
type ItemResult struct {
	Index    int
	State    ItemState
	Response json.RawMessage
	Err      error
}

type pairedItem struct {
	Item int `json:"item"`
}

type renderedResult struct {
	JSON       any        `json:"json"`
	PairedItem pairedItem `json:"pairedItem"`
}

// MarshalJSON renders {"json": <response>, "pairedItem": {"item": i}}.
// A failed item renders its error message as {"json": {"error": msg}}.
func (r ItemResult) MarshalJSON() ([]byte, error) {
	out := renderedResult{PairedItem: pairedItem{Item: r.Index}}
	switch {
	case r.State == Failed && r.Err != nil:
		out.JSON = map[string]string{"error": r.Err.Error()}
	case len(r.Response) > 0:
		out.JSON = r.Response
	default:
		out.JSON = map[string]any{}
	}
	return json.Marshal(out)
}

// Report collects the results of one run, ordered by item index.
type Report struct {
	RunID   string
	Results []ItemResult
}

// Succeeded counts successful items.
func (r *Report) Succeeded() int { return r.count(Succeeded) }

// Failed counts failed items.
func (r *Report) Failed() int { return r.count(Failed) }

func (r *Report) count(state ItemState) int {
	n := 0
	for _, res := range r.Results {
		if res.State == state {
			n++
		}
	}
	return n
}

// MarshalJSON renders the results as a JSON array.
func (r *Report) MarshalJSON() ([]byte, error) {
	if r.Results == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.Results)
}

// ItemError aborts a run under the stop policy. It wraps the failing item's cause.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d failed: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
