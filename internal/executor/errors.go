package executor

import (
	"errors"
	"fmt"
)

// ErrHTTP matches every *HTTPError via errors.Is.
var ErrHTTP = errors.New("http request failed")

// HTTPError reports a failed call: a non-2xx status, a transport failure
// (StatusCode 0) or a 2xx response whose body is not JSON.
type HTTPError struct {
	StatusCode int
	Message    string
	Err        error // transport cause, if any
}

func (e *HTTPError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("request failed: %s", e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *HTTPError) Is(target error) bool { return target == ErrHTTP }

func (e *HTTPError) Unwrap() error { return e.Err }
