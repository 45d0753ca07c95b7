// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gogama/gsclient/transient"
)

// JSON is the opaque JSON object carried by a Result.
type JSON = map[string]interface{}

// A Kind classifies the outcome of a request.
type Kind int

const (
	// OK indicates the server replied with a non-error status code.
	OK Kind = iota
	// TransportError indicates the server could not be reached or did
	// not reply in time.
	TransportError
	// ServerError indicates a 5XX status code or a malformed status.
	ServerError
	// PermanentError indicates a 4XX status code.
	PermanentError
	// CancellationError indicates the request was explicitly aborted.
	// It is never retried.
	CancellationError
	// LogicError indicates the request was submitted after the
	// transport was shut down.
	LogicError
)

var kindNames = []string{
	"OK",
	"TransportError",
	"ServerError",
	"PermanentError",
	"CancellationError",
	"LogicError",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// A Result is the outcome of a request attempt. Only the result of the
// final attempt is ever passed to a Callback.
type Result struct {
	// Kind classifies the outcome.
	Kind Kind

	// StatusCode is the HTTP status code, or zero if no response was
	// received.
	StatusCode int

	// Transport is the low-level transport error code. It is
	// transient.None if a response was received.
	Transport transient.Code

	// Err is the underlying error, if any. Whenever Err comes from the
	// HTTP layer, it has the type *url.Error.
	Err error

	// Payload is the JSON object returned by the server. It is never
	// nil.
	Payload JSON

	// Binary holds the response body of a successful binary download.
	Binary []byte

	// Obsolete indicates that the server flagged the called endpoint
	// as deprecated.
	Obsolete bool

	// Header holds the response headers, if a response was received.
	Header http.Header
}

// NewResult returns a result of the given kind with an empty payload.
func NewResult(k Kind) *Result {
	return &Result{Kind: k, Payload: JSON{}}
}

// NewLogicError returns a LogicError result carrying a description.
func NewLogicError(description string) *Result {
	r := NewResult(LogicError)
	r.Payload["_description"] = description
	return r
}

// Success indicates whether the result is OK with a 2XX status code.
func (r *Result) Success() bool {
	return r.Kind == OK && r.StatusCode >= 200 && r.StatusCode < 300
}

// String returns the payload as compact JSON.
func (r *Result) String() string {
	b, err := json.Marshal(r.Payload)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// GetString returns the string value at key in the payload, or the
// empty string if there is none.
func (r *Result) GetString(key string) string {
	if s, ok := r.Payload[key].(string); ok {
		return s
	}
	return ""
}

// Clone returns a deep copy of the result. The binary blob is shared.
func (r *Result) Clone() *Result {
	r2 := new(Result)
	*r2 = *r
	r2.Payload = cloneJSON(r.Payload)
	if r.Header != nil {
		r2.Header = r.Header.Clone()
	}
	return r2
}

// ParsePayload converts a response body into a payload following the
// rule that a payload is always a JSON object: an object is used as is,
// any other JSON value v is wrapped as {"value": v}, and an empty or
// malformed body yields an empty object.
func ParsePayload(b []byte) JSON {
	var v interface{}
	if len(b) == 0 || json.Unmarshal(b, &v) != nil {
		return JSON{}
	}
	switch x := v.(type) {
	case map[string]interface{}:
		return x
	case nil:
		return JSON{}
	default:
		return JSON{"value": x}
	}
}

// KindOf classifies a transport code and status code.
func KindOf(code transient.Code, status int) Kind {
	switch {
	case code == transient.Cancelled:
		return CancellationError
	case code != transient.None:
		return TransportError
	case status >= 500 || status < 100:
		return ServerError
	case status >= 400:
		return PermanentError
	default:
		return OK
	}
}

func cloneJSON(m JSON) JSON {
	if m == nil {
		return JSON{}
	}
	m2 := make(JSON, len(m))
	for k, v := range m {
		m2[k] = cloneValue(v)
	}
	return m2
}

func cloneValue(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		return cloneJSON(x)
	case []interface{}:
		a := make([]interface{}, len(x))
		for i := range x {
			a[i] = cloneValue(x[i])
		}
		return a
	default:
		return x
	}
}
