// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"
)

// A RetryPolicy selects the conditions under which a failed request
// attempt is automatically retried before the request's callback is
// invoked.
type RetryPolicy int

const (
	// NonpermanentErrors retries when the server could not be reached,
	// the attempt timed out, the server closed the connection without
	// replying, or the server replied with a 5XX status code. It is the
	// zero value and the recommended policy.
	NonpermanentErrors RetryPolicy = iota
	// AllErrors retries on any transport error and on any status code
	// outside the 2XX range.
	AllErrors
	// Never disables automatic retry.
	Never
)

var retryPolicyNames = []string{
	"NonpermanentErrors",
	"AllErrors",
	"Never",
}

// String returns the name of the retry policy.
func (p RetryPolicy) String() string {
	if p < 0 || int(p) >= len(retryPolicyNames) {
		return fmt.Sprintf("RetryPolicy(%d)", int(p))
	}
	return retryPolicyNames[p]
}

// A Callback receives the final Result of a Request. The transport
// invokes it exactly once per submitted Request, always on the goroutine
// that drains the callback queue.
type Callback func(r *Result)

// A Request describes a logical call to the game-services API.
//
// A Request is owned by the transport from the moment it is submitted
// until its Callback fires. Retries reuse the Request's fields; a
// Request must not be submitted twice.
type Request struct {
	// Method specifies the HTTP method. An empty string means POST if
	// the request has a JSON body or binary upload data, and GET
	// otherwise.
	Method string

	// URL is the path and query of the call, relative to the base URL
	// selected by the load balancer. A URL that begins with "http://"
	// or "https://" is used as is.
	URL string

	// Header contains extra request header fields. Credential headers
	// are stamped by the transport and need not be set here.
	Header http.Header

	// Body is an optional JSON body. It may be any value encodable by
	// encoding/json. It is encoded once, when the first attempt is
	// made.
	Body interface{}

	// Data is an optional binary upload payload. A non-nil Data puts
	// the request in binary upload mode and takes precedence over Body.
	Data []byte

	// BinaryDownload requests that a successful response body be kept
	// verbatim in Result.Binary instead of being parsed as JSON.
	BinaryDownload bool

	// ConnectTimeout bounds the time spent establishing a connection.
	// Zero means the client default.
	ConnectTimeout time.Duration

	// Timeout bounds each attempt as a whole. Zero means the client's
	// timeout policy decides.
	Timeout time.Duration

	// RetryPolicy decides which failures are retried.
	RetryPolicy RetryPolicy

	// Cancel is an optional cancellation flag shared with other
	// goroutines. Setting it aborts the in-flight attempt and prevents
	// any further retry.
	Cancel *Flag

	// Callback receives the final result. It is required for requests
	// submitted to the asynchronous dispatcher.
	Callback Callback

	body []byte
}

// NewRequest returns a new Request given a method, URL, and optional
// JSON body.
func NewRequest(method, url string, body interface{}) (*Request, error) {
	if method != "" && !validMethod(method) {
		return nil, fmt.Errorf("gsclient/request: invalid method %q", method)
	}
	if url == "" {
		return nil, fmt.Errorf("gsclient/request: empty URL")
	}
	return &Request{
		Method: method,
		URL:    url,
		Header: make(http.Header),
		Body:   body,
	}, nil
}

// SetData puts the request in binary upload mode. The data parameter
// may be any of the types accepted by BodyBytes.
func (r *Request) SetData(data interface{}) error {
	b, err := BodyBytes(data)
	if err != nil {
		return err
	}
	if b == nil {
		b = []byte{}
	}
	r.Data = b
	return nil
}

// BinaryUpload indicates whether the request uploads binary data.
func (r *Request) BinaryUpload() bool {
	return r.Data != nil
}

// EffectiveMethod returns the HTTP method that will be sent.
func (r *Request) EffectiveMethod() string {
	if r.Method != "" {
		return r.Method
	}
	if r.Body != nil || r.Data != nil {
		return "POST"
	}
	return "GET"
}

// Absolute indicates whether URL bypasses the load balancer.
func (r *Request) Absolute() bool {
	return strings.HasPrefix(r.URL, "http://") || strings.HasPrefix(r.URL, "https://")
}

// Cancelled reports whether the request's cancellation flag is set.
func (r *Request) Cancelled() bool {
	return r.Cancel != nil && r.Cancel.IsSet()
}

// EncodedBody returns the bytes to send as the request body, encoding
// the JSON body on first use. The second return value is true if the
// body is JSON.
func (r *Request) EncodedBody() ([]byte, bool, error) {
	if r.Data != nil {
		return r.Data, false, nil
	}
	if r.Body == nil {
		return nil, false, nil
	}
	if r.body == nil {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return nil, true, err
		}
		r.body = b
	}
	return r.body, true, nil
}

// SetBasicAuth sets the request's Authorization header to use HTTP
// Basic Authentication with the provided username and password.
func (r *Request) SetBasicAuth(username, password string) {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set("Authorization", BasicAuth(username, password))
}

// BasicAuth returns the value of a Basic Authorization header for the
// given credentials.
func BasicAuth(username, password string) string {
	auth := username + ":" + password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(auth))
}

func validMethod(method string) bool {
	return strings.IndexFunc(method, func(r rune) bool {
		return !httpguts.IsTokenRune(r)
	}) == -1
}
