// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/http"
	"time"

	"github.com/gogama/gsclient/transient"
)

// An Execution represents the state of a single Request execution,
// which spans every attempt made for the request.
//
// An Execution is created when the transport starts working on a
// Request and is updated as attempts are made. It is handed to event
// handlers, timeout policies and retry deciders. They should treat the
// exported fields as read-only, with the exception that BeforeAttempt
// handlers may make reasonable changes to HTTPRequest before it is sent.
type Execution struct {
	// Request is the request being executed. It is never nil.
	Request *Request

	// Synchronous is true when the request is executed by the blocking
	// runner rather than the asynchronous dispatcher.
	Synchronous bool

	// Start is the start time of the execution.
	Start time.Time

	// End is the end time of the execution. It contains the zero value
	// until the execution ends.
	End time.Time

	// Attempt is the zero-based number of the current attempt.
	Attempt int

	// AttemptTimeouts counts the attempts which ended in a timeout.
	AttemptTimeouts int

	// LoadBalancer is the load balancer ID used by the current attempt,
	// or zero if the request URL is absolute.
	LoadBalancer int

	// URL is the absolute URL of the current attempt.
	URL string

	// HTTPRequest is the HTTP request of the current attempt.
	HTTPRequest *http.Request

	// Response is the HTTP response received in the most recent
	// attempt. It is nil if the attempt ended in a transport error.
	Response *http.Response

	// Err is the error of the most recent attempt, if any. Whenever Err
	// is non-nil, it has the type *url.Error.
	Err error

	// Body is the complete response body of the most recent attempt.
	Body []byte

	// Result is the result of the most recent attempt. It is nil while
	// an attempt is underway.
	Result *Result

	data context.Context
}

// StatusCode returns the status code of the most recent HTTP response,
// or 0 if there is none.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.StatusCode
}

// Header returns the headers of the most recent HTTP response, or the
// nil header if there is none.
func (e *Execution) Header() http.Header {
	if e.Response == nil {
		var nilHeader http.Header
		return nilHeader
	}

	return e.Response.Header
}

// Duration returns the duration of the execution. It is zero before
// the execution starts and static after it ends.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}

	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return !e.Start.IsZero()
}

// Ended indicates whether the execution has ended.
func (e *Execution) Ended() bool {
	return !e.End.IsZero()
}

// Timeout indicates whether Err currently contains a timeout.
func (e *Execution) Timeout() bool {
	return transient.Categorize(e.Err) == transient.Timeout
}

// SetValue allows event handlers to store arbitrary data in the
// execution. The key must follow the same rules as the key parameter
// of context.WithValue.
func (e *Execution) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}

	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this execution for key,
// or nil if there is no value associated with key.
func (e *Execution) Value(key interface{}) interface{} {
	ctx := e.data
	if ctx == nil {
		return nil
	}

	return ctx.Value(key)
}
