// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"github.com/gogama/gsclient/request"
	"github.com/gogama/gsclient/transient"
)

// A Decider decides if a failed attempt should be retried.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines, since the asynchronous dispatcher and any number
// of synchronous runners may consult the same decider.
type Decider interface {
	Decide(e *request.Execution) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It implements the Decider interface, and
// also provides the logical composition methods And and Or.
type DeciderFunc func(e *request.Execution) bool

// Nonpermanent is a decider that indicates a retry if the most recent
// attempt failed in a way that may not recur: the transport error code
// belongs to the non-permanent set (see transient.Code.Nonpermanent),
// or the server replied with a 5XX status code or a malformed status
// code below 100.
var Nonpermanent DeciderFunc = nonpermanent

// AnyError is a decider that indicates a retry on any transport error
// and on any status code outside the 2XX range.
var AnyError DeciderFunc = anyError

// NotCancelled is a decider that returns false once the execution's
// request has been cancelled, either because its cancellation flag is
// set or because the attempt itself was aborted.
var NotCancelled DeciderFunc = notCancelled

// Decide returns true if a retry should be done, and false otherwise,
// after examining the current execution state.
func (f DeciderFunc) Decide(e *request.Execution) bool {
	return f(e)
}

// And composes two retry deciders into a new decider which returns true
// if both sub-deciders return true, and false otherwise.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) && g(e)
	}
}

// Or composes two retry deciders into a new decider which returns
// true if either of the two sub-deciders returns true, but false if
// they both return false.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) || g(e)
	}
}

// StatusCode constructs a retry decider allowing retries based on the
// HTTP response status code. If the most recent attempt received a
// valid HTTP response, and the response status code is contained in
// the list ss, the decider returns true. Otherwise, it returns false.
func StatusCode(ss ...int) DeciderFunc {
	ss2 := make([]int, len(ss))
	copy(ss2, ss)
	return func(e *request.Execution) bool {
		for _, s := range ss2 {
			if e.StatusCode() == s {
				return true
			}
		}
		return false
	}
}

// IsNonpermanent reports whether a transport code and status code pair
// describes a non-permanent failure.
func IsNonpermanent(code transient.Code, status int) bool {
	if code != transient.None {
		return code.Nonpermanent()
	}
	return (status >= 500 && status < 600) || status < 100
}

func nonpermanent(e *request.Execution) bool {
	return IsNonpermanent(transient.Categorize(e.Err), e.StatusCode())
}

func anyError(e *request.Execution) bool {
	if e.Err != nil {
		return true
	}
	s := e.StatusCode()
	return s < 200 || s >= 300
}

func notCancelled(e *request.Execution) bool {
	return !e.Request.Cancelled() && transient.Categorize(e.Err) != transient.Cancelled
}
