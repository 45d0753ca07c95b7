// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gsclient

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Client to observe or extend the
// dispatcher and the runner.
type Event int

const (
	// BeforeExecutionStart identifies the event that occurs before the
	// first attempt of a request is made.
	//
	// When the transport fires BeforeExecutionStart, the execution is
	// non-nil but the only fields that have been set are the request
	// and the Synchronous flag.
	BeforeExecutionStart Event = iota
	// BeforeAttempt identifies the event that occurs before each
	// individual attempt of a request.
	//
	// When the transport fires BeforeAttempt, the execution's URL,
	// LoadBalancer and HTTPRequest fields are set. The HTTP request has
	// its headers stamped and WILL BE sent after all BeforeAttempt
	// handlers have finished.
	BeforeAttempt
	// BeforeReadBody identifies the event that occurs after an attempt
	// has resulted in an HTTP response (as opposed to an error) but
	// before the response body is read and buffered.
	BeforeReadBody
	// AfterAttemptTimeout identifies the event that occurs after an
	// attempt failed because of a timeout error.
	//
	// When the transport fires AfterAttemptTimeout, the execution's
	// error field is set to the timeout error, and its attempt timeout
	// counter has been incremented.
	AfterAttemptTimeout
	// AfterAttempt identifies the event that occurs after an attempt is
	// concluded, regardless of whether it concluded successfully or
	// not. The execution's Result field holds the attempt's result.
	//
	// Note that AfterAttempt runs before the retry policy is consulted.
	AfterAttempt
	// BeforeRetry identifies the event that occurs after a failed
	// attempt has been judged retriable and a wait has been chosen,
	// but before the wait starts.
	BeforeRetry
	// AfterExecutionEnd identifies the event that occurs after the
	// final attempt, once the execution's end time is set. The
	// execution's Result is the one delivered to the caller.
	//
	// AfterExecutionEnd does not fire for requests discarded at
	// shutdown.
	AfterExecutionEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel
	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeExecutionStart",
	"BeforeAttempt",
	"BeforeReadBody",
	"AfterAttemptTimeout",
	"AfterAttempt",
	"BeforeRetry",
	"AfterExecutionEnd",
}

// Events returns a slice containing all events which can occur in a
// request execution, in the order in which they would occur.
func Events() []Event {
	return []Event{
		BeforeExecutionStart,
		BeforeAttempt,
		BeforeReadBody,
		AfterAttemptTimeout,
		AfterAttempt,
		BeforeRetry,
		AfterExecutionEnd,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
