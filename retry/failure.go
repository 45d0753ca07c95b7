// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"fmt"
	"time"

	"github.com/gogama/gsclient/request"
)

// A Decision is the answer a FailureDelegate gives about a failed
// attempt.
type Decision int

const (
	// Undecided means the delegate returned without calling Abort or
	// RetryIn. The dispatcher logs this and treats it as Abort.
	Undecided Decision = iota
	// Abort delivers the failure to the request's callback.
	Abort
	// Retry waits for the chosen delay and tries again.
	Retry
)

func (d Decision) String() string {
	switch d {
	case Undecided:
		return "Undecided"
	case Abort:
		return "Abort"
	case Retry:
		return "Retry"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// A Failure describes a retriable failure of an asynchronous request and
// collects the FailureDelegate's decision about it.
//
// Exactly one of Abort or RetryIn should be called. If both are called,
// the last call wins.
type Failure struct {
	// URL is the absolute URL of the failed attempt.
	URL string

	// Data is free for the delegate to use. Its value is carried over
	// from one failure of a request to the next, and is reset when the
	// dispatcher moves on to another request.
	Data interface{}

	// Attempt is the zero-based number of the failed attempt.
	Attempt int

	// Result is the result of the failed attempt. It is delivered to
	// the request's callback if the delegate aborts.
	Result *request.Result

	decision Decision
	delay    time.Duration
}

// A FailureDelegate is consulted instead of the backoff table when an
// asynchronous request fails in a retriable way. It must call either
// Abort or RetryIn on the failure before returning.
//
// The delegate runs on the dispatcher goroutine, so it should return
// promptly; the wait itself is done by the dispatcher.
type FailureDelegate func(f *Failure)

// Abort gives up on the request.
func (f *Failure) Abort() {
	f.decision = Abort
	f.delay = 0
}

// RetryIn retries the request after d. A negative d is treated as zero.
func (f *Failure) RetryIn(d time.Duration) {
	if d < 0 {
		d = 0
	}
	f.decision = Retry
	f.delay = d
}

// Decision returns the decision taken on the failure and, for Retry,
// the delay.
func (f *Failure) Decision() (Decision, time.Duration) {
	return f.decision, f.delay
}

// Reset clears the decision so the failure can be handed to a delegate
// again. Data is preserved.
func (f *Failure) Reset() {
	f.decision = Undecided
	f.delay = 0
}
