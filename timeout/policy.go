// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/gogama/gsclient/request"
)

// A Policy decides the overall timeout of each request attempt. A
// return value of zero or less means the attempt has no deadline, and
// is only bounded by the connect timeout and by cancellation.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeout returns the timeout to set on the next attempt of the
	// execution e.
	Timeout(e *request.Execution) time.Duration
}

// Infinite is a built-in timeout policy which never times out.
var Infinite Policy = Fixed(0)

// DefaultPolicy is the default timeout policy. It honours the
// request's own Timeout and otherwise sets no deadline.
var DefaultPolicy = FromRequest(Infinite)

// Fixed constructs a timeout policy that uses the same value to set
// every attempt timeout.
func Fixed(d time.Duration) Policy {
	return fixed(d)
}

type fixed time.Duration

func (p fixed) Timeout(_ *request.Execution) time.Duration {
	return time.Duration(p)
}

// FromRequest constructs a timeout policy which uses the Timeout field
// of the request being executed when it is positive, and defers to
// fallback otherwise.
//
// FromRequest panics if fallback is nil.
func FromRequest(fallback Policy) Policy {
	if fallback == nil {
		panic("gsclient/timeout: nil fallback")
	}
	return fromRequest{fallback}
}

type fromRequest struct {
	fallback Policy
}

func (p fromRequest) Timeout(e *request.Execution) time.Duration {
	if e.Request != nil && e.Request.Timeout > 0 {
		return e.Request.Timeout
	}
	return p.fallback.Timeout(e)
}
