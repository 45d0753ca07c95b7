// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"github.com/gogama/gsclient/request"
)

var (
	never              DeciderFunc = func(_ *request.Execution) bool { return false }
	allErrors                      = NotCancelled.And(AnyError)
	nonpermanentErrors             = NotCancelled.And(Nonpermanent)
)

// ForPolicy returns the decider implementing a request retry policy.
// Cancellation is never retried, whatever the policy. An unknown policy
// is treated as request.NonpermanentErrors.
func ForPolicy(p request.RetryPolicy) Decider {
	switch p {
	case request.Never:
		return never
	case request.AllErrors:
		return allErrors
	default:
		return nonpermanentErrors
	}
}

// Decide applies the retry policy of the execution's request to the
// most recent attempt.
func Decide(e *request.Execution) bool {
	return ForPolicy(e.Request.RetryPolicy).Decide(e)
}
