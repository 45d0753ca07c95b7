// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"
)

// A Table is a backoff table: the wait before each retry is looked up
// by a backoff index which advances as consecutive failures pile up.
//
// Entries come in pairs so that, with load balancer rotation on every
// other failure, each endpoint is tried twice at the same delay before
// the delay grows.
type Table []time.Duration

// DefaultTable is the backoff table used when a client does not
// specify its own. Once the index runs past the last entry the failure
// is delivered to the caller.
var DefaultTable = Table{
	1 * time.Millisecond,
	1 * time.Millisecond,
	400 * time.Millisecond,
	400 * time.Millisecond,
	800 * time.Millisecond,
	800 * time.Millisecond,
	1600 * time.Millisecond,
	1600 * time.Millisecond,
	3200 * time.Millisecond,
	3200 * time.Millisecond,
	6400 * time.Millisecond,
	6400 * time.Millisecond,
}

// NewTable constructs a backoff table from the given delays.
//
// NewTable panics if no delay is given or any delay is negative.
func NewTable(delays ...time.Duration) Table {
	if len(delays) == 0 {
		panic("gsclient/retry: empty backoff table")
	}
	t := make(Table, len(delays))
	for i, d := range delays {
		if d < 0 {
			panic("gsclient/retry: negative backoff delay")
		}
		t[i] = d
	}
	return t
}

// At returns the delay at index i. The second return value is false if
// i is past the end of the table, meaning the caller should give up.
func (t Table) At(i int) (time.Duration, bool) {
	if i < 0 || i >= len(t) {
		return 0, false
	}
	return t[i], true
}

// Last returns the index of the final entry of the table.
func (t Table) Last() int {
	return len(t) - 1
}

// Advance implements the default failure routine: it increments the
// backoff index and asks f to retry after the delay found at the new
// index, or to abort if the table is exhausted.
func (t Table) Advance(index *int, f *Failure) {
	*index++
	if d, ok := t.At(*index); ok {
		f.RetryIn(d)
	} else {
		f.Abort()
	}
}
