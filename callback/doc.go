// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package callback marshals the results of background work onto a
// single application goroutine.
//
// The dispatcher and the event loops run on their own goroutines, but
// callers expect their callbacks on the goroutine that runs the
// application loop. They therefore push envelopes onto a Queue, and
// the application calls Drain once per frame:
//
//	for running {
//		...
//		queue.Drain()
//	}
//
// In development builds a Watchdog can be attached to the queue to
// report an application that forgets to drain it.
package callback
