// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core types Request (describes a call to the
game-services API), Result (describes its outcome) and Execution
(describes the attempts made to carry out a Request).

Create a request and hand it to a dispatcher:

	r, err := request.NewRequest("", request.NewURL("/v1/gamer/profile").String(), nil)
	...
	r.Callback = func(res *request.Result) {
		...
	}
	client.Dispatcher().Enqueue(r)

A Request is owned by the transport from submission until its Callback
fires, and the Callback fires exactly once. Retries reuse the request's
fields, so a Request must never be submitted twice.

A Result always carries a non-nil JSON payload, even when the call
failed before a response was received. Its Kind classifies the outcome
(OK, TransportError, ServerError, PermanentError, CancellationError or
LogicError) and its Transport field carries the low-level transport
error code, if any.

A Flag is a cancellation flag which may be shared between goroutines.
Setting it aborts the in-flight attempt of every request carrying it,
and such requests are never retried.
*/
package request
