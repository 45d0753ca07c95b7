// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry decides whether failed request attempts are retried,
// and how long to wait before retrying.
//
// The decision is driven by the request's retry policy. ForPolicy maps
// each request.RetryPolicy to a Decider built from the composable
// deciders in this package:
//
//	request.Never               no retry
//	request.AllErrors           NotCancelled.And(AnyError)
//	request.NonpermanentErrors  NotCancelled.And(Nonpermanent)
//
// The wait is taken from a backoff Table indexed by the number of
// consecutive failures. Asynchronous requests may instead be handed to
// a FailureDelegate, which inspects a Failure and calls either Abort or
// RetryIn on it.
package retry
