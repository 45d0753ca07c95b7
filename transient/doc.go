// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies errors from request attempts into
// low-level transport error codes. The retry machinery uses the codes
// to tell non-permanent failures, which are worth retrying against
// another load balancer, from permanent ones and from explicit
// cancellation.
package transient
