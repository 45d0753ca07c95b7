// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// A Code is the low-level transport error code of a particular error,
// as reported by function Categorize.
//
// The codes Timeout, CouldNotConnect and EmptyResponse form the fixed
// non-permanent set: a retry after encountering them, possibly against
// another load balancer, has some prospect of success. Cancelled marks
// an explicit abort and is never retried. Other is any other transport
// failure.
type Code int

const (
	// None indicates there was no transport error.
	None Code = iota
	// Timeout indicates a client-side timeout, either while connecting
	// or while waiting for the response.
	//
	// Function Categorize returns Timeout if the error or any of its
	// wrapped causes has a Timeout() function that reports true, or is
	// context.DeadlineExceeded.
	Timeout
	// CouldNotConnect indicates the connection to the remote host could
	// not be established, for example because the remote host refused
	// it (ECONNREFUSED) or was unreachable.
	//
	// Connection refusal is classified as non-permanent because it
	// happens while the service on the remote host is restarting.
	CouldNotConnect
	// EmptyResponse indicates the remote host closed the connection
	// without sending a response, either cleanly (EOF) or with a reset
	// (ECONNRESET).
	EmptyResponse
	// Cancelled indicates the attempt was aborted through its
	// cancellation flag or because the transport shut down.
	Cancelled
	// Other indicates any other transport error, for example a DNS
	// resolution failure.
	Other
)

var codeNames = []string{
	"None",
	"Timeout",
	"CouldNotConnect",
	"EmptyResponse",
	"Cancelled",
	"Other",
}

// String returns the name of the code.
func (c Code) String() string {
	if c < 0 || int(c) >= len(codeNames) {
		return fmt.Sprintf("Code(%d)", int(c))
	}
	return codeNames[c]
}

// Nonpermanent indicates whether the code belongs to the fixed
// non-permanent set.
func (c Code) Nonpermanent() bool {
	return c == Timeout || c == CouldNotConnect || c == EmptyResponse
}

// Categorize returns the transport error code of the given error. A nil
// error produces None.
//
// In assessing the error, Categorize looks at wrapped cause errors
// contained within err, not just err itself. Cancellation is checked
// first, so an attempt aborted while it was timing out reports
// Cancelled.
func Categorize(err error) Code {
	if err == nil {
		return None
	}

	if errors.Is(err, context.Canceled) {
		return Cancelled
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}

	if isTimeout(err) {
		return Timeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.EHOSTUNREACH, syscall.ENETUNREACH:
			return CouldNotConnect
		case syscall.ECONNRESET:
			return EmptyResponse
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return Other
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return CouldNotConnect
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return EmptyResponse
	}

	return Other
}

type hasTimeout interface {
	Timeout() bool
}

func isTimeout(err error) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if t, ok := err.(hasTimeout); ok && t.Timeout() {
			return true
		}
	}
	return false
}
