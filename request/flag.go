// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"sync"
)

// A Flag is a one-way cancellation flag which may be set from any
// goroutine. Once set it stays set.
//
// The zero value is not usable; create flags with NewFlag.
type Flag struct {
	once   sync.Once
	ctx    context.Context
	cancel context.CancelFunc
}

// NewFlag returns a new, unset flag.
func NewFlag() *Flag {
	ctx, cancel := context.WithCancel(context.Background())
	return &Flag{ctx: ctx, cancel: cancel}
}

// Set sets the flag. Any attempt running under the flag's context is
// aborted.
func (f *Flag) Set() {
	f.once.Do(f.cancel)
}

// IsSet reports whether the flag has been set.
func (f *Flag) IsSet() bool {
	return f.ctx.Err() != nil
}

// Done returns a channel which is closed when the flag is set.
func (f *Flag) Done() <-chan struct{} {
	return f.ctx.Done()
}

// Context returns a context which is cancelled when the flag is set.
func (f *Flag) Context() context.Context {
	return f.ctx
}
