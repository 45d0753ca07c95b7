// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"syscall"
	"testing"
	"time"

	"github.com/gogama/gsclient/request"
	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	a := DefaultPolicy.Timeout(&request.Execution{Request: &request.Request{}})
	assert.Equal(t, time.Duration(0), a)
	b := DefaultPolicy.Timeout(&request.Execution{Request: &request.Request{Timeout: 620 * time.Second}})
	assert.Equal(t, 620*time.Second, b)
}

func TestInfinite(t *testing.T) {
	a := Infinite.Timeout(&request.Execution{})
	assert.Equal(t, time.Duration(0), a)
	b := Infinite.Timeout(&request.Execution{AttemptTimeouts: 10, Err: syscall.ETIMEDOUT})
	assert.Equal(t, time.Duration(0), b)
}

func TestFixed(t *testing.T) {
	p := Fixed(33 * time.Hour)
	a := p.Timeout(&request.Execution{})
	assert.Equal(t, 33*time.Hour, a)
	b := p.Timeout(&request.Execution{AttemptTimeouts: 1, Err: syscall.ETIMEDOUT, Attempt: 1})
	assert.Equal(t, 33*time.Hour, b)
}

func TestFromRequest(t *testing.T) {
	t.Run("Bad Args", func(t *testing.T) {
		assert.PanicsWithValue(t, "gsclient/timeout: nil fallback", func() { FromRequest(nil) })
	})
	p := FromRequest(Fixed(10 * time.Second))
	t.Run("no request", func(t *testing.T) {
		assert.Equal(t, 10*time.Second, p.Timeout(&request.Execution{}))
	})
	t.Run("request without timeout", func(t *testing.T) {
		assert.Equal(t, 10*time.Second, p.Timeout(&request.Execution{Request: &request.Request{}}))
	})
	t.Run("request timeout wins", func(t *testing.T) {
		e := &request.Execution{Request: &request.Request{Timeout: time.Second}}
		assert.Equal(t, time.Second, p.Timeout(e))
	})
	t.Run("negative request timeout ignored", func(t *testing.T) {
		e := &request.Execution{Request: &request.Request{Timeout: -time.Second}}
		assert.Equal(t, 10*time.Second, p.Timeout(e))
	})
}
