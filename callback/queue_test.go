// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package callback

import (
	"sync"
	"testing"

	"github.com/gogama/gsclient/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var q Queue
		assert.False(t, q.Polled())
		assert.False(t, q.Pop())
		assert.True(t, q.Polled())
		assert.Equal(t, 0, q.Drain())
		assert.Equal(t, 0, q.Len())
	})
	t.Run("FIFO", func(t *testing.T) {
		var q Queue
		var order []int
		for i := 0; i < 3; i++ {
			i := i
			q.Push(func(r *request.Result) {
				order = append(order, i)
				assert.Equal(t, request.OK, r.Kind)
			}, request.NewResult(request.OK))
		}
		require.Equal(t, 3, q.Len())
		assert.True(t, q.Pop())
		assert.Equal(t, []int{0}, order)
		assert.Equal(t, 2, q.Drain())
		assert.Equal(t, []int{0, 1, 2}, order)
		assert.False(t, q.Pop())
	})
	t.Run("nil callbacks ignored", func(t *testing.T) {
		var q Queue
		q.Push(nil, request.NewResult(request.OK))
		q.PushFunc(nil)
		assert.Equal(t, 0, q.Len())
	})
	t.Run("callback pushes", func(t *testing.T) {
		var q Queue
		n := 0
		q.PushFunc(func() {
			n++
			q.PushFunc(func() { n++ })
		})
		assert.Equal(t, 2, q.Drain())
		assert.Equal(t, 2, n)
	})
	t.Run("DiscardAll", func(t *testing.T) {
		var q Queue
		called := false
		q.PushFunc(func() { called = true })
		q.PushFunc(func() { called = true })
		assert.Equal(t, 2, q.DiscardAll())
		assert.Equal(t, 0, q.Drain())
		assert.False(t, called)
	})
	t.Run("concurrent producers", func(t *testing.T) {
		var q Queue
		var wg sync.WaitGroup
		count := 0
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					q.PushFunc(func() { count++ })
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 400, q.Drain())
		assert.Equal(t, 400, count)
	})
}
