// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package callback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWatch(t *testing.T) {
	t.Run("Bad Args", func(t *testing.T) {
		assert.PanicsWithValue(t, "gsclient/callback: watchdog period must be positive", func() {
			Watch(&Queue{}, 0, 0, nil)
		})
	})
	t.Run("never polled", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		var q Queue
		w := Watch(&q, 5*time.Millisecond, 0, zap.New(core))
		assert.Eventually(t, func() bool {
			return logs.FilterLevelExact(zapcore.ErrorLevel).Len() > 0
		}, time.Second, time.Millisecond)
		time.Sleep(30 * time.Millisecond)
		w.Stop()
		w.Stop()
		assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	})
	t.Run("polled", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		var q Queue
		q.Drain()
		w := Watch(&q, 5*time.Millisecond, 0, zap.New(core))
		time.Sleep(30 * time.Millisecond)
		w.Stop()
		assert.Equal(t, 0, logs.Len())
	})
	t.Run("backlog", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		var q Queue
		q.Pop()
		for i := 0; i < 3; i++ {
			q.PushFunc(func() {})
		}
		w := Watch(&q, 5*time.Millisecond, 2, zap.New(core))
		assert.Eventually(t, func() bool {
			return logs.FilterMessage("callback queue backlog").Len() > 0
		}, time.Second, time.Millisecond)
		time.Sleep(30 * time.Millisecond)
		w.Stop()
		assert.Equal(t, 1, logs.FilterMessage("callback queue backlog").Len())
		assert.Equal(t, 3, q.Len())
	})
}
