// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package callback

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBacklog is the queue length above which a running Watchdog
// warns that callbacks are piling up.
const DefaultBacklog = 100

// A Watchdog observes a Queue during development and complains, through
// the logger, when the application never drives the idle tick or lets
// callbacks pile up. It never changes the queue's behaviour.
type Watchdog struct {
	queue   *Queue
	after   time.Duration
	backlog int
	logger  *zap.Logger
	limiter *rate.Limiter

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Watch starts a watchdog over q. If neither Pop nor Drain has been
// called once after has elapsed, an error is logged, once. From then
// on, the queue length is checked every after, and a warning is logged
// when it exceeds backlog, at most once per minute.
//
// A backlog of zero or less selects DefaultBacklog. A nil logger
// discards the output.
//
// Watch panics if after is not positive.
func Watch(q *Queue, after time.Duration, backlog int, logger *zap.Logger) *Watchdog {
	if after <= 0 {
		panic("gsclient/callback: watchdog period must be positive")
	}
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watchdog{
		queue:   q,
		after:   after,
		backlog: backlog,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(time.Minute), 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Stop stops the watchdog and waits for its goroutine to exit. It is
// safe to call Stop more than once.
func (w *Watchdog) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
	<-w.done
}

func (w *Watchdog) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.after)
	defer ticker.Stop()

	complained := false
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
		}

		if !w.queue.Polled() {
			if !complained {
				complained = true
				w.logger.Error("callback queue has never been polled; call Drain from the application loop",
					zap.Duration("after", w.after),
					zap.Int("pending", w.queue.Len()))
			}
			continue
		}

		if n := w.queue.Len(); n > w.backlog && w.limiter.Allow() {
			w.logger.Warn("callback queue backlog",
				zap.Int("pending", n),
				zap.Int("threshold", w.backlog))
		}
	}
}
