// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gsclient

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogama/gsclient/callback"
	"github.com/gogama/gsclient/lb"
	"github.com/gogama/gsclient/request"
	"github.com/gogama/gsclient/retry"
	"github.com/gogama/gsclient/timeout"
	"go.uber.org/zap"
)

// A Client is the transport runtime for one game-services session. Its
// zero value is a valid configuration talking to the Sandbox
// environment.
//
// A Client owns an asynchronous Dispatcher, a synchronous Runner, the
// long-poll event loops and the callback Queue through which every
// asynchronous result is delivered. The application must drain that
// queue regularly from its main loop:
//
//	client.Callbacks().Drain()
//
// Set the exported fields before the client is first used; the client
// initializes itself lazily on first use and reads them only then.
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	// BaseURL is the base URL template. The placeholder "[id]" is
	// replaced by the two-digit load balancer ID.
	//
	// If BaseURL is empty, Sandbox is used and LoadBalancers is
	// ignored.
	BaseURL string
	// LoadBalancers is the number of load balancers behind BaseURL.
	// Values below 1 are treated as 1.
	LoadBalancers int
	// Credentials are stamped into the headers of every attempt. If
	// nil, no credential headers are sent.
	Credentials *Credentials
	// HTTPDoer specifies the mechanics of sending HTTP requests and
	// receiving responses.
	//
	// If HTTPDoer is nil, the doer returned by NewHTTPDoer is used.
	HTTPDoer HTTPDoer
	// TimeoutPolicy specifies how to set the overall timeout of
	// individual attempts.
	//
	// If TimeoutPolicy is nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy
	// ConnectTimeout bounds connection establishment for requests which
	// do not set their own. Zero means DefaultConnectTimeout. It only
	// takes effect with the default HTTPDoer.
	ConnectTimeout time.Duration
	// Backoff is the backoff table shared by the dispatcher and the
	// runner. If nil, retry.DefaultTable is used.
	Backoff retry.Table
	// FailureDelegate, if set, is consulted by the dispatcher instead of
	// the backoff table when a request fails in a retriable way. Use
	// SetFailureDelegate to change it after the client is in use.
	FailureDelegate retry.FailureDelegate
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during a request execution.
	Handlers *HandlerGroup
	// Metrics, if set, collects Prometheus metrics about the client.
	Metrics *Metrics
	// Logger receives the client's log output. If nil, nothing is
	// logged.
	Logger *zap.Logger
	// Verbose logs every attempt at debug level.
	Verbose bool
	// Events configures the long-poll event loops.
	Events EventOptions
	// Watchdog, if positive, starts a callback queue watchdog with this
	// period. Use it during development.
	Watchdog time.Duration
	// OnNetworkStateChange, if set, is called on the goroutine draining
	// the callback queue whenever the network state flips.
	OnNetworkStateChange func(up bool)

	initOnce     sync.Once
	shutdownOnce sync.Once
	ctx          context.Context
	cancel       context.CancelFunc
	logger       *zap.Logger
	x            *executor
	table        retry.Table
	queue        callback.Queue
	dispatcher   *Dispatcher
	runner       *Runner
	watchdog     *callback.Watchdog
	resume       *broadcast
	suspended    atomic.Bool
	networkUp    atomic.Bool
	closed       atomic.Bool

	eventsLock sync.Mutex
	domains    map[string]*eventLoop
}

func (c *Client) init() {
	c.initOnce.Do(func() {
		c.logger = c.Logger
		if c.logger == nil {
			c.logger = zap.NewNop()
		}
		c.ctx, c.cancel = context.WithCancel(context.Background())
		c.table = c.Backoff
		if len(c.table) == 0 {
			c.table = retry.DefaultTable
		}

		template, count := c.BaseURL, c.LoadBalancers
		if template == "" {
			template, count = Sandbox.BaseURL, Sandbox.LoadBalancers
		}
		if count < 1 {
			count = 1
		}

		handlers := c.Handlers
		if c.Metrics != nil {
			handlers = handlers.clone()
			c.Metrics.install(handlers)
			c.Metrics.bindQueue(&c.queue)
		}
		timeoutPolicy := c.TimeoutPolicy
		if timeoutPolicy == nil {
			timeoutPolicy = timeout.DefaultPolicy
		}

		c.x = &executor{
			doer:           c.doer(),
			handlers:       handlers,
			timeoutPolicy:  timeoutPolicy,
			credentials:    c.Credentials,
			balancer:       lb.New(template, count),
			connectTimeout: c.ConnectTimeout,
			logger:         c.logger,
			verbose:        c.Verbose,
		}
		c.resume = newBroadcast()
		c.networkUp.Store(true)
		c.domains = make(map[string]*eventLoop)
		c.dispatcher = newDispatcher(c)
		c.runner = &Runner{client: c}
		if c.Watchdog > 0 {
			c.watchdog = callback.Watch(&c.queue, c.Watchdog, 0, c.logger)
		}
	})
}

func (c *Client) doer() HTTPDoer {
	if c.HTTPDoer != nil {
		return c.HTTPDoer
	}
	doer, err := NewHTTPDoer()
	if err != nil {
		c.logger.Warn("falling back to the default HTTP client", zap.Error(err))
		return http.DefaultClient
	}
	return doer
}

// Callbacks returns the queue through which asynchronous results and
// events are delivered. Drain it once per iteration of the application
// loop.
func (c *Client) Callbacks() *callback.Queue {
	c.init()
	return &c.queue
}

// Dispatcher returns the client's asynchronous request dispatcher.
func (c *Client) Dispatcher() *Dispatcher {
	c.init()
	return c.dispatcher
}

// Runner returns the client's synchronous request runner.
func (c *Client) Runner() *Runner {
	c.init()
	return c.runner
}

// Enqueue is shorthand for c.Dispatcher().Enqueue(r).
func (c *Client) Enqueue(r *request.Request) {
	c.Dispatcher().Enqueue(r)
}

// Perform is shorthand for c.Runner().Perform(r).
func (c *Client) Perform(r *request.Request) *request.Result {
	return c.Runner().Perform(r)
}

// SetFailureDelegate replaces the dispatcher's failure delegate. A nil
// delegate restores the backoff table.
func (c *Client) SetFailureDelegate(d retry.FailureDelegate) {
	c.Dispatcher().setDelegate(d)
}

// Closed reports whether Shutdown has been called.
func (c *Client) Closed() bool {
	return c.closed.Load()
}

// Shutdown stops the client. It aborts every in-flight attempt, stops
// and joins every event loop and the dispatcher worker, and discards
// queued requests and pending callbacks without invoking them.
//
// After Shutdown, enqueued requests are answered with a LogicError
// result, synchronous calls return a LogicError result without network
// I/O, and listener registration fails with ErrClosed. Shutdown is
// idempotent.
func (c *Client) Shutdown() {
	c.init()
	c.shutdownOnce.Do(func() {
		c.closed.Store(true)
		c.cancel()
		c.StopEventListening()
		c.dispatcher.Shutdown()
		if c.watchdog != nil {
			c.watchdog.Stop()
		}
		if n := c.queue.DiscardAll(); n > 0 {
			c.logger.Debug("discarded pending callbacks", zap.Int("count", n))
		}
		if ic, ok := c.x.doer.(IdleCloser); ok {
			ic.CloseIdleConnections()
		}
		c.logger.Info("client shut down")
	})
}
