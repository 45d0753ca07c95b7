// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gsclient

import (
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/gogama/gsclient/request"
	"github.com/gogama/gsclient/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"
)

const testBaseURL = "https://test-api[id].example.com"

// newTestClient returns a client over two load balancers with a fast
// backoff table. The client is shut down when the test ends.
func newTestClient(t *testing.T, doer HTTPDoer) *Client {
	c := &Client{
		BaseURL:       testBaseURL,
		LoadBalancers: 2,
		HTTPDoer:      doer,
		Backoff:       retry.NewTable(time.Millisecond, time.Millisecond, time.Millisecond, time.Millisecond),
		Logger:        zaptest.NewLogger(t),
		Events: EventOptions{
			Timeout:        time.Second,
			Hold:           5 * time.Millisecond,
			AdminHold:      5 * time.Millisecond,
			RecoverTimeout: 500 * time.Millisecond,
			ResumeJitter:   -1,
		},
	}
	t.Cleanup(c.Shutdown)
	return c
}

// drainUntil drains the client's callback queue until cond holds.
func drainUntil(t *testing.T, c *Client, cond func() bool) {
	assert.Eventually(t, func() bool {
		c.Callbacks().Drain()
		return cond()
	}, 5*time.Second, time.Millisecond)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func refused() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
}

type mockHTTPDoer struct {
	mock.Mock
}

func newMockHTTPDoer(t *testing.T) *mockHTTPDoer {
	m := &mockHTTPDoer{}
	m.Test(t)
	return m
}

func (m *mockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	err := args.Error(1)
	if resp, ok := args.Get(0).(*http.Response); ok {
		return resp, err
	}
	return nil, err
}

type mockHTTPDoerWithCloseIdleConnections struct {
	mockHTTPDoer
}

func (m *mockHTTPDoerWithCloseIdleConnections) CloseIdleConnections() {
	m.Called()
}

// scriptDoer answers each request with a function of the request, and
// records every request it sees.
type scriptDoer struct {
	lock     sync.Mutex
	script   func(n int, req *http.Request) (*http.Response, error)
	requests []*http.Request
}

func (d *scriptDoer) Do(req *http.Request) (*http.Response, error) {
	d.lock.Lock()
	n := len(d.requests)
	d.requests = append(d.requests, req)
	d.lock.Unlock()
	return d.script(n, req)
}

func (d *scriptDoer) count() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return len(d.requests)
}

func (d *scriptDoer) request(i int) *http.Request {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.requests[i]
}

// blockUntilDone waits for the request to be aborted and returns the
// context error, as a real transport does.
func blockUntilDone(req *http.Request) (*http.Response, error) {
	<-req.Context().Done()
	return nil, req.Context().Err()
}

type resultRecorder struct {
	lock    sync.Mutex
	results []*request.Result
}

func (rr *resultRecorder) callback() request.Callback {
	return func(r *request.Result) {
		rr.lock.Lock()
		defer rr.lock.Unlock()
		rr.results = append(rr.results, r)
	}
}

func (rr *resultRecorder) len() int {
	rr.lock.Lock()
	defer rr.lock.Unlock()
	return len(rr.results)
}

func (rr *resultRecorder) get(i int) *request.Result {
	rr.lock.Lock()
	defer rr.lock.Unlock()
	return rr.results[i]
}

type mockHandler struct {
	mock.Mock
}

func (m *mockHandler) Handle(evt Event, e *request.Execution) {
	m.Called(evt, e)
}

type trace struct {
	lock  sync.Mutex
	calls []string
}

func (tr *trace) get() []string {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	return append([]string(nil), tr.calls...)
}

func addTraceHandlers(g *HandlerGroup) *trace {
	tr := &trace{}
	h := HandlerFunc(func(evt Event, _ *request.Execution) {
		tr.lock.Lock()
		defer tr.lock.Unlock()
		tr.calls = append(tr.calls, evt.Name())
	})
	for _, evt := range Events() {
		g.PushBack(evt, h)
	}
	return tr
}

func newRequest(t *testing.T, method, url string, body interface{}) *request.Request {
	r, err := request.NewRequest(method, url, body)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

const (
	defaultWait  = 5 * time.Second
	pollInterval = time.Millisecond
)
