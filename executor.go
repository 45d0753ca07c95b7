// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gsclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gogama/gsclient/lb"
	"github.com/gogama/gsclient/request"
	"github.com/gogama/gsclient/timeout"
	"github.com/gogama/gsclient/transient"
	"go.uber.org/zap"
)

// obsoleteHeader is set by the server on responses from deprecated
// endpoints.
const obsoleteHeader = "X-Obsolete"

// An executor makes single request attempts. It is shared by the
// dispatcher and the runner, which own the retry loops.
type executor struct {
	doer           HTTPDoer
	handlers       *HandlerGroup
	timeoutPolicy  timeout.Policy
	credentials    *Credentials
	balancer       *lb.Balancer
	connectTimeout time.Duration
	logger         *zap.Logger
	verbose        bool
}

func (x *executor) start(r *request.Request, synchronous bool) *request.Execution {
	e := &request.Execution{
		Request:     r,
		Synchronous: synchronous,
	}
	x.handlers.run(BeforeExecutionStart, e)
	e.Start = time.Now()
	return e
}

func (x *executor) end(e *request.Execution, res *request.Result) {
	e.Result = res
	e.End = time.Now()
	x.handlers.run(AfterExecutionEnd, e)
}

// attempt makes one attempt of the execution's request. The attempt is
// aborted when ctx is done, when the request's cancellation flag is set,
// or when the timeout policy's deadline passes.
func (x *executor) attempt(ctx context.Context, e *request.Execution) *request.Result {
	r := e.Request
	e.HTTPRequest = nil
	e.Response = nil
	e.Err = nil
	e.Body = nil
	e.Result = nil
	if r.Absolute() {
		e.URL, e.LoadBalancer = r.URL, 0
	} else {
		e.URL, e.LoadBalancer = x.balancer.URL(r.URL)
	}

	if r.Cancelled() {
		e.Err = urlErrorWrap(r, e.URL, context.Canceled)
		return x.conclude(e)
	}

	ctx, cancel := x.attemptContext(ctx, e)
	defer cancel()

	body, isJSON, err := r.EncodedBody()
	if err != nil {
		e.Err = urlErrorWrap(r, e.URL, err)
		return x.conclude(e)
	}
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, r.EffectiveMethod(), e.URL, bodyReader)
	if err != nil {
		e.Err = urlErrorWrap(r, e.URL, err)
		return x.conclude(e)
	}
	for k, vs := range r.Header {
		req.Header[k] = append([]string(nil), vs...)
	}
	x.credentials.stamp(req.Header)
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", "gsclient")
	}
	if isJSON {
		req.Header.Set("Content-Type", "application/json")
	} else if r.BinaryUpload() && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	e.HTTPRequest = req
	x.handlers.run(BeforeAttempt, e)
	if x.verbose {
		x.logger.Debug("request attempt",
			zap.String("method", e.HTTPRequest.Method),
			zap.String("url", e.URL),
			zap.Int("attempt", e.Attempt),
			zap.Bool("synchronous", e.Synchronous))
	}

	e.Response, err = x.doer.Do(e.HTTPRequest)
	if err != nil {
		e.Response = nil
		e.Err = urlErrorWrap(r, e.URL, err)
	} else {
		x.readBody(e)
	}
	return x.conclude(e)
}

func (x *executor) attemptContext(ctx context.Context, e *request.Execution) (context.Context, context.CancelFunc) {
	r := e.Request
	ct := r.ConnectTimeout
	if ct <= 0 {
		ct = x.connectTimeout
	}
	ctx = withConnectTimeout(ctx, ct)

	var cancel context.CancelFunc
	if d := x.timeoutPolicy.Timeout(e); d > 0 {
		ctx, cancel = context.WithTimeout(ctx, d)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	if r.Cancel == nil {
		return ctx, cancel
	}
	stop := context.AfterFunc(r.Cancel.Context(), cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (x *executor) readBody(e *request.Execution) {
	defer func() {
		_ = e.Response.Body.Close()
	}()
	x.handlers.run(BeforeReadBody, e)
	body, err := io.ReadAll(e.Response.Body)
	if err != nil {
		e.Err = urlErrorWrap(e.Request, e.URL, err)
		return
	}
	e.Body = body
}

func (x *executor) conclude(e *request.Execution) *request.Result {
	if e.Timeout() {
		e.AttemptTimeouts++
		x.handlers.run(AfterAttemptTimeout, e)
	}
	e.Result = x.result(e)
	x.handlers.run(AfterAttempt, e)
	return e.Result
}

func (x *executor) result(e *request.Execution) *request.Result {
	code := transient.Categorize(e.Err)
	status := e.StatusCode()
	res := &request.Result{
		Kind:       request.KindOf(code, status),
		StatusCode: status,
		Transport:  code,
		Err:        e.Err,
		Header:     e.Header(),
	}

	if e.Response != nil && e.Response.Header.Get(obsoleteHeader) != "" {
		res.Obsolete = true
		x.logger.Warn("endpoint is obsolete and will be removed in a future version",
			zap.String("url", e.URL),
			zap.String("detail", e.Response.Header.Get(obsoleteHeader)))
	}

	r := e.Request
	switch {
	case e.Err == nil && r.BinaryDownload && res.Success():
		res.Binary = e.Body
		res.Payload = request.JSON{"url": e.URL}
	case e.Err == nil && r.BinaryUpload() && res.Success():
		res.Payload = request.JSON{"url": e.URL}
	default:
		res.Payload = request.ParsePayload(e.Body)
	}
	return res
}

func urlErrorWrap(r *request.Request, u string, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}

	return &url.Error{
		Op:  urlErrorOp(r.EffectiveMethod()),
		URL: u,
		Err: err,
	}
}

// urlErrorOp is lifted verbatim from net/http/client.go
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
